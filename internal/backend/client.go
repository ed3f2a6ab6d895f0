// Package backend talks to the supply-chain REST API and implements the
// domain Store ports on top of it.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pharmaflow/pharmaflow/internal/shared"
)

// maxPages bounds how many paginated list pages are followed.
const maxPages = 50

// Observer receives one call per backend round trip. status is 0 when no
// response arrived.
type Observer interface {
	ObserveBackendCall(method, resource string, status int, elapsed time.Duration)
}

// Config configures Client.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Observer Observer
}

// Client is a thin REST client. Every call is authorised with the token of the
// session passed in.
type Client struct {
	http     *resty.Client
	base     *url.URL
	logger   *slog.Logger
	observer Observer
}

// New constructs a Client.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Host == "" {
		base = nil
	}
	return &Client{http: httpClient, base: base, logger: logger, observer: cfg.Observer}
}

// request builds an authorised request. Anonymous or invalidated sessions
// fail before anything is sent.
func (c *Client) request(ctx context.Context, sess *shared.Session) (*resty.Request, error) {
	token := sess.Token()
	if token == "" {
		return nil, shared.Auth("")
	}
	return c.http.R().SetContext(ctx).SetAuthToken(token), nil
}

// do executes method on path and decodes a 2xx body into out when non-nil.
func (c *Client) do(ctx context.Context, sess *shared.Session, method, path string, query map[string]string, body, out any) error {
	return c.send(ctx, sess, method, path, resourceOf(path), query, body, out)
}

// send executes method on path, which is relative to the base URL or an
// absolute URL. resource labels the call for the observer.
func (c *Client) send(ctx context.Context, sess *shared.Session, method, path, resource string, query map[string]string, body, out any) error {
	req, err := c.request(ctx, sess)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}
	start := time.Now()
	resp, err := req.Execute(method, path)
	c.observe(method, resource, resp, err, time.Since(start))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return shared.Transport(0, "", ctxErr)
		}
		c.logger.Warn("backend call failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Any("error", err))
		return shared.Transport(0, "", err)
	}
	if err := c.checkStatus(sess, method, path, resp); err != nil {
		return err
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return shared.Transport(resp.StatusCode(), "", fmt.Errorf("decode %s %s: %w", method, path, err))
	}
	return nil
}

func (c *Client) observe(method, resource string, resp *resty.Response, err error, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	status := 0
	if err == nil && resp != nil {
		status = resp.StatusCode()
	}
	c.observer.ObserveBackendCall(method, resource, status, elapsed)
}

// resourceOf keeps the first path segment so ids never become label values.
func resourceOf(path string) string {
	trimmed := strings.Trim(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}

// checkStatus maps non-2xx responses onto the error taxonomy. A 401 also
// invalidates the session.
func (c *Client) checkStatus(sess *shared.Session, method, path string, resp *resty.Response) error {
	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		return nil
	}
	detail, fields := parseErrorBody(resp.Body())
	switch status {
	case http.StatusUnauthorized:
		c.logger.Info("backend rejected session token", slog.String("path", path))
		sess.Invalidate()
		return shared.Auth("")
	case http.StatusBadRequest:
		if len(fields) == 0 {
			fields = map[string]string{"": firstNonEmpty(detail, "the request was rejected")}
		}
		verr := shared.ValidationFields(fields)
		verr.Status = status
		return verr
	case http.StatusNotFound:
		return &shared.Error{Kind: shared.ErrNotFound, Message: firstNonEmpty(detail, "not found"), Status: status}
	case http.StatusConflict:
		return &shared.Error{Kind: shared.ErrConflict, Message: firstNonEmpty(detail, "conflict"), Status: status}
	default:
		if detail == "" {
			for _, k := range sortedKeys(fields) {
				detail = fields[k]
				break
			}
		}
		c.logger.Warn("backend returned error",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status))
		return shared.Transport(status, detail, fmt.Errorf("%s %s: status %d", method, path, status))
	}
}

// parseErrorBody extracts a DRF-style error body: {"detail": "..."} or
// {"field": ["msg", ...]} or {"non_field_errors": [...]}.
func parseErrorBody(body []byte) (string, map[string]string) {
	if len(body) == 0 {
		return "", nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", nil
	}
	var detail string
	fields := make(map[string]string)
	for key, value := range raw {
		msg := errorText(value)
		if msg == "" {
			continue
		}
		switch key {
		case "detail", "message", "error":
			detail = msg
		case "non_field_errors":
			fields[""] = msg
		default:
			fields[key] = msg
		}
	}
	return detail, fields
}

func errorText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

// page is the DRF pagination envelope.
type page struct {
	Next    *string         `json:"next"`
	Results json.RawMessage `json:"results"`
}

// list fetches every page of a collection. Bodies may be a plain array or a
// paginated envelope whose next link is followed as given, so page-number and
// limit/offset backends both work. A collection longer than maxPages fails as
// a whole instead of coming back short.
func list[T any](ctx context.Context, c *Client, sess *shared.Session, path string, query map[string]string) ([]T, error) {
	out := make([]T, 0)
	resource := resourceOf(path)
	target, params := path, query
	for pageNo := 1; pageNo <= maxPages; pageNo++ {
		var raw json.RawMessage
		if err := c.send(ctx, sess, resty.MethodGet, target, resource, params, nil, &raw); err != nil {
			return nil, err
		}
		items, next, err := decodeList[T](raw)
		if err != nil {
			return nil, shared.Transport(http.StatusOK, "", fmt.Errorf("decode list %s: %w", path, err))
		}
		out = append(out, items...)
		if next == "" {
			return out, nil
		}
		target, err = c.followLink(next)
		if err != nil {
			return nil, shared.Transport(http.StatusOK, "", fmt.Errorf("list %s: %w", path, err))
		}
		params = nil
	}
	c.logger.Warn("list exceeds page limit", slog.String("path", path), slog.Int("pages", maxPages))
	return nil, shared.Transport(http.StatusOK, "", fmt.Errorf("list %s: more than %d pages", path, maxPages))
}

// followLink turns a next link into an absolute URL on the configured backend.
// Its path and query are kept verbatim. The host is replaced because backends
// behind a proxy often advertise their internal address.
func (c *Client) followLink(next string) (string, error) {
	u, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("bad next link %q: %w", next, err)
	}
	if c.base == nil {
		if !u.IsAbs() {
			return "", fmt.Errorf("relative next link %q without a base URL", next)
		}
		return u.String(), nil
	}
	if !u.IsAbs() {
		u = c.base.ResolveReference(u)
	}
	u.Scheme = c.base.Scheme
	u.Host = c.base.Host
	u.User = c.base.User
	return u.String(), nil
}

// decodeList returns the items of one page and the next link, if any.
func decodeList[T any](raw json.RawMessage) ([]T, string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, "", nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var items []T
		err := json.Unmarshal(raw, &items)
		return items, "", err
	}
	var p page
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, "", err
	}
	if len(p.Results) == 0 {
		return nil, "", errors.New("list body has no results")
	}
	var items []T
	if err := json.Unmarshal(p.Results, &items); err != nil {
		return nil, "", err
	}
	if p.Next == nil {
		return items, "", nil
	}
	return items, strings.TrimSpace(*p.Next), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func itemPath(base string, id int64) string {
	return fmt.Sprintf("%s%d/", base, id)
}
