package backend

import (
	"errors"
	"strings"

	"github.com/pharmaflow/pharmaflow/internal/shared"
)

// notFoundAs rewrites a backend 404 with the resource name and id.
func notFoundAs(err error, resource string, id int64) error {
	if err == nil || !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	nf := shared.NotFound(resource, id)
	nf.Status = 404
	return nf
}

func containsUnique(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "unique") || strings.Contains(msg, "already exists")
}
