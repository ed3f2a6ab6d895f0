package stock

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/pharmaflow/pharmaflow/internal/shared"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(Date); ok && d.Valid {
			return d.Time
		}
		return nil
	}, Date{})
	return v
}

// validateInput checks a receipt before it is sent anywhere.
func validateInput(v *validator.Validate, in Input) error {
	problems := make(map[string]string)
	if err := v.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			problems[fe.Field()] = describeTag(fe)
		}
	}
	if in.DeliveryDate.Malformed() {
		problems["delivery_date"] = "must be a date (YYYY-MM-DD)"
	}
	if in.ExpiryDate.Malformed() {
		problems["expiry_date"] = "must be a date (YYYY-MM-DD)"
	}
	if in.QuantityOrdered.Malformed() {
		problems["quantity_ordered"] = "must be a non-negative number"
	}
	switch {
	case in.QuantityDelivered.Malformed():
		problems["quantity_delivered"] = "must be a non-negative number"
	case !in.QuantityDelivered.Valid:
		problems["quantity_delivered"] = "is required"
	}
	if in.UnitPrice.Malformed() {
		problems["unit_price"] = "must be a non-negative amount"
	}
	if in.DeliveryDate.Valid && in.ExpiryDate.Valid && !in.ExpiryDate.Time.After(in.DeliveryDate.Time) {
		problems["expiry_date"] = "must be after the delivery date"
	}
	if in.QuantityOrdered.Valid && in.QuantityDelivered.Valid && in.QuantityDelivered.Value > in.QuantityOrdered.Value {
		problems["quantity_delivered"] = "cannot exceed the quantity ordered"
	}
	if len(problems) > 0 {
		return shared.ValidationFields(problems)
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Struct {
			return "is required and must be valid"
		}
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	for i := 0; i < len(name); i++ {
		if name[i] == ',' {
			name = name[:i]
			break
		}
	}
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
