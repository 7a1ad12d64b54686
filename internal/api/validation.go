package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hackgods/clinic-booking/internal/apperr"
	"github.com/hackgods/clinic-booking/internal/verification"
)

const maxBodyBytes = 1 << 20

// newValidator returns a validator that reports JSON field names and knows
// the clinicphone tag.
func newValidator(phones *verification.PhonePolicy) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("clinicphone", func(fl validator.FieldLevel) bool {
		return phones.Valid(fl.Field().String())
	})
	return v
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("could not parse JSON body")
	}
	if err := v.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("invalid request")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return apperr.Validation("%s is required", fe.Field())
	case "clinicphone":
		return apperr.Validation("invalid phone number")
	case "email":
		return apperr.Validation("invalid email address")
	case "len", "max", "min":
		return apperr.Validation("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	default:
		return apperr.Validation("%s is invalid", fe.Field())
	}
}
