package services

import (
	"errors"

	"github.com/ichinomiya1038/sample-app/internal/api/validate"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid email/password combination")
)

var emailTaken = validate.ErrField{Field: "email", Msg: "has already been taken"}

// asErrs splits a validation result into field errors and any other error.
func asErrs(err error) (validate.Errs, error) {
	if err == nil {
		return nil, nil
	}
	var errs validate.Errs
	if errors.As(err, &errs) {
		return errs, nil
	}
	return nil, err
}
