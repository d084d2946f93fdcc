// Package validate wires go-playground/validator into echo so handlers can
// call c.Validate on bound request structs.
package validate

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type echoValidator struct {
	validate *validator.Validate
}

// New returns an echo.Validator backed by struct tag validation.
func New() echo.Validator {
	return &echoValidator{validate: validator.New()}
}

func (ev *echoValidator) Validate(i interface{}) error {
	if err := ev.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
