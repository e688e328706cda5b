package validator

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// FieldError describe un campo que no pasó la validación.
type FieldError struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"param,omitempty"`
}

var validate = validator.New()

// ValidateStruct valida data y devuelve la lista de campos inválidos (vacía si todo está bien).
func ValidateStruct(data interface{}) []*FieldError {
	var out []*FieldError
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []*FieldError{{FailedField: "", Tag: "invalid"}}
	}
	for _, fe := range verrs {
		out = append(out, &FieldError{
			FailedField: fe.Field(),
			Tag:         fe.Tag(),
			Value:       fe.Param(),
		})
	}
	return out
}
