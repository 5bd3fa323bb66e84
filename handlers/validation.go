package handlers

import (
	"errors"

	"saferoute-api/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs the custom binding tags used by request
// structs. It must run before the router serves traffic.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not validator/v10")
	}
	if err := v.RegisterValidation("hazardtype", validateHazardType); err != nil {
		return err
	}
	return v.RegisterValidation("hazardstatus", validateHazardStatus)
}

func validateHazardType(fl validator.FieldLevel) bool {
	_, err := models.ParseHazardType(fl.Field().String())
	return err == nil
}

func validateHazardStatus(fl validator.FieldLevel) bool {
	_, err := models.ParseHazardStatus(fl.Field().String())
	return err == nil
}
