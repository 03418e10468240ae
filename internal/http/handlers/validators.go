package handlers

import (
	"caravanas/internal/utils"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding tags used by the models.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return utils.ValidCPF(fl.Field().String())
	})
}
