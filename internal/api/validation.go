package api

import (
	"sync"
	"time"

	"github.com/celerix-dev/celerix-pantry/pkg/schema"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidations adds the pantry tag validators to gin's binding engine.
// It is safe to call more than once.
func RegisterValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterValidation("inbound_method", func(fl validator.FieldLevel) bool {
			return schema.InboundMethod(fl.Field().String()).IsValid()
		})
		v.RegisterValidation("outbound_purpose", func(fl validator.FieldLevel) bool {
			return schema.OutboundPurpose(fl.Field().String()).IsValid()
		})
		v.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
			return validDate(fl.Field().String())
		})
	})
}

func validDate(s string) bool {
	_, err := time.Parse(schema.DateLayout, s)
	return err == nil
}
