package validation

import (
	"log"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterBindings installs the custom tags used in request structs:
// `gather_category` and `future`.
func RegisterBindings() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		log.Println("⚠️ gin validator engine is not go-playground/validator, custom tags skipped")
		return
	}
	if err := v.RegisterValidation("gather_category", categoryTag); err != nil {
		log.Printf("⚠️ register gather_category: %v", err)
	}
	if err := v.RegisterValidation("future", futureTag); err != nil {
		log.Printf("⚠️ register future: %v", err)
	}
}

func categoryTag(fl validator.FieldLevel) bool {
	return IsCategory(fl.Field().String())
}

func futureTag(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return t.After(time.Now())
}
