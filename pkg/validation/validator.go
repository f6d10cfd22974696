package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// OrderStatuses are the storefront order states the risk service accepts
var OrderStatuses = []string{"pending", "confirmed", "processing", "shipped", "delivered", "cancelled", "rejected", "returned"}

var (
	reviewDecisions = []string{"dispatch", "verify", "reject"}
	riskLevels      = []string{"low", "medium", "high"}
)

// Get returns the shared validator with custom tags registered
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New()

		// Report JSON field names so errors match request bodies.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})

		_ = validate.RegisterValidation("order_status", oneOfValidator(OrderStatuses))
		_ = validate.RegisterValidation("review_decision", oneOfValidator(reviewDecisions))
		_ = validate.RegisterValidation("risk_level", oneOfValidator(riskLevels))
	})
	return validate
}

func oneOfValidator(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, a := range allowed {
			if value == a {
				return true
			}
		}
		return false
	}
}

// ValidateStruct validates s and returns a *ValidationError with per-field messages
func ValidateStruct(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError(verrs)
	}
	return err
}
