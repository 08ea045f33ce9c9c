package catalog

import (
	"errors"
	"reflect"
	"strings"

	domain "github.com/Zhima-Mochi/notafiscal-console/internal/domain/catalog"
	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/failure"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// validateDraft reports every violated field of d at once.
func validateDraft(v *validator.Validate, d domain.Draft) error {
	err := v.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return failure.Validation(err.Error())
	}

	violations := make([]failure.Violation, 0, len(verrs))
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, failure.Violation{
			Field: fe.Field(),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
		fields = append(fields, fe.Field())
	}
	return failure.Validation("invalid product: check "+strings.Join(fields, ", "), violations...)
}
