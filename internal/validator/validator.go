// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"gastos/internal/calendar"
	"gastos/internal/models"
	"gastos/internal/recurrence"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators on v.
func RegisterOn(v *validator.Validate) {
	// Lets numeric tags (required, gt, gte) apply to decimal amounts.
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	_ = v.RegisterValidation("iso_date", validateISODate)
	_ = v.RegisterValidation("period_key", validatePeriodKey)
	_ = v.RegisterValidation("recurrence_kind", validateRecurrenceKind)
	_ = v.RegisterValidation("decimal_positive", validateDecimalPositive)
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := calendar.Parse(fl.Field().String())
	return err == nil
}

func validatePeriodKey(fl validator.FieldLevel) bool {
	_, err := calendar.ParsePeriod(fl.Field().String())
	return err == nil
}

func validateRecurrenceKind(fl validator.FieldLevel) bool {
	_, err := recurrence.RuleFor(models.RecurrenceKind(fl.Field().String()))
	return err == nil
}

// validateDecimalPositive sees the float64 produced by decimalValue.
func validateDecimalPositive(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		return f.Float() > 0
	}
	return false
}
