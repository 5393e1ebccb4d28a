package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"

	"fieldsync/internal/domain"
)

var (
	nigerianIntl  = regexp.MustCompile(`^\+234\d{10}$`)
	nigerianLocal = regexp.MustCompile(`^\d{11}$`)
	phoneNoise    = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

	latBound = decimal.NewFromInt(90)
	lngBound = decimal.NewFromInt(180)
)

// Validator wraps go-playground/validator with the rules report and profile
// forms need, and turns the first failure into a *domain.ValidationError.
type Validator struct {
	v      *validator.Validate
	region string
}

func New(phoneRegion string) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	val := &Validator{v: v, region: strings.ToUpper(phoneRegion)}
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return val.ValidPhone(fl.Field().String())
	})
	v.RegisterValidation("lat", func(fl validator.FieldLevel) bool {
		return validCoordinate(fl.Field().String(), latBound)
	})
	v.RegisterValidation("lng", func(fl validator.FieldLevel) bool {
		return validCoordinate(fl.Field().String(), lngBound)
	})
	v.RegisterValidation("reportstatus", func(fl validator.FieldLevel) bool {
		s := domain.ReportStatus(fl.Field().String())
		return s.IsStandard() || s == domain.StatusOther
	})
	return val
}

// ValidPhone accepts Nigerian numbers in +234XXXXXXXXXX or 11-digit local
// form, and anything libphonenumber considers valid for the region.
func (val *Validator) ValidPhone(s string) bool {
	s = phoneNoise.Replace(strings.TrimSpace(s))
	if s == "" {
		return false
	}
	if nigerianIntl.MatchString(s) || nigerianLocal.MatchString(s) {
		return true
	}
	num, err := libphonenumber.Parse(s, val.region)
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(num)
}

func validCoordinate(s string, bound decimal.Decimal) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return d.Abs().LessThanOrEqual(bound)
}

// Struct validates s and returns nil or a *domain.ValidationError for the
// first failing field.
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &domain.ValidationError{Message: err.Error()}
	}
	fe := fieldErrs[0]
	return &domain.ValidationError{Field: jsonName(s, fe.StructField()), Message: message(fe)}
}

// jsonName reports the field's wire name so the UI can highlight it.
func jsonName(s interface{}, field string) string {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return field
	}
	sf, ok := t.FieldByName(field)
	if !ok {
		return field
	}
	if name := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]; name != "" && name != "-" {
		return name
	}
	return field
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", label)
	case "required_if":
		if fe.StructField() == "CustomStatus" {
			return "Please specify the custom status."
		}
		return fmt.Sprintf("%s is required.", label)
	case "phone":
		return "Please enter a valid phone number."
	case "email":
		return "Please enter a valid email address."
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format.", label)
	case "lat":
		return "Latitude must be a number between -90 and 90."
	case "lng":
		return "Longitude must be a number between -180 and 180."
	case "reportstatus":
		return "Please choose a valid status."
	case "min":
		if fe.Kind() == reflect.String {
			if fe.Param() == "1" {
				return fmt.Sprintf("%s cannot be empty.", label)
			}
			return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must have at least %s entries.", label, fe.Param())
	case "max":
		if fe.StructField() == "Images" {
			return fmt.Sprintf("You can attach at most %s images.", fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}
