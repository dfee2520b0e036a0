package domain

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	brandPattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-]{1,50}$`)
	modelPattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.]{0,50}$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("brand", func(fl validator.FieldLevel) bool {
		return brandPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("carmodel", func(fl validator.FieldLevel) bool {
		return modelPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validator exposes the shared validator with the brand and carmodel rules
// registered, so request models elsewhere can reuse them.
func Validator() *validator.Validate { return validate }

// Query is one search against one source. Build it with NewQuery; the zero
// MaxPrice means no price ceiling.
type Query struct {
	SourceID string  `json:"source_id" validate:"required"`
	Brand    string  `json:"brand" validate:"required,brand"`
	Model    string  `json:"model,omitempty" validate:"omitempty,carmodel"`
	MaxPrice float64 `json:"max_price,omitempty" validate:"omitempty,gt=0,lte=10000000"`
}

// NewQuery trims its inputs and validates them. Every failure is a KindValidation error.
func NewQuery(sourceID, brand, model string, maxPrice float64) (Query, error) {
	q := Query{
		SourceID: strings.ToLower(strings.TrimSpace(sourceID)),
		Brand:    strings.TrimSpace(brand),
		Model:    strings.TrimSpace(model),
		MaxPrice: maxPrice,
	}
	if err := validate.Struct(q); err != nil {
		return Query{}, validationMessage(err)
	}
	return q, nil
}

// Text is the free-text query sent to sources and echoed in responses.
func (q Query) Text() string {
	return strings.TrimSpace(q.Brand + " " + q.Model)
}

// HasMaxPrice reports whether a price ceiling was given.
func (q Query) HasMaxPrice() bool { return q.MaxPrice > 0 }

// MaxPriceParam renders the ceiling in its shortest decimal form, "" when absent.
func (q Query) MaxPriceParam() string {
	if !q.HasMaxPrice() {
		return ""
	}
	return strconv.FormatFloat(q.MaxPrice, 'f', -1, 64)
}

func validationMessage(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return ValidationError("invalid query: %v", err)
	}
	fe := fieldErrs[0]
	switch fe.Field() {
	case "SourceID":
		return ValidationError("Site and brand parameters are required")
	case "Brand":
		if fe.Tag() == "required" {
			return ValidationError("Site and brand parameters are required")
		}
		return ValidationError("Invalid brand name")
	case "Model":
		return ValidationError("Invalid model name")
	case "MaxPrice":
		return ValidationError("Invalid price")
	}
	return ValidationError("invalid %s", fe.Field())
}
