package course

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// CourseDetails is the learner-facing metadata gathered on the details step.
type CourseDetails struct {
	Title          string     `json:"title" validate:"required"`
	CreatorName    string     `json:"creatorName" validate:"required"`
	Difficulty     Difficulty `json:"difficulty" validate:"required,difficulty"`
	Language       Language   `json:"language" validate:"required,language"`
	Prerequisites  string     `json:"prerequisites" validate:"required"`
	TargetAudience string     `json:"targetAudience" validate:"required"`
}

// DefaultDetails returns the form's starting values.
func DefaultDetails() CourseDetails {
	return CourseDetails{Difficulty: Beginner, Language: English}
}

// Normalized trims surrounding whitespace from every free-text field.
func (d CourseDetails) Normalized() CourseDetails {
	d.Title = strings.TrimSpace(d.Title)
	d.CreatorName = strings.TrimSpace(d.CreatorName)
	d.Prerequisites = strings.TrimSpace(d.Prerequisites)
	d.TargetAudience = strings.TrimSpace(d.TargetAudience)
	return d
}

// Validate reports every missing or unknown field. Whitespace-only values count as missing.
func (d CourseDetails) Validate() error {
	err := validatorInstance().Struct(d.Normalized())
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		reason := "is required"
		if fe.Tag() != "required" {
			reason = fmt.Sprintf("unsupported value %q", fmt.Sprint(fe.Value()))
		}
		out = append(out, &ValidationError{Field: fe.Field(), Reason: reason})
	}
	return out
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
			return Difficulty(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
			return Language(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

// ValidateURL checks that raw is an absolute http(s) URL.
func ValidateURL(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return &ValidationError{Field: "url", Reason: "is required"}
	}
	if err := validatorInstance().Var(trimmed, "url"); err != nil {
		return &ValidationError{Field: "url", Reason: "is not a valid URL"}
	}
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return &ValidationError{Field: "url", Reason: "must use http or https"}
	}
	return nil
}
