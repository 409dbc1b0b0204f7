package validators

import (
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/roasbooster/analytics-backend/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// DateRange is the validated start/end pair every reporting endpoint
// takes. Dates are inclusive YYYY-MM-DD strings.
type DateRange struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end" validate:"required,datetime=2006-01-02"`
}

// ParseDateRange reads and validates the start/end query parameters.
func ParseDateRange(r *http.Request) (DateRange, error) {
	query := r.URL.Query()
	rng := DateRange{
		Start: strings.TrimSpace(query.Get("start")),
		End:   strings.TrimSpace(query.Get("end")),
	}

	if err := validate.Struct(rng); err != nil {
		return DateRange{}, validationError(err)
	}

	start, _ := time.Parse("2006-01-02", rng.Start)
	end, _ := time.Parse("2006-01-02", rng.End)
	if end.Before(start) {
		return DateRange{}, pkgerrors.New(pkgerrors.CodeValidation, "end must not be before start").
			WithDetails(map[string]string{"start": rng.Start, "end": rng.End})
	}
	return rng, nil
}

func validationError(err error) error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			switch fieldErr.Tag() {
			case "required":
				details[fieldErr.Field()] = "is required"
			case "datetime":
				details[fieldErr.Field()] = "must be a YYYY-MM-DD date"
			default:
				details[fieldErr.Field()] = "is invalid"
			}
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}
