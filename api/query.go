package api

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"credit-dashboard/services"
)

// filterQuery is the occupation and age selection shared by every view.
type filterQuery struct {
	Occupation string   `json:"occupation" validate:"omitempty,max=128"`
	AgeMin     *int     `json:"age_min" validate:"omitempty,min=0,max=200"`
	AgeMax     *int     `json:"age_max" validate:"omitempty,min=0,max=200"`
	Columns    []string `json:"columns" validate:"omitempty,max=32,dive,required,max=64"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseFilter reads and validates the filter parameters of r.
func (s *Server) parseFilter(r *http.Request) (filterQuery, error) {
	values := r.URL.Query()
	q := filterQuery{Occupation: strings.TrimSpace(values.Get("occupation"))}

	for name, dst := range map[string]**int{"age_min": &q.AgeMin, "age_max": &q.AgeMax} {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			continue
		}
		n, err := cast.ToIntE(raw)
		if err != nil {
			return q, fmt.Errorf("%s: %q is not an integer", name, raw)
		}
		*dst = &n
	}

	if raw := values.Get("columns"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			q.Columns = append(q.Columns, strings.TrimSpace(c))
		}
	}

	if err := s.validate.Struct(q); err != nil {
		return q, validationMessage(err)
	}
	return q, nil
}

func validationMessage(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid query: %s", strings.Join(parts, "; "))
}

// ages resolves the requested range against the dataset's bounds.
func (q filterQuery) ages(bounds services.AgeRange) services.AgeRange {
	r := bounds
	if q.AgeMin != nil {
		r.Min = *q.AgeMin
	}
	if q.AgeMax != nil {
		r.Max = *q.AgeMax
	}
	return r
}
