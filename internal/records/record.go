// Package records turns input rows into validated saved search records.
package records

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/crucial707/searchsync/internal/models"
)

// Input field names.
const (
	FieldName    = "name"
	FieldCron    = "cron"
	FieldSearch  = "search"
	FieldEnabled = "enabled"
)

// Row is one raw input row keyed by field name.
type Row map[string]string

// ValidationError reports the invalid fields of one input row.
type ValidationError struct {
	Row    int
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("row %d: %s", e.Row, strings.Join(parts, ", "))
}

// rowInput mirrors Row for struct validation.
type rowInput struct {
	Name   string `field:"name" validate:"required,max=512"`
	Cron   string `field:"cron" validate:"omitempty,cron"`
	Search string `field:"search" validate:"required"`
}

// splunkd only accepts the five standard cron fields.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("field")
	})
	if err := v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		return ValidateCron(fl.Field().String()) == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidateCron checks a five-field cron expression.
func ValidateCron(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// ParseEnabled maps the enabled column to a boolean: only "yes" (any case) is true.
func ParseEnabled(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "yes")
}

// FromRow validates one raw row. row is the 1-based input position used in errors.
func FromRow(row int, r Row) (models.SearchRecord, error) {
	in := rowInput{
		Name:   r[FieldName],
		Cron:   r[FieldCron],
		Search: r[FieldSearch],
	}
	enabled := ParseEnabled(r[FieldEnabled])

	fields := make(map[string]string)
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return models.SearchRecord{}, fmt.Errorf("row %d: validate: %w", row, err)
		}
		for _, fe := range verrs {
			fields[fe.Field()] = describe(fe)
		}
	}
	// A schedule is required for anything that should run.
	if enabled && in.Cron == "" {
		if _, bad := fields[FieldCron]; !bad {
			fields[FieldCron] = "required when enabled"
		}
	}
	if len(fields) > 0 {
		return models.SearchRecord{}, &ValidationError{Row: row, Fields: fields}
	}

	return models.SearchRecord{
		Name:    in.Name,
		Cron:    in.Cron,
		Search:  in.Search,
		Enabled: enabled,
	}, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "max":
		return "longer than " + fe.Param() + " characters"
	case "cron":
		return "invalid cron expression"
	default:
		return "failed " + fe.Tag()
	}
}

// Parse validates every row and returns the records in input order.
// All validation errors are joined so one pass reports every bad row.
func Parse(rows []Row) ([]models.SearchRecord, error) {
	out := make([]models.SearchRecord, 0, len(rows))
	var errs []error
	for i, r := range rows {
		rec, err := FromRow(i+1, r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, rec)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
