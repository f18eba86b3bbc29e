package validator

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-dashboard/internal/model"
)

// Validator validates form structs and turns the first failure into a
// message fit for showing next to the form.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()
	if err := Register(v); err != nil {
		// tags are static, so this only fires on a programming error
		panic(err)
	}
	return &Validator{v: v}
}

// Engine exposes the underlying validator, e.g. for gin's binding.
func (v *Validator) Engine() *validator.Validate {
	return v.v
}

// Register adds the clinic tags to v and reports fields by their label tag.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})
	custom := map[string]validator.Func{
		"appt_datetime": isDatetime,
		"appt_after":    isAfterField,
		"appt_status":   isStatus,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s: %w", tag, err)
		}
	}
	return nil
}

// Struct returns nil or an error whose message describes the first
// failing field in declaration order.
func (v *Validator) Struct(s interface{}) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err
	}
	return fmt.Errorf("%s", Message(errs[0]))
}

func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "gt":
		return fmt.Sprintf("%s is required", fe.Field())
	case "appt_datetime":
		return fmt.Sprintf("%s must be in YYYY-MM-DD HH:MM:SS format", fe.Field())
	case "appt_after":
		return fmt.Sprintf("%s must be after %s", fe.Field(), humanize(fe.Param()))
	case "appt_status":
		return "Status must be one of: " + strings.Join(statusNames(), ", ")
	}
	return fe.Error()
}

func statusNames() []string {
	statuses := model.AppointmentStatuses()
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return names
}

func isDatetime(fl validator.FieldLevel) bool {
	_, err := model.ParseTimestamp(fl.Field().String())
	return err == nil
}

func isStatus(fl validator.FieldLevel) bool {
	return model.AppointmentStatus(fl.Field().String()).Valid()
}

// isAfterField checks the field is a later timestamp than the sibling
// named by the tag param. An unparseable sibling is reported by its own tag.
func isAfterField(fl validator.FieldLevel) bool {
	end, err := model.ParseTimestamp(fl.Field().String())
	if err != nil {
		return false
	}
	other := fl.Parent().FieldByName(fl.Param())
	if !other.IsValid() {
		return false
	}
	start, err := model.ParseTimestamp(other.String())
	if err != nil {
		return true
	}
	return end.After(start)
}

// humanize turns a field name like StartTime into "start time".
func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte(' ')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
