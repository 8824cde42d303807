// Package form binds HTML form submissions to structs and validates them.
//
// Every form follows the same life cycle:
//
//	f := form.NewCommentForm()
//	if err := f.Bind(r); err != nil { ... malformed request ... }
//	if !f.Valid() { ... re-render the page with f.Errors ... }
//	... use f.Text ...
//
// Field rules live in `validate:"..."` struct tags and are checked by
// go-playground/validator. Rules that need outside knowledge (does this group
// exist? is this upload really an image?) are checked by hand in Valid.
// Either way the outcome is the same: messages collected in Errors, keyed by
// the HTML field name, so templates can print them next to the right input.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NonField is the Errors key for problems that belong to the whole form,
// such as "wrong username or password".
const NonField = "__all__"

// Errors maps a field name to its error messages.
type Errors map[string][]string

// Add appends a message for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Get returns the first message for field, or "".
func (e Errors) Get(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Has reports whether field has at least one message.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Any reports whether there are errors at all.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Messages that more than one form uses.
const (
	msgRequired      = "This field is required."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
)

// usernamePattern accepts letters and digits from any script plus @ . + - _
var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+\-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their HTML name (the `form` tag), not the Go name, so
	// FieldError.Field() is directly usable as an Errors key.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

// check runs the struct tag rules on s and records every failure in errs.
func check(s any, errs Errors) {
	err := validate.Struct(s)
	if err == nil {
		return
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add(NonField, err.Error())
		return
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
}

// message turns a failed rule into the text shown to the user.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), len([]rune(fe.Value().(string))))
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters (it has %d).", fe.Param(), len([]rune(fe.Value().(string))))
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "eqfield":
		return "The two password fields didn't match."
	default:
		return fmt.Sprintf("Failed the %q check.", fe.Tag())
	}
}
