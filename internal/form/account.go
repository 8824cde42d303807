package form

import (
	"fmt"
	"net/http"
	"strings"
)

// MaxPasswordBytes is bcrypt's input limit. Anything longer would be silently
// truncated, so it is rejected instead.
const MaxPasswordBytes = 72

// ReservedUsernames cannot be registered because /<username>/ would collide
// with a fixed top-level page.
var ReservedUsernames = map[string]bool{
	"new":    true,
	"follow": true,
	"group":  true,
	"auth":   true,
	"about":  true,
	"media":  true,
	"static": true,
}

// IsReserved reports whether name collides with a fixed top-level page.
func IsReserved(name string) bool {
	return ReservedUsernames[strings.ToLower(name)]
}

// SignupForm creates an account.
type SignupForm struct {
	Username        string `form:"username"  validate:"required,max=150,username"`
	Email           string `form:"email"     validate:"omitempty,email"`
	Password        string `form:"password1" validate:"required,min=8"`
	PasswordConfirm string `form:"password2" validate:"required,eqfield=Password"`
	Errors          Errors
}

func NewSignupForm() *SignupForm {
	return &SignupForm{Errors: Errors{}}
}

// Bind reads the fields. Passwords are taken verbatim: leading or trailing
// spaces are part of the password.
func (f *SignupForm) Bind(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("form: parsing signup form: %w", err)
	}
	f.Username = strings.TrimSpace(r.PostFormValue("username"))
	f.Email = strings.TrimSpace(r.PostFormValue("email"))
	f.Password = r.PostFormValue("password1")
	f.PasswordConfirm = r.PostFormValue("password2")
	return nil
}

func (f *SignupForm) Valid() bool {
	check(f, f.Errors)

	if IsReserved(f.Username) {
		f.Errors.Add("username", "This username is not available.")
	}
	if len(f.Password) > MaxPasswordBytes {
		f.Errors.Add("password1", fmt.Sprintf("Ensure the password is at most %d bytes.", MaxPasswordBytes))
	}

	return !f.Errors.Any()
}

// LoginForm signs an existing user in. Next is where to go afterwards.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
	Errors   Errors
}

func NewLoginForm() *LoginForm {
	return &LoginForm{Errors: Errors{}}
}

func (f *LoginForm) Bind(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("form: parsing login form: %w", err)
	}
	f.Username = strings.TrimSpace(r.PostFormValue("username"))
	f.Password = r.PostFormValue("password")
	f.Next = r.FormValue("next")
	return nil
}

func (f *LoginForm) Valid() bool {
	check(f, f.Errors)
	return !f.Errors.Any()
}

// InvalidCredentials records the form-level "wrong username or password"
// error. It deliberately does not say which of the two was wrong.
func (f *LoginForm) InvalidCredentials() {
	f.Errors.Add(NonField, "Please enter a correct username and password. Note that both fields may be case-sensitive.")
}
