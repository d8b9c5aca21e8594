package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chatline/authflow"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"
)

const maxFieldAttempts = 3

var errAborted = errors.New("input aborted")

// Answers that follow the link to the other view instead of filling a field.
const (
	linkRegister = ":register"
	linkLogin    = ":login"
)

// linkError reports that a prompted field was answered with a link.
type linkError struct {
	route string
}

func (e *linkError) Error() string { return "follow link to " + e.route }

// loginForm and registerForm carry the field rules of the two views. The
// flows themselves never re-validate.
type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type registerForm struct {
	Username     string `validate:"required,max=150"`
	Email        string `validate:"required,email"`
	Password     string `validate:"required"`
	ProfileImage string `validate:"omitempty,file"`
}

// prompter reads form fields from a terminal or a plain stream. Secrets are
// read without echo when the input is a terminal.
type prompter struct {
	in       *bufio.Reader
	out      io.Writer
	fd       int
	terminal bool
	validate *validator.Validate
	// links maps link answers to routes while a view is collecting.
	links map[string]string
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{
		in:       bufio.NewReader(in),
		out:      out,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.terminal = true
	}
	return p
}

func (p *prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", errAborted
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *prompter) readSecret() (string, error) {
	if !p.terminal {
		return p.readLine()
	}
	pw, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// field prompts for one value until it satisfies tag. A non-empty preset is
// validated once without prompting.
func (p *prompter) field(label, tag, preset string, secret bool) (string, error) {
	if preset != "" {
		if err := p.validate.Var(preset, tag); err != nil {
			return "", fmt.Errorf("%s: %s", label, describeFieldError(err))
		}
		return preset, nil
	}

	for attempt := 0; attempt < maxFieldAttempts; attempt++ {
		fmt.Fprintf(p.out, "%s: ", label)
		var (
			value string
			err   error
		)
		if secret {
			value, err = p.readSecret()
		} else {
			value, err = p.readLine()
		}
		if err != nil {
			return "", err
		}
		value = strings.TrimSpace(value)
		if route, ok := p.links[value]; ok && !secret {
			return "", &linkError{route: route}
		}
		if err := p.validate.Var(value, tag); err != nil {
			fmt.Fprintf(p.out, "  %s\n", describeFieldError(err))
			continue
		}
		return value, nil
	}
	return "", fmt.Errorf("%s: too many invalid attempts", label)
}

func describeFieldError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	switch verrs[0].Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", verrs[0].Param())
	case "file":
		return "File not found."
	default:
		return "Invalid value."
	}
}

func (p *prompter) collectLogin(preset loginForm) (authflow.LoginCredentials, error) {
	username, err := p.field("Username", "required", preset.Username, false)
	if err != nil {
		return authflow.LoginCredentials{}, err
	}
	password, err := p.field("Password", "required", preset.Password, true)
	if err != nil {
		return authflow.LoginCredentials{}, err
	}

	form := loginForm{Username: username, Password: password}
	if err := p.validate.Struct(form); err != nil {
		return authflow.LoginCredentials{}, err
	}
	return authflow.LoginCredentials{Username: form.Username, Password: form.Password}, nil
}

// collectRegistration gathers the registration fields. The profile image is
// only read from presets, never prompted.
func (p *prompter) collectRegistration(preset registerForm) (authflow.RegistrationCredentials, error) {
	var (
		form registerForm
		err  error
	)
	if form.Username, err = p.field("Username", "required,max=150", preset.Username, false); err != nil {
		return authflow.RegistrationCredentials{}, err
	}
	if form.Email, err = p.field("Email", "required,email", preset.Email, false); err != nil {
		return authflow.RegistrationCredentials{}, err
	}
	if form.Password, err = p.field("Password", "required", preset.Password, true); err != nil {
		return authflow.RegistrationCredentials{}, err
	}
	form.ProfileImage = preset.ProfileImage

	if err := p.validate.Struct(form); err != nil {
		return authflow.RegistrationCredentials{}, fmt.Errorf("registration form: %s", describeFieldError(err))
	}

	creds := authflow.RegistrationCredentials{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	}
	if form.ProfileImage != "" {
		data, err := os.ReadFile(form.ProfileImage)
		if err != nil {
			return authflow.RegistrationCredentials{}, fmt.Errorf("read profile image: %w", err)
		}
		creds.ProfileImage = &authflow.ProfileImage{
			Filename: filepath.Base(form.ProfileImage),
			Data:     data,
		}
	}
	return creds, nil
}
