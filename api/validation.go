package api

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/tfkr-ae/fritter/auth"
	"github.com/tfkr-ae/fritter/domain"
)

var (
	usernamePattern = regexp.MustCompile(`^\w{1,30}$`)
	passwordPattern = regexp.MustCompile(`^\S+$`)
	tagPattern      = regexp.MustCompile(`^#?\w{1,30}$`)
)

var (
	validatorsOnce sync.Once
	validatorsErr  error
)

// registerValidators installs Fritter's custom tags on gin's validator engine.
func registerValidators() error {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			validatorsErr = errors.New("unexpected validator engine")
			return
		}

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})

		validations := map[string]validator.Func{
			"username": matchString(usernamePattern),
			"password": func(fl validator.FieldLevel) bool {
				password := fl.Field().String()
				return len(password) <= auth.MaxPasswordLength && passwordPattern.MatchString(password)
			},
			"freettag": func(fl validator.FieldLevel) bool {
				return tagPattern.MatchString(strings.TrimSpace(fl.Field().String()))
			},
			"content": func(fl validator.FieldLevel) bool {
				length := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
				return length > 0 && length <= domain.MaxContentLength
			},
		}
		for tag, fn := range validations {
			if err := v.RegisterValidation(tag, fn); err != nil {
				validatorsErr = fmt.Errorf("registering %s validation : %w", tag, err)
				return
			}
		}
	})
	return validatorsErr
}

func matchString(pattern *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	}
}

// validationMessage turns a binding error into a message fit for the client.
func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "Request body is not valid JSON."
	}

	fe := validationErrors[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field %s is required.", fe.Field())
	case "username":
		return "Username must be 1-30 characters long and contain only letters, numbers and underscores."
	case "password":
		return fmt.Sprintf("Password must be a nonempty string of at most %d bytes without whitespace.", auth.MaxPasswordLength)
	case "freettag":
		return "Tags must be 1-30 letters, numbers or underscores, optionally prefixed with #."
	case "content":
		return fmt.Sprintf("Content must be between 1 and %d characters long.", domain.MaxContentLength)
	default:
		return fmt.Sprintf("Field %s is invalid.", fe.Field())
	}
}
