// Package resolver decodes AppSync Lambda resolver events and encodes results.
package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/lensworks/studio/internal/apperr"
)

// Event is the payload AppSync hands to a Lambda resolver
type Event struct {
	Arguments json.RawMessage `json:"arguments"`
	Identity  *Identity       `json:"identity,omitempty"`
}

// Identity is the caller as seen by AppSync
type Identity struct {
	Sub      string                 `json:"sub,omitempty"`
	Username string                 `json:"username,omitempty"`
	Groups   []string               `json:"groups,omitempty"`
	Claims   map[string]interface{} `json:"claims,omitempty"`
}

// Email returns the caller's email claim, or the username when it holds one
func (i *Identity) Email() string {
	if i == nil {
		return ""
	}
	if e, ok := i.Claims["email"].(string); ok && e != "" {
		return strings.ToLower(e)
	}
	if strings.Contains(i.Username, "@") {
		return strings.ToLower(i.Username)
	}
	return ""
}

// InGroup reports whether the caller belongs to a Cognito group
func (i *Identity) InGroup(group string) bool {
	if i == nil || group == "" {
		return false
	}
	for _, g := range i.Groups {
		if g == group {
			return true
		}
	}
	// groups are also carried in the token claims
	if gs, ok := i.Claims["cognito:groups"].([]interface{}); ok {
		for _, g := range gs {
			if s, ok := g.(string); ok && s == group {
				return true
			}
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// notblank rejects whitespace-only strings, which pass required
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Decode unmarshals the event arguments into v and validates its struct tags
func Decode(ev Event, v interface{}) error {

	if len(ev.Arguments) == 0 {
		return apperr.Invalid("no arguments in event")
	}

	err := json.Unmarshal(ev.Arguments, v)
	if err != nil {
		return apperr.Wrap(apperr.Validation, err, "failed to unmarshal arguments")
	}

	return Validate(v)
}

// Validate runs struct tag validation on v
func Validate(v interface{}) error {

	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
		return apperr.Invalid("invalid arguments: %s", strings.Join(fields, ", "))
	}
	return apperr.Wrap(apperr.Validation, err, "could not validate arguments")
}

// JSON marshals a handler result into the string AppSync expects
func JSON(v interface{}) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %v", err)
	}
	return string(out), nil
}
