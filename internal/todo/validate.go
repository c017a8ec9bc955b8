package todo

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hay-kot/criterio"
)

// ValidateText checks the text rules shared by create, replace, and patch.
func ValidateText(text string) error {
	return criterio.Run("text", text, validText)
}

// ValidateForUpdate checks a full replacement against the id it targets.
func ValidateForUpdate(id int, item ItemForUpdate) error {
	var errs criterio.FieldErrorsBuilder
	if item.ID != id {
		errs = errs.Append("id", fmt.Errorf("%d does not match the item being updated (%d)", item.ID, id))
	}
	return criterio.ValidateStruct(errs.ToError(), ValidateText(item.Text))
}

func validText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("is required")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return fmt.Errorf("must be at most %d characters", MaxTextLength)
	}
	return nil
}

// FieldMessages flattens criterio field errors into one message per field.
// It returns nil when err carries no field errors.
func FieldMessages(err error) []string {
	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s: %s", fe.Field, fe.Err.Error()))
	}
	return messages
}
