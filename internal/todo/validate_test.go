package todo

import (
	"strings"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{name: "plain", text: "Buy milk"},
		{name: "max length", text: strings.Repeat("a", MaxTextLength)},
		{name: "max length multibyte", text: strings.Repeat("é", MaxTextLength)},
		{name: "empty", text: "", wantErr: "text: is required"},
		{name: "whitespace", text: " \t\n", wantErr: "text: is required"},
		{name: "too long", text: strings.Repeat("a", MaxTextLength+1), wantErr: "text: must be at most 500 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateText(tt.text)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, []string{tt.wantErr}, FieldMessages(err))
		})
	}
}

func TestValidateForUpdate(t *testing.T) {
	err := ValidateForUpdate(3, ItemForUpdate{ID: 3, Text: "ok"})
	assert.NoError(t, err)

	err = ValidateForUpdate(3, ItemForUpdate{ID: 4, Text: ""})
	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 2)

	messages := FieldMessages(err)
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0], "id: 4 does not match")
	assert.Equal(t, "text: is required", messages[1])
}

func TestFieldMessagesIgnoresPlainErrors(t *testing.T) {
	assert.Nil(t, FieldMessages(assert.AnError))
	assert.Nil(t, FieldMessages(nil))
}
