package todo

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Patchable fields.
const (
	FieldText      = "text"
	FieldCompleted = "completed"
)

// Supported operations. On an existing member "add" behaves like "replace".
const (
	OpReplace = "replace"
	OpAdd     = "add"
)

//go:embed patch.schema.json
var patchSchemaSource string

var patchSchema = jsonschema.MustCompileString("patch.schema.json", patchSchemaSource)

// PatchOp is one instruction applied to a working copy of an item.
// Value is a string for FieldText and a bool for FieldCompleted.
type PatchOp struct {
	Op    string
	Field string
	Value any
}

// Patch is an ordered list of operations.
type Patch []PatchOp

// ReplaceText builds a replace operation for the text field.
func ReplaceText(text string) PatchOp {
	return PatchOp{Op: OpReplace, Field: FieldText, Value: text}
}

// ReplaceCompleted builds a replace operation for the completed field.
func ReplaceCompleted(completed bool) PatchOp {
	return PatchOp{Op: OpReplace, Field: FieldCompleted, Value: completed}
}

type wireOp struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON writes the operation in JSON Patch form.
func (p PatchOp) MarshalJSON() ([]byte, error) {
	value, err := json.Marshal(p.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireOp{Op: p.Op, Path: "/" + p.Field, Value: value})
}

// DecodePatch parses a JSON Patch document restricted to the patchable
// fields. Every problem is reported as a criterio field error.
func DecodePatch(data []byte) (Patch, error) {
	var doc any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, criterio.NewFieldErrors("patch", errors.New("invalid JSON body"))
	}
	if err := patchSchema.Validate(doc); err != nil {
		return nil, schemaFieldErrors(err)
	}

	var ops []wireOp
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, criterio.NewFieldErrors("patch", fmt.Errorf("decode: %w", err))
	}

	var errs criterio.FieldErrorsBuilder
	patch := make(Patch, 0, len(ops))
	for i, raw := range ops {
		field := fmt.Sprintf("patch[%d]", i)
		op, err := parseOp(raw)
		if err != nil {
			errs = errs.Append(field, err)
			continue
		}
		patch = append(patch, op)
	}
	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return patch, nil
}

func parseOp(raw wireOp) (PatchOp, error) {
	op := strings.ToLower(raw.Op)
	if op != OpReplace && op != OpAdd {
		return PatchOp{}, fmt.Errorf("unsupported op %q", raw.Op)
	}

	field := strings.ToLower(strings.TrimPrefix(raw.Path, "/"))
	switch field {
	case FieldText:
		var text *string
		if err := json.Unmarshal(raw.Value, &text); err != nil || text == nil {
			return PatchOp{}, errors.New("value for /text must be a string")
		}
		return PatchOp{Op: op, Field: field, Value: *text}, nil
	case FieldCompleted:
		var completed *bool
		if err := json.Unmarshal(raw.Value, &completed); err != nil || completed == nil {
			return PatchOp{}, errors.New("value for /completed must be a boolean")
		}
		return PatchOp{Op: op, Field: field, Value: *completed}, nil
	default:
		return PatchOp{}, fmt.Errorf("path %q is not patchable", raw.Path)
	}
}

// ApplyTo returns the working copy with every operation applied in order.
func (p Patch) ApplyTo(item ItemForUpdate) (ItemForUpdate, error) {
	for i, op := range p {
		switch op.Field {
		case FieldText:
			text, ok := op.Value.(string)
			if !ok {
				return item, criterio.NewFieldErrors(fmt.Sprintf("patch[%d]", i), errors.New("value for /text must be a string"))
			}
			item.Text = text
		case FieldCompleted:
			completed, ok := op.Value.(bool)
			if !ok {
				return item, criterio.NewFieldErrors(fmt.Sprintf("patch[%d]", i), errors.New("value for /completed must be a boolean"))
			}
			item.Completed = completed
		default:
			return item, criterio.NewFieldErrors(fmt.Sprintf("patch[%d]", i), fmt.Errorf("path %q is not patchable", "/"+op.Field))
		}
	}
	return item, nil
}

func schemaFieldErrors(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return criterio.NewFieldErrors("patch", err)
	}
	var errs criterio.FieldErrorsBuilder
	collectSchemaErrors(ve, &errs)
	if out := errs.ToError(); out != nil {
		return out
	}
	return criterio.NewFieldErrors("patch", errors.New(ve.Message))
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *criterio.FieldErrorsBuilder) {
	if len(ve.Causes) == 0 {
		*errs = errs.Append("patch"+ve.InstanceLocation, errors.New(ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaErrors(cause, errs)
	}
}
