// Package utils provides shared helpers for validating JSON documents
// against embedded schemas.
package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaError reports a document that parsed but does not match its schema.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string {
	return e.Msg
}

// ValidateJSON parses data and checks it against schema. A parse failure is
// returned as the json error; a schema mismatch as *SchemaError.
func ValidateJSON(schema *jsonschema.Schema, data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := schema.Validate(raw); err != nil {
		return &SchemaError{Msg: SchemaMessage(err)}
	}
	return nil
}

// SchemaMessage flattens a validation error to its leaf causes, each
// prefixed with the location it refers to, joined by "; ".
func SchemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var msgs []string
	collect(ve, &msgs)
	return strings.Join(msgs, "; ")
}

func collect(err *jsonschema.ValidationError, msgs *[]string) {
	if len(err.Causes) > 0 {
		for _, cause := range err.Causes {
			collect(cause, msgs)
		}
		return
	}
	if path := JSONPointerToPath(err.InstanceLocation); path != "" {
		*msgs = append(*msgs, path+": "+err.Message)
		return
	}
	*msgs = append(*msgs, err.Message)
}

// JSONPointerToPath converts a JSON Pointer such as "/0/todo" to the
// dotted form "[0].todo".
func JSONPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(strings.TrimPrefix(ptr, "#"), "/")
	if ptr == "" {
		return ""
	}
	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		switch {
		case part == "":
		case isIndex(part):
			fmt.Fprintf(&b, "[%s]", part)
		case b.Len() == 0:
			b.WriteString(part)
		default:
			b.WriteString("." + part)
		}
	}
	return b.String()
}

func isIndex(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}
