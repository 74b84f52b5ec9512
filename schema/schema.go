package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"unicode/utf8"
)

// JSON represents a JSON Schema definition. Only the subset needed to guard
// the scan protocol is supported: types, nullability, required properties,
// string lengths, numeric bounds, enums and array items. Unknown properties
// are always allowed so newer peers can add fields.
type JSON struct {
	Type        string          `json:"type,omitempty"`
	Description string          `json:"description,omitempty"`
	Nullable    bool            `json:"nullable,omitempty"`
	Properties  map[string]JSON `json:"properties,omitempty"`
	Required    []string        `json:"required,omitempty"`
	Items       *JSON           `json:"items,omitempty"`
	Enum        []any           `json:"enum,omitempty"`
	Minimum     *float64        `json:"minimum,omitempty"`
	Maximum     *float64        `json:"maximum,omitempty"`
	MinLength   *int            `json:"minLength,omitempty"`
	MaxLength   *int            `json:"maxLength,omitempty"`
}

// Any creates a JSON schema that accepts any value.
func Any() JSON {
	return JSON{}
}

// String creates a JSON schema for a string type.
func String() JSON {
	return JSON{Type: "string"}
}

// StringLen creates a string schema bounded by min and max characters.
// A negative bound is not enforced.
func StringLen(min, max int) JSON {
	s := String()
	if min >= 0 {
		s.MinLength = &min
	}
	if max >= 0 {
		s.MaxLength = &max
	}
	return s
}

// Int creates a JSON schema for an integer type.
func Int() JSON {
	return JSON{Type: "integer"}
}

// Number creates a JSON schema for a number type.
func Number() JSON {
	return JSON{Type: "number"}
}

// Bool creates a JSON schema for a boolean type.
func Bool() JSON {
	return JSON{Type: "boolean"}
}

// Array creates a JSON schema for an array type with the specified item schema.
func Array(items JSON) JSON {
	return JSON{Type: "array", Items: &items}
}

// Object creates a JSON schema for an object type with the specified properties and required fields.
func Object(properties map[string]JSON, required ...string) JSON {
	return JSON{Type: "object", Properties: properties, Required: required}
}

// Enum creates a JSON schema with enumerated values.
func Enum(values ...any) JSON {
	return JSON{Enum: values}
}

// OrNull returns a copy of s that also accepts null.
func (s JSON) OrNull() JSON {
	s.Nullable = true
	return s
}

// WithDescription returns a copy of s with the description set.
func (s JSON) WithDescription(desc string) JSON {
	s.Description = desc
	return s
}

// ValidationError reports where in a document a value broke the schema.
type ValidationError struct {
	// Path is a dotted location such as "network.ssid" or "top_reasons[0].code".
	// It is empty for the document root.
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return e.Path + ": " + e.Reason
}

// Validate validates the given value against this JSON schema. Values are
// expected in the shape produced by encoding/json decoding into any
// (map[string]any, []any, float64, string, bool, nil); Go structs are
// converted through JSON first.
func (s JSON) Validate(value any) error {
	return s.validate("", normalize(value))
}

// ValidateBytes decodes data as JSON and validates the result.
func (s JSON) ValidateBytes(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return &ValidationError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return s.validate("", doc)
}

func (s JSON) validate(path string, value any) error {
	if value == nil {
		if s.Nullable || (s.Type == "" && len(s.Enum) == 0) {
			return nil
		}
		return fail(path, "expected %s, got null", s.describeType())
	}

	if len(s.Enum) > 0 {
		if err := s.validateEnum(path, value); err != nil {
			return err
		}
	}

	switch s.Type {
	case "":
		return nil
	case "string":
		return s.validateString(path, value)
	case "integer", "number":
		return s.validateNumber(path, value)
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fail(path, "expected boolean, got %s", kindOf(value))
		}
		return nil
	case "array":
		return s.validateArray(path, value)
	case "object":
		return s.validateObject(path, value)
	}
	return fail(path, "unsupported schema type %q", s.Type)
}

func (s JSON) validateString(path string, value any) error {
	str, ok := value.(string)
	if !ok {
		return fail(path, "expected string, got %s", kindOf(value))
	}

	n := utf8.RuneCountInString(str)
	if s.MinLength != nil && n < *s.MinLength {
		return fail(path, "string length %d is less than minimum %d", n, *s.MinLength)
	}
	if s.MaxLength != nil && n > *s.MaxLength {
		return fail(path, "string length %d is greater than maximum %d", n, *s.MaxLength)
	}
	return nil
}

func (s JSON) validateNumber(path string, value any) error {
	num, ok := value.(float64)
	if !ok {
		return fail(path, "expected %s, got %s", s.Type, kindOf(value))
	}
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return fail(path, "expected finite %s", s.Type)
	}
	if s.Type == "integer" && num != math.Trunc(num) {
		return fail(path, "expected integer, got %v", num)
	}
	if s.Minimum != nil && num < *s.Minimum {
		return fail(path, "value %v is less than minimum %v", num, *s.Minimum)
	}
	if s.Maximum != nil && num > *s.Maximum {
		return fail(path, "value %v is greater than maximum %v", num, *s.Maximum)
	}
	return nil
}

func (s JSON) validateArray(path string, value any) error {
	items, ok := value.([]any)
	if !ok {
		return fail(path, "expected array, got %s", kindOf(value))
	}
	if s.Items == nil {
		return nil
	}
	for i, item := range items {
		if err := s.Items.validate(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
			return err
		}
	}
	return nil
}

func (s JSON) validateObject(path string, value any) error {
	obj, ok := value.(map[string]any)
	if !ok {
		return fail(path, "expected object, got %s", kindOf(value))
	}

	for _, req := range s.Required {
		if _, exists := obj[req]; !exists {
			return fail(join(path, req), "required field is missing")
		}
	}

	// Sorted so the reported violation is stable across runs.
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val, exists := obj[key]
		if !exists {
			continue
		}
		if err := s.Properties[key].validate(join(path, key), val); err != nil {
			return err
		}
	}
	return nil
}

func (s JSON) validateEnum(path string, value any) error {
	for _, allowed := range s.Enum {
		if reflect.DeepEqual(value, allowed) {
			return nil
		}
	}
	return fail(path, "value %v is not one of the allowed values %v", value, s.Enum)
}

func (s JSON) describeType() string {
	if s.Type == "" {
		return "value"
	}
	return s.Type
}

// normalize converts Go values into the generic JSON shape.
func normalize(value any) any {
	switch value.(type) {
	case nil, map[string]any, []any, float64, string, bool:
		return value
	}

	data, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return value
	}
	return out
}

func kindOf(value any) string {
	switch value.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case float64:
		return "number"
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", value)
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func fail(path, format string, args ...any) error {
	return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
