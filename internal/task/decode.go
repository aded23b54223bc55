package task

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldError reports which field of a stored record failed validation.
// An empty Field means the record as a whole was malformed.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErrorf(field, format string, args ...interface{}) *FieldError {
	return &FieldError{Field: field, Err: fmt.Errorf(format, args...)}
}

// JSONTypeName names the JSON type of a raw value for error messages.
func JSONTypeName(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "empty"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

// Decode validates and decodes a single stored record. It returns a
// *FieldError naming the offending field on any violation; a null or
// non-object element fails like any other malformed record.
func Decode(raw json.RawMessage) (Task, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return Task{}, fieldErrorf("", "expected a JSON object, got %s", JSONTypeName(raw))
	}

	var t Task

	idRaw, ok := obj["id"]
	if !ok {
		return Task{}, fieldErrorf("id", "missing required field")
	}
	if err := json.Unmarshal(idRaw, &t.ID); err != nil {
		return Task{}, fieldErrorf("id", "expected an integer, got %s", JSONTypeName(idRaw))
	}
	if t.ID <= 0 {
		return Task{}, fieldErrorf("id", "must be a positive integer, got %d", t.ID)
	}

	textRaw, ok := obj["text"]
	if !ok {
		return Task{}, fieldErrorf("text", "missing required field")
	}
	if err := json.Unmarshal(textRaw, &t.Text); err != nil {
		return Task{}, fieldErrorf("text", "expected a string, got %s", JSONTypeName(textRaw))
	}
	if err := CheckText(t.Text); err != nil {
		return Task{}, &FieldError{Field: "text", Err: err}
	}

	if doneRaw, ok := obj["done"]; ok {
		done, err := decodeDone(doneRaw)
		if err != nil {
			return Task{}, &FieldError{Field: "done", Err: err}
		}
		t.Done = done
	}

	if prioRaw, ok := obj["priority"]; ok {
		if err := json.Unmarshal(prioRaw, &t.Priority); err != nil {
			return Task{}, fieldErrorf("priority", "expected an integer, got %s", JSONTypeName(prioRaw))
		}
		if err := checkPriority(t.Priority); err != nil {
			return Task{}, &FieldError{Field: "priority", Err: err}
		}
	}

	if dueRaw, ok := obj["due_date"]; ok && !isJSONNull(dueRaw) {
		if err := json.Unmarshal(dueRaw, &t.DueDate); err != nil {
			return Task{}, fieldErrorf("due_date", "expected a string, got %s", JSONTypeName(dueRaw))
		}
		if t.DueDate != "" {
			if err := checkDueDate(t.DueDate); err != nil {
				return Task{}, &FieldError{Field: "due_date", Err: err}
			}
		}
	}

	var err error
	if t.CreatedAt, err = decodeTimestamp(obj, "created_at"); err != nil {
		return Task{}, err
	}
	if t.UpdatedAt, err = decodeTimestamp(obj, "updated_at"); err != nil {
		return Task{}, err
	}

	// Timestamps absent in storage are generated here, matching the
	// creation-time behavior.
	if t.CreatedAt == "" {
		t.CreatedAt = nowISO()
	}
	if t.UpdatedAt == "" {
		t.UpdatedAt = t.CreatedAt
	}

	return t, nil
}

// decodeDone accepts true/false and, for compatibility with older
// files, the integers 0 and 1.
func decodeDone(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil && (n == 0 || n == 1) {
		return n == 1, nil
	}
	return false, fmt.Errorf("expected a boolean, got %s", JSONTypeName(raw))
}

func decodeTimestamp(obj map[string]json.RawMessage, field string) (string, error) {
	raw, ok := obj[field]
	if !ok || isJSONNull(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fieldErrorf(field, "expected a string, got %s", JSONTypeName(raw))
	}
	if s == "" {
		return "", nil
	}
	if err := checkTimestamp(field, s); err != nil {
		return "", &FieldError{Field: field, Err: err}
	}
	return s, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
