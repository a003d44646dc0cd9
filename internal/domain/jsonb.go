package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// scanJSON decodes a JSONB column into dst. NULL leaves dst untouched.
func scanJSON(src interface{}, dst interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// FieldValues maps a form field id to its scalar value (string or bool).
type FieldValues map[string]interface{}

// Value implements driver.Valuer.
func (v FieldValues) Value() (driver.Value, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

// Scan implements sql.Scanner.
func (v *FieldValues) Scan(src interface{}) error {
	out := FieldValues{}
	if err := scanJSON(src, &out); err != nil {
		return fmt.Errorf("scanning field values: %w", err)
	}
	*v = out
	return nil
}

// Validate rejects anything that is not a string, a bool or null.
func (v FieldValues) Validate() error {
	for _, val := range v {
		switch val.(type) {
		case nil, string, bool:
		default:
			return ErrInvalidFieldValue
		}
	}
	return nil
}

// FileRef is the per-field file descriptor kept on the submission row.
type FileRef struct {
	Name   string `json:"name"`
	URL    string `json:"url,omitempty"`
	Path   string `json:"path,omitempty"`
	Bucket string `json:"bucket,omitempty"`
	Size   int64  `json:"size"`
	Type   string `json:"type"`
}

// FileRefs maps a file field id to its descriptor.
type FileRefs map[string]FileRef

// Value implements driver.Valuer.
func (f FileRefs) Value() (driver.Value, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *FileRefs) Scan(src interface{}) error {
	out := FileRefs{}
	if err := scanJSON(src, &out); err != nil {
		return fmt.Errorf("scanning file refs: %w", err)
	}
	*f = out
	return nil
}

// AIResults is the detailed per-field outcome stored in ai_validations.ai_results.
type AIResults struct {
	FieldValidations []FieldValidation `json:"field_validations"`
}

// Value implements driver.Valuer.
func (a AIResults) Value() (driver.Value, error) {
	if a.FieldValidations == nil {
		a.FieldValidations = []FieldValidation{}
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *AIResults) Scan(src interface{}) error {
	out := AIResults{}
	if err := scanJSON(src, &out); err != nil {
		return fmt.Errorf("scanning ai results: %w", err)
	}
	*a = out
	return nil
}

// StringList is a JSONB array of strings.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	out := StringList{}
	if err := scanJSON(src, &out); err != nil {
		return fmt.Errorf("scanning string list: %w", err)
	}
	*l = out
	return nil
}
