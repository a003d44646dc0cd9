package domain

import (
	"strings"

	"github.com/google/uuid"
)

// MissingRequiredFields returns the required fields with no usable value.
// A required file field is satisfied by an attachment id in attached or a
// descriptor in files. A required bool must be true.
func MissingRequiredFields(fields []FormField, values FieldValues, files FileRefs, attached map[uuid.UUID]bool) *MissingFieldsError {
	var missing MissingFieldsError
	for i := range fields {
		f := &fields[i]
		if !f.Required {
			continue
		}
		key := f.ID.String()
		if f.IsFile() {
			if attached[f.ID] {
				continue
			}
			if ref, ok := files[key]; ok && (ref.Path != "" || ref.URL != "") {
				continue
			}
		} else if !isBlank(values[key]) {
			continue
		}
		missing.FieldIDs = append(missing.FieldIDs, f.ID)
		missing.Labels = append(missing.Labels, f.Label)
	}
	if len(missing.FieldIDs) == 0 {
		return nil
	}
	return &missing
}

func isBlank(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case bool:
		return !val
	}
	return false
}
