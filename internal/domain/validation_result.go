package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValidationCallback is the loosely typed body the AI workflow posts back.
// Numbers may arrive as JSON numbers or numeric strings.
type ValidationCallback struct {
	SubmissionID   uuid.UUID       `json:"submission_id"`
	ValidationID   *uuid.UUID      `json:"validation_id,omitempty"`
	Status         string          `json:"status"`
	OverallScore   json.RawMessage `json:"overall_score,omitempty"`
	Recommendation string          `json:"recommendation,omitempty"`
	AIResults      json.RawMessage `json:"ai_results,omitempty"`
	IssuesFound    json.RawMessage `json:"issues_found,omitempty"`
	ErrorType      string          `json:"error_type,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
}

// ValidationResult is a normalized outcome. Exactly one of the COMPLETED or
// FAILED field groups is populated, selected by Status.
type ValidationResult struct {
	SubmissionID uuid.UUID
	ValidationID *uuid.UUID
	Status       ValidationStatus

	OverallScore     *float64
	Recommendation   Recommendation
	FieldValidations []FieldValidation
	IssuesFound      []string

	ErrorType    ValidationErrorType
	ErrorMessage string
}

type rawFieldValidation struct {
	FieldID    string          `json:"field_id"`
	Label      string          `json:"label"`
	IsValid    json.RawMessage `json:"is_valid"`
	Confidence json.RawMessage `json:"confidence"`
	Notes      string          `json:"notes"`
}

// NormalizeValidationCallback validates the callback shape once so the rest
// of the code can trust ValidationResult.
func NormalizeValidationCallback(cb *ValidationCallback) (*ValidationResult, error) {
	if cb.SubmissionID == uuid.Nil {
		return nil, fmt.Errorf("%w: submission_id is required", ErrInvalidValidationState)
	}
	status := ValidationStatus(strings.ToUpper(strings.TrimSpace(cb.Status)))
	res := &ValidationResult{
		SubmissionID: cb.SubmissionID,
		ValidationID: cb.ValidationID,
		Status:       status,
	}

	switch status {
	case ValidationStatusPending:
		return res, nil

	case ValidationStatusFailed:
		res.ErrorType = ValidationErrorType(strings.ToUpper(strings.TrimSpace(cb.ErrorType)))
		switch res.ErrorType {
		case ValidationErrorTimeout, ValidationErrorService, ValidationErrorNetwork:
		default:
			res.ErrorType = ValidationErrorService
		}
		res.ErrorMessage = cb.ErrorMessage
		if res.ErrorMessage == "" {
			res.ErrorMessage = "validation workflow reported a failure"
		}
		return res, nil

	case ValidationStatusCompleted:
		score, err := parseUnitFloat(cb.OverallScore)
		if err != nil {
			return nil, fmt.Errorf("%w: overall_score: %v", ErrInvalidValidationState, err)
		}
		res.OverallScore = score

		rec := Recommendation(strings.ToUpper(strings.TrimSpace(cb.Recommendation)))
		if validRecommendations[rec] {
			res.Recommendation = rec
		}

		fields, err := parseFieldValidations(cb.AIResults)
		if err != nil {
			return nil, fmt.Errorf("%w: ai_results: %v", ErrInvalidValidationState, err)
		}
		res.FieldValidations = fields

		issues, err := parseIssues(cb.IssuesFound)
		if err != nil {
			return nil, fmt.Errorf("%w: issues_found: %v", ErrInvalidValidationState, err)
		}
		res.IssuesFound = issues
		return res, nil
	}

	return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidValidationState, cb.Status)
}

// ApplyTo copies the result onto the record.
func (r *ValidationResult) ApplyTo(rec *ValidationRecord, at time.Time) {
	switch r.Status {
	case ValidationStatusCompleted:
		rec.Status = ValidationStatusCompleted
		rec.OverallScore = r.OverallScore
		rec.Recommendation = r.Recommendation
		rec.AIResults = AIResults{FieldValidations: r.FieldValidations}
		rec.IssuesFound = StringList(r.IssuesFound)
		rec.ErrorType = ""
		rec.ErrorMessage = ""
		rec.ProcessedAt = &at
	case ValidationStatusFailed:
		rec.MarkFailed(r.ErrorType, r.ErrorMessage, at)
	}
}

func isNullJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// parseUnitFloat accepts a number or numeric string and clamps it to 0..1.
func parseUnitFloat(raw json.RawMessage) (*float64, error) {
	if isNullJSON(raw) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("not a number: %s", string(raw))
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", s)
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("not a finite number: %s", string(raw))
	}
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return &f, nil
}

func parseBool(raw json.RawMessage) bool {
	if isNullJSON(raw) {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		parsed, _ := strconv.ParseBool(strings.TrimSpace(s))
		return parsed
	}
	return false
}

func parseFieldValidations(raw json.RawMessage) ([]FieldValidation, error) {
	if isNullJSON(raw) {
		return []FieldValidation{}, nil
	}
	var wrapper struct {
		FieldValidations []rawFieldValidation `json:"field_validations"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}
	out := make([]FieldValidation, 0, len(wrapper.FieldValidations))
	for _, f := range wrapper.FieldValidations {
		conf, err := parseUnitFloat(f.Confidence)
		if err != nil {
			return nil, fmt.Errorf("field %q confidence: %v", f.Label, err)
		}
		out = append(out, FieldValidation{
			FieldID:    f.FieldID,
			Label:      f.Label,
			IsValid:    parseBool(f.IsValid),
			Confidence: conf,
			Notes:      f.Notes,
		})
	}
	return out, nil
}

func parseIssues(raw json.RawMessage) ([]string, error) {
	if isNullJSON(raw) {
		return []string{}, nil
	}
	var issues []string
	if err := json.Unmarshal(raw, &issues); err != nil {
		return nil, err
	}
	if issues == nil {
		issues = []string{}
	}
	return issues, nil
}
