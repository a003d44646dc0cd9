package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"veriform/internal/domain"
)

// memStore is an in-memory stand-in for the Postgres repositories with the
// same compare-and-set semantics on status changes.
type memStore struct {
	mu      sync.Mutex
	seq     int
	forms   map[uuid.UUID]domain.Form
	fields  map[uuid.UUID][]domain.FormField
	subs    map[uuid.UUID]domain.Submission
	recs    map[uuid.UUID]domain.ValidationRecord
	logs    []domain.ValidationLog
	atts    map[uuid.UUID]domain.Attachment
	reviews []domain.ReviewEvent
}

func newMemStore() *memStore {
	return &memStore{
		forms:  map[uuid.UUID]domain.Form{},
		fields: map[uuid.UUID][]domain.FormField{},
		subs:   map[uuid.UUID]domain.Submission{},
		recs:   map[uuid.UUID]domain.ValidationRecord{},
		atts:   map[uuid.UUID]domain.Attachment{},
	}
}

var memEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// tick must be called with mu held.
func (s *memStore) tick() time.Time {
	s.seq++
	return memEpoch.Add(time.Duration(s.seq) * time.Millisecond)
}

func (s *memStore) addForm(fields ...domain.FormField) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.forms[id] = domain.Form{ID: id, Name: "Onboarding"}
	for i := range fields {
		fields[i].FormID = id
		fields[i].Order = i
	}
	s.fields[id] = fields
	return id
}

func (s *memStore) submission(id uuid.UUID) domain.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSubmission(s.subs[id])
}

func (s *memStore) recordsFor(submissionID uuid.UUID) []domain.ValidationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ValidationRecord
	for _, r := range s.recs {
		if r.SubmissionID == submissionID {
			out = append(out, r)
		}
	}
	return out
}

func (s *memStore) logEvents(validationID uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, l := range s.logs {
		if l.ValidationID == validationID {
			out = append(out, l.Event)
		}
	}
	return out
}

func cloneSubmission(sub domain.Submission) domain.Submission {
	out := sub
	out.Values = cloneValues(sub.Values)
	out.RawValues = cloneValues(sub.RawValues)
	if sub.Files != nil {
		out.Files = make(domain.FileRefs, len(sub.Files))
		for k, v := range sub.Files {
			out.Files[k] = v
		}
	}
	return out
}

func cloneValues(v domain.FieldValues) domain.FieldValues {
	if v == nil {
		return nil
	}
	out := make(domain.FieldValues, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// casStatus must be called with mu held.
func (s *memStore) casStatus(sub *domain.Submission, from domain.SubmissionStatus) error {
	cur, ok := s.subs[sub.ID]
	if !ok {
		return domain.ErrSubmissionNotFound
	}
	if cur.Status != from {
		return domain.ErrStatusConflict
	}
	sub.UpdatedAt = s.tick()
	next := cloneSubmission(*sub)
	next.Files = cloneSubmission(cur).Files
	s.subs[sub.ID] = next
	return nil
}

type memForms struct{ *memStore }

func (r memForms) GetByID(_ context.Context, formID uuid.UUID) (*domain.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forms[formID]
	if !ok {
		return nil, domain.ErrFormNotFound
	}
	return &f, nil
}

func (r memForms) ListFields(_ context.Context, formID uuid.UUID) ([]domain.FormField, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.FormField(nil), r.fields[formID]...), nil
}

type memSubs struct{ *memStore }

func (r memSubs) Create(_ context.Context, sub *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub.CreatedAt = r.tick()
	sub.UpdatedAt = sub.CreatedAt
	r.subs[sub.ID] = cloneSubmission(*sub)
	return nil
}

func (r memSubs) GetByID(_ context.Context, id uuid.UUID) (*domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	out := cloneSubmission(sub)
	return &out, nil
}

func (r memSubs) list(match func(domain.Submission) bool, offset, limit int) ([]domain.Submission, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.Submission
	for _, s := range r.subs {
		if match(s) {
			all = append(all, cloneSubmission(s))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r memSubs) ListBySubmitter(_ context.Context, userID uuid.UUID, offset, limit int) ([]domain.Submission, int, error) {
	return r.list(func(s domain.Submission) bool { return s.SubmittedBy == userID }, offset, limit)
}

func (r memSubs) ListByStatus(_ context.Context, status domain.SubmissionStatus, offset, limit int) ([]domain.Submission, int, error) {
	return r.list(func(s domain.Submission) bool { return s.Status == status }, offset, limit)
}

func (r memSubs) UpdateValues(_ context.Context, sub *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.subs[sub.ID]
	if !ok {
		return domain.ErrSubmissionNotFound
	}
	if cur.Status != domain.SubmissionStatusDraft {
		return domain.ErrStatusConflict
	}
	cur.Values = cloneValues(sub.Values)
	cur.RawValues = cloneValues(sub.RawValues)
	cur.UpdatedAt = r.tick()
	r.subs[sub.ID] = cur
	return nil
}

func (r memSubs) UpdateFileRef(_ context.Context, submissionID, fieldID uuid.UUID, ref *domain.FileRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.subs[submissionID]
	if !ok {
		return domain.ErrSubmissionNotFound
	}
	if cur.Status != domain.SubmissionStatusDraft {
		return domain.ErrStatusConflict
	}
	cur = cloneSubmission(cur)
	if ref == nil {
		delete(cur.Files, fieldID.String())
	} else {
		if cur.Files == nil {
			cur.Files = domain.FileRefs{}
		}
		cur.Files[fieldID.String()] = *ref
	}
	cur.UpdatedAt = r.tick()
	r.subs[submissionID] = cur
	return nil
}

func (r memSubs) UpdateStatus(_ context.Context, sub *domain.Submission, from domain.SubmissionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.casStatus(sub, from)
}

func (r memSubs) BeginValidation(_ context.Context, sub *domain.Submission, rec *domain.ValidationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	recID := rec.ID
	sub.AIValidationID = &recID
	if err := r.casStatus(sub, domain.SubmissionStatusDraft); err != nil {
		sub.AIValidationID = nil
		return err
	}
	rec.CreatedAt = r.tick()
	rec.UpdatedAt = rec.CreatedAt
	r.recs[rec.ID] = *rec
	return nil
}

func (r memSubs) RestartValidation(_ context.Context, sub *domain.Submission, rec *domain.ValidationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.casStatus(sub, domain.SubmissionStatusAIValidationFailed); err != nil {
		return err
	}
	rec.UpdatedAt = r.tick()
	r.recs[rec.ID] = *rec
	return nil
}

func (r memSubs) ResolveValidation(_ context.Context, sub *domain.Submission, from domain.SubmissionStatus, rec *domain.ValidationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.casStatus(sub, from); err != nil {
		return err
	}
	rec.UpdatedAt = r.tick()
	r.recs[rec.ID] = *rec
	return nil
}

func (r memSubs) AppendReview(_ context.Context, sub *domain.Submission, event *domain.ReviewEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.casStatus(sub, domain.SubmissionStatusSubmitted); err != nil {
		return err
	}
	event.CreatedAt = r.tick()
	r.reviews = append(r.reviews, *event)
	return nil
}

func (r memSubs) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, id)
	return nil
}

type memVals struct{ *memStore }

func (r memVals) GetByID(_ context.Context, id uuid.UUID) (*domain.ValidationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[id]
	if !ok {
		return nil, domain.ErrValidationNotFound
	}
	return &rec, nil
}

func (r memVals) GetLatestBySubmission(_ context.Context, submissionID uuid.UUID) (*domain.ValidationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.ValidationRecord
	for _, rec := range r.recs {
		if rec.SubmissionID != submissionID {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			rec := rec
			latest = &rec
		}
	}
	if latest == nil {
		return nil, domain.ErrValidationNotFound
	}
	return latest, nil
}

func (r memVals) ListBySubmission(_ context.Context, submissionID uuid.UUID) ([]domain.ValidationRecord, error) {
	return r.recordsFor(submissionID), nil
}

func (r memVals) ListStalePending(_ context.Context, before time.Time, limit int) ([]domain.ValidationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ValidationRecord
	for _, rec := range r.recs {
		if rec.Status == domain.ValidationStatusPending && rec.UpdatedAt.Before(before) && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r memVals) Update(_ context.Context, rec *domain.ValidationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recs[rec.ID]; !ok {
		return domain.ErrValidationNotFound
	}
	rec.UpdatedAt = r.tick()
	r.recs[rec.ID] = *rec
	return nil
}

func (r memVals) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.recs, id)
	return nil
}

func (r memVals) AppendLog(_ context.Context, entry *domain.ValidationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = r.tick()
	r.logs = append(r.logs, *entry)
	return nil
}

func (r memVals) ListLogs(_ context.Context, validationID uuid.UUID) ([]domain.ValidationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ValidationLog
	for _, l := range r.logs {
		if l.ValidationID == validationID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r memVals) DeleteLogs(_ context.Context, validationID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.logs[:0]
	for _, l := range r.logs {
		if l.ValidationID != validationID {
			kept = append(kept, l)
		}
	}
	r.logs = kept
	return nil
}

type memAtts struct{ *memStore }

func (r memAtts) Create(_ context.Context, att *domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	att.CreatedAt = r.tick()
	r.atts[att.ID] = *att
	return nil
}

func (r memAtts) GetByID(_ context.Context, id uuid.UUID) (*domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	att, ok := r.atts[id]
	if !ok {
		return nil, domain.ErrAttachmentNotFound
	}
	return &att, nil
}

func (r memAtts) GetBySubmissionAndField(_ context.Context, submissionID, fieldID uuid.UUID) (*domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.Attachment
	for _, att := range r.atts {
		if att.SubmissionID == submissionID && att.FieldID == fieldID {
			if latest == nil || att.CreatedAt.After(latest.CreatedAt) {
				att := att
				latest = &att
			}
		}
	}
	if latest == nil {
		return nil, domain.ErrAttachmentNotFound
	}
	return latest, nil
}

func (r memAtts) ListBySubmission(_ context.Context, submissionID uuid.UUID) ([]domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Attachment
	for _, att := range r.atts {
		if att.SubmissionID == submissionID {
			out = append(out, att)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memAtts) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.atts, id)
	return nil
}

type memReviews struct{ *memStore }

func (r memReviews) ListBySubmission(_ context.Context, submissionID uuid.UUID) ([]domain.ReviewEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ReviewEvent
	for _, e := range r.reviews {
		if e.SubmissionID == submissionID {
			out = append(out, e)
		}
	}
	return out, nil
}
