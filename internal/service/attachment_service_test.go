package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"veriform/internal/domain"
	"veriform/internal/port"
	"veriform/internal/service"
	"veriform/mocks"
)

// pngContent returns minimal valid PNG bytes (magic bytes).
func pngContent() []byte {
	header := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	return append(header, bytes.Repeat([]byte{0x00}, 100)...)
}

func newAttachmentService(env *lifecycleEnv) service.AttachmentService {
	return service.NewAttachmentService(
		memSubs{env.store}, memForms{env.store}, memAtts{env.store}, env.storage, env.locator, testS3Config(),
	)
}

func uploadInput(env *lifecycleEnv, subID uuid.UUID, body []byte) *service.AttachmentUploadInput {
	return &service.AttachmentUploadInput{
		SubmissionID: subID,
		FieldID:      env.docFld.ID,
		Caller:       env.owner,
		FileName:     "passport.png",
		Size:         int64(len(body)),
		Body:         bytes.NewReader(body),
	}
}

func TestAttachmentService_Upload(t *testing.T) {
	env := newLifecycleEnv(t)
	svc := newAttachmentService(env)
	sub := env.filledDraft(t)
	body := pngContent()

	env.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "form-attachments" &&
			strings.HasPrefix(in.Key, sub.ID.String()+"/"+env.docFld.ID.String()+"_") &&
			strings.HasSuffix(in.Key, ".png") &&
			in.ContentType == "image/png"
	})).Return(&port.UploadOutput{Location: "loc"}, nil)

	att, err := svc.Upload(context.Background(), uploadInput(env, sub.ID, body))

	require.NoError(t, err)
	assert.Equal(t, "image/png", att.MimeType)
	assert.Equal(t, "form-attachments", att.StorageArea)

	stored := env.store.submission(sub.ID)
	ref, ok := stored.Files[env.docFld.ID.String()]
	require.True(t, ok)
	assert.Equal(t, att.StoragePath, ref.Path)
	assert.Equal(t, "https://files.test/form-attachments/"+att.StoragePath, ref.URL)
	env.storage.AssertExpectations(t)
}

func TestAttachmentService_Upload_ReplacesPrevious(t *testing.T) {
	env := newLifecycleEnv(t)
	svc := newAttachmentService(env)
	sub := env.filledDraft(t)
	ctx := context.Background()

	env.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	first, err := svc.Upload(ctx, uploadInput(env, sub.ID, pngContent()))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	env.storage.On("Delete", mock.Anything, "form-attachments", first.StoragePath).Return(nil)
	second, err := svc.Upload(ctx, uploadInput(env, sub.ID, pngContent()))
	require.NoError(t, err)

	atts, err := svc.ListBySubmission(ctx, sub.ID, env.owner)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, second.ID, atts[0].ID)
	env.storage.AssertCalled(t, "Delete", mock.Anything, "form-attachments", first.StoragePath)
}

func TestAttachmentService_Upload_Rejections(t *testing.T) {
	env := newLifecycleEnv(t)
	svc := newAttachmentService(env)
	sub := env.filledDraft(t)
	ctx := context.Background()

	t.Run("unsupported type", func(t *testing.T) {
		_, err := svc.Upload(ctx, uploadInput(env, sub.ID, []byte("just some plain text")))
		assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	})

	t.Run("too large", func(t *testing.T) {
		in := uploadInput(env, sub.ID, pngContent())
		in.Size = 2 * 1024 * 1024
		_, err := svc.Upload(ctx, in)
		assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	})

	t.Run("not a file field", func(t *testing.T) {
		in := uploadInput(env, sub.ID, pngContent())
		in.FieldID = env.nameFld.ID
		_, err := svc.Upload(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidFieldValue)
	})

	t.Run("unknown field", func(t *testing.T) {
		in := uploadInput(env, sub.ID, pngContent())
		in.FieldID = uuid.New()
		_, err := svc.Upload(ctx, in)
		assert.ErrorIs(t, err, domain.ErrFieldNotFound)
	})

	t.Run("not the owner", func(t *testing.T) {
		in := uploadInput(env, sub.ID, pngContent())
		in.Caller = service.Caller{UserID: uuid.New(), Role: domain.RoleAdmin}
		_, err := svc.Upload(ctx, in)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	env.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestAttachmentService_Upload_OnlyDrafts(t *testing.T) {
	env := newLifecycleEnv(t)
	svc := newAttachmentService(env)
	sub := env.filledDraft(t)
	_, err := env.svc.SubmitWithoutAI(context.Background(), sub.ID, env.owner)
	require.NoError(t, err)

	_, err = svc.Upload(context.Background(), uploadInput(env, sub.ID, pngContent()))

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestAttachmentService_Upload_StorageFailure(t *testing.T) {
	env := newLifecycleEnv(t)
	svc := newAttachmentService(env)
	sub := env.filledDraft(t)
	env.storage.On("Upload", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := svc.Upload(context.Background(), uploadInput(env, sub.ID, pngContent()))

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	assert.Empty(t, env.store.submission(sub.ID).Files)
}

func TestAttachmentService_Delete(t *testing.T) {
	env := newLifecycleEnv(t)
	svc := newAttachmentService(env)
	sub := env.filledDraft(t)
	ctx := context.Background()

	env.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	att, err := svc.Upload(ctx, uploadInput(env, sub.ID, pngContent()))
	require.NoError(t, err)
	env.storage.On("Delete", mock.Anything, "form-attachments", att.StoragePath).Return(nil)

	require.NoError(t, svc.Delete(ctx, att.ID, env.owner))

	atts, err := svc.ListBySubmission(ctx, sub.ID, env.owner)
	require.NoError(t, err)
	assert.Empty(t, atts)
	assert.NotContains(t, env.store.submission(sub.ID).Files, env.docFld.ID.String())
}

func TestAttachmentService_PublicURL_Presigned(t *testing.T) {
	env := newLifecycleEnv(t)
	cfg := testS3Config()
	cfg.PublicBaseURL = ""
	locator := service.NewAttachmentLocator(env.storage, cfg)
	svc := service.NewAttachmentService(memSubs{env.store}, memForms{env.store}, memAtts{env.store}, env.storage, locator, cfg)
	env.storage.On("GetPresignedURL", mock.Anything, "documents", "a/b.pdf", int64(3600)).Return("https://signed.test/x", nil)

	u, err := svc.PublicURL(context.Background(), "documents", "a/b.pdf")

	require.NoError(t, err)
	assert.Equal(t, "https://signed.test/x", u)
}

func TestAttachmentService_Upload_KeepsValuesSavedDuringUpload(t *testing.T) {
	env := newLifecycleEnv(t)
	svc := newAttachmentService(env)
	sub := env.filledDraft(t)
	ctx := context.Background()
	nameKey := env.nameFld.ID.String()

	env.storage.On("Upload", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			_, err := env.svc.SaveDraft(ctx, &service.SaveDraftInput{
				SubmissionID: sub.ID,
				Caller:       env.owner,
				Values:       domain.FieldValues{nameKey: "Grace Hopper"},
			})
			require.NoError(t, err)
		}).
		Return(&port.UploadOutput{}, nil)

	att, err := svc.Upload(ctx, uploadInput(env, sub.ID, pngContent()))

	require.NoError(t, err)
	stored := env.store.submission(sub.ID)
	assert.Equal(t, "Grace Hopper", stored.Values[nameKey])
	require.Contains(t, stored.Files, env.docFld.ID.String())
	assert.Equal(t, att.StoragePath, stored.Files[env.docFld.ID.String()].Path)
}

type attachmentMocks struct {
	subRepo  *mocks.MockSubmissionRepo
	formRepo *mocks.MockFormRepo
	attRepo  *mocks.MockAttachmentRepo
	storage  *mocks.MockObjectStorage
	svc      service.AttachmentService
	owner    service.Caller
	sub      *domain.Submission
	fieldID  uuid.UUID
}

func newAttachmentMocks() *attachmentMocks {
	m := &attachmentMocks{
		subRepo:  new(mocks.MockSubmissionRepo),
		formRepo: new(mocks.MockFormRepo),
		attRepo:  new(mocks.MockAttachmentRepo),
		storage:  new(mocks.MockObjectStorage),
		owner:    service.Caller{UserID: uuid.New(), Role: domain.RoleUser},
		fieldID:  uuid.New(),
	}
	m.sub = &domain.Submission{ID: uuid.New(), FormID: uuid.New(), SubmittedBy: m.owner.UserID, Status: domain.SubmissionStatusDraft}
	cfg := testS3Config()
	m.svc = service.NewAttachmentService(m.subRepo, m.formRepo, m.attRepo, m.storage, service.NewAttachmentLocator(m.storage, cfg), cfg)

	m.subRepo.On("GetByID", mock.Anything, m.sub.ID).Return(m.sub, nil)
	m.formRepo.On("ListFields", mock.Anything, m.sub.FormID).
		Return([]domain.FormField{{ID: m.fieldID, FormID: m.sub.FormID, Label: "Passport", Type: domain.FieldTypeFile}}, nil)
	m.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	return m
}

func (m *attachmentMocks) input() *service.AttachmentUploadInput {
	body := pngContent()
	return &service.AttachmentUploadInput{
		SubmissionID: m.sub.ID,
		FieldID:      m.fieldID,
		Caller:       m.owner,
		FileName:     "passport.png",
		Size:         int64(len(body)),
		Body:         bytes.NewReader(body),
	}
}

func (m *attachmentMocks) newKey() interface{} {
	return mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, m.sub.ID.String()+"/"+m.fieldID.String()+"_")
	})
}

func TestAttachmentService_Upload_LookupFailureRemovesObject(t *testing.T) {
	m := newAttachmentMocks()
	m.attRepo.On("GetBySubmissionAndField", mock.Anything, m.sub.ID, m.fieldID).Return(nil, errors.New("db down"))
	m.storage.On("Delete", mock.Anything, "form-attachments", m.newKey()).Return(assert.AnError)

	_, err := m.svc.Upload(context.Background(), m.input())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	m.storage.AssertCalled(t, "Delete", mock.Anything, "form-attachments", m.newKey())
	m.attRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAttachmentService_Upload_RowFailureRemovesObject(t *testing.T) {
	m := newAttachmentMocks()
	m.attRepo.On("GetBySubmissionAndField", mock.Anything, m.sub.ID, m.fieldID).Return(nil, domain.ErrAttachmentNotFound)
	m.attRepo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)
	m.storage.On("Delete", mock.Anything, "form-attachments", m.newKey()).Return(nil)

	_, err := m.svc.Upload(context.Background(), m.input())

	assert.ErrorIs(t, err, assert.AnError)
	m.storage.AssertExpectations(t)
	m.subRepo.AssertNotCalled(t, "UpdateFileRef", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAttachmentService_Upload_FileRefFailureRollsBack(t *testing.T) {
	m := newAttachmentMocks()
	previous := &domain.Attachment{ID: uuid.New(), SubmissionID: m.sub.ID, FieldID: m.fieldID, StorageArea: "form-attachments", StoragePath: "older/passport.png"}
	var created uuid.UUID
	m.attRepo.On("GetBySubmissionAndField", mock.Anything, m.sub.ID, m.fieldID).Return(previous, nil)
	m.attRepo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Attachment).ID }).
		Return(nil)
	m.subRepo.On("UpdateFileRef", mock.Anything, m.sub.ID, m.fieldID, mock.Anything).Return(domain.ErrStatusConflict)
	m.storage.On("Delete", mock.Anything, "form-attachments", m.newKey()).Return(nil)
	m.attRepo.On("Delete", mock.Anything, mock.MatchedBy(func(id uuid.UUID) bool { return id == created })).Return(nil)

	_, err := m.svc.Upload(context.Background(), m.input())

	assert.ErrorIs(t, err, domain.ErrStatusConflict)
	m.storage.AssertExpectations(t)
	m.attRepo.AssertExpectations(t)
	m.attRepo.AssertNotCalled(t, "Delete", mock.Anything, previous.ID)
	m.storage.AssertNotCalled(t, "Delete", mock.Anything, "form-attachments", previous.StoragePath)
}
