package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veriform/internal/service"
)

// AttachmentHandler handles files attached to submission fields.
type AttachmentHandler struct {
	attachments service.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler.
func NewAttachmentHandler(attachments service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// Upload handles POST /api/v1/submissions/:id/fields/:fieldId/attachment
// @Summary Upload the file for a form field
// @Description Replaces any file already on the field. Drafts only.
// @Tags attachments
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Submission ID"
// @Param fieldId path string true "Field ID"
// @Param file formData file true "PDF, JPG, PNG, WEBP or GIF"
// @Success 201 {object} Response{data=domain.Attachment}
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported type"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 500 {object} ErrorResponseBody "Upload failed"
// @Security BearerAuth
// @Router /submissions/{id}/fields/{fieldId}/attachment [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	submissionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	fieldID, ok := parseUUIDParam(c, "fieldId")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	att, err := h.attachments.Upload(c.Request.Context(), &service.AttachmentUploadInput{
		SubmissionID: submissionID,
		FieldID:      fieldID,
		Caller:       caller,
		FileName:     header.Filename,
		Size:         header.Size,
		Body:         file,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, att)
}

// List handles GET /api/v1/submissions/:id/attachments
// @Summary List a submission's attachments
// @Tags attachments
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} Response{data=[]domain.Attachment}
// @Security BearerAuth
// @Router /submissions/{id}/attachments [get]
func (h *AttachmentHandler) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	submissionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	atts, err := h.attachments.ListBySubmission(c.Request.Context(), submissionID, caller)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, atts)
}

// Delete handles DELETE /api/v1/attachments/:id
// @Summary Remove an attachment from a draft
// @Tags attachments
// @Produce json
// @Param id path string true "Attachment ID"
// @Success 200 {object} Response{data=MessageResponse}
// @Failure 404 {object} ErrorResponseBody "Attachment not found"
// @Security BearerAuth
// @Router /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.attachments.Delete(c.Request.Context(), id, caller); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, MessageResponse{Message: "attachment deleted"})
}

// StorageURL handles GET /api/v1/storage/url
// @Summary Build a URL for a stored object
// @Tags attachments
// @Produce json
// @Param bucket query string true "Storage area"
// @Param path query string true "Object path"
// @Success 200 {object} Response{data=StorageURLResponse}
// @Failure 400 {object} ErrorResponseBody "bucket and path are required"
// @Security BearerAuth
// @Router /storage/url [get]
func (h *AttachmentHandler) StorageURL(c *gin.Context) {
	if _, ok := callerFromContext(c); !ok {
		return
	}
	area, path := c.Query("bucket"), c.Query("path")
	if area == "" || path == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "bucket and path are required")
		return
	}
	url, err := h.attachments.PublicURL(c.Request.Context(), area, path)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, StorageURLResponse{URL: url})
}
