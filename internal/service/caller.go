package service

import (
	"github.com/google/uuid"

	"veriform/internal/domain"
)

// Caller is the authenticated actor behind a request.
type Caller struct {
	UserID uuid.UUID
	Role   domain.UserRole
}

func (c Caller) owns(sub *domain.Submission) bool {
	return sub.SubmittedBy == c.UserID
}

// canView allows the owner and reviewer roles.
func (c Caller) canView(sub *domain.Submission) bool {
	return c.owns(sub) || c.Role.CanReview()
}

func (c Caller) requireOwner(sub *domain.Submission) error {
	if !c.owns(sub) {
		return domain.ErrForbidden
	}
	return nil
}

func (c Caller) requireView(sub *domain.Submission) error {
	if !c.canView(sub) {
		return domain.ErrForbidden
	}
	return nil
}
