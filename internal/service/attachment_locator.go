package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"veriform/internal/config"
	"veriform/internal/domain"
	"veriform/internal/port"
)

// AttachmentLocator turns attachment metadata into storage references and URLs.
type AttachmentLocator struct {
	storage       port.ObjectStorage
	areas         domain.StorageAreas
	publicBaseURL string
	presignExpiry int64
}

// NewAttachmentLocator creates a locator from the storage settings.
func NewAttachmentLocator(storage port.ObjectStorage, cfg *config.S3Config) *AttachmentLocator {
	return &AttachmentLocator{
		storage:       storage,
		areas:         domain.StorageAreas{Known: cfg.KnownBuckets, Default: cfg.DefaultBucket},
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		presignExpiry: cfg.PresignExpiry,
	}
}

// Resolve works out the storage reference for att.
func (l *AttachmentLocator) Resolve(att *domain.Attachment) (domain.StorageRef, bool) {
	return domain.ResolveStorageRef(att, l.areas)
}

// PublicURL returns a URL the AI workflow or a browser can fetch.
func (l *AttachmentLocator) PublicURL(ctx context.Context, area, path string) (string, error) {
	if l.publicBaseURL != "" {
		return l.publicBaseURL + "/" + url.PathEscape(area) + "/" + escapePath(path), nil
	}
	u, err := l.storage.GetPresignedURL(ctx, area, path, l.presignExpiry)
	if err != nil {
		return "", fmt.Errorf("presigning %s/%s: %w", area, path, err)
	}
	return u, nil
}

// URL resolves att and returns its URL. ok is false when the attachment has
// no usable storage reference.
func (l *AttachmentLocator) URL(ctx context.Context, att *domain.Attachment) (u string, ok bool, err error) {
	ref, ok := l.Resolve(att)
	if !ok {
		return "", false, nil
	}
	u, err = l.PublicURL(ctx, ref.Area, ref.Path)
	if err != nil {
		return "", true, err
	}
	return u, true, nil
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
