package domain

import (
	"regexp"
	"strings"
)

// StorageRef locates one object inside a named storage area (bucket).
type StorageRef struct {
	Area string
	Path string
}

// StorageAreas describes the areas the platform knows about.
type StorageAreas struct {
	Known   []string
	Default string
}

func (a StorageAreas) isKnown(name string) bool {
	for _, k := range a.Known {
		if k == name {
			return true
		}
	}
	return false
}

var publicURLPrefix = regexp.MustCompile(`^https?://[^/]+/storage/v1/object/(?:public|sign)/`)
var genericURLPrefix = regexp.MustCompile(`^https?://[^/]+/`)

// ResolveStorageRef works out where an attachment's bytes live.
//
// Rows written since the bucket/path columns exist carry both and win.
// Older rows only have a full path or public URL in LegacyURL; the host and
// storage API prefix are stripped and the first segment is taken as the
// area when it names a known area. Otherwise the explicit area (if any) or
// the default area is used with the remaining path.
// The second return value is false when nothing usable is stored.
func ResolveStorageRef(att *Attachment, areas StorageAreas) (StorageRef, bool) {
	explicitArea := strings.TrimSpace(att.StorageArea)
	explicitPath := strings.TrimLeft(strings.TrimSpace(att.StoragePath), "/")
	if explicitArea != "" && explicitPath != "" {
		return StorageRef{Area: explicitArea, Path: explicitPath}, true
	}

	full := strings.TrimSpace(att.LegacyURL)
	if full == "" {
		full = explicitPath
	}
	if full == "" {
		return StorageRef{}, false
	}

	stripped := publicURLPrefix.ReplaceAllString(full, "")
	if stripped == full {
		stripped = genericURLPrefix.ReplaceAllString(full, "")
	}
	if i := strings.IndexAny(stripped, "?#"); i >= 0 {
		stripped = stripped[:i]
	}
	stripped = strings.TrimLeft(stripped, "/")
	if stripped == "" {
		return StorageRef{}, false
	}

	fallback := explicitArea
	if fallback == "" {
		fallback = areas.Default
	}

	parts := strings.SplitN(stripped, "/", 2)
	if len(parts) < 2 || parts[1] == "" {
		if fallback == "" {
			return StorageRef{}, false
		}
		return StorageRef{Area: fallback, Path: stripped}, true
	}

	if areas.isKnown(parts[0]) {
		return StorageRef{Area: parts[0], Path: parts[1]}, true
	}
	if fallback == "" {
		return StorageRef{}, false
	}
	return StorageRef{Area: fallback, Path: stripped}, true
}
