// Package storage keeps uploaded point photos and item icons.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("object not found")

// Info describes a stored object.
type Info struct {
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Storage is a flat namespace of image objects.
type Storage interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	Get(ctx context.Context, name string) (io.ReadCloser, Info, error)
	Delete(ctx context.Context, name string) error
}

// ValidName reports whether name is usable as a flat object name.
func ValidName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && path.Clean(name) == name
}

// ObjectName returns a unique name for an upload called original, in the
// form <uuid>-<slug>.jpg. The extension is always .jpg because uploads are
// re-encoded as JPEG before they are stored.
func ObjectName(original string) string {
	id := uuid.NewString()
	if slug := slugify(original); slug != "" {
		return id + "-" + slug + ".jpg"
	}
	return id + ".jpg"
}

func slugify(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(base) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= 40 {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}
