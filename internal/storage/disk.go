package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
)

// Disk stores objects as files in a single directory.
type Disk struct {
	Dir string
}

// NewDisk returns a Disk rooted at dir, creating it if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Disk{Dir: dir}, nil
}

// Put writes data to a temporary file and renames it into place.
func (d *Disk) Put(_ context.Context, name string, data []byte, _ string) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid object name %q", name)
	}

	tmp, err := os.CreateTemp(d.Dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing object: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.Dir, name)); err != nil {
		return fmt.Errorf("storing object: %w", err)
	}
	return nil
}

// Get opens the named file. The content type is derived from the extension.
func (d *Disk) Get(_ context.Context, name string) (io.ReadCloser, Info, error) {
	if !ValidName(name) {
		return nil, Info{}, ErrNotFound
	}

	f, err := os.Open(filepath.Join(d.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Info{}, ErrNotFound
	}
	if err != nil {
		return nil, Info{}, fmt.Errorf("opening object: %w", err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Info{}, fmt.Errorf("stat object: %w", err)
	}
	if st.IsDir() {
		f.Close()
		return nil, Info{}, ErrNotFound
	}

	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return f, Info{Size: st.Size(), ContentType: ct, ModTime: st.ModTime()}, nil
}

// Delete removes the named file. Missing files are not an error.
func (d *Disk) Delete(_ context.Context, name string) error {
	if !ValidName(name) {
		return nil
	}
	err := os.Remove(filepath.Join(d.Dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}
