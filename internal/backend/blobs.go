package backend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"incidencias-cli/internal/model"
)

// Blob storage is a plain directory tree under the workspace. Paths are
// slash-separated and must stay inside the tree; the returned URL is the
// file:// form of the absolute path so detail views can open it directly.

func (l *Local) blobsRoot() string {
	return filepath.Join(l.dir, "blobs")
}

func (l *Local) blobAbsPath(path string) (string, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return "", errors.New("backend: empty blob path")
	}
	for _, part := range strings.Split(path, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("backend: invalid blob path %q", path)
		}
	}
	return filepath.Join(l.blobsRoot(), filepath.FromSlash(path)), nil
}

func (l *Local) Upload(ctx context.Context, path string, data []byte) (string, error) {
	abs, err := l.blobAbsPath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", err
	}
	return "file://" + abs, nil
}

func (l *Local) List(ctx context.Context, prefix string) ([]model.FileRef, error) {
	absPrefix, err := l.blobAbsPath(prefix)
	if err != nil {
		return nil, err
	}
	var out []model.FileRef
	err = filepath.WalkDir(absPrefix, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.blobsRoot(), p)
		if err != nil {
			return err
		}
		out = append(out, model.FileRef{
			Name: d.Name(),
			URL:  "file://" + p,
			Path: filepath.ToSlash(rel),
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Delete removes one blob. A missing object is not an error: the caller may
// be retrying a half-finished removal.
func (l *Local) Delete(ctx context.Context, path string) error {
	abs, err := l.blobAbsPath(path)
	if err != nil {
		return err
	}
	err = os.Remove(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// sweepBlobs drops every blob stored for an incident. Best effort; the
// record itself is already gone.
func (l *Local) sweepBlobs(incidentID string) {
	abs, err := l.blobAbsPath("incidencias/" + incidentID)
	if err != nil {
		return
	}
	_ = os.RemoveAll(abs)
}
