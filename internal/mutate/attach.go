package mutate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"incidencias-cli/internal/backend"
	"incidencias-cli/internal/model"
)

// AttachmentMaxBytes caps one attachment at 10MB.
const AttachmentMaxBytes int64 = 10 * 1024 * 1024

var ErrFileType = errors.New("solo se admiten imágenes, PDF o Word")

var allowedExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".pdf": true,
	".doc": true, ".docx": true,
}

// ValidateAttachment checks the type and size rules for one file.
func ValidateAttachment(name string, size int64) error {
	if !allowedExts[strings.ToLower(filepath.Ext(name))] {
		return ErrFileType
	}
	if size > AttachmentMaxBytes {
		return fmt.Errorf("el archivo supera el límite de 10MB (%d bytes)", size)
	}
	return nil
}

type blobDocs interface {
	backend.Documents
	backend.Blobs
}

// AddAttachment uploads a local file and appends it to the incident's file
// list. The blob lands under incidencias/<id>/ with a random prefix so two
// uploads of the same filename never collide.
func AddAttachment(ctx context.Context, be blobDocs, in model.Incident, srcPath string) (model.FileRef, error) {
	name := filepath.Base(strings.TrimSpace(srcPath))
	st, err := os.Stat(srcPath)
	if err != nil {
		return model.FileRef{}, err
	}
	if st.IsDir() {
		return model.FileRef{}, fmt.Errorf("%s es un directorio", srcPath)
	}
	if err := ValidateAttachment(name, st.Size()); err != nil {
		return model.FileRef{}, err
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return model.FileRef{}, err
	}

	path := fmt.Sprintf("incidencias/%s/%s-%s", in.ID, uuid.NewString(), name)
	url, err := be.Upload(ctx, path, data)
	if err != nil {
		return model.FileRef{}, err
	}
	ref := model.FileRef{Name: name, URL: url, Path: path}
	files := append(append([]model.FileRef{}, in.Files...), ref)
	if err := be.SetIncidentFiles(ctx, in.ID, files); err != nil {
		return model.FileRef{}, err
	}
	return ref, nil
}

// RemoveAttachment deletes the blob first and then drops the entry from the
// incident's file list. A blob that is already gone does not block the list
// update, so a half-finished removal can be retried.
func RemoveAttachment(ctx context.Context, be blobDocs, in model.Incident, path string) error {
	if err := be.Delete(ctx, path); err != nil {
		return err
	}
	files := make([]model.FileRef, 0, len(in.Files))
	for _, f := range in.Files {
		if f.Path != path {
			files = append(files, f)
		}
	}
	return be.SetIncidentFiles(ctx, in.ID, files)
}
