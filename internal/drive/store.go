// Package drive stores generated decks in Google Drive.
package drive

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/oauth2"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/joshmayeda/pGEN-server/internal/errs"
)

// StoredFile describes an uploaded blob
type StoredFile struct {
	ID          string
	Name        string
	MimeType    string
	WebViewLink string
	Size        int64
}

// BlobStore persists a named stream
type BlobStore interface {
	Create(ctx context.Context, name, mimeType string, r io.Reader) (*StoredFile, error)
}

// Opener builds a BlobStore acting on behalf of the owner of ts
type Opener func(ctx context.Context, ts oauth2.TokenSource) (BlobStore, error)

// Store is a BlobStore backed by the Drive v3 API
type Store struct {
	files    *drivev3.FilesService
	FolderID string
}

// NewStore creates a Drive store. FolderID, when set, is the parent
// folder of every created file.
func NewStore(ctx context.Context, folderID string, opts ...option.ClientOption) (*Store, error) {
	srv, err := drivev3.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return &Store{files: srv.Files, FolderID: folderID}, nil
}

// NewOpener returns an Opener creating Stores that upload into folderID.
// Extra options are appended after the token source.
func NewOpener(folderID string, extra ...option.ClientOption) Opener {
	return func(ctx context.Context, ts oauth2.TokenSource) (BlobStore, error) {
		opts := append([]option.ClientOption{option.WithTokenSource(ts)}, extra...)
		return NewStore(ctx, folderID, opts...)
	}
}

// Create uploads r as a new file. Failures are errs.UploadFailed.
func (s *Store) Create(ctx context.Context, name, mimeType string, r io.Reader) (*StoredFile, error) {
	meta := &drivev3.File{
		Name:     name,
		MimeType: mimeType,
	}
	if s.FolderID != "" {
		meta.Parents = []string{s.FolderID}
	}

	f, err := s.files.Create(meta).
		Media(r, googleapi.ContentType(mimeType)).
		Fields("id", "name", "mimeType", "webViewLink", "size").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errs.Wrap(errs.UploadFailed, "", err, "failed to upload %s", name)
	}

	slog.Info("Uploaded file to Drive", "file_id", f.Id, "name", f.Name, "size", f.Size)
	return &StoredFile{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		WebViewLink: f.WebViewLink,
		Size:        f.Size,
	}, nil
}
