// Package upload generates a deck and stores it in the caller's Drive.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"

	"github.com/joshmayeda/pGEN-server/internal/auth"
	"github.com/joshmayeda/pGEN-server/internal/drive"
	"github.com/joshmayeda/pGEN-server/internal/errs"
	"github.com/joshmayeda/pGEN-server/internal/models"
	"github.com/joshmayeda/pGEN-server/internal/pipeline"
)

// Defaults for stored decks
const (
	FileName = "generated-deck.pdf"
	MimeType = "application/pdf"
)

// Generator produces a deck PDF
type Generator interface {
	Run(ctx context.Context, reqs []models.CardRequest) (*pipeline.Result, error)
}

// Service runs the deck pipeline and persists the result
type Service struct {
	Pipeline Generator
	Tokens   auth.TokenProvider
	Open     drive.Opener
	// TempDir is where the PDF is staged before upload; "" uses os.TempDir
	TempDir string
}

func NewService(p Generator, tokens auth.TokenProvider, open drive.Opener) *Service {
	return &Service{Pipeline: p, Tokens: tokens, Open: open}
}

// Persist authorizes, generates and uploads a deck. An authorization
// code takes precedence over a refresh token.
func (s *Service) Persist(ctx context.Context, req models.UploadRequest) (*models.UploadResult, error) {
	tok, err := s.resolveToken(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := s.Pipeline.Run(ctx, req.CardRequests())
	if err != nil {
		return nil, err
	}

	store, err := s.Open(ctx, s.Tokens.TokenSource(ctx, tok))
	if err != nil {
		return nil, errs.Wrap(errs.UploadFailed, "", err, "failed to open Drive")
	}

	var stored *drive.StoredFile
	err = drive.WithTempFile(s.TempDir, "pgen-*.pdf", func(f *os.File) error {
		if _, err := f.Write(result.PDF); err != nil {
			return fmt.Errorf("failed to stage PDF: %w", err)
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("failed to rewind staged PDF: %w", err)
		}
		sf, err := store.Create(ctx, FileName, MimeType, f)
		if err != nil {
			return err
		}
		stored = sf
		return nil
	})
	if err != nil {
		return nil, typed(err, errs.UploadFailed, "failed to upload deck")
	}

	slog.Info("Stored deck", "run_id", result.RunID, "file_id", stored.ID, "pages", result.Pages)

	return &models.UploadResult{
		FileID:       stored.ID,
		Name:         stored.Name,
		WebViewLink:  stored.WebViewLink,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		Pages:        result.Pages,
		Cards:        result.Cards,
	}, nil
}

func (s *Service) resolveToken(ctx context.Context, req models.UploadRequest) (*oauth2.Token, error) {
	var (
		tok *oauth2.Token
		err error
	)
	switch {
	case strings.TrimSpace(req.Code) != "":
		tok, err = s.Tokens.ExchangeCode(ctx, req.Code)
	case strings.TrimSpace(req.RefreshToken) != "":
		tok, err = s.Tokens.Refresh(ctx, req.RefreshToken)
	default:
		return nil, errs.New(errs.InvalidRequest, "", "an authorization code or refresh token is required")
	}
	if err != nil {
		return nil, typed(err, errs.Unauthorized, "failed to authorize upload")
	}
	return tok, nil
}

func typed(err error, kind errs.Kind, msg string) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return errs.Wrap(kind, "", err, "%s", msg)
}
