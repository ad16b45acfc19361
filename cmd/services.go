package cmd

import (
	"errors"

	"github.com/joshmayeda/pGEN-server/internal/auth"
	"github.com/joshmayeda/pGEN-server/internal/config"
	"github.com/joshmayeda/pGEN-server/internal/document"
	"github.com/joshmayeda/pGEN-server/internal/drive"
	"github.com/joshmayeda/pGEN-server/internal/images"
	"github.com/joshmayeda/pGEN-server/internal/layout"
	"github.com/joshmayeda/pGEN-server/internal/pipeline"
	"github.com/joshmayeda/pGEN-server/internal/upload"
)

var errUploadDisabled = errors.New("Google Drive upload needs GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")

func newOrchestrator(cfg config.Config) *pipeline.Orchestrator {
	fetcher := images.NewFetcher()
	fetcher.HTTPClient.Timeout = cfg.FetchTimeout()
	fetcher.MaxBytes = cfg.MaxImageBytes

	o := pipeline.NewOrchestrator(
		fetcher,
		images.NewNormalizer(),
		document.NewAssembler(layout.DefaultGrid),
		layout.DefaultGrid,
	)
	o.Options = pipeline.Options{
		FetchConcurrency:     cfg.FetchConcurrency,
		NormalizeConcurrency: cfg.NormalizeConcurrency,
		MaxCards:             cfg.MaxCards,
	}
	return o
}

func newGoogleProvider(cfg config.Config) (*auth.GoogleProvider, error) {
	provider := auth.NewGoogleProvider(auth.GoogleConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
	})
	if !provider.Configured() {
		return nil, errUploadDisabled
	}
	return provider, nil
}

func newUploadService(cfg config.Config, p upload.Generator) (*upload.Service, *auth.GoogleProvider, error) {
	provider, err := newGoogleProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	return upload.NewService(p, provider, drive.NewOpener(cfg.Google.FolderID)), provider, nil
}
