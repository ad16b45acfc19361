package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshmayeda/pGEN-server/internal/decklist"
	"github.com/joshmayeda/pGEN-server/internal/models"
)

func newUploadCmd(flags *rootFlags) *cobra.Command {
	var (
		deckPath     string
		code         string
		refreshToken string
	)

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Render a deck file and store it in Google Drive",
		Example: `  # First time: authorize with a code from "pgen auth url"
  pgen upload --deck deck.json --code 4/0Ab...

  # Afterwards: reuse the printed refresh token
  pgen upload --deck deck.json --refresh-token 1//0g...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deckPath == "" {
				return errors.New("--deck is required")
			}
			if code == "" && refreshToken == "" {
				return errors.New("one of --code or --refresh-token is required")
			}

			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			entries, err := decklist.NewLoader(deckPath).Load()
			if err != nil {
				return fmt.Errorf("failed to load deck: %w", err)
			}

			svc, _, err := newUploadService(cfg, newOrchestrator(cfg))
			if err != nil {
				return err
			}

			result, err := svc.Persist(cmd.Context(), models.UploadRequest{
				AllCards:     entries,
				Code:         code,
				RefreshToken: refreshToken,
			})
			if err != nil {
				return fmt.Errorf("failed to upload PDF: %w", err)
			}

			writeOut(cmd, "Uploaded %s (%d cards, %d pages)\n", result.Name, result.Cards, result.Pages)
			writeOut(cmd, "File ID: %s\n", result.FileID)
			if result.WebViewLink != "" {
				writeOut(cmd, "Link: %s\n", result.WebViewLink)
			}
			if result.RefreshToken != "" && result.RefreshToken != refreshToken {
				writeOut(cmd, "Refresh token: %s\n", result.RefreshToken)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&deckPath, "deck", "d", "", "Deck file (.json, .jsonl, .yaml, .parquet)")
	cmd.Flags().StringVar(&code, "code", "", "OAuth authorization code")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "OAuth refresh token")
	cmd.MarkFlagsMutuallyExclusive("code", "refresh-token")

	return cmd
}
