package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshmayeda/pGEN-server/internal/decklist"
	"github.com/joshmayeda/pGEN-server/internal/document"
	"github.com/joshmayeda/pGEN-server/internal/layout"
)

func newGenerateCmd(flags *rootFlags) *cobra.Command {
	var (
		deckPath string
		output   string
		verify   bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render a deck file to a printable PDF",
		Long: `Reads a deck file and writes the printable PDF locally.

Deck files list {image, amount} entries as JSON ({"allCards": [...]} or a
bare array), JSON Lines, YAML or Parquet.`,
		Example: `  pgen generate --deck deck.json
  pgen generate --deck deck.yaml --output proxies.pdf --verify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deckPath == "" {
				return errors.New("--deck is required")
			}

			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			reqs, err := decklist.NewLoader(deckPath).Requests()
			if err != nil {
				return fmt.Errorf("failed to load deck: %w", err)
			}

			result, err := newOrchestrator(cfg).Run(cmd.Context(), reqs)
			if err != nil {
				return fmt.Errorf("failed to generate PDF: %w", err)
			}

			if verify {
				report, err := document.Verify(result.PDF, result.Pages, layout.PageWidth, layout.PageHeight)
				if err != nil {
					return fmt.Errorf("generated PDF failed verification: %w", err)
				}
				slog.Info("Verified PDF", "pages", report.Pages, "width", report.PageWidth, "height", report.PageHeight)
			}

			if err := os.WriteFile(output, result.PDF, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			writeOut(cmd, "Wrote %s (%d cards, %d pages)\n", output, result.Cards, result.Pages)
			return nil
		},
	}

	cmd.Flags().StringVarP(&deckPath, "deck", "d", "", "Deck file (.json, .jsonl, .yaml, .parquet)")
	cmd.Flags().StringVarP(&output, "output", "o", "generated-deck.pdf", "Output PDF path")
	cmd.Flags().BoolVar(&verify, "verify", false, "Validate the PDF structure and page count before writing")

	return cmd
}
