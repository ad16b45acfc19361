package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joshmayeda/pGEN-server/internal/models"
)

func newAuthCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Obtain Google Drive OAuth tokens",
	}

	cmd.AddCommand(newAuthURLCmd(flags))
	cmd.AddCommand(newAuthExchangeCmd(flags))

	return cmd
}

func newAuthURLCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the Google consent page URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			provider, err := newGoogleProvider(cfg)
			if err != nil {
				return err
			}

			writeOut(cmd, "%s\n", provider.AuthCodeURL(uuid.NewString()))
			return nil
		},
	}
}

func newAuthExchangeCmd(flags *rootFlags) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Exchange an authorization code for tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if code == "" {
				return errors.New("--code is required")
			}

			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			provider, err := newGoogleProvider(cfg)
			if err != nil {
				return err
			}

			tok, err := provider.ExchangeCode(cmd.Context(), code)
			if err != nil {
				return fmt.Errorf("failed to exchange code: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(models.TokenResponse{
				AccessToken:  tok.AccessToken,
				RefreshToken: tok.RefreshToken,
				TokenType:    tok.TokenType,
				Expiry:       tok.Expiry,
			})
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the consent page")

	return cmd
}
