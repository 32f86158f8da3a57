package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/lazypower/legacy/internal/auth"
	"github.com/spf13/cobra"
)

var (
	tokenTTL   time.Duration
	tokenEmail string
)

var tokenCmd = &cobra.Command{
	Use:   "token <principal-id>",
	Short: "Mint a bearer token for a principal",
	Long: "Mints an HS256 token signed with auth.jwt_secret. Use it with `legacy ping`\n" +
		"or any HTTP client to record heartbeats. A zero --ttl never expires.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is required (set LEGACY_JWT_SECRET)")
		}
		tok, err := auth.Issue(cfg.Auth.JWTSecret, cfg.Auth.Issuer, args[0], tokenEmail, time.Now(), tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (0 for no expiry)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim used on registration")
}
