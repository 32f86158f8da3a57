package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lazypower/legacy/internal/client"
	"github.com/spf13/cobra"
)

var (
	pingURL   string
	pingToken string
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Record a heartbeat on a running legacy server",
	RunE: func(cmd *cobra.Command, args []string) error {
		tok := pingToken
		if tok == "" {
			tok = os.Getenv("LEGACY_TOKEN")
		}
		if tok == "" {
			return errors.New("a token is required (--token or LEGACY_TOKEN)")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		c := client.New(pingURL, tok)
		if !c.Healthy(ctx) {
			return errors.New("server unreachable")
		}
		if err := c.Ping(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

func init() {
	pingCmd.Flags().StringVar(&pingURL, "url", "", "Server URL (default $LEGACY_URL or http://127.0.0.1:37780)")
	pingCmd.Flags().StringVar(&pingToken, "token", "", "Bearer token (default $LEGACY_TOKEN)")
}
