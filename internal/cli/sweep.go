package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one inactivity sweep and print the summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := localEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.DB.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		res := eng.Sweep(ctx)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "cycle %s (%s)\n", res.CycleID, res.Duration.Round(time.Millisecond))
		fmt.Fprintf(out, "  candidates:        %d\n", res.Candidates)
		fmt.Fprintf(out, "  notified:          %d\n", res.Fired)
		fmt.Fprintf(out, "  delivery failures: %d\n", res.DeliveryFailures)
		fmt.Fprintf(out, "  conflicts:         %d\n", res.Conflicts)
		fmt.Fprintf(out, "  errors:            %d\n", res.Errors)
		if res.Skipped > 0 {
			fmt.Fprintf(out, "  skipped:           %d (interrupted)\n", res.Skipped)
		}
		return nil
	},
}
