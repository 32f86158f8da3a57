package cli

import (
	"fmt"
	"time"

	"github.com/lazypower/legacy/internal/engine"
	"github.com/lazypower/legacy/internal/store"
	"github.com/spf13/cobra"
)

var (
	registerName  string
	registerEmail string

	settingsThreshold int
	settingsName      string
	settingsContact   string
	settingsRelation  string

	statusDeliveries int
)

var registerCmd = &cobra.Command{
	Use:   "register <principal-id>",
	Short: "Create the record for a new principal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := localEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.DB.Close()

		email := registerEmail
		if email == "" {
			email = args[0]
		}
		p, err := eng.Register(args[0], registerName, email)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", p.ID)
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings <principal-id>",
	Short: "Set the inactivity threshold and beneficiary",
	Long: "Replaces the principal's notification settings. Any change re-arms the\n" +
		"detector. Omit --name and --contact to clear the beneficiary.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := localEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.DB.Close()

		err = eng.UpdateSettings(args[0], store.Settings{
			ThresholdDays:       settingsThreshold,
			BeneficiaryName:     settingsName,
			BeneficiaryContact:  settingsContact,
			BeneficiaryRelation: settingsRelation,
		})
		if err != nil {
			return err
		}
		return printStatus(cmd, eng, args[0], 0)
	},
}

var touchCmd = &cobra.Command{
	Use:   "touch <principal-id>",
	Short: "Record an interaction for a principal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := localEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.DB.Close()

		if err := eng.RecordActivity(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "activity recorded for %s\n", args[0])
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <principal-id>",
	Short: "Show a principal's settings and notification state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := localEngine(cmd)
		if err != nil {
			return err
		}
		defer eng.DB.Close()
		return printStatus(cmd, eng, args[0], statusDeliveries)
	},
}

func printStatus(cmd *cobra.Command, eng *engine.Engine, id string, deliveries int) error {
	st, err := eng.Status(id)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	threshold := fmt.Sprintf("%d days", st.ThresholdDays)
	if !st.ThresholdSet {
		threshold += " (default)"
	}
	fmt.Fprintf(out, "principal:   %s\n", st.PrincipalID)
	fmt.Fprintf(out, "threshold:   %s\n", threshold)
	if st.BeneficiaryName != "" {
		fmt.Fprintf(out, "beneficiary: %s <%s>", st.BeneficiaryName, st.BeneficiaryContact)
		if st.BeneficiaryRelation != "" {
			fmt.Fprintf(out, " (%s)", st.BeneficiaryRelation)
		}
		fmt.Fprintln(out)
	} else {
		fmt.Fprintln(out, "beneficiary: none")
	}
	if st.LastActiveAt != nil {
		fmt.Fprintf(out, "last active: %s (%d days ago)\n", st.LastActiveAt.Format(time.RFC3339), st.DaysInactive)
	} else {
		fmt.Fprintln(out, "last active: never")
	}
	switch {
	case st.Notified && st.NotifiedAt != nil:
		fmt.Fprintf(out, "notified:    yes, %s\n", st.NotifiedAt.Format(time.RFC3339))
	case st.Eligible:
		fmt.Fprintln(out, "notified:    no, due at next sweep")
	default:
		fmt.Fprintln(out, "notified:    no")
	}

	if deliveries <= 0 {
		return nil
	}
	ds, err := eng.Deliveries(id, deliveries)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\ndeliveries (%d):\n", len(ds))
	for _, d := range ds {
		line := fmt.Sprintf("  %s  %-11s %-6s %s", time.UnixMilli(d.CreatedAt).Format(time.RFC3339), d.Role, d.Status, d.Recipient)
		if d.Error != "" {
			line += "  " + d.Error
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "Display name")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Address for self-warnings (default: the principal id)")

	settingsCmd.Flags().IntVarP(&settingsThreshold, "threshold", "t", engine.DefaultThresholdDays, "Inactivity threshold in days (1-3650)")
	settingsCmd.Flags().StringVar(&settingsName, "name", "", "Beneficiary name")
	settingsCmd.Flags().StringVar(&settingsContact, "contact", "", "Beneficiary contact address")
	settingsCmd.Flags().StringVar(&settingsRelation, "relation", "", "Beneficiary relation to the principal")

	statusCmd.Flags().IntVar(&statusDeliveries, "deliveries", 0, "Also list the N most recent delivery attempts")
}
