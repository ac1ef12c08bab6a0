package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var resendCmd = &cobra.Command{
	Use:   "resend [id]",
	Short: "Re-run the notifications of a submission or application",
	Long: `Re-run the notifications of a stored submission or application.

Tasks that already succeeded are skipped unless --force is given. With no
--kind every applicable task is considered. The subject type is taken from
the existing task rows unless --type is set.

Example:
  intakectl resend 6f1c...
  intakectl resend 6f1c... --kind internal_email --force
  intakectl resend 6f1c... --type estate_planning_application`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		kinds, _ := cmd.Flags().GetStringSlice("kind")
		force, _ := cmd.Flags().GetBool("force")
		subjectType, _ := cmd.Flags().GetString("type")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		id, err := uuid.Parse(args[0])
		if err != nil {
			fail("Invalid id %q: %v", args[0], err)
		}

		c, err := connect()
		if err != nil {
			fail("Failed to connect: %v", err)
		}
		defer release(c)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		tasks, err := c.Notifier.Resend(ctx, subjectType, id, kinds, force)
		if err != nil {
			fail("Resend failed: %v", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tSTATUS\tATTEMPTS\tERROR")
		for _, t := range tasks {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", t.Kind, t.Status, t.Attempts, t.LastError)
		}
		_ = w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(resendCmd)
	resendCmd.Flags().StringSliceP("kind", "k", nil, "Task kinds to run (internal_email, confirmation_email, crm_sync)")
	resendCmd.Flags().BoolP("force", "f", false, "Run tasks that already succeeded")
	resendCmd.Flags().StringP("type", "t", "", "Subject type (submission, life_insurance_application, estate_planning_application)")
	resendCmd.Flags().Duration("timeout", 2*time.Minute, "Overall timeout")
}
