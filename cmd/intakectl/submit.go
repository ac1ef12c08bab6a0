package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/northgate-advisors/intake-backend/pkg/intakeclient"
	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit [payload.json]",
	Short: "Send a normalized submission to a running server",
	Long: `Send a normalized submission to a running server through the
submission client. Useful to smoke-test a deployment.

Example:
  intakectl submit lead.json --url https://api.northgateadvisors.com`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		url, _ := cmd.Flags().GetString("url")

		raw, err := os.ReadFile(args[0])
		if err != nil {
			fail("Failed to read payload: %v", err)
		}
		var p intakeclient.Payload
		if err := json.Unmarshal(raw, &p); err != nil {
			fail("Invalid payload: %v", err)
		}

		res := intakeclient.New(url, 15*time.Second).Submit(context.Background(), p)
		if !res.OK {
			fail("Submission failed: %s", res.Error)
		}
		fmt.Println("Submission accepted")
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringP("url", "u", "http://localhost:8080", "Server base URL")
}
