package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and print the effective values",
	Long: `Loads the configuration from the config file and the environment
(CUSTOMTOKEN_*, VERCEL_*, GA_TRACKING_ID, FIREBASE_AUTH_EMULATOR_HOST) and validates it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.Config()
		if err != nil {
			log.Error().Err(err).Msg("Configuration is invalid.")
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Key", "Value"})
		t.AppendRows([]table.Row{
			{"addr", cfg.Addr},
			{"report_skipped", strconv.FormatBool(cfg.ReportSkipped)},
			{"max_concurrency", orDefault(strconv.Itoa(cfg.MaxConcurrency), "0", "unlimited")},
			{"deployment.env", orDefault(cfg.Deployment.Env, "", "-")},
			{"deployment.branch", orDefault(cfg.Deployment.Branch, "", "-")},
			{"deployment.commit", orDefault(cfg.Deployment.Commit, "", "-")},
			{"analytics.tracking_id", orDefault(cfg.Analytics.TrackingID, "", "disabled")},
			{"firebase.endpoint", orDefault(cfg.Firebase.Endpoint, "", "default")},
			{"firebase.emulator_host", orDefault(cfg.Firebase.EmulatorHost, "", "-")},
			{"firebase.token_ttl", cfg.Firebase.TokenTTL.String()},
		})
		s := table.StyleRounded
		s.Format.Header = text.FormatDefault
		t.SetStyle(s)
		t.Render()

		log.Info().Msg("Configuration is valid.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}

func orDefault(value, empty, fallback string) string {
	if value == empty {
		return faint(fmt.Sprintf("(%s)", fallback))
	}
	return value
}
