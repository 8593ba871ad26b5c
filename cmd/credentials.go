package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/customtoken/internal/firebase"
)

var credentialsKeyFile string

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Work with service account credentials",
}

var credentialsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that a service account key can sign custom tokens",
	Long: `Runs a service account key file through the same checks the server applies
to the client_email, private_key and project_id headers, and parses the private key.`,
	Example: `  customtoken credentials validate -k service-account.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sa, err := readServiceAccount(credentialsKeyFile)
		if err != nil {
			fmt.Printf("%s %v\n", red("✘"), err)
			return err
		}

		if _, err := firebase.CredentialFromServiceAccount(sa); err != nil {
			fmt.Printf("%s %v\n", red("✘"), err)
			return err
		}

		log.Debug().Str("client_email", sa.ClientEmail).Msg("Service account is valid")
		fmt.Printf("%s Service account %s for project %s is valid\n",
			green("✔"), bold(sa.ClientEmail), bold(sa.ProjectID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsValidateCmd)

	f.bindKeyFlag(credentialsValidateCmd.Flags(), &credentialsKeyFile)
	_ = credentialsValidateCmd.MarkFlagRequired("key")
}
