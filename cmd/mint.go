package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/customtoken/internal/core"
	"github.com/darmiel/customtoken/internal/service"
	"github.com/darmiel/customtoken/pkg/client"
)

var (
	mintKeyFile       string
	mintBatchFile     string
	mintUIDs          []string
	mintClaims        string
	mintSkipUserCheck bool
	mintOutput        string
)

// mintCmd represents the mint command
var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint custom tokens for one or more users",
	Long: `Mints Firebase custom tokens signed by the given service account.

Modes:
  1. Local (Default): Signs the tokens on this machine.
  2. Remote (--server): Sends the batch to a customtoken server.

Users are read from --uid flags or from a JSON/YAML batch file:

  - uid: alice
    developerClaims:
      role: admin
  - uid: bob`,
	Example: `  # Mint a token for a single user
  customtoken mint -k service-account.json --uid alice

  # Mint a batch through a remote server
  customtoken mint -k service-account.json -f users.yaml --server https://tokens.example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sa, err := readServiceAccount(mintKeyFile)
		if err != nil {
			return err
		}

		items, err := mintItems()
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("no users given (use --uid or --file)")
		}

		var tokens []core.TokenResult
		if f.Remote() {
			log.Debug().Msg("Running 'mint' command in remote mode")
			tokens, err = mintRemote(cmd, sa, items)
		} else {
			log.Debug().Msg("Running 'mint' command in local mode")
			tokens, err = mintLocally(cmd, sa, items)
		}
		if err != nil {
			return err
		}

		return printTokens(tokens)
	},
}

func init() {
	rootCmd.AddCommand(mintCmd)

	f.bindKeyFlag(mintCmd.Flags(), &mintKeyFile)
	mintCmd.Flags().StringVarP(&mintBatchFile, "file", "f", "", "Batch file with token requests (JSON or YAML)")
	mintCmd.Flags().StringArrayVar(&mintUIDs, "uid", nil, "User ID to mint a token for (can be specified multiple times)")
	mintCmd.Flags().StringVar(&mintClaims, "claims", "", "Developer claims (JSON object) for every --uid")
	mintCmd.Flags().BoolVar(&mintSkipUserCheck, "skip-user-check", false, "Do not require the users to exist")
	mintCmd.Flags().StringVarP(&mintOutput, "output", "o", "table", "Output format (table, json)")

	_ = mintCmd.MarkFlagRequired("key")
}

func mintItems() ([]core.TokenRequest, error) {
	var items []core.TokenRequest
	if mintBatchFile != "" {
		batch, err := readBatch(mintBatchFile)
		if err != nil {
			return nil, err
		}
		items = append(items, batch...)
	}

	var claims map[string]any
	if mintClaims != "" {
		if err := json.Unmarshal([]byte(mintClaims), &claims); err != nil {
			return nil, fmt.Errorf("invalid --claims: %w", err)
		}
	}
	for _, uid := range mintUIDs {
		items = append(items, core.TokenRequest{UID: uid, DeveloperClaims: claims})
	}
	return items, nil
}

func mintRemote(cmd *cobra.Command, sa *core.ServiceAccount, items []core.TokenRequest) ([]core.TokenResult, error) {
	cli, err := f.GetClient()
	if err != nil {
		return nil, err
	}

	log.Info().Msgf("Requesting %d custom token(s)...", len(items))
	resp, err := cli.CreateCustomTokens(cmd.Context(), sa, items, client.CreateTokensOptions{
		SkipUserCheck: mintSkipUserCheck,
	})
	if err != nil {
		return nil, logError(err, "", "failed to create custom tokens")
	}
	if len(resp.Skipped) > 0 {
		log.Warn().Ints("items", resp.Skipped).Msg("Skipped items without uid")
	}
	return resp.Tokens, nil
}

func mintLocally(cmd *cobra.Command, sa *core.ServiceAccount, items []core.TokenRequest) ([]core.TokenResult, error) {
	svc, err := f.GetLocalService()
	if err != nil {
		return nil, err
	}

	log.Info().Msgf("Minting %d custom token(s)...", len(items))
	result, err := svc.CreateCustomTokens(cmd.Context(), sa, items, service.BatchOptions{
		MustExist: !mintSkipUserCheck,
	})
	if err != nil {
		normalized := service.Normalize(err)
		log.Error().
			Int("status", normalized.Status).
			Str("category", normalized.Category).
			Interface("data", normalized.Data).
			Msg(normalized.Message)
		return nil, fmt.Errorf("minting failed: %w", err)
	}
	if len(result.Skipped) > 0 {
		log.Warn().Ints("items", result.Skipped).Msg("Skipped items without uid")
	}
	return result.Tokens, nil
}

func printTokens(tokens []core.TokenResult) error {
	switch mintOutput {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tokens)
	case "table":
	default:
		return fmt.Errorf("unknown output format: %s", mintOutput)
	}

	log.Info().Msgf("%s Minted %d token(s)", green("✔"), len(tokens))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"UID", "Claims", "Fingerprint", "Token"})
	for _, tok := range tokens {
		claims := faint("(none)")
		if len(tok.DeveloperClaims) > 0 {
			claims = strconv.Itoa(len(tok.DeveloperClaims)) + " claim(s)"
		}
		t.AppendRow(table.Row{
			bold(truncate(tok.UID, 32)),
			claims,
			faint(core.Fingerprint(tok.Token)),
			tok.Token,
		})
	}

	s := table.StyleRounded
	s.Format.Header = text.FormatDefault
	t.SetStyle(s)
	t.Render()
	return nil
}
