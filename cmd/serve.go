package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/customtoken/internal/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the customtoken server",
	Long: `Starts the HTTP server. POST / and POST /api mint custom tokens for the
service account given in the client_email, private_key and project_id headers.`,
	Example: `  customtoken serve --addr :8080

  # against the local auth emulator
  FIREBASE_AUTH_EMULATOR_HOST=localhost:9099 customtoken serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.Config()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log.Info().Msg("Initializing token service...")
		tokenService, err := f.GetLocalService()
		if err != nil {
			return fmt.Errorf("building token service: %w", err)
		}

		tracker, err := f.GetTracker()
		if err != nil {
			return fmt.Errorf("building analytics tracker: %w", err)
		}

		srv := api.NewServer(tokenService, tracker, api.Options{
			Deployment:    cfg.Deployment,
			ReportSkipped: cfg.ReportSkipped,
			Logger:        log.Logger,
		})

		server := &http.Server{
			Addr:              cfg.Addr,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			log.Info().Msgf("Starting server on %s...", cfg.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server crashed")
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		log.Info().Msg("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "address to listen on")
	_ = viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))

	serveCmd.Flags().Bool("report-skipped", false, "list skipped batch items in the X-Skipped-Items header")
	_ = viper.BindPFlag("report_skipped", serveCmd.Flags().Lookup("report-skipped"))

	serveCmd.Flags().Int("max-concurrency", 0, "maximum number of items of a batch processed at once (0 = unlimited)")
	_ = viper.BindPFlag("max_concurrency", serveCmd.Flags().Lookup("max-concurrency"))
}
