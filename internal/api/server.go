package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/darmiel/customtoken/internal/analytics"
	"github.com/darmiel/customtoken/internal/api/middleware"
	"github.com/darmiel/customtoken/internal/config"
	"github.com/darmiel/customtoken/internal/core"
	"github.com/darmiel/customtoken/internal/logging"
	"github.com/darmiel/customtoken/internal/service"
)

type Server struct {
	tokenService  *service.TokenService
	tracker       core.Tracker
	deployment    config.Deployment
	reportSkipped bool
	logger        zerolog.Logger
}

type Options struct {
	Deployment    config.Deployment
	ReportSkipped bool
	Logger        zerolog.Logger
}

// NewServer creates a Server. A nil tracker disables analytics.
// Tracker failures are logged and never fail a request.
func NewServer(tokenService *service.TokenService, tracker core.Tracker, opts Options) *Server {
	return &Server{
		tokenService:  tokenService,
		tracker:       analytics.Safe(tracker),
		deployment:    opts.Deployment,
		reportSkipped: opts.ReportSkipped,
		logger:        logging.ForDeployment(opts.Logger, "", opts.Deployment),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// token routes; every other method answers with an empty list
	for _, route := range []string{RootRoute, CreateTokensRoute} {
		mux.HandleFunc("POST "+route, s.handleCreateTokens)
		mux.HandleFunc(route, s.handleNotPost)
	}

	return middleware.CorrelationIDMiddleware(
		middleware.Logging(s.logger, HealthCheckRoute)(
			middleware.RecoverMiddleware(
				mux)))
}
