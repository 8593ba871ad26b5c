package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/customtoken/internal/api/presenter"
	"github.com/darmiel/customtoken/internal/apierror"
	"github.com/darmiel/customtoken/internal/buildinfo"
	"github.com/darmiel/customtoken/internal/core"
	"github.com/darmiel/customtoken/internal/credentials"
	"github.com/darmiel/customtoken/internal/service"
)

const (
	documentTitle = "Create Custom Token"
	maxBodyBytes  = 1 << 20
)

// handleHealth responds with a simple OK status to indicate the server is healthy.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleAbout responds with service information including version and deployment.
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, buildinfo.ForDeployment(s.deployment), http.StatusOK)
}

func (s *Server) handleNotPost(w http.ResponseWriter, r *http.Request) {
	s.trackPageview(r)
	presenter.JSON(w, r, []core.TokenResult{}, http.StatusOK)
}

// requestEcho is attached to every error as data.req.
type requestEcho struct {
	Body  any            `json:"body"`
	Query map[string]any `json:"query"`
}

// handleCreateTokens mints one custom token per body item using the service account
// given in the client_email, private_key and project_id headers.
func (s *Server) handleCreateTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)
	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("namespace", r.URL.Path)
	})

	s.trackPageview(r)

	query := r.URL.Query()
	echo := requestEcho{Body: []any{}, Query: echoQuery(query)}

	body, err := readBody(w, r)
	if err != nil {
		s.fail(w, r, err, echo)
		return
	}
	if len(body) > 0 {
		echo.Body = echoBody(body)
	}

	mustExist, rawMustExist, err := parseMustExist(query)
	echo.Query[UserMustExistParam] = rawMustExist
	if err != nil {
		s.fail(w, r, err, echo)
		return
	}

	items, err := decodeItems(r, body)
	if err != nil {
		s.fail(w, r, err, echo)
		return
	}

	sa, err := credentials.Validate(credentials.FromHeader(r.Header))
	if err != nil {
		s.fail(w, r, err, echo)
		return
	}

	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("project_id", sa.ProjectID).Int("items", len(items))
	})
	s.tracker.SetUserID(sa.ProjectID)

	result, err := s.tokenService.CreateCustomTokens(ctx, sa, items, service.BatchOptions{
		MustExist: mustExist,
	})
	if err != nil {
		s.fail(w, r, err, echo)
		return
	}

	_ = s.tracker.Event(ctx, core.Event{
		Category: "API",
		Action:   "create",
		Label:    "Custom Token",
		Value:    len(result.Tokens),
	})

	if s.reportSkipped && len(result.Skipped) > 0 {
		idx := make([]string, len(result.Skipped))
		for i, n := range result.Skipped {
			idx[i] = strconv.Itoa(n)
		}
		w.Header().Set(SkippedItemsHeader, strings.Join(idx, ","))
	}

	presenter.JSON(w, r, result.Tokens, http.StatusOK)
}

// fail normalizes err, attaches the request and deployment, reports it and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, echo requestEcho) {
	ctx := r.Context()

	apiErr := service.Normalize(err).With("req", echo)
	for key, value := range s.deployment.Fields() {
		apiErr = apiErr.With(key, value)
	}

	_ = s.tracker.Exception(ctx, core.Exception{
		Description: apiErr.Message,
		Fatal:       false,
	})

	ev := log.Ctx(ctx).Warn()
	if apiErr.Status >= http.StatusInternalServerError {
		ev = log.Ctx(ctx).Error()
	}
	ev.Err(err).
		Int("status", apiErr.Status).
		Str("category", apiErr.Category).
		Msg("custom token request failed")

	presenter.Error(w, r, apiErr)
}

func (s *Server) trackPageview(r *http.Request) {
	host := r.Host
	if host == "" {
		host = "unknown"
	}
	_ = s.tracker.Pageview(r.Context(), core.Pageview{
		DocumentHost:  host,
		DocumentPath:  r.URL.Path,
		DocumentTitle: documentTitle,
		Branch:        s.deployment.Branch,
		Commit:        s.deployment.Commit,
		Env:           s.deployment.Env,
	})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apierror.New(http.StatusBadRequest,
				fmt.Sprintf("Request body exceeds %d bytes.", tooLarge.Limit), nil)
		}
		return nil, apierror.New(http.StatusBadRequest, "Failed to read request body.", nil)
	}
	return bytes.TrimSpace(body), nil
}

// decodeItems decodes the body as a list of token requests.
// An empty body is an empty list. Item fields besides uid and developerClaims are ignored.
func decodeItems(r *http.Request, body []byte) ([]core.TokenRequest, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return nil, apierror.New(http.StatusBadRequest, "Unsupported content type.", map[string]any{
				"errors": map[string]any{"content-type": ct},
			})
		}
	}

	items := []core.TokenRequest{}
	if len(body) == 0 {
		return items, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return nil, apierror.New(http.StatusBadRequest, "Invalid request payload: "+err.Error(), nil)
	}
	// ensure there's no extra data
	if dec.More() {
		return nil, apierror.New(http.StatusBadRequest, "Invalid request payload: extra data in request body", nil)
	}
	return items, nil
}

// parseMustExist reads user_must_exist as a JSON literal and evaluates its truthiness.
// The parameter defaults to true.
func parseMustExist(query url.Values) (bool, any, error) {
	if !query.Has(UserMustExistParam) {
		return true, true, nil
	}
	raw := query.Get(UserMustExistParam)

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return false, raw, apierror.New(http.StatusBadRequest, "Invalid "+UserMustExistParam+".", map[string]any{
			"errors": map[string]any{UserMustExistParam: raw},
		})
	}
	return truthy(v), v, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func echoQuery(query url.Values) map[string]any {
	echo := make(map[string]any, len(query))
	for key, values := range query {
		if len(values) == 1 {
			echo[key] = values[0]
		} else {
			echo[key] = values
		}
	}
	return echo
}

// echoBody returns the body as JSON if it is valid, as a string otherwise.
func echoBody(body []byte) any {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}
