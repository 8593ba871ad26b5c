package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/darmiel/customtoken/internal/core"
)

// TokenService mints custom tokens in batches.
type TokenService struct {
	provider       core.IdentityProvider
	maxConcurrency int
}

// NewTokenService creates a TokenService. maxConcurrency <= 0 means unlimited.
func NewTokenService(provider core.IdentityProvider, maxConcurrency int) *TokenService {
	return &TokenService{
		provider:       provider,
		maxConcurrency: maxConcurrency,
	}
}

// itemOutcome is written by exactly one goroutine, at its item's index.
type itemOutcome struct {
	result  *core.TokenResult
	err     error
	skipped bool
}

// CreateCustomTokens mints a token for every entry of items.
//
// Entries are processed concurrently. Entries whose uid is blank after trimming are
// skipped without error. If any entry fails, the error of the first failing entry
// (by position) is returned and no tokens are reported.
func (s *TokenService) CreateCustomTokens(
	ctx context.Context,
	sa *core.ServiceAccount,
	items []core.TokenRequest,
	opts BatchOptions,
) (*BatchResult, error) {
	logger := log.Ctx(ctx)

	client, err := s.provider.Auth(ctx, sa)
	if err != nil {
		return nil, fmt.Errorf("creating auth client: %w", err)
	}

	outcomes := make([]itemOutcome, len(items))

	// a plain group: a failing entry must not cancel its siblings
	var g errgroup.Group
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}
	for i, item := range items {
		g.Go(func() error {
			outcomes[i] = s.createOne(ctx, client, item, opts)
			return nil
		})
	}
	_ = g.Wait()

	result := &BatchResult{Tokens: make([]core.TokenResult, 0, len(items))}
	for i, o := range outcomes {
		switch {
		case o.err != nil:
			logger.Warn().Err(o.err).Int("item", i).Msg("custom token creation failed")
			return nil, o.err
		case o.skipped:
			result.Skipped = append(result.Skipped, i)
		default:
			result.Tokens = append(result.Tokens, *o.result)
		}
	}

	logger.Debug().
		Int("requested", len(items)).
		Int("created", len(result.Tokens)).
		Int("skipped", len(result.Skipped)).
		Msg("custom tokens created")

	return result, nil
}

func (s *TokenService) createOne(
	ctx context.Context,
	client core.AuthClient,
	item core.TokenRequest,
	opts BatchOptions,
) itemOutcome {
	uid := strings.TrimSpace(CoerceUID(item.UID))
	if uid == "" {
		return itemOutcome{skipped: true}
	}

	if opts.MustExist {
		if err := client.UserExists(ctx, uid); err != nil {
			return itemOutcome{err: enrich(err, item)}
		}
	}

	token, err := client.IssueToken(ctx, uid, item.DeveloperClaims)
	if err != nil {
		return itemOutcome{err: err}
	}

	log.Ctx(ctx).Debug().
		Str("uid", uid).
		Str("fingerprint", core.Fingerprint(token)).
		Msg("custom token created")

	return itemOutcome{result: &core.TokenResult{
		UID:             uid,
		DeveloperClaims: item.DeveloperClaims,
		Token:           token,
	}}
}

// enrich attaches the entry's uid and claims to a provider error.
// A new error value is returned; err itself is never modified.
func enrich(err error, item core.TokenRequest) error {
	var pErr *core.ProviderError
	if !errors.As(err, &pErr) {
		return err
	}
	return pErr.WithData(map[string]any{
		"uid":             item.UID,
		"developerClaims": item.DeveloperClaims,
	})
}

// CoerceUID converts a JSON primitive to a uid string.
// Falsy values (nil, false, 0, "") become the empty string.
func CoerceUID(v any) string {
	switch u := v.(type) {
	case nil:
		return ""
	case string:
		return u
	case bool:
		if !u {
			return ""
		}
		return "true"
	case float64:
		if u == 0 {
			return ""
		}
		return strconv.FormatFloat(u, 'f', -1, 64)
	case int:
		if u == 0 {
			return ""
		}
		return strconv.Itoa(u)
	case int64:
		if u == 0 {
			return ""
		}
		return strconv.FormatInt(u, 10)
	case uint64:
		if u == 0 {
			return ""
		}
		return strconv.FormatUint(u, 10)
	case json.Number:
		if f, err := u.Float64(); err == nil {
			return CoerceUID(f)
		}
		return u.String()
	case fmt.Stringer:
		s := u.String()
		if s == "0" {
			return ""
		}
		return s
	default:
		return fmt.Sprint(u)
	}
}
