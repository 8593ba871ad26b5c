package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/darmiel/customtoken/internal/api"
	"github.com/darmiel/customtoken/internal/core"
	"github.com/darmiel/customtoken/internal/credentials"
)

// CreateTokensOptions contains optional parameters for creating custom tokens.
type CreateTokensOptions struct {
	// SkipUserCheck disables the server-side check that every user exists.
	SkipUserCheck bool
}

// CreateTokensResponse is the outcome of a successful batch.
type CreateTokensResponse struct {
	Tokens []core.TokenResult

	// Skipped holds the indexes of items without uid. It is only populated
	// if the server reports skipped items.
	Skipped []int

	CorrelationID string
}

// CreateCustomTokens asks the server to mint a token for every item, signed by sa.
func (c *Client) CreateCustomTokens(
	ctx context.Context,
	sa *core.ServiceAccount,
	items []core.TokenRequest,
	opts CreateTokensOptions,
) (*CreateTokensResponse, error) {
	if items == nil {
		items = []core.TokenRequest{}
	}

	ub := c.url().setPath(api.CreateTokensRoute)
	if opts.SkipUserCheck {
		ub = ub.addQueryParam(api.UserMustExistParam, false)
	}

	var tokens []core.TokenResult
	header, err := c.post(ctx, ub.build(), credentials.Header(sa), items, &tokens)
	if err != nil {
		return nil, fmt.Errorf("creating custom tokens: %w", err)
	}

	return &CreateTokensResponse{
		Tokens:        tokens,
		Skipped:       parseSkipped(header.Get(api.SkippedItemsHeader)),
		CorrelationID: correlationFromHeader(header),
	}, nil
}

func parseSkipped(header string) []int {
	if header == "" {
		return nil
	}
	var out []int
	for _, part := range strings.Split(header, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, n)
		}
	}
	return out
}
