package client

import (
	"context"

	"github.com/darmiel/customtoken/internal/api"
	"github.com/darmiel/customtoken/internal/buildinfo"
)

// Info returns the build and deployment information of the server.
func (c *Client) Info(ctx context.Context) (*buildinfo.Info, string, error) {
	var info buildinfo.Info
	header, err := c.get(ctx, c.url().
		setPath(api.AboutRoute).
		build(), &info)
	if err != nil {
		return nil, correlationFromHeader(header), err
	}
	return &info, correlationFromHeader(header), nil
}
