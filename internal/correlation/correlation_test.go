package correlation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))

	ctx := NewContext(context.Background(), "req-1")
	assert.Equal(t, "req-1", FromContext(ctx))
}
