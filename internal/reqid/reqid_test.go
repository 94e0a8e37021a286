package reqid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx, id := NewContext(context.Background())
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)

	_, ok = FromContext(context.Background())
	require.False(t, ok)
}

func TestNewContextKeepsExistingID(t *testing.T) {
	ctx, id := NewContext(context.Background())
	again, id2 := NewContext(ctx)
	require.Equal(t, id, id2)
	require.Equal(t, ctx, again)
}

func TestIDsAreDistinct(t *testing.T) {
	_, a := NewContext(context.Background())
	_, b := NewContext(context.Background())
	require.NotEqual(t, a, b)
}
