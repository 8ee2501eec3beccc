package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerBurst(t *testing.T) {
	p := NewPacer(60, 3)
	assert.False(t, p.Unlimited())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(ctx), "token %d should be available", i+1)
	}
	assert.Error(t, p.Wait(ctx), "burst should be exhausted")
}

func TestPacerUnlimited(t *testing.T) {
	p := NewPacer(0, 0)
	assert.True(t, p.Unlimited())

	for i := 0; i < 100; i++ {
		assert.NoError(t, p.Wait(context.Background()))
	}
}

func TestPacerWaitHonoursContext(t *testing.T) {
	p := NewPacer(1, 1)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Error(t, p.Wait(ctx))
}
