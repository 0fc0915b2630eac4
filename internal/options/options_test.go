package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fitConfig struct {
	penalty  float64
	weights  string
	lastCall string
}

func (c *fitConfig) setPenalty(v float64) error {
	if v < 0 {
		return errors.New("penalty cannot be negative")
	}
	c.penalty = v
	c.lastCall = "setPenalty"

	return nil
}

func (c *fitConfig) setWeights(col string) {
	c.weights = col
	c.lastCall = "setWeights"
}

func TestOption_New(t *testing.T) {
	cfg := &fitConfig{}

	t.Run("creates option that can return error", func(t *testing.T) {
		opt := New(func(c *fitConfig) error {
			return c.setPenalty(2.5)
		})

		err := opt.apply(cfg)
		require.NoError(t, err)
		require.Equal(t, 2.5, cfg.penalty)
		require.Equal(t, "setPenalty", cfg.lastCall)
	})

	t.Run("propagates errors from option function", func(t *testing.T) {
		opt := New(func(c *fitConfig) error {
			return c.setPenalty(-1)
		})

		err := opt.apply(cfg)
		require.Error(t, err)
		require.Contains(t, err.Error(), "penalty cannot be negative")
	})
}

func TestOption_NoError(t *testing.T) {
	cfg := &fitConfig{}

	opt := NoError(func(c *fitConfig) {
		c.setWeights("w")
	})

	err := opt.apply(cfg)
	require.NoError(t, err)
	require.Equal(t, "w", cfg.weights)
}

func TestOption_Apply(t *testing.T) {
	t.Run("applies options in order", func(t *testing.T) {
		cfg := &fitConfig{}
		err := Apply(cfg,
			New(func(c *fitConfig) error { return c.setPenalty(1) }),
			NoError(func(c *fitConfig) { c.setWeights("w") }),
		)
		require.NoError(t, err)
		require.Equal(t, 1.0, cfg.penalty)
		require.Equal(t, "w", cfg.weights)
		require.Equal(t, "setWeights", cfg.lastCall)
	})

	t.Run("stops at the first error", func(t *testing.T) {
		cfg := &fitConfig{}
		err := Apply(cfg,
			New(func(c *fitConfig) error { return c.setPenalty(-1) }),
			NoError(func(c *fitConfig) { c.setWeights("never") }),
		)
		require.Error(t, err)
		require.Empty(t, cfg.weights)
	})

	t.Run("no options is a no-op", func(t *testing.T) {
		cfg := &fitConfig{}
		require.NoError(t, Apply(cfg))
	})
}
