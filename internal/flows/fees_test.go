package flows

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFeeSchedule(t *testing.T) {
	writeFile := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "fees.toml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("partial_file_keeps_defaults", func(t *testing.T) {
		fees, err := LoadFeeSchedule(writeFile(t, "dust_floor = 546\nbase_tx_fee = 3000\n"))
		require.NoError(t, err)
		assert.Equal(t, FeeSchedule{DustFloor: 546, StatecoinMin: DefaultStatecoinMin, StatecoinFee: DefaultStatecoinFee, BaseTxFee: 3000}, fees)
	})

	t.Run("negative_value", func(t *testing.T) {
		_, err := LoadFeeSchedule(writeFile(t, "statecoin_fee = -1\n"))
		require.EqualError(t, err, "validating fee schedule: statecoin_fee cannot be negative, got -1")
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := LoadFeeSchedule(filepath.Join(t.TempDir(), "missing.toml"))
		require.ErrorContains(t, err, "loading fee schedule file")
	})
}

func TestSubmitError(t *testing.T) {
	fieldErr := newSubmitError(&ValidationError{Field: "amount", Message: "too low"})
	assert.True(t, fieldErr.IsFieldError())
	assert.Equal(t, "amount: too low", fieldErr.Error())

	rootErr := newSubmitError(assert.AnError)
	assert.False(t, rootErr.IsFieldError())
	assert.ErrorIs(t, rootErr, assert.AnError)
	assert.Same(t, rootErr, newSubmitError(rootErr))
}

func TestGuard(t *testing.T) {
	var g Guard
	require.True(t, g.TryAcquire())
	require.False(t, g.TryAcquire())
	g.Release()
	require.True(t, g.TryAcquire())

	kg := NewKeyedGuard()
	require.True(t, kg.TryAcquire("a"))
	require.True(t, kg.TryAcquire("b"))
	require.False(t, kg.TryAcquire("a"))
	kg.Release("a")
	require.False(t, kg.InFlight("a"))
}
