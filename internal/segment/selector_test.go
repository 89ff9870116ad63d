package segment

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoose_InvalidDuration(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := Choose(0, 60, 120, rng)
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = Choose(-5*time.Second, 60, 120, rng)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestChoose_ShortClipPlayedWhole(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	// Clip shorter than the minimum window.
	plan, err := Choose(42*time.Second, 60, 120, rng)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), plan.Start)
	assert.Equal(t, 42*time.Second, plan.Duration)

	// Exactly the minimum window still counts as "no clipping possible".
	plan, err = Choose(60*time.Second, 60, 120, rng)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), plan.Start)
	assert.Equal(t, 60*time.Second, plan.Duration)
}

func TestChoose_BoundsHoldForAnySeed(t *testing.T) {
	clips := []time.Duration{
		61 * time.Second,
		90 * time.Second,
		2 * time.Minute,
		10 * time.Minute,
		3 * time.Hour,
	}

	for seed := int64(0); seed < 200; seed++ {
		rng := rand.New(rand.NewSource(seed))
		for _, total := range clips {
			plan, err := Choose(total, 60, 120, rng)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, plan.Duration, 60*time.Second)
			assert.LessOrEqual(t, plan.Duration, 120*time.Second)
			assert.LessOrEqual(t, plan.Duration, total)
			assert.GreaterOrEqual(t, plan.Start, time.Duration(0))
			assert.LessOrEqual(t, plan.Start+plan.Duration, total)
		}
	}
}

func TestChoose_FixedLengthWindow(t *testing.T) {
	// min == max pins the segment length exactly.
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		plan, err := Choose(10*time.Minute, 60, 60, rng)
		require.NoError(t, err)
		assert.Equal(t, 60*time.Second, plan.Duration)
		assert.LessOrEqual(t, plan.Start, 9*time.Minute)
	}
}

func TestChoose_NormalizesRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	// Zero minimum is raised to one second.
	plan, err := Choose(30*time.Second, 0, 0, rng)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, plan.Duration, time.Second)

	// max below min clamps up to min rather than erroring.
	plan, err = Choose(10*time.Minute, 90, 30, rng)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, plan.Duration)
}

func TestChoose_DeterministicWithSeed(t *testing.T) {
	a, err := Choose(10*time.Minute, 60, 120, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	b, err := Choose(10*time.Minute, 60, 120, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
