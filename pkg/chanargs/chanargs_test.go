package chanargs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/halyard-rpc/halyard/pkg/chanargs"
)

func TestWithDoesNotModifyReceiver(t *testing.T) {
	base := chanargs.New().With("a", 1)
	derived := base.With("b", 2)

	assert.False(t, base.Contains("b"))
	assert.True(t, derived.Contains("a"))
	assert.True(t, derived.Contains("b"))

	overwritten := derived.With("a", 42)
	assert.Equal(t, 1, derived.Int("a", 0))
	assert.Equal(t, 42, overwritten.Int("a", 0))
}

func TestWithout(t *testing.T) {
	args := chanargs.New().With("a", 1).With("b", 2)

	stripped := args.Without("a")
	assert.False(t, stripped.Contains("a"))
	assert.True(t, stripped.Contains("b"))
	assert.True(t, args.Contains("a"))

	// Removing an absent key returns the same snapshot.
	assert.Same(t, stripped, stripped.Without("missing"))
}

func TestTypedGetters(t *testing.T) {
	args := chanargs.New().
		With("s", "text").
		With("i", 7).
		With("b", true).
		With("d", 3*time.Second)

	assert.Equal(t, "text", args.String("s", ""))
	assert.Equal(t, 7, args.Int("i", 0))
	assert.True(t, args.Bool("b", false))
	assert.Equal(t, 3*time.Second, args.Duration("d", 0))

	// Absent keys and type mismatches fall back to the default.
	assert.Equal(t, "def", args.String("missing", "def"))
	assert.Equal(t, 9, args.Int("s", 9))
	assert.False(t, args.Bool("i", false))
	assert.Equal(t, time.Minute, args.Duration("s", time.Minute))
}

func TestNilSnapshot(t *testing.T) {
	var args *chanargs.Args
	assert.Nil(t, args.Value("k"))
	assert.False(t, args.Contains("k"))
	assert.Equal(t, "{}", args.Format())

	derived := args.With("k", "v")
	assert.Equal(t, "v", derived.String("k", ""))
}

func TestFormatSortsKeys(t *testing.T) {
	args := chanargs.New().With("z", 1).With("a", 2).With("m", "x")
	assert.Equal(t, "{a=2, m=x, z=1}", args.Format())
}
