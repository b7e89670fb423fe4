package greeting_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-rpc/halyard/pkg/handshake/greeting"
)

func TestGreetingRoundTrip(t *testing.T) {
	out := greeting.Greeting{
		AppName:   "halyard",
		Version:   greeting.Version{Major: 1, Minor: 4, Patch: 2},
		NodeName:  "node-1",
		Nonce:     0xDEADBEEF,
		Timestamp: 1700000000000,
	}

	var buf bytes.Buffer
	n, err := out.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	var in greeting.Greeting
	m, err := in.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, out, in)
	assert.Equal(t, 0, buf.Len())
}

func TestGreetingLeavesTrailingBytes(t *testing.T) {
	out := greeting.Greeting{AppName: "app", NodeName: "n"}

	var buf bytes.Buffer
	_, err := out.WriteTo(&buf)
	require.NoError(t, err)
	buf.WriteString("surplus")

	var in greeting.Greeting
	_, err = in.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, "surplus", buf.String())
}

func TestGreetingTruncated(t *testing.T) {
	out := greeting.Greeting{AppName: "app", NodeName: "node"}
	var buf bytes.Buffer
	_, err := out.WriteTo(&buf)
	require.NoError(t, err)

	truncated := buf.Bytes()[:buf.Len()-3]
	var in greeting.Greeting
	_, err = in.ReadFrom(bytes.NewReader(truncated))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp")
}

func TestOverlongString(t *testing.T) {
	out := greeting.Greeting{AppName: strings.Repeat("x", 256)}
	var buf bytes.Buffer
	_, err := out.WriteTo(&buf)
	require.Error(t, err)
}

func TestVersionCompatible(t *testing.T) {
	v := greeting.Version{Major: 2, Minor: 1, Patch: 0}
	assert.True(t, v.Compatible(greeting.Version{Major: 2, Minor: 9, Patch: 9}))
	assert.False(t, v.Compatible(greeting.Version{Major: 3}))
	assert.Equal(t, "2.1.0", v.String())
}
