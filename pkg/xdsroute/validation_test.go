package xdsroute_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-rpc/halyard/pkg/xdsroute"
)

func TestValidationErrorsFieldPaths(t *testing.T) {
	v := &xdsroute.ValidationErrors{}
	assert.True(t, v.Ok())
	require.NoError(t, v.ErrorOrNil("prefix"))

	v.PushField(".outer[0]")
	v.AddError("outer broken")
	v.PushField(".inner")
	v.AddError("inner broken")
	v.PopField()
	v.AddError("outer broken again")
	v.PopField()

	assert.False(t, v.Ok())
	err := v.ErrorOrNil("errors validating resource")
	require.Error(t, err)
	assert.Equal(t,
		"errors validating resource: [.outer[0]: outer broken; .outer[0].inner: inner broken; .outer[0]: outer broken again]",
		err.Error())
}
