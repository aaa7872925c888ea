package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	args, err := parseArgs([]string{"a=1", "b=2.5", "name=histogram_0", "flag=true", "raw=\"7\""})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a":    1.0,
		"b":    2.5,
		"name": "histogram_0",
		"flag": true,
		"raw":  "7",
	}, args)

	_, err = parseArgs([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseArgs([]string{"=1"})
	assert.Error(t, err)
}
