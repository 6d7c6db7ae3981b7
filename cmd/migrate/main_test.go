package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownTarget(t *testing.T) {
	applied := func(v ...int) func() ([]int, error) {
		return func() ([]int, error) { return v, nil }
	}

	got, err := downTarget([]string{"3"}, applied(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	got, err = downTarget(nil, applied(1, 2, 5))
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	_, err = downTarget(nil, applied())
	assert.Error(t, err)

	_, err = downTarget([]string{"latest"}, applied(1))
	assert.Error(t, err)
}
