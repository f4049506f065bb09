package heaputils_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kheap/heaputils"
)

func TestAlignUp(t *testing.T) {
	require.Equal(t, 0, heaputils.AlignUp(0, 8))
	require.Equal(t, 8, heaputils.AlignUp(1, 8))
	require.Equal(t, 8, heaputils.AlignUp(8, 8))
	require.Equal(t, 128, heaputils.AlignUp(100, 64))
}

func TestAlignDown(t *testing.T) {
	require.Equal(t, 0, heaputils.AlignDown(7, 8))
	require.Equal(t, 8, heaputils.AlignDown(8, 8))
	require.Equal(t, 64, heaputils.AlignDown(100, 64))
}

func TestIsAligned(t *testing.T) {
	require.True(t, heaputils.IsAligned(0, 8))
	require.True(t, heaputils.IsAligned(64, 8))
	require.False(t, heaputils.IsAligned(65, 8))
}

func TestCheckPow2(t *testing.T) {
	require.NoError(t, heaputils.CheckPow2(uint(1), "align"))
	require.NoError(t, heaputils.CheckPow2(uint(4096), "align"))

	err := heaputils.CheckPow2(uint(24), "align")
	require.ErrorIs(t, err, heaputils.PowerOfTwoError)
	require.ErrorIs(t, heaputils.CheckPow2(uint(0), "align"), heaputils.PowerOfTwoError)
}
