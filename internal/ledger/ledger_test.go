package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkAllRange(t *testing.T) {
	l, err := Open(t.TempDir())
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.MarkAll([]int64{7, 2}))
	require.NoError(t, l.MarkAll([]int64{5, 2, 300}))

	got, err := l.Range(2, 6)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 5, 7}, got)

	all, err := l.All()
	require.NoError(t, err)
	require.Equal(t, []int64{2, 5, 7, 300}, all)
}

func TestMarkAll(t *testing.T) {
	l, err := OpenInMemory()
	require.NoError(t, err)
	defer l.Close()
	require.NoError(t, l.MarkAll(nil))
	require.NoError(t, l.MarkAll([]int64{3, 1, 2}))
	got, err := l.Range(0, 10)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, got)
}

func TestReopenKeepsEntries(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, l.MarkAll([]int64{42}))
	require.NoError(t, l.Close())

	l, err = Open(dir)
	require.NoError(t, err)
	defer l.Close()
	got, err := l.Range(42, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{42}, got)
}

func TestClosed(t *testing.T) {
	l, err := OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	require.ErrorIs(t, l.MarkAll([]int64{1}), ErrClosed)
	_, err = l.All()
	require.ErrorIs(t, err, ErrClosed)
}
