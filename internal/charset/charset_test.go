package charset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadAndEncode(t *testing.T) {
	c, err := Read(strings.NewReader("A\nB\n\nC\nA\n \n"))
	require.NoError(t, err)
	require.Equal(t, 4, c.Len())
	require.Equal(t, []rune{'A', 'B', 'C', ' '}, c.Chars())

	codes, err := c.Encode("AB")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, codes)

	codes, err = c.Encode("C A")
	require.NoError(t, err)
	require.Equal(t, []int{3, 4, 1}, codes)
	require.Equal(t, "C A", c.Decode(codes))
}

func TestEncodeUnknownChar(t *testing.T) {
	c := New([]rune("AB"))
	_, err := c.Encode("AZ")
	require.ErrorIs(t, err, ErrUnknownChar)
}

func TestEncodeIsDeterministic(t *testing.T) {
	c := New([]rune("xyz"))
	a, err := c.Encode("zyx")
	require.NoError(t, err)
	b, err := c.Encode("zyx")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestDecodeSkipsBlankAndOutOfRange(t *testing.T) {
	c := New([]rune("ab"))
	require.Equal(t, "ab", c.Decode([]int{Blank, 1, 9, 2}))
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "chars.txt")
	require.NoError(t, os.WriteFile(p, []byte("0\n1\n2\n"), 0o644))
	c, err := Load(p)
	require.NoError(t, err)
	codes, err := c.Encode("210")
	require.NoError(t, err)
	require.Equal(t, []int{3, 2, 1}, codes)
}

func TestReadRejectsBadFiles(t *testing.T) {
	_, err := Read(strings.NewReader("\n\n"))
	require.Error(t, err)
	_, err = Read(strings.NewReader("ab\n"))
	require.Error(t, err)
}
