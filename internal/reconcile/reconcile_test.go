package reconcile

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeRaw(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return p
}

func rawLines(n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = fmt.Sprintf("%08d label-%d", i, i)
	}
	return out
}

func TestReconcileOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	lines := rawLines(50)

	reversed := make([]string, len(lines))
	for i := range lines {
		reversed[len(lines)-1-i] = lines[i]
	}
	shuffled := append([]string(nil), lines...)
	rand.New(rand.NewPCG(1, 2)).Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	var outputs []string
	for i, in := range [][]string{lines, reversed, shuffled} {
		raw := writeRaw(t, dir, fmt.Sprintf("raw-%d.txt", i), in)
		out := filepath.Join(dir, fmt.Sprintf("labels-%d.txt", i))
		st, err := Reconcile(raw, out)
		require.NoError(t, err)
		require.Equal(t, 50, st.Lines)
		b, err := os.ReadFile(out)
		require.NoError(t, err)
		outputs = append(outputs, string(b))
	}
	require.Equal(t, outputs[0], outputs[1])
	require.Equal(t, outputs[0], outputs[2])

	got := strings.Split(strings.TrimSuffix(outputs[0], "\n"), "\n")
	for i, l := range got {
		require.Equal(t, fmt.Sprintf("label-%d", i), l)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	raw := writeRaw(t, dir, "tmp_labels.txt", []string{"00000002 c", "00000000 a", "00000001 b"})
	out := filepath.Join(dir, "labels.txt")

	_, err := Reconcile(raw, out)
	require.NoError(t, err)
	first, _ := os.ReadFile(out)
	_, err = Reconcile(raw, out)
	require.NoError(t, err)
	second, _ := os.ReadFile(out)
	require.Equal(t, first, second)
	require.Equal(t, "a\nb\nc\n", string(first))
}

func TestReconcileNumericNotLexicographic(t *testing.T) {
	dir := t.TempDir()
	raw := writeRaw(t, dir, "raw.txt", []string{"100000000 big", "00000009 nine", "00000010 ten"})
	out := filepath.Join(dir, "labels.txt")
	_, err := Reconcile(raw, out)
	require.NoError(t, err)
	b, _ := os.ReadFile(out)
	require.Equal(t, "nine\nten\nbig\n", string(b))
}

func TestReconcileKeepsSpacesInLabels(t *testing.T) {
	dir := t.TempDir()
	raw := writeRaw(t, dir, "raw.txt", []string{"00000001 two words", "00000000 one"})
	out := filepath.Join(dir, "labels.txt")
	_, err := Reconcile(raw, out)
	require.NoError(t, err)
	b, _ := os.ReadFile(out)
	require.Equal(t, "one\ntwo words\n", string(b))
}

func TestReconcileRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	for i, bad := range []string{"nospace", "abc label", "-0000001 neg"} {
		raw := writeRaw(t, dir, fmt.Sprintf("bad-%d.txt", i), []string{"00000000 ok", bad})
		_, err := Reconcile(raw, filepath.Join(dir, "out.txt"))
		require.Error(t, err, bad)
	}
}

func TestReconcileCollapsesRepeatedIndices(t *testing.T) {
	dir := t.TempDir()
	raw := writeRaw(t, dir, "raw.txt", []string{"00000001 B", "00000000 A", "00000001 B"})
	out := filepath.Join(dir, "labels.txt")
	st, err := Reconcile(raw, out)
	require.NoError(t, err)
	require.Equal(t, 2, st.Lines)
	require.Equal(t, 1, st.Duplicates)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "A\nB\n", string(b))

	n, err := StartIndex(out)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	// A regenerated index keeps the label logged last.
	raw = writeRaw(t, dir, "raw2.txt", []string{"00000000 A", "00000001 old", "00000002 C", "00000001 new"})
	st, err = Reconcile(raw, out)
	require.NoError(t, err)
	require.Equal(t, 3, st.Lines)
	b, err = os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "A\nnew\nC\n", string(b))
}

func TestStartIndex(t *testing.T) {
	dir := t.TempDir()
	n, err := StartIndex(filepath.Join(dir, "labels.txt"))
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	writeRaw(t, dir, "labels.txt", []string{"a", "b", "c"})
	n, err = StartIndex(filepath.Join(dir, "labels.txt"))
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}
