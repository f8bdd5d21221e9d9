// Package reconcile turns the arrival-ordered raw label log into the
// index-ordered canonical label file.
package reconcile

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	iopkg "github.com/yourorg/textsynth/internal/iopkg"
	"github.com/yourorg/textsynth/internal/types"
)

type entry struct {
	index int64
	pos   int // line number in the raw log
	label string
}

// Reconcile reads the whole raw log, orders it by the numeric value of each
// line's leading index token and writes the labels, token stripped, to
// canonicalURI. An index logged more than once (a resumed run regenerated
// it) keeps only its last line in log order, which matches the artifact on
// disk. Re-running it is byte-identical.
func Reconcile(rawURI, canonicalURI string) (types.ReconcileStats, error) {
	rc, err := iopkg.OpenReader(rawURI)
	if err != nil {
		return types.ReconcileStats{}, fmt.Errorf("open raw log: %w", err)
	}
	entries, err := parse(rc)
	rc.Close()
	if err != nil {
		return types.ReconcileStats{}, err
	}
	sortEntries(entries)
	entries, dups := collapse(entries)

	w, c, err := iopkg.CreateWriter(canonicalURI)
	if err != nil {
		return types.ReconcileStats{}, err
	}
	bw := bufio.NewWriterSize(w, 1<<20)
	for _, e := range entries {
		if _, err := bw.WriteString(e.label + "\n"); err != nil {
			c.Close()
			return types.ReconcileStats{}, err
		}
	}
	if err := bw.Flush(); err != nil {
		c.Close()
		return types.ReconcileStats{}, err
	}
	if err := c.Close(); err != nil {
		return types.ReconcileStats{}, err
	}
	return types.ReconcileStats{Lines: len(entries), Duplicates: dups}, nil
}

func parse(r io.Reader) ([]entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024), 1024*1024)
	var out []entry
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		tok, label, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("raw log line %d: missing index token", n)
		}
		idx, err := strconv.ParseInt(tok, 10, 64)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("raw log line %d: bad index token %q", n, tok)
		}
		out = append(out, entry{index: idx, pos: n, label: label})
	}
	return out, sc.Err()
}

// sortEntries orders by index, then by position in the log.
func sortEntries(entries []entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].index != entries[j].index {
			return entries[i].index < entries[j].index
		}
		return entries[i].pos < entries[j].pos
	})
}

// collapse keeps the last entry of each run of equal indices in sorted entries.
func collapse(entries []entry) ([]entry, int) {
	out := entries[:0]
	for i, e := range entries {
		if i+1 < len(entries) && entries[i+1].index == e.index {
			continue
		}
		out = append(out, e)
	}
	return out, len(entries) - len(out)
}

// StartIndex returns the number of entries in an existing canonical label
// file, which is where a follow-up run continues. A missing file yields 0.
func StartIndex(labelsURI string) (int64, error) {
	n, err := iopkg.CountLines(labelsURI)
	return int64(n), err
}
