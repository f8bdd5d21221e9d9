// Package audit cross-checks stored artifacts against the logs to find
// artifacts whose record was dropped and log lines without an artifact.
package audit

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	iopkg "github.com/yourorg/textsynth/internal/iopkg"
	"github.com/yourorg/textsynth/internal/ledger"
	"github.com/yourorg/textsynth/internal/storage"
)

type Options struct {
	Store storage.ArtifactStore
	// RawLog is read when Ledger is nil.
	RawLog string
	Ledger *ledger.Ledger
	Ext    string
}

type Report struct {
	Artifacts int
	Logged    int
	// Orphaned artifacts have no log line.
	Orphaned []int64
	// Missing log lines have no artifact.
	Missing []int64
}

func (r Report) Clean() bool { return len(r.Orphaned) == 0 && len(r.Missing) == 0 }

// Run is read-only; it never deletes or rewrites anything.
func Run(ctx context.Context, o Options) (Report, error) {
	if o.Ext == "" {
		o.Ext = ".jpg"
	}
	names, err := o.Store.List(ctx, o.Ext)
	if err != nil {
		return Report{}, fmt.Errorf("list artifacts: %w", err)
	}
	stored := make(map[int64]bool, len(names))
	for _, n := range names {
		idx, err := strconv.ParseInt(strings.TrimSuffix(n, o.Ext), 10, 64)
		if err != nil {
			continue
		}
		stored[idx] = true
	}

	var logged []int64
	if o.Ledger != nil {
		logged, err = o.Ledger.All()
	} else {
		logged, err = rawIndices(o.RawLog)
	}
	if err != nil {
		return Report{}, err
	}

	rep := Report{Artifacts: len(stored), Logged: len(logged)}
	inLog := make(map[int64]bool, len(logged))
	for _, idx := range logged {
		inLog[idx] = true
		if !stored[idx] {
			rep.Missing = append(rep.Missing, idx)
		}
	}
	for _, n := range names {
		idx, err := strconv.ParseInt(strings.TrimSuffix(n, o.Ext), 10, 64)
		if err != nil {
			continue
		}
		if !inLog[idx] {
			rep.Orphaned = append(rep.Orphaned, idx)
		}
	}
	return rep, nil
}

func rawIndices(uri string) ([]int64, error) {
	rc, err := iopkg.OpenReader(uri)
	if err != nil {
		return nil, fmt.Errorf("open raw log: %w", err)
	}
	defer rc.Close()
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 1024), 1024*1024)
	var out []int64
	for sc.Scan() {
		tok, _, _ := strings.Cut(sc.Text(), " ")
		if tok == "" {
			continue
		}
		idx, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("raw log: bad index token %q", tok)
		}
		out = append(out, idx)
	}
	return out, sc.Err()
}
