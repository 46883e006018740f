package bates

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rexlit/rexlit/internal/rexerr"
	"github.com/rexlit/rexlit/internal/rexlock"
)

// RegisteredRange is one previously applied plan's footprint, recorded so
// future plans can detect overlap before they are applied.
type RegisteredRange struct {
	PlanID    string `json:"plan_id"`
	Prefix    string `json:"prefix"`
	StartNum  int    `json:"start_num"`
	EndNum    int    `json:"end_num"`
}

// Registry is a JSONL append log of applied Bates ranges for one prefix,
// guarded by the same OS advisory-lock mechanism the audit ledger uses so
// two concurrent `bates apply` invocations over the same prefix cannot
// interleave.
type Registry struct {
	path string
	lock *rexlock.FileLock
}

// OpenRegistry opens or creates the registry file at
// <root>/bates/<prefix>.registry.jsonl, taking an exclusive advisory lock
// on the sibling <prefix>.lock file.
func OpenRegistry(root, prefix string) (*Registry, error) {
	dir := filepath.Join(root, "bates")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	lockPath := filepath.Join(dir, prefix+".lock")
	lock, err := rexlock.Acquire(lockPath)
	if err != nil {
		return nil, rexerr.Wrap(rexerr.KindBatesCollision, "could not acquire Bates registry lock", err, map[string]any{"prefix": prefix})
	}
	return &Registry{path: filepath.Join(dir, prefix+".registry.jsonl"), lock: lock}, nil
}

// Close releases the registry's advisory lock.
func (r *Registry) Close() error { return r.lock.Release() }

// Ranges reads every range previously committed to this registry.
func (r *Registry) Ranges() ([]RegisteredRange, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []RegisteredRange
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rr RegisteredRange
		if err := json.Unmarshal(line, &rr); err != nil {
			continue
		}
		out = append(out, rr)
	}
	return out, scanner.Err()
}

// Commit appends rr to the registry and fsyncs before returning, mirroring
// the audit ledger's durability guarantee for anything that changes what
// Bates numbers have been spent.
func (r *Registry) Commit(rr RegisteredRange) error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := json.Marshal(rr)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	if _, err := f.Write(line); err != nil {
		return err
	}
	return f.Sync()
}

// ParseBatesNumber extracts the numeric suffix from a stamped Bates
// identifier of the form "<prefix><digits>".
func ParseBatesNumber(prefix, stamped string) (int, error) {
	if len(stamped) <= len(prefix) || stamped[:len(prefix)] != prefix {
		return 0, fmt.Errorf("bates: %q does not carry prefix %q", stamped, prefix)
	}
	digits := stamped[len(prefix):]
	var n int
	if _, err := fmt.Sscanf(digits, "%d", &n); err != nil {
		return 0, fmt.Errorf("bates: %q has non-numeric suffix: %w", stamped, err)
	}
	return n, nil
}
