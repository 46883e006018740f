// Package audit implements a tamper-evident, append-only, hash-chained
// audit ledger: every Log call constructs an entry, computes its hash over
// the canonical JSON of every other field, appends one JSONL line, and
// forces it to durable storage before returning.
package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/rexlit/rexlit/internal/determinism"
	"github.com/rexlit/rexlit/internal/rexerr"
	"github.com/rexlit/rexlit/internal/rexlock"
)

// Entry is one audit log record.
type Entry struct {
	Timestamp    time.Time         `json:"timestamp"`
	Operation    string            `json:"operation"`
	Inputs       []string          `json:"inputs"`
	Outputs      []string          `json:"outputs"`
	Args         map[string]any    `json:"args"`
	Versions     map[string]string `json:"versions"`
	PreviousHash string            `json:"previous_hash"`
	EntryHash    string            `json:"entry_hash"`
}

// preimage is Entry with entry_hash omitted — the exact shape hashed to
// produce EntryHash, computed over every other field.
type preimage struct {
	Timestamp    time.Time         `json:"timestamp"`
	Operation    string            `json:"operation"`
	Inputs       []string          `json:"inputs"`
	Outputs      []string          `json:"outputs"`
	Args         map[string]any    `json:"args"`
	Versions     map[string]string `json:"versions"`
	PreviousHash string            `json:"previous_hash"`
}

func (e Entry) hashInput() preimage {
	return preimage{
		Timestamp:    e.Timestamp,
		Operation:    e.Operation,
		Inputs:       e.Inputs,
		Outputs:      e.Outputs,
		Args:         e.Args,
		Versions:     e.Versions,
		PreviousHash: e.PreviousHash,
	}
}

// computeHash returns the entry_hash for e using the canonical JSON form
// of its preimage.
func computeHash(e Entry) (string, error) {
	raw, err := determinism.CanonicalJSON(e.hashInput())
	if err != nil {
		return "", err
	}
	return determinism.SHA256Hex(raw), nil
}

// VerifyResult is the outcome of Verify.
type VerifyResult struct {
	OK            bool
	FirstBadIndex int // -1 when OK
}

// Ledger is a single-writer, append-only hash-chained JSONL file. Readers
// may run concurrently; writers serialize on an in-process mutex plus an
// OS advisory lock on the file.
type Ledger struct {
	mu       sync.Mutex
	path     string
	lock     *rexlock.FileLock
	lastHash string
	versions map[string]string
	now      func() time.Time
}

// Open opens or creates the ledger at path, taking an exclusive advisory
// lock and recovering the chain tip from any existing entries.
func Open(path string, versions map[string]string) (*Ledger, error) {
	lock, err := rexlock.AcquireFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, rexerr.Wrap(rexerr.KindLedgerCorrupted, "could not acquire exclusive lock on ledger", err, map[string]any{"path": path})
	}

	l := &Ledger{
		path:     path,
		lock:     lock,
		lastHash: determinism.GenesisHash,
		versions: versions,
		now:      time.Now,
	}

	entries, err := l.readAllLocked()
	if err != nil {
		lock.Release()
		return nil, err
	}
	if len(entries) > 0 {
		l.lastHash = entries[len(entries)-1].EntryHash
	}
	return l, nil
}

// Close releases the ledger's advisory lock.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lock.Release()
}

// Log constructs, hashes, appends, and durably persists one audit entry.
// Only once fsync has completed does this call return: no write reports
// success before durable persistence.
func (l *Ledger) Log(operation string, inputs, outputs []string, args map[string]any) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		Timestamp:    l.now().UTC(),
		Operation:    operation,
		Inputs:       inputs,
		Outputs:      outputs,
		Args:         args,
		Versions:     l.versions,
		PreviousHash: l.lastHash,
	}
	hash, err := computeHash(entry)
	if err != nil {
		return Entry{}, err
	}
	entry.EntryHash = hash

	line, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, err
	}
	line = append(line, '\n')

	f := l.lock.File()
	if _, err := f.Write(line); err != nil {
		return Entry{}, rexerr.Wrap(rexerr.KindLedgerCorrupted, "failed to append ledger entry", err, nil)
	}
	if err := f.Sync(); err != nil {
		return Entry{}, rexerr.Wrap(rexerr.KindLedgerCorrupted, "failed to fsync ledger entry", err, nil)
	}

	l.lastHash = hash
	return entry, nil
}

// ReadAll streams every durably-persisted entry. A partial final line (one
// without a trailing newline, e.g. from a crash mid-write) is skipped
// rather than treated as corruption: only fully-written entries are
// visible to readers.
func (l *Ledger) ReadAll() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readAllLocked()
}

func (l *Ledger) readAllLocked() ([]Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo, malformedLine := 0, 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if malformedLine > 0 {
			return nil, rexerr.New(rexerr.KindLedgerCorrupted, "malformed ledger line before end of file", map[string]any{
				"path": l.path, "line": malformedLine,
			})
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			// A trailing partial line from a crash is not corruption; a
			// malformed line in the middle of the file is.
			malformedLine = lineNo
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Tail returns the last n entries (n<=0 returns all), for the
// `audit show --tail N` contract.
func (l *Ledger) Tail(n int) ([]Entry, error) {
	entries, err := l.ReadAll()
	if err != nil {
		return nil, err
	}
	if n <= 0 || n >= len(entries) {
		return entries, nil
	}
	return entries[len(entries)-n:], nil
}

// Verify recomputes every entry_hash and checks chain contiguity: the
// first entry's previous_hash must be the genesis hash, and each
// subsequent entry's previous_hash must equal its predecessor's
// entry_hash.
func (l *Ledger) Verify() (VerifyResult, error) {
	entries, err := l.ReadAll()
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyEntries(entries), nil
}

// VerifyEntries checks a slice of entries independent of any Ledger
// instance, so callers (and tests) can verify entries read from anywhere.
func VerifyEntries(entries []Entry) VerifyResult {
	for i, e := range entries {
		wantPrev := determinism.GenesisHash
		if i > 0 {
			wantPrev = entries[i-1].EntryHash
		}
		if e.PreviousHash != wantPrev {
			return VerifyResult{OK: false, FirstBadIndex: i}
		}
		gotHash, err := computeHash(e)
		if err != nil || gotHash != e.EntryHash {
			return VerifyResult{OK: false, FirstBadIndex: i}
		}
	}
	return VerifyResult{OK: true, FirstBadIndex: -1}
}

// Sink adapts a *Ledger to the narrower AuditSink shape (operation,
// inputs, outputs, args) -> error that producer packages like ingest
// depend on structurally, without importing this package's richer Entry
// type.
type Sink struct{ Ledger *Ledger }

func (s Sink) Log(operation string, inputs, outputs []string, args map[string]any) error {
	_, err := s.Ledger.Log(operation, inputs, outputs, args)
	return err
}

// Fprint writes entries back out as JSONL, e.g. for `audit show`.
func Fprint(entries []Entry) ([]byte, error) {
	var out []byte
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out, nil
}
