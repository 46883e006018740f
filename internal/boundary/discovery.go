// Package boundary implements secure, streaming filesystem discovery under
// a declared root: every accepted path's fully resolved real path must lie
// within the root's resolved real path, symlinks included.
package boundary

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one accepted file discovered under the root.
type Entry struct {
	Path    string // absolute, resolved, within Root
	Size    int64
	ModTime int64 // unix nanos, avoids importing time into the hot path
}

// Violation describes a path rejected because its resolved location falls
// outside the declared root. Both the candidate and resolved paths are
// retained so the caller can report exactly what escaped and to where.
type Violation struct {
	Candidate string
	Resolved  string
	Root      string
	Reason    string
}

// IOWarning describes a single-entry IO failure that does not abort the
// overall stream.
type IOWarning struct {
	Path string
	Err  error
}

// Options configures a Walk.
type Options struct {
	IncludeHidden bool  // include dotfiles/dot-directories; default false
	MaxFileSize   int64 // 0 means unlimited; oversized files are skipped+warned
}

// Result is the outcome of a full discovery run: the accepted entries in
// deterministic order, plus any boundary violations and IO warnings
// encountered along the way.
type Result struct {
	Entries    []Entry
	Violations []Violation
	Warnings   []IOWarning
}

// Walk enumerates every file under root whose fully resolved real path
// lies within root's resolved real path, in ascending byte-wise path
// order. It collects every accepted entry, violation, and warning into the
// returned Result and sorts the entries once the walk finishes — callers
// needing a true streaming interface should use WalkFunc instead.
func Walk(root string, opts Options) (Result, error) {
	var res Result
	err := WalkFunc(root, opts, func(e Entry) error {
		res.Entries = append(res.Entries, e)
		return nil
	}, func(v Violation) {
		res.Violations = append(res.Violations, v)
	}, func(w IOWarning) {
		res.Warnings = append(res.Warnings, w)
	})
	sort.Slice(res.Entries, func(i, j int) bool { return res.Entries[i].Path < res.Entries[j].Path })
	return res, err
}

// WalkFunc is the lazy, streaming form of Walk: onEntry is called once per
// accepted file as it is discovered (not necessarily in final sorted
// order — callers requiring the documented deterministic order should
// collect and sort, as Walk does). onViolation and onWarning are called
// for boundary rejections and per-entry IO errors respectively; neither
// aborts the walk.
func WalkFunc(root string, opts Options, onEntry func(Entry) error, onViolation func(Violation), onWarning func(IOWarning)) error {
	resolvedRoot, err := resolveReal(root)
	if err != nil {
		return err
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if onWarning != nil {
				onWarning(IOWarning{Path: path, Err: err})
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		base := d.Name()
		if !opts.IncludeHidden && isHidden(base) && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		resolved, rerr := resolveReal(path)
		if rerr != nil {
			if onWarning != nil {
				onWarning(IOWarning{Path: path, Err: rerr})
			}
			return nil
		}
		if !withinRoot(resolvedRoot, resolved) {
			if onViolation != nil {
				onViolation(Violation{
					Candidate: path,
					Resolved:  resolved,
					Root:      resolvedRoot,
					Reason:    "resolved path escapes declared root",
				})
			}
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		info, ierr := d.Info()
		if ierr != nil {
			if onWarning != nil {
				onWarning(IOWarning{Path: path, Err: ierr})
			}
			return nil
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			if onWarning != nil {
				onWarning(IOWarning{Path: path, Err: errOversized(info.Size(), opts.MaxFileSize)})
			}
			return nil
		}

		return onEntry(Entry{Path: resolved, Size: info.Size(), ModTime: info.ModTime().UnixNano()})
	})
}

func resolveReal(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

func withinRoot(resolvedRoot, resolved string) bool {
	if resolved == resolvedRoot {
		return true
	}
	return strings.HasPrefix(resolved, resolvedRoot+string(os.PathSeparator))
}

func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

type oversizedError struct {
	size, max int64
}

func (e oversizedError) Error() string {
	return "file exceeds max size"
}

func errOversized(size, max int64) error { return oversizedError{size: size, max: max} }
