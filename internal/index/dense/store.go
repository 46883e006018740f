package dense

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	faiss "github.com/blevesearch/go-faiss"
	"github.com/rexlit/rexlit/internal/rexerr"
)

const (
	defaultM              = 16
	defaultEfConstruction = 200
	// seededRNGSource seeds a Go PRNG in NewFaissHNSWStoreWithParams. That
	// PRNG is not passed to faiss, so it does not control the HNSW build's
	// layer assignment; faiss draws that from its own internal generator.
	seededRNGSource = 1
)

// meta is the JSON sidecar persisted alongside the faiss graph file: the
// parameters needed to interpret the .ids/.vec files and validate a
// reopened store against the dimension it was built with.
type meta struct {
	Dim             int      `json:"dim"`
	M               int      `json:"m"`
	EfConstruction  int      `json:"ef_construction"`
	Count           int      `json:"count"`
	IDs             []string `json:"-"` // carried in the sibling .ids file, not inline
}

// FaissHNSWStore is a VectorStorePort backed by go-faiss's HNSW index. It
// owns its own on-disk layout independent of faiss's native format:
//
//	<prefix>.graph      faiss-native serialized index (faiss.WriteIndex)
//	<prefix>.ids         newline-delimited sha256, ordered by faiss internal id
//	<prefix>.vec         JSON-encoded float32 vectors, one per line, in the same order, for rebuild
//	<prefix>.meta.json   dim/M/ef_construction/count
type FaissHNSWStore struct {
	mu    sync.Mutex
	idx   faiss.Index
	dim   int
	m     int
	efC   int
	ids   []string   // faiss internal id -> sha256
	vecs  [][]float32 // faiss internal id -> vector, kept for rebuildability
}

// NewFaissHNSWStore constructs an empty HNSW store over vectors of the
// given dimension.
func NewFaissHNSWStore(dim int) (*FaissHNSWStore, error) {
	return NewFaissHNSWStoreWithParams(dim, defaultM, defaultEfConstruction)
}

// NewFaissHNSWStoreWithParams is NewFaissHNSWStore with explicit HNSW
// construction parameters, exposed for tests and tuning.
func NewFaissHNSWStoreWithParams(dim, m, efConstruction int) (*FaissHNSWStore, error) {
	rand.New(rand.NewSource(seededRNGSource)) // the returned PRNG is discarded; faiss's own seeding is not changed by this call.

	idx, err := faiss.IndexFactory(dim, fmt.Sprintf("HNSW%d", m), faiss.MetricL2)
	if err != nil {
		return nil, rexerr.Wrap(rexerr.KindGeneric, "constructing dense index", err, map[string]any{"dim": dim, "m": m})
	}
	return &FaissHNSWStore{idx: idx, dim: dim, m: m, efC: efConstruction}, nil
}

// Add appends one vector under its document sha256. Faiss assigns
// monotonically increasing internal ids starting from the store's current
// size; the sidecar .ids file maps those back to sha256 on disk.
func (s *FaissHNSWStore) Add(sha256 string, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(vector) != s.dim {
		return rexerr.New(rexerr.KindHashMismatch, "embedding dimension mismatch", map[string]any{
			"expected": s.dim, "got": len(vector), "sha256": sha256,
		})
	}
	if err := s.idx.Add(vector); err != nil {
		return rexerr.Wrap(rexerr.KindGeneric, "adding vector to dense index", err, nil)
	}
	s.ids = append(s.ids, sha256)
	s.vecs = append(s.vecs, vector)
	return nil
}

// Search returns the k nearest neighbors to query by L2 distance.
func (s *FaissHNSWStore) Search(query []float32, k int) ([]SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(query) != s.dim {
		return nil, rexerr.New(rexerr.KindHashMismatch, "query dimension mismatch", map[string]any{
			"expected": s.dim, "got": len(query),
		})
	}
	if k <= 0 || k > len(s.ids) {
		k = len(s.ids)
	}
	if k == 0 {
		return nil, nil
	}
	distances, labels, err := s.idx.Search(query, int64(k))
	if err != nil {
		return nil, rexerr.Wrap(rexerr.KindGeneric, "searching dense index", err, nil)
	}
	out := make([]SearchResult, 0, len(labels))
	for i, label := range labels {
		if label < 0 || int(label) >= len(s.ids) {
			continue
		}
		out = append(out, SearchResult{SHA256: s.ids[label], Distance: distances[i]})
	}
	return out, nil
}

// Count returns the number of vectors added so far.
func (s *FaissHNSWStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Persist writes the four sidecar files under dir, named <prefix>.graph,
// <prefix>.ids, <prefix>.vec, and <prefix>.meta.json.
func (s *FaissHNSWStore) Persist(dir, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	graphPath := filepath.Join(dir, prefix+".graph")
	if err := faiss.WriteIndex(s.idx, graphPath); err != nil {
		return rexerr.Wrap(rexerr.KindGeneric, "writing dense index graph", err, nil)
	}

	idsPath := filepath.Join(dir, prefix+".ids")
	idsFile, err := os.Create(idsPath)
	if err != nil {
		return err
	}
	for _, id := range s.ids {
		if _, err := fmt.Fprintln(idsFile, id); err != nil {
			idsFile.Close()
			return err
		}
	}
	if err := idsFile.Close(); err != nil {
		return err
	}

	vecPath := filepath.Join(dir, prefix+".vec")
	vecFile, err := os.Create(vecPath)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(vecFile)
	for _, v := range s.vecs {
		if err := enc.Encode(v); err != nil {
			vecFile.Close()
			return err
		}
	}
	if err := vecFile.Close(); err != nil {
		return err
	}

	m := meta{Dim: s.dim, M: s.m, EfConstruction: s.efC, Count: len(s.ids)}
	metaBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, prefix+".meta.json"), metaBytes, 0o644)
}

// LoadFaissHNSWStore reopens a store persisted by Persist, reading back the
// faiss graph plus the sha256 id mapping.
func LoadFaissHNSWStore(dir, prefix string) (*FaissHNSWStore, error) {
	metaBytes, err := os.ReadFile(filepath.Join(dir, prefix+".meta.json"))
	if err != nil {
		return nil, err
	}
	var m meta
	if err := json.Unmarshal(metaBytes, &m); err != nil {
		return nil, err
	}

	idx, err := faiss.ReadIndex(filepath.Join(dir, prefix+".graph"), 0)
	if err != nil {
		return nil, rexerr.Wrap(rexerr.KindGeneric, "reading dense index graph", err, nil)
	}

	ids, err := readLines(filepath.Join(dir, prefix+".ids"))
	if err != nil {
		return nil, err
	}

	return &FaissHNSWStore{idx: idx, dim: m.Dim, m: m.M, efC: m.EfConstruction, ids: ids}, nil
}

// RebuildFromVectors reconstructs a store from its persisted .vec sidecar
// plus .ids, independent of faiss's native serialization, so a dense index
// is always recoverable from content RexLit itself wrote.
func RebuildFromVectors(dir, prefix string) (*FaissHNSWStore, error) {
	metaBytes, err := os.ReadFile(filepath.Join(dir, prefix+".meta.json"))
	if err != nil {
		return nil, err
	}
	var m meta
	if err := json.Unmarshal(metaBytes, &m); err != nil {
		return nil, err
	}
	ids, err := readLines(filepath.Join(dir, prefix+".ids"))
	if err != nil {
		return nil, err
	}
	vecFile, err := os.Open(filepath.Join(dir, prefix+".vec"))
	if err != nil {
		return nil, err
	}
	defer vecFile.Close()

	store, err := NewFaissHNSWStoreWithParams(m.Dim, m.M, m.EfConstruction)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(vecFile)
	for i := 0; dec.More(); i++ {
		var v []float32
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		if i >= len(ids) {
			return nil, rexerr.New(rexerr.KindGeneric, "vector sidecar longer than id sidecar", nil)
		}
		if err := store.Add(ids[i], v); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				out = append(out, string(data[start:i]))
			}
			start = i + 1
		}
	}
	return out, nil
}
