package lexical

import (
	"context"
	"os"
	"runtime"

	"github.com/blevesearch/bleve/v2"
	"github.com/rexlit/rexlit/internal/index/metadata"
	"github.com/rexlit/rexlit/internal/model"
	"github.com/rexlit/rexlit/internal/rexerr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// AuditSink mirrors ingest.AuditSink structurally so this package does not
// need to import the audit package directly.
type AuditSink interface {
	Log(operation string, inputs, outputs []string, args map[string]any) error
}

// BuildOptions configures Build.
type BuildOptions struct {
	IndexDir          string
	MetadataCachePath string
	Workers           int // default: max(1, NumCPU-1)
	BatchSize         int // documents per worker batch; default 100
	CommitEvery       int // commit boundary in documents; default 1000
	Audit             AuditSink
	Logger            *zap.Logger
}

func (o *BuildOptions) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU() - 1
		if o.Workers < 1 {
			o.Workers = 1
		}
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.CommitEvery <= 0 {
		o.CommitEvery = 1000
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// BuildResult is returned from a successful Build.
type BuildResult struct {
	DocCount int
	Cache    *metadata.Cache
}

// Build constructs a fresh BM25 index at opts.IndexDir over records.
// records MUST already be sorted by (sha256, path). A bounded worker pool
// (golang.org/x/sync/errgroup + semaphore.Weighted) turns each batch of
// documents into a *bleve.Batch as a pure function of that batch's bytes;
// a single writer applies each batch's operations in record order and
// commits the metadata cache at every CommitEvery-document boundary and at
// end of stream.
func Build(ctx context.Context, records []model.ManifestRecord, opts BuildOptions) (BuildResult, error) {
	opts.applyDefaults()

	if err := os.RemoveAll(opts.IndexDir); err != nil {
		return BuildResult{}, err
	}
	idx, err := bleve.New(opts.IndexDir, buildMapping())
	if err != nil {
		return BuildResult{}, rexerr.Wrap(rexerr.KindGeneric, "creating lexical index", err, nil)
	}
	defer idx.Close()

	cache := metadata.New()
	batches := chunk(records, opts.BatchSize)
	prepared := make([]*bleve.Batch, len(batches))

	sem := semaphore.NewWeighted(int64(opts.Workers))
	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		if err := sem.Acquire(gctx, 1); err != nil {
			return BuildResult{}, err
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := gctx.Err(); err != nil {
				return err
			}
			b := idx.NewBatch()
			for _, rec := range batch {
				doc := indexDoc{
					SHA256:    rec.Document.SHA256,
					Path:      rec.Document.Path,
					Custodian: rec.Document.Custodian,
					Doctype:   rec.Document.Doctype,
					Text:      rec.Document.Text,
				}
				if err := b.Index(rec.Document.SHA256, doc); err != nil {
					return err
				}
			}
			prepared[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BuildResult{}, rexerr.Wrap(rexerr.KindGeneric, "building lexical index batches", err, nil)
	}

	docsSinceCommit := 0
	for i, b := range prepared {
		if err := ctx.Err(); err != nil {
			return BuildResult{}, err
		}
		if err := idx.Batch(b); err != nil {
			return BuildResult{}, rexerr.Wrap(rexerr.KindGeneric, "applying lexical index batch", err, nil)
		}
		for _, rec := range batches[i] {
			cache.Observe(rec.Document.Custodian, rec.Document.Doctype)
		}
		docsSinceCommit += len(batches[i])
		if docsSinceCommit >= opts.CommitEvery {
			if err := cache.Persist(opts.MetadataCachePath); err != nil {
				return BuildResult{}, err
			}
			docsSinceCommit = 0
		}
	}
	if err := cache.Persist(opts.MetadataCachePath); err != nil {
		return BuildResult{}, err
	}

	if opts.Audit != nil {
		if err := opts.Audit.Log("index_build", inputHashes(records), []string{opts.IndexDir, opts.MetadataCachePath}, map[string]any{
			"doc_count": cache.Count(),
			"workers":   opts.Workers,
		}); err != nil {
			opts.Logger.Error("audit log failed", zap.Error(err))
		}
	}

	return BuildResult{DocCount: cache.Count(), Cache: cache}, nil
}

func chunk(records []model.ManifestRecord, size int) [][]model.ManifestRecord {
	var out [][]model.ManifestRecord
	for i := 0; i < len(records); i += size {
		end := i + size
		if end > len(records) {
			end = len(records)
		}
		out = append(out, records[i:end])
	}
	return out
}

func inputHashes(records []model.ManifestRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Document.SHA256
	}
	return out
}
