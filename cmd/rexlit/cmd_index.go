package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rexlit/rexlit/internal/audit"
	"github.com/rexlit/rexlit/internal/gate"
	"github.com/rexlit/rexlit/internal/index/dense"
	"github.com/rexlit/rexlit/internal/index/hybrid"
	"github.com/rexlit/rexlit/internal/index/lexical"
	"github.com/rexlit/rexlit/internal/ingest"
	"github.com/rexlit/rexlit/internal/model"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or search the lexical/dense index",
}

var indexBuildDense bool

var indexBuildCmd = &cobra.Command{
	Use:   "build <root>",
	Short: "Build the BM25 lexical index (and optional dense index) from manifest.jsonl",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagRoot == "" {
			flagRoot = args[0]
		}
		settings, err := resolveSettings()
		if err != nil {
			return err
		}

		records, err := ingest.ReadManifest(manifestPath(settings.RootDir))
		if err != nil {
			return err
		}

		ledger, err := openAudit(settings)
		if err != nil {
			return err
		}
		defer ledger.Close()
		sink := audit.Sink{Ledger: ledger}

		result, err := lexical.Build(context.Background(), records, lexical.BuildOptions{
			IndexDir:          lexicalIndexDir(settings.RootDir),
			MetadataCachePath: metadataCachePath(settings.RootDir),
			Workers:           settings.Workers,
			BatchSize:         settings.BatchSize,
			CommitEvery:       settings.CommitEvery,
			Audit:             sink,
			Logger:            logger,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "lexical index built: %d document(s)\n", result.DocCount)

		if !indexBuildDense {
			return nil
		}
		return buildDenseIndex(records, settings)
	},
}

// buildDenseIndex would embed every document's extracted text and persist
// an HNSW vector store under <root>/index/dense/ via dense.FaissHNSWStore.
// The only embedding provider wired into this reference CLI is
// NullEmbeddingPort: a live embedding provider is an external collaborator
// reached through dense.EmbeddingPort, out of scope for this module (§1).
// Dimensions() == 0 means there is nothing to embed with, so the build is
// skipped with a warning rather than failing the whole command.
func buildDenseIndex(records []model.ManifestRecord, settings gate.Settings) error {
	g := gate.Init(settings.Online)
	port := dense.EmbeddingPort(dense.NullEmbeddingPort{})
	if port.Dimensions() == 0 {
		logger.Warn("dense index requested but no embedding backend is configured; skipping dense build",
			zap.Int("doc_count", len(records)), zap.Bool("online", g.Online()))
		return nil
	}
	return nil
}

var (
	searchMode      string
	searchLimit     int
	searchCustodian string
	searchDoctype   string
)

var indexSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index (lexical, dense, or hybrid)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := args[0]
		settings, err := resolveSettings()
		if err != nil {
			return err
		}

		ix, err := lexical.Open(lexicalIndexDir(settings.RootDir))
		if err != nil {
			return err
		}
		defer ix.Close()

		limit := searchLimit
		if limit <= 0 {
			limit = 20
		}
		depth := limit
		if depth < 100 {
			depth = 100
		}

		lexHits, err := ix.Search(lexical.SearchOptions{
			Query:     query,
			Custodian: searchCustodian,
			Doctype:   searchDoctype,
			Limit:     depth,
		})
		if err != nil {
			return err
		}

		if searchMode == "lexical" {
			return printLexicalHits(cmd, lexHits, limit)
		}

		denseHits := denseSearch(query, settings, depth)
		fused, warning := hybrid.Fuse(lexHits, denseHits)
		if warning != nil {
			logger.Warn(warning.Reason)
		}
		if limit < len(fused) {
			fused = fused[:limit]
		}
		return printFusedHits(cmd, fused)
	},
}

// denseSearch loads the persisted dense index and embeds query, returning
// nil (never an error) when no dense index exists or no embedding backend
// is configured, so hybrid.Fuse degrades to lexical-only per §4.6.
func denseSearch(query string, settings gate.Settings, depth int) []dense.SearchResult {
	port := dense.EmbeddingPort(dense.NullEmbeddingPort{})
	if port.Dimensions() == 0 {
		return nil
	}
	store, err := dense.LoadFaissHNSWStore(denseIndexDir(settings.RootDir), "dense")
	if err != nil {
		logger.Debug("dense index not available", zap.Error(err))
		return nil
	}
	vec, err := port.Embed(context.Background(), query)
	if err != nil {
		logger.Warn("query embedding failed", zap.Error(err))
		return nil
	}
	hits, err := store.Search(vec, depth)
	if err != nil {
		logger.Warn("dense search failed", zap.Error(err))
		return nil
	}
	return hits
}

func printLexicalHits(cmd *cobra.Command, hits []lexical.Hit, limit int) error {
	if limit < len(hits) {
		hits = hits[:limit]
	}
	out, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func printFusedHits(cmd *cobra.Command, hits []hybrid.Hit) error {
	out, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func init() {
	indexBuildCmd.Flags().BoolVar(&indexBuildDense, "dense", false, "also build the dense vector index")
	indexCmd.AddCommand(indexBuildCmd)

	indexSearchCmd.Flags().StringVar(&searchMode, "mode", "lexical", "search mode: lexical, dense, or hybrid")
	indexSearchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum results to return")
	indexSearchCmd.Flags().StringVar(&searchCustodian, "custodian", "", "filter by custodian")
	indexSearchCmd.Flags().StringVar(&searchDoctype, "doctype", "", "filter by doctype")
	indexCmd.AddCommand(indexSearchCmd)
}
