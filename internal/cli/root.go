// Package cli implements the cbma CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zeroade/cbma/internal/fallback"
	"github.com/zeroade/cbma/internal/knowledge"
	"github.com/zeroade/cbma/internal/model"
	"github.com/zeroade/cbma/internal/pipeline"
	"github.com/zeroade/cbma/internal/store"
)

var (
	dbPath  string
	kgPath  string
	verbose bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "cbma",
	Short: "Cognitive-bionic memory for conversational agents",
	Long:  "A layered memory architecture: confidence-gated arbitration, dual-store retrieval, a bounded attention buffer, and saliency-driven consolidation.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Store path (default: $CBMA_DB or ~/.cbma/cbma.db; use :memory: for a session-only store)")
	RootCmd.PersistentFlags().StringVarP(&kgPath, "kg", "k", "", "Knowledge triples JSON file (default: $CBMA_KG)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func getDBPath() string {
	if dbPath == ":memory:" {
		return store.MemoryDSN
	}
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("CBMA_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cbma", "cbma.db")
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func openStore() (*store.Store, error) {
	return store.Open(getDBPath(), newLogger())
}

// loadIndex builds the knowledge index from the --kg file, or an empty
// index when none is configured. A malformed file is fatal.
func loadIndex() (*knowledge.Index, error) {
	path := kgPath
	if path == "" {
		path = os.Getenv("CBMA_KG")
	}
	if path == "" {
		return knowledge.NewIndex(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc struct {
		Triples []model.Triple `json:"triples"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return knowledge.NewIndex(doc.Triples)
}

// newSession wires a full pipeline session for the current invocation.
func newSession() (*pipeline.Session, error) {
	idx, err := loadIndex()
	if err != nil {
		return nil, fmt.Errorf("load knowledge index: %w", err)
	}
	st, err := openStore()
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return pipeline.NewSession(pipeline.Config{
		Index:     idx,
		Generator: fallback.NewFromEnv(),
		Store:     st,
		Logger:    newLogger(),
	}), nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
