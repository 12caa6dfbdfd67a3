// Command ingestctl is a development harness for exercising the ingest
// pipeline end to end against a local sqlite file: working-copy isolation,
// evidence hashing, chain-of-custody signing, collaborator enrichment, and
// the full normalize/dedup/anomaly algorithm. It is not the operator CLI;
// it exists for manual smoke testing during development.
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jeleniel/breachcorpus/internal/config"
	"github.com/jeleniel/breachcorpus/internal/obs"
	"github.com/jeleniel/breachcorpus/pkg/adapter"
	"github.com/jeleniel/breachcorpus/pkg/adapter/csvfmt"
	"github.com/jeleniel/breachcorpus/pkg/adapter/jsonfmt"
	"github.com/jeleniel/breachcorpus/pkg/adapter/tsvfmt"
	"github.com/jeleniel/breachcorpus/pkg/adapter/xmlfmt"
	"github.com/jeleniel/breachcorpus/pkg/audit"
	"github.com/jeleniel/breachcorpus/pkg/collab"
	"github.com/jeleniel/breachcorpus/pkg/compliance"
	"github.com/jeleniel/breachcorpus/pkg/custody"
	"github.com/jeleniel/breachcorpus/pkg/evidence"
	"github.com/jeleniel/breachcorpus/pkg/ingest"
	"github.com/jeleniel/breachcorpus/pkg/observability"
	"github.com/jeleniel/breachcorpus/pkg/rainbow"
	"github.com/jeleniel/breachcorpus/pkg/riskscore"
	"github.com/jeleniel/breachcorpus/pkg/store"
	"github.com/jeleniel/breachcorpus/pkg/workcopy"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ingestctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	input := fs.String("input", "", "path to the dump file to ingest")
	configPath := fs.String("config", "", "path to a YAML config file (defaults used if omitted)")
	dbPath := fs.String("db", "./ingest.db", "sqlite database path")
	operator := fs.String("operator", "ingestctl", "operator name recorded on custody records")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if *input == "" {
		fmt.Fprintln(stderr, "ingestctl: -input is required")
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "ingestctl: load config: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	logger := obs.New()
	runID := uuid.NewString()
	ctx := context.Background()

	if err := runIngest(ctx, logger, cfg, *input, *dbPath, *operator, runID); err != nil {
		logger.Error("ingest_failed", map[string]interface{}{"run_id": runID, "error": err.Error()})
		fmt.Fprintf(stderr, "ingestctl: %v\n", err)
		return 1
	}
	return 0
}

func runIngest(ctx context.Context, logger *obs.Logger, cfg *config.Config, inputPath, dbPath, operator, runID string) (err error) {
	audLog := audit.NewLogger()
	audLog.Record(ctx, operator, audit.EventSystem, "run_started", inputPath, map[string]interface{}{"run_id": runID})

	otelCfg := observability.DefaultConfig()
	otelCfg.Enabled = cfg.Observability.Enabled
	if cfg.Observability.OTLPEndpoint != "" {
		otelCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	}
	otelCfg.Insecure = cfg.Observability.Insecure
	if cfg.Observability.SampleRate > 0 {
		otelCfg.SampleRate = cfg.Observability.SampleRate
	}
	otelProvider, err := observability.New(ctx, otelCfg)
	if err != nil {
		return fmt.Errorf("observability init: %w", err)
	}
	defer otelProvider.Shutdown(ctx)

	var trackDone func(error)
	ctx, trackDone = otelProvider.TrackOperation(ctx, "ingest_run")
	defer func() { trackDone(err) }()

	mgr, err := workcopy.New(cfg.WorkingDirectory.Path, cfg.WorkingDirectory.VerifyNoexec)
	if err != nil {
		return fmt.Errorf("working copy: %w", err)
	}
	defer func() {
		if err := mgr.Cleanup(); err != nil {
			logger.Warn("workcopy_cleanup_failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	copyPath, err := mgr.CreateWorkingCopyUnique(inputPath)
	if err != nil {
		return fmt.Errorf("create working copy: %w", err)
	}

	ev, err := evidence.Create(copyPath, filepath.Base(inputPath))
	if err != nil {
		return fmt.Errorf("evidence: %w", err)
	}
	logger.Info("evidence_created", map[string]interface{}{
		"run_id": runID, "file_id": ev.FileID, "sha256": ev.SHA256, "size": ev.FileSize,
	})
	audLog.Record(ctx, operator, audit.EventIngest, "evidence_created", inputPath, map[string]interface{}{
		"file_id": ev.FileID, "sha256": ev.SHA256,
	})

	keys, err := custody.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("custody key pair: %w", err)
	}
	priv, err := keys.PrivateKeyBytes()
	if err != nil {
		return fmt.Errorf("custody key bytes: %w", err)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	if _, err := s.UpsertFileMetadata(ctx, store.FileMetadata{
		FileID:           ev.FileID,
		OriginalFilename: filepath.Base(inputPath),
		SHA256Hash:       ev.SHA256,
		FileSize:         ev.FileSize,
		AlternateNames:   ev.AlternateNames,
		ProcessingStatus: "ingesting",
		CreatedAt:        ev.CreatedAt,
	}); err != nil {
		return fmt.Errorf("store file metadata: %w", err)
	}

	if err := signCustody(ctx, s, priv, ev.FileID, ev.SHA256, operator, custody.FileIngested, 0); err != nil {
		return err
	}

	data, err := os.ReadFile(copyPath)
	if err != nil {
		return fmt.Errorf("read working copy: %w", err)
	}

	priorSnap, err := s.Export(ctx)
	if err != nil {
		return fmt.Errorf("export prior snapshot: %w", err)
	}
	priorVectors := canonicalVectorMap(priorSnap)

	p := ingest.New(selectAdapter(inputPath), s)
	p.Logger = logger
	wireCollaborators(p, cfg)
	wireDetectors(p, cfg, logger)

	result, err := p.Run(ctx, data)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	currentSnap, err := s.Export(ctx)
	if err != nil {
		return fmt.Errorf("export current snapshot: %w", err)
	}
	changes := compliance.DetectChanges(ev.FileID, priorVectors, canonicalVectorMap(currentSnap))
	logger.Info("canonical_diff", map[string]interface{}{
		"file_id": ev.FileID, "changed": len(changes.Changes), "is_empty": changes.IsEmpty,
	})
	if !changes.IsEmpty {
		audLog.Record(ctx, operator, audit.EventIngest, "canonical_set_changed", ev.FileID, map[string]interface{}{
			"file_id": ev.FileID, "changed": float64(len(changes.Changes)),
		})
	}

	if err := signCustody(ctx, s, priv, ev.FileID, ev.SHA256, operator, custody.DataStored, uint64(result.RowsProcessed)); err != nil {
		return err
	}
	if err := signCustody(ctx, s, priv, ev.FileID, ev.SHA256, operator, custody.ProcessingComplete, uint64(result.RowsProcessed)); err != nil {
		return err
	}

	if _, err := s.UpsertFileMetadata(ctx, store.FileMetadata{
		FileID:           ev.FileID,
		OriginalFilename: filepath.Base(inputPath),
		SHA256Hash:       ev.SHA256,
		FileSize:         ev.FileSize,
		AlternateNames:   ev.AlternateNames,
		ProcessingStatus: "complete",
		CreatedAt:        ev.CreatedAt,
	}); err != nil {
		return fmt.Errorf("store file metadata: %w", err)
	}

	logger.Info("ingest_complete", map[string]interface{}{
		"file_id":         result.FileID,
		"rows_processed":  result.RowsProcessed,
		"rows_malformed":  result.RowsMalformed,
		"rows_duplicate":  result.RowsDuplicate,
		"new_addresses":   result.NewAddresses,
		"new_credentials": result.NewCredentials,
	})
	audLog.Record(ctx, operator, audit.EventIngest, "run_complete", inputPath, map[string]interface{}{
		"file_id":        ev.FileID,
		"rows_processed": float64(result.RowsProcessed),
		"new_addresses":  float64(result.NewAddresses),
	})
	return nil
}

func signCustody(ctx context.Context, s *store.Store, priv ed25519.PrivateKey, fileID, fileHash, operator string, action custody.CustodyAction, count uint64) error {
	rec := custody.NewRecord(fileID, fileHash, operator, action, count)
	if err := rec.Sign(priv); err != nil {
		return fmt.Errorf("sign custody record: %w", err)
	}

	sig, err := hex.DecodeString(rec.Signature)
	if err != nil {
		return fmt.Errorf("decode custody signature: %w", err)
	}
	pub, err := hex.DecodeString(rec.PublicKey)
	if err != nil {
		return fmt.Errorf("decode custody public key: %w", err)
	}

	return s.InsertCustodyRecord(ctx, store.CustodyRecord{
		FileID:      rec.FileID,
		RecordID:    rec.RecordID,
		Action:      rec.Action.String(),
		Operator:    rec.Operator,
		FileHash:    rec.FileHash,
		Signature:   sig,
		PublicKey:   pub,
		RecordCount: int64(rec.RecordCount),
		Timestamp:   rec.Timestamp,
	})
}

// canonicalVectorMap summarizes a snapshot's canonical addresses as a
// map of canonical hash to a hash of its stored embedding vector, so
// pkg/compliance can detect additions, removals, and re-embeddings
// without comparing full vectors.
func canonicalVectorMap(snap *store.Snapshot) map[string]string {
	out := make(map[string]string, len(snap.CanonicalAddresses))
	for _, addr := range snap.CanonicalAddresses {
		vecBytes, _ := json.Marshal(addr.Embedding)
		out[addr.CanonicalHash] = compliance.HashContent(vecBytes)
	}
	return out
}

func selectAdapter(path string) adapter.Adapter {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv":
		return tsvfmt.New()
	case ".json":
		return jsonfmt.New()
	case ".xml":
		return xmlfmt.New()
	default:
		return csvfmt.New()
	}
}

func wireCollaborators(p *ingest.Pipeline, cfg *config.Config) {
	if cfg.Services.Ollama.Enabled {
		p.Embedder = collab.NewOllamaEmbedder(
			fmt.Sprintf("http://%s:%d", cfg.Services.Ollama.Host, cfg.Services.Ollama.Port),
			cfg.Services.Ollama.Model,
		)
		p.Config.EnableEmbeddings = true
	} else {
		p.Config.EnableEmbeddings = false
	}

	if cfg.APIKeys.HIBP.Enabled {
		p.BreachLookup = collab.NewHIBPClient(cfg.APIKeys.HIBP.APIKey)
		p.Config.EnableHIBP = true
	} else {
		p.Config.EnableHIBP = false
	}
}

func wireDetectors(p *ingest.Pipeline, cfg *config.Config, logger *obs.Logger) {
	p.Config.EnableAnomalyDetection = true
	p.Config.EnablePIIDetection = true
	p.Config.EnableRiskScoring = true
	p.Config.RiskEngine = riskscore.New()

	table, err := rainbow.New(0)
	if err != nil {
		logger.Warn("rainbow_table_init_failed", map[string]interface{}{"error": err.Error()})
		return
	}

	table.LoadPasswords(cfg.CustomPasswords)
	if cfg.RainbowTable.PreloadPath != "" {
		f, err := os.Open(cfg.RainbowTable.PreloadPath)
		if err != nil {
			logger.Warn("rainbow_table_preload_open_failed", map[string]interface{}{"path": cfg.RainbowTable.PreloadPath, "error": err.Error()})
		} else {
			defer f.Close()
			if err := table.LoadReader(f); err != nil {
				logger.Warn("rainbow_table_preload_failed", map[string]interface{}{"path": cfg.RainbowTable.PreloadPath, "error": err.Error()})
			}
		}
	}

	p.Config.RainbowTable = table
	p.Config.EnableWeakPasswordCheck = true
}
