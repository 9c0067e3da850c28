package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qacurator/app"
	"qacurator/client"
	"qacurator/config"
	"qacurator/logger"
	"qacurator/pipeline"
	"qacurator/types"
)

func main() {
	in := flag.String("in", "", "Path to a batch JSON file (object with candidates, or a bare array)")
	out := flag.String("out", "", "Write the curated batch to this path")
	noDedup := flag.Bool("no-dedup", false, "Score and filter only")
	remote := flag.String("remote", "", "Curate on a running API at this URL instead of locally")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		app.InitLogger(config.Default(), "curate")
		logger.Fatal("Invalid configuration", "error", err)
	}
	app.InitLogger(cfg, "curate")

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		logger.Fatal("Failed to read batch", "path", *in, "error", err)
	}
	batch, err := readBatch(data)
	if err != nil {
		logger.Fatal("Failed to parse batch", "path", *in, "error", err)
	}
	logger.Info("Loaded batch", "batch_id", batch.BatchID, "candidates", len(batch.Candidates))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var res *pipeline.Result
	if *remote != "" {
		if *noDedup {
			logger.Warn("-no-dedup is ignored with -remote")
		}
		res, err = client.NewCuratorClient(*remote).Curate(ctx, batch.Candidates)
	} else {
		res, err = runLocal(ctx, cfg, batch.Candidates, *noDedup)
	}
	if err != nil {
		logger.Fatal("Curation failed", "error", err)
	}

	fmt.Fprint(os.Stdout, renderReport(res))

	if *out != "" {
		curated := types.Batch{
			BatchID:        batch.BatchID,
			Source:         batch.Source,
			CollectedAt:    batch.CollectedAt,
			CandidateCount: len(res.Candidates),
			Candidates:     res.Candidates,
		}
		if err := writeJSON(*out, curated); err != nil {
			logger.Fatal("Failed to write output", "path", *out, "error", err)
		}
		logger.Info("Wrote curated batch", "path", *out, "candidates", curated.CandidateCount)
	}
}

func runLocal(ctx context.Context, cfg config.Config, candidates []types.Candidate, noDedup bool) (*pipeline.Result, error) {
	services, err := app.New(ctx, cfg, app.Options{DisableDedup: noDedup})
	if err != nil {
		return nil, err
	}
	defer services.Close()
	return services.Pipeline.Run(ctx, candidates)
}

// readBatch accepts either a Batch object or a bare candidate array and
// fills in missing external IDs.
func readBatch(data []byte) (types.Batch, error) {
	var b types.Batch
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &b.Candidates); err != nil {
			return types.Batch{}, err
		}
		b.CollectedAt = time.Now().UTC()
		b.CandidateCount = len(b.Candidates)
	} else {
		if err := json.Unmarshal(data, &b); err != nil {
			return types.Batch{}, err
		}
		if b.CandidateCount != 0 && b.CandidateCount != len(b.Candidates) {
			logger.Warn("Batch candidate_count disagrees with payload",
				"declared", b.CandidateCount, "actual", len(b.Candidates))
		}
	}

	for i := range b.Candidates {
		c := &b.Candidates[i]
		if c.ExternalID != "" {
			continue
		}
		source := c.Source
		if source == "" {
			source = b.Source
		}
		c.ExternalID = types.GenerateID(source, c.Title())
	}
	return b, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
