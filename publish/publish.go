// CLAUDE:SUMMARY Publisher facade: parse, compile, execute, checkpoint, resume; the one entry point hosts use.
// Package publish wires the full pipeline together: report parsing, plan
// compilation, execution against the platform, and run checkpointing. Hosts
// (CLI, MCP, embedding code) talk to this package and nothing below it.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hazyhaar/depeche/batch"
	"github.com/hazyhaar/depeche/block"
	"github.com/hazyhaar/depeche/checkpoint"
	"github.com/hazyhaar/depeche/engine"
	"github.com/hazyhaar/depeche/plan"
	"github.com/hazyhaar/depeche/remote"
	"github.com/hazyhaar/depeche/report"
)

// Publisher is the pipeline facade. Build one with New and reuse it; runs
// execute sequentially.
type Publisher struct {
	cfg    *Config
	log    *slog.Logger
	client *remote.Client
	store  *checkpoint.Store

	progress  engine.ProgressFunc
	cancelled func() bool
}

// Option customises a Publisher.
type Option func(*Publisher)

// WithProgress installs a progress event receiver for all runs.
func WithProgress(fn engine.ProgressFunc) Option {
	return func(p *Publisher) { p.progress = fn }
}

// WithCancelled installs a cooperative cancellation poll for hosts that
// cannot thread a context.
func WithCancelled(fn func() bool) Option {
	return func(p *Publisher) { p.cancelled = fn }
}

// New builds a Publisher: platform client plus checkpoint store. logger may
// be nil.
func New(cfg *Config, logger *slog.Logger, opts ...Option) (*Publisher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	client, err := remote.New(cfg.remoteConfig(), logger)
	if err != nil {
		return nil, err
	}
	store, err := checkpoint.Open(cfg.Checkpoint.Path)
	if err != nil {
		return nil, err
	}
	p := &Publisher{cfg: cfg, log: logger, client: client, store: store}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the checkpoint store.
func (p *Publisher) Close() error { return p.store.Close() }

// Formats lists the source formats Parse accepts.
func Formats() []string { return []string{"markdown", "json", "html"} }

// parseSource resolves the content type from the file name, falling back to
// payload sniffing, and parses.
func parseSource(src []byte, name string) (*report.Document, error) {
	s := string(src)
	ct := report.TypeForName(name)
	if ct == "" {
		ct = report.Detect(s)
	}
	if ct == report.ContentJSON {
		return report.ParseJSON(s, name)
	}
	return report.Parse(s, ct)
}

// Compile parses a source document and compiles it into a plan without
// touching the network. name hints format detection by extension.
func (p *Publisher) Compile(src []byte, name, destID string) (*plan.Plan, batch.Stats, error) {
	doc, err := parseSource(src, name)
	if err != nil {
		return nil, batch.Stats{}, err
	}
	return plan.Compile(doc, destID, plan.Options{Batch: p.cfg.batchLimits()})
}

// CompileBlocks converts a source document straight to content blocks,
// bypassing plan compilation. Tables come out as inline table blocks.
func (p *Publisher) CompileBlocks(src []byte, name string) ([]block.Block, error) {
	doc, err := parseSource(src, name)
	if err != nil {
		return nil, err
	}
	return block.FromDocument(doc, block.BuildOptions{}), nil
}

// Publish runs the whole pipeline: parse, compile, execute, checkpoint.
// The returned run ID identifies the checkpoint row for Resume.
func (p *Publisher) Publish(ctx context.Context, src []byte, name, destID string) (string, *engine.Result, error) {
	pl, stats, err := p.Compile(src, name, destID)
	if err != nil {
		return "", nil, err
	}

	runID := ulid.Make().String()
	if err := p.store.Begin(ctx, runID, destID); err != nil {
		return "", nil, err
	}
	p.log.InfoContext(ctx, "run started",
		"run_id", runID,
		"dest_id", destID,
		"requests", len(pl.Requests),
		"blocks", stats.Blocks)

	res, err := p.execute(ctx, runID, pl, engine.RunOptions{Stats: stats})
	return runID, res, err
}

// Resume continues an interrupted run. The same source document must be
// supplied: the plan is recompiled deterministically and execution restarts
// at the recorded position with the already-resolved IDs.
func (p *Publisher) Resume(ctx context.Context, runID string, src []byte, name string) (*engine.Result, error) {
	run, err := p.store.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !run.Resumable() {
		return nil, fmt.Errorf("publish: run %s is %s, nothing to resume", runID, run.State)
	}

	pl, stats, err := p.Compile(src, name, run.DestID)
	if err != nil {
		return nil, err
	}
	if run.NextBatch >= len(pl.Requests) {
		return nil, fmt.Errorf("publish: run %s position %d is past the recompiled plan (%d requests); source changed?",
			runID, run.NextBatch, len(pl.Requests))
	}
	p.log.InfoContext(ctx, "run resumed",
		"run_id", runID,
		"start_at", run.NextBatch,
		"requests", len(pl.Requests))

	return p.execute(ctx, runID, pl, engine.RunOptions{
		StartAt:  run.NextBatch,
		Resolved: run.Resolved,
		Stats:    stats,
	})
}

// PublishBlocks appends pre-built raw blocks to an existing document. Broken
// blocks are repaired or replaced, never dropped. This is the legacy path
// with per-batch failure tolerance.
//
// startAt is the batch index to begin from: zero for a fresh run, or the
// NextBatch reported by an earlier cancelled run with the same blocks and
// limits (packing is deterministic, so batch boundaries reproduce).
func (p *Publisher) PublishBlocks(ctx context.Context, rootID string, raws []map[string]any, startAt int) (*engine.Result, error) {
	batches, stats := batch.PackRaw(raws, p.cfg.batchLimits())
	eng := engine.New(p.client, p.engineConfig(), p.log)
	res, err := eng.ExecuteBatches(ctx, rootID, batches, startAt)
	if res != nil && res.Report != nil {
		res.Report.Summary.TotalBlocks = stats.Blocks
	}
	return res, err
}

func (p *Publisher) engineConfig() engine.Config {
	cfg := p.cfg.engineConfig()
	cfg.OnProgress = p.progress
	cfg.Cancelled = p.cancelled
	return cfg
}

// execute runs one plan and records the outcome on the checkpoint row,
// whatever that outcome is.
func (p *Publisher) execute(ctx context.Context, runID string, pl *plan.Plan, opts engine.RunOptions) (*engine.Result, error) {
	eng := engine.New(p.client, p.engineConfig(), p.log)

	start := time.Now()
	res, runErr := eng.ExecutePlan(ctx, pl, opts)

	// Checkpoint writes use a background-derived context: the run context
	// may already be cancelled and the position must still land.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := p.store.Advance(saveCtx, runID, res.NextRequest, res.RootURL, res.Resolved); err != nil {
		p.log.WarnContext(ctx, "checkpoint advance failed", "run_id", runID, "error", err)
	}
	state := stateFromOutcome(res.Report.Summary.Outcome)
	artifact, err := res.Report.MarshalIndent()
	if err != nil {
		p.log.WarnContext(ctx, "run report marshal failed", "run_id", runID, "error", err)
		artifact = nil
	}
	if err := p.store.Finish(saveCtx, runID, state, artifact); err != nil {
		p.log.WarnContext(ctx, "checkpoint finish failed", "run_id", runID, "error", err)
	}

	p.log.InfoContext(ctx, "run finished",
		"run_id", runID,
		"outcome", res.Report.Summary.Outcome,
		"root_url", res.RootURL,
		"api_calls", res.Report.Summary.APICalls,
		"duration_ms", time.Since(start).Milliseconds())
	return res, runErr
}

func stateFromOutcome(outcome string) string {
	if outcome == "success" {
		return "done"
	}
	return outcome
}
