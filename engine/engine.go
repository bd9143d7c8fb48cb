// CLAUDE:SUMMARY Plan executor: pacing, bounded retry, placeholder resolution, table fallback, cancellation.
// Package engine executes compiled plans against the document platform.
//
// The engine owns everything the wire client deliberately does not: call
// pacing, bounded retry, placeholder resolution, failure policy, progress
// reporting, and the run report artifact. Cancellation is cooperative and
// checked between every unit of work; a cancelled run is a clean outcome
// that can resume from the recorded position.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hazyhaar/depeche/batch"
	"github.com/hazyhaar/depeche/block"
	"github.com/hazyhaar/depeche/plan"
	"github.com/hazyhaar/depeche/remote"
)

// Caller is the wire dependency. *remote.Client satisfies it.
type Caller interface {
	Do(ctx context.Context, method, path string, body any) (*remote.Response, error)
}

// Config tunes execution policy.
type Config struct {
	// CallsPerSecond paces all API calls. Default 3.
	CallsPerSecond float64
	// MaxAttempts bounds retries per request, first attempt included.
	// Default 3.
	MaxAttempts int
	// BaseBackoff is the first retry wait, doubled per attempt. A server
	// Retry-After overrides it. Default 500ms.
	BaseBackoff time.Duration
	// RowDelay is a fixed pause after each row insert. Default 200ms.
	RowDelay time.Duration
	// Cancelled, when non-nil, is polled alongside ctx for cooperative
	// cancellation from hosts that cannot thread a context.
	Cancelled func() bool
	// OnProgress receives progress events, may be nil.
	OnProgress ProgressFunc
}

func (c *Config) defaults() {
	if c.CallsPerSecond == 0 {
		c.CallsPerSecond = 3
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BaseBackoff == 0 {
		c.BaseBackoff = 500 * time.Millisecond
	}
	if c.RowDelay == 0 {
		c.RowDelay = 200 * time.Millisecond
	}
}

// RunOptions carries resume position and compile-time bookkeeping into a run.
type RunOptions struct {
	// StartAt is the plan request index to begin from; zero for a fresh run.
	StartAt int
	// Resolved seeds the placeholder table when resuming.
	Resolved map[plan.Placeholder]string
	// Stats and Validation are the compiler's counters, copied into the
	// run report.
	Stats      batch.Stats
	Validation []ValidationEntry
	// Warnings are compile-time notes carried into the report.
	Warnings []string
}

// Result is what a run produced, complete or not.
type Result struct {
	RootURL string
	Report  *RunReport
	// NextRequest is the plan index to resume from. Equal to the request
	// count when the run completed.
	NextRequest int
	// NextBatch mirrors NextRequest for the raw-batch path.
	NextBatch int
	// Resolved is the placeholder table at stop time, for checkpointing.
	Resolved map[plan.Placeholder]string
}

// Engine executes plans. Safe for sequential reuse, one run at a time.
type Engine struct {
	api     Caller
	cfg     Config
	log     *slog.Logger
	limiter *rate.Limiter
}

// New builds an engine around a wire client. logger may be nil.
func New(api Caller, cfg Config, logger *slog.Logger) *Engine {
	cfg.defaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		api:     api,
		cfg:     cfg,
		log:     logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.CallsPerSecond), 1),
	}
}

// ExecutePlan runs a compiled plan in order. On cancellation or failure the
// returned Result still carries the report and the resume position.
//
// Failure policy is per kind: a create_database failure poisons that table's
// placeholder, appends the request's fallback notice to the root document,
// and the run continues; requests consuming a poisoned placeholder are
// skipped. Any other failure aborts the run after retries are exhausted.
func (e *Engine) ExecutePlan(ctx context.Context, p *plan.Plan, opts RunOptions) (*Result, error) {
	prog := &progressEmitter{fn: e.cfg.OnProgress}
	rep := &RunReport{
		Summary:         Summary{StartedAt: time.Now()},
		BlockValidation: opts.Validation,
		Warnings:        append([]string{}, opts.Warnings...),
	}
	rep.Summary.TotalBlocks = opts.Stats.Blocks
	rep.Warnings = append(rep.Warnings, p.Notes...)

	resolved := map[plan.Placeholder]string{}
	for k, v := range opts.Resolved {
		resolved[k] = v
	}
	poisoned := map[plan.Placeholder]bool{}

	res := &Result{Report: rep, Resolved: resolved}
	total := len(p.Requests)
	batchNo := 0

	finish := func(outcome, stage, msg string) {
		rep.Summary.Outcome = outcome
		rep.Summary.FinishedAt = time.Now()
		rep.Summary.DurationMs = rep.Summary.FinishedAt.Sub(rep.Summary.StartedAt).Milliseconds()
		rep.Summary.RootURL = res.RootURL
		prog.finish(stage, msg)
	}

	prog.emit("execute", opts.StartAt*100/max(total, 1), fmt.Sprintf("executing %d requests", total))

	for i := opts.StartAt; i < total; i++ {
		req := p.Requests[i]
		res.NextRequest = i

		if e.cancelled(ctx) {
			rep.Errors = append(rep.Errors, "run cancelled")
			finish("cancelled", "cancelled", "run cancelled")
			e.log.InfoContext(ctx, "run cancelled", "next_request", i)
			return res, ErrCancelled
		}

		if ph, bad := unavailable(req.Consumes, poisoned); bad {
			rep.APIRequests = append(rep.APIRequests, RequestEntry{
				Kind: string(req.Kind), Method: req.Method, Path: req.Path,
				Error: fmt.Sprintf("skipped: %s unavailable", ph),
			})
			if req.Kind == plan.KindAppendChildren {
				batchNo++
				rep.BatchProcessing = append(rep.BatchProcessing, BatchEntry{Batch: batchNo, Status: "skipped"})
			}
			continue
		}

		path := resolvePath(req.Path, resolved)
		body := substitute(req.Body, resolved)

		start := time.Now()
		resp, attempts, err := e.call(ctx, req.Method, path, body)
		dur := time.Since(start)
		rep.Summary.APICalls += attempts
		if attempts > 1 {
			rep.Summary.Retries += attempts - 1
		}

		if errors.Is(err, ErrCancelled) {
			rep.Errors = append(rep.Errors, "run cancelled")
			finish("cancelled", "cancelled", "run cancelled")
			e.log.InfoContext(ctx, "run cancelled", "next_request", i)
			return res, ErrCancelled
		}

		entry := RequestEntry{
			Kind: string(req.Kind), Method: req.Method, Path: path,
			Attempts: attempts, DurationMs: dur.Milliseconds(),
		}
		if err != nil {
			entry.Error = err.Error()
			rep.APIRequests = append(rep.APIRequests, entry)

			if req.Kind == plan.KindCreateDatabase {
				// Table fallback: abandon this table, leave a visible trace,
				// keep publishing the rest of the document.
				poisoned[req.Produces] = true
				rep.Errors = append(rep.Errors, fmt.Sprintf("table creation failed: %v", err))
				e.appendFallback(ctx, rep, resolved, req.FallbackNotice)
				continue
			}

			rep.Errors = append(rep.Errors, err.Error())
			finish("failed", "failed", err.Error())
			return res, &StepError{Index: i, Method: req.Method, Path: path, Cause: err}
		}

		entry.Status = resp.Status
		rep.APIRequests = append(rep.APIRequests, entry)

		if req.Kind == plan.KindAppendChildren {
			batchNo++
			be := BatchEntry{Batch: batchNo, Status: "ok"}
			if children, ok := req.Body["children"].([]block.Block); ok {
				be.Blocks = len(children)
				for _, b := range children {
					be.Bytes += b.Size()
				}
			}
			rep.BatchProcessing = append(rep.BatchProcessing, be)
			rep.Summary.TotalBatches++
		}

		if req.Produces != "" && resp.ID != "" {
			resolved[req.Produces] = resp.ID
		}
		if req.Produces == plan.RootID && resp.URL != "" {
			res.RootURL = resp.URL
		}

		if req.Kind == plan.KindCreateRow && e.cfg.RowDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(e.cfg.RowDelay):
			}
		}

		prog.emit("execute", (i+1)*100/total, req.Note)
	}

	res.NextRequest = total
	outcome := "success"
	if len(poisoned) > 0 {
		outcome = "partial"
	}
	finish(outcome, "done", "publication complete")
	return res, nil
}

// appendFallback best-effort appends a table's fallback notice to the root
// document. Its own failure is recorded but never escalates.
func (e *Engine) appendFallback(ctx context.Context, rep *RunReport, resolved map[plan.Placeholder]string, notice string) {
	if notice == "" {
		return
	}
	rootID, ok := resolved[plan.RootID]
	if !ok {
		return
	}
	_, _, err := e.call(ctx, "PATCH", "/v1/blocks/"+rootID+"/children",
		map[string]any{"children": []block.Block{block.Notice(notice)}})
	if err != nil && !errors.Is(err, ErrCancelled) {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("fallback notice not delivered: %v", err))
	}
}

func unavailable(consumes []plan.Placeholder, poisoned map[plan.Placeholder]bool) (plan.Placeholder, bool) {
	for _, ph := range consumes {
		if poisoned[ph] {
			return ph, true
		}
	}
	return "", false
}

// resolvePath substitutes every known placeholder occurring in a path.
func resolvePath(path string, resolved map[plan.Placeholder]string) string {
	if !strings.Contains(path, "{") {
		return path
	}
	for ph, id := range resolved {
		path = strings.ReplaceAll(path, string(ph), id)
	}
	return path
}

// substitute deep-copies a request body, replacing placeholder values with
// resolved IDs. The plan's own body is never mutated so a retry or resume
// sees the original.
func substitute(v any, resolved map[plan.Placeholder]string) any {
	switch t := v.(type) {
	case plan.Placeholder:
		if id, ok := resolved[t]; ok {
			return id
		}
		return string(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, el := range t {
			out[k] = substitute(el, resolved)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = substitute(el, resolved)
		}
		return out
	default:
		return v
	}
}
