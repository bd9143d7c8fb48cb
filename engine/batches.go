package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/depeche/batch"
)

// ExecuteBatches appends pre-packed batches to an existing document. This is
// the raw path for callers that bring their own blocks instead of a plan.
//
// Unlike ExecutePlan, a failed batch does not abort the run: the failure is
// recorded and the remaining batches still go out, so one poisoned batch
// costs its own content and nothing else. Cancellation stops between
// batches and reports the resume index in NextBatch.
func (e *Engine) ExecuteBatches(ctx context.Context, rootID string, batches []batch.Batch, startAt int) (*Result, error) {
	prog := &progressEmitter{fn: e.cfg.OnProgress}
	rep := &RunReport{Summary: Summary{StartedAt: time.Now()}}
	res := &Result{Report: rep}

	finish := func(outcome, stage, msg string) {
		rep.Summary.Outcome = outcome
		rep.Summary.FinishedAt = time.Now()
		rep.Summary.DurationMs = rep.Summary.FinishedAt.Sub(rep.Summary.StartedAt).Milliseconds()
		prog.finish(stage, msg)
	}

	if rootID == "" {
		rep.Errors = append(rep.Errors, "root block ID is required")
		finish("failed", "failed", "missing root block ID")
		return res, fmt.Errorf("engine: root block ID is required")
	}

	failed := 0
	for i := startAt; i < len(batches); i++ {
		res.NextBatch = i
		if e.cancelled(ctx) {
			rep.Errors = append(rep.Errors, "run cancelled")
			finish("cancelled", "cancelled", "run cancelled")
			e.log.InfoContext(ctx, "run cancelled", "next_batch", i)
			return res, ErrCancelled
		}

		b := batches[i]
		start := time.Now()
		_, attempts, err := e.call(ctx, "PATCH", "/v1/blocks/"+rootID+"/children",
			map[string]any{"children": b.Blocks})
		rep.Summary.APICalls += attempts
		if attempts > 1 {
			rep.Summary.Retries += attempts - 1
		}

		if errors.Is(err, ErrCancelled) {
			rep.Errors = append(rep.Errors, "run cancelled")
			finish("cancelled", "cancelled", "run cancelled")
			e.log.InfoContext(ctx, "run cancelled", "next_batch", i)
			return res, ErrCancelled
		}

		be := BatchEntry{Batch: i + 1, Blocks: len(b.Blocks), Bytes: b.Bytes, Status: "ok"}
		entry := RequestEntry{
			Kind: "append_children", Method: "PATCH", Path: "/v1/blocks/" + rootID + "/children",
			Attempts: attempts, DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			failed++
			be.Status = "failed"
			entry.Error = err.Error()
			rep.Errors = append(rep.Errors, fmt.Sprintf("batch %d/%d: %v", i+1, len(batches), err))
			e.log.WarnContext(ctx, "batch failed, continuing",
				"batch", i+1, "total", len(batches), "error", err)
		} else {
			rep.Summary.TotalBlocks += len(b.Blocks)
		}
		rep.BatchProcessing = append(rep.BatchProcessing, be)
		rep.APIRequests = append(rep.APIRequests, entry)
		rep.Summary.TotalBatches++

		prog.emit("append", (i+1)*100/len(batches), fmt.Sprintf("batch %d/%d", i+1, len(batches)))
	}

	res.NextBatch = len(batches)
	switch {
	case failed == len(batches)-startAt && failed > 0:
		finish("failed", "failed", "all batches failed")
	case failed > 0:
		finish("partial", "done", fmt.Sprintf("%d of %d batches failed", failed, len(batches)-startAt))
	default:
		finish("success", "done", "all batches appended")
	}
	return res, nil
}
