// Package warming pre-drives the conversation pipeline for every known
// (universe, workflow) pair at startup so the downstream response cache is
// hot before real traffic arrives.
package warming

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/hirecj/agentsim/config"
	"github.com/hirecj/agentsim/internal/metrics"
	"github.com/hirecj/agentsim/processor"
	"github.com/hirecj/agentsim/session"
	"github.com/hirecj/agentsim/types"
	"github.com/hirecj/agentsim/universe"
	"github.com/hirecj/agentsim/workflow"
)

// Outcome classifies one settled warming task.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// TaskResult is the settled outcome for one (universe, workflow) pair.
type TaskResult struct {
	UniverseID string
	WorkflowID string
	Outcome    Outcome
	Err        error
}

// Stats aggregates a warming run. Counters are only written after every
// task has settled, so a reader of the returned value never observes
// partial state.
type Stats struct {
	Total     int
	Success   int
	Failed    int
	Skipped   int
	StartTime time.Time
	EndTime   time.Time
}

// Warmer enumerates the (universe × workflow) cross-product and drives one
// throwaway conversation turn per pair under a bounded concurrency limit.
type Warmer struct {
	sessions  *session.Store
	processor *processor.Processor
	universes universe.Source
	workflows workflow.Registry

	concurrency int64
	limiter     *rate.Limiter // nil disables throttling
	taskTimeout time.Duration

	collector *metrics.Collector // optional
	logger    *zap.Logger
}

// New creates a Warmer from the warming config section.
func New(
	cfg config.WarmingConfig,
	sessions *session.Store,
	proc *processor.Processor,
	universes universe.Source,
	workflows workflow.Registry,
	collector *metrics.Collector,
	logger *zap.Logger,
) *Warmer {
	concurrency := int64(cfg.Concurrency)
	if concurrency <= 0 {
		concurrency = int64(config.DefaultWarmingConfig().Concurrency)
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}

	return &Warmer{
		sessions:    sessions,
		processor:   proc,
		universes:   universes,
		workflows:   workflows,
		concurrency: concurrency,
		limiter:     limiter,
		taskTimeout: cfg.TaskTimeout,
		collector:   collector,
		logger:      logger.With(zap.String("component", "warming")),
	}
}

// Start launches WarmAll in the background and returns a handle that closes
// when the run settles. The caller (process supervisor) does not block on
// it; errors are logged, never fatal to startup.
func (w *Warmer) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		stats, err := w.WarmAll(ctx)
		if err != nil {
			w.logger.Error("cache warming aborted", zap.Error(err))
			return
		}
		w.logger.Info("cache warming complete",
			zap.Int("total", stats.Total),
			zap.Int("success", stats.Success),
			zap.Int("failed", stats.Failed),
			zap.Int("skipped", stats.Skipped),
			zap.Duration("elapsed", stats.EndTime.Sub(stats.StartTime)),
		)
	}()
	return done
}

// WarmAll runs the full cross-product and returns aggregate statistics once
// every task has settled. A failing task never aborts its siblings.
func (w *Warmer) WarmAll(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	universeIDs, err := w.universes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate universes: %w", err)
	}
	workflowIDs, err := w.workflows.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate workflows: %w", err)
	}

	type pair struct{ universeID, workflowID string }
	tasks := make([]pair, 0, len(universeIDs)*len(workflowIDs))
	seen := make(map[pair]bool)
	for _, u := range universeIDs {
		for _, wf := range workflowIDs {
			p := pair{u, wf}
			if seen[p] {
				continue
			}
			seen[p] = true
			tasks = append(tasks, p)
		}
	}

	w.logger.Info("cache warming started",
		zap.Int("universes", len(universeIDs)),
		zap.Int("workflows", len(workflowIDs)),
		zap.Int("tasks", len(tasks)),
		zap.Int64("concurrency", w.concurrency),
	)

	sem := semaphore.NewWeighted(w.concurrency)
	results := make(chan TaskResult, len(tasks))
	var wg sync.WaitGroup

	for _, task := range tasks {
		wg.Add(1)
		go func(universeID, workflowID string) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				results <- TaskResult{universeID, workflowID, OutcomeFailed, err}
				return
			}
			defer sem.Release(1)

			results <- w.runTask(ctx, universeID, workflowID)
		}(task.universeID, task.workflowID)
	}

	wg.Wait()
	close(results)

	// Aggregate only after all tasks settle.
	for res := range results {
		stats.Total++
		switch res.Outcome {
		case OutcomeSuccess:
			stats.Success++
		case OutcomeSkipped:
			stats.Skipped++
		default:
			stats.Failed++
			w.logger.Warn("warming task failed",
				zap.String("universe_id", res.UniverseID),
				zap.String("workflow_id", res.WorkflowID),
				zap.Error(res.Err),
			)
		}
		if w.collector != nil {
			w.collector.RecordWarmingOutcome(string(res.Outcome))
		}
	}

	stats.EndTime = time.Now()
	return stats, nil
}

// runTask warms one pair: throwaway session, one canned trigger turn, end.
// Panics and errors are contained here and classified, never re-raised.
func (w *Warmer) runTask(ctx context.Context, universeID, workflowID string) (result TaskResult) {
	result = TaskResult{UniverseID: universeID, WorkflowID: workflowID}
	defer func() {
		if r := recover(); r != nil {
			result.Outcome = OutcomeFailed
			result.Err = fmt.Errorf("warming task panicked: %v", r)
		}
	}()

	if !workflow.IsWarmable(workflowID) {
		result.Outcome = OutcomeSkipped
		return result
	}

	// Absent and unreadable universes both count as skipped; the failed
	// bucket is reserved for the agent itself.
	u, err := w.universes.Load(ctx, universeID)
	if err != nil || u == nil {
		if err != nil {
			w.logger.Warn("universe failed to load during warming, skipping",
				zap.String("universe_id", universeID),
				zap.Error(err),
			)
		}
		result.Outcome = OutcomeSkipped
		return result
	}

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			result.Outcome = OutcomeFailed
			result.Err = err
			return result
		}
	}

	taskCtx := ctx
	if w.taskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, w.taskTimeout)
		defer cancel()
	}

	sess, err := w.sessions.Create(taskCtx, u.MerchantName, u.ScenarioName, workflowID)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}
	// The warmed conversation is never persisted.
	defer w.sessions.End(sess.ID)

	trigger := fmt.Sprintf("Start the %s workflow", workflowID)
	resp, err := w.processor.Process(taskCtx, sess, trigger, types.SenderSystem)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}
	if sess.Metrics.Errors > 0 {
		result.Outcome = OutcomeFailed
		result.Err = fmt.Errorf("agent runtime failed for %s/%s", universeID, workflowID)
		return result
	}
	if resp.ResponseContent() == "" {
		result.Outcome = OutcomeFailed
		result.Err = fmt.Errorf("empty response for %s/%s", universeID, workflowID)
		return result
	}

	result.Outcome = OutcomeSuccess
	return result
}
