package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steveyegge/curator/internal/config"
	"github.com/steveyegge/curator/internal/i18n"
	"github.com/steveyegge/curator/internal/store"
	"github.com/steveyegge/curator/internal/types"
)

// Progress is sent to the Reporter after each stage.
type Progress struct {
	Stage       types.StageID
	StageLabel  string
	StepIndex   int // 1-based
	TotalSteps  int
	Action      string
	Rationale   string
	Discoveries []string
	Elapsed     time.Duration
	Completed   bool
	Outcome     types.OutcomeStatus
}

// ElapsedMs returns the stage duration in milliseconds.
func (p Progress) ElapsedMs() int64 {
	return p.Elapsed.Milliseconds()
}

// Reporter receives progress. It is purely observational: it cannot fail the
// run and receives no acknowledgement.
type Reporter interface {
	Report(Progress)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Progress)

// Report calls f(p).
func (f ReporterFunc) Report(p Progress) { f(p) }

// RunResult is the outcome of one pipeline run.
type RunResult struct {
	RunID       string
	State       *types.AnalysisState
	Timings     []types.StageTiming
	StartedAt   time.Time
	CompletedAt time.Time
}

// Duration returns the wall-clock time of the run.
func (r *RunResult) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// Executor runs workflow strategies. A fresh AnalysisState is created for
// every Run, so one executor may serve several runs one after another.
type Executor struct {
	registry *Registry
	reporter Reporter
	logger   *zap.Logger
}

// NewExecutor creates an executor. reporter may be nil.
func NewExecutor(registry *Registry, reporter Reporter, logger *zap.Logger) *Executor {
	if reporter == nil {
		reporter = ReporterFunc(func(Progress) {})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{registry: registry, reporter: reporter, logger: logger}
}

// Precheck verifies the minimum collaborator capability set: document listing
// plus at least one way to read content.
func Precheck(caps store.Capabilities) error {
	if caps.Lister == nil {
		return &types.PlanningError{Reason: "document store cannot list documents", Err: types.Unavailable(store.CapList)}
	}
	if !caps.CanRead() {
		return &types.PlanningError{Reason: "document store cannot read documents", Err: types.Unavailable(store.CapRead)}
	}
	return nil
}

// Run executes the strategy's stages in order. On the first stage error the
// run is aborted and a *types.StageExecutionError is returned together with
// the partial result; there is no retry and no resume.
func (e *Executor) Run(ctx context.Context, strategy *types.WorkflowStrategy, env *Env) (*RunResult, error) {
	if err := Precheck(env.Store); err != nil {
		return nil, err
	}
	if err := strategy.Validate(); err != nil {
		return nil, &types.PlanningError{Reason: "invalid strategy", Err: err}
	}
	stages, err := e.registry.Resolve(strategy.Stages)
	if err != nil {
		return nil, &types.PlanningError{Reason: "unresolvable strategy", Err: err}
	}

	if env.RunID == "" {
		env.RunID = uuid.NewString()
	}
	if env.Config == nil {
		env.Config = config.Default()
	}
	if env.Profile.Complexity == "" {
		env.Profile = strategy.Profile
	}

	state := types.NewAnalysisState(env.RunID)
	result := &RunResult{
		RunID:     env.RunID,
		State:     state,
		StartedAt: state.StartedAt,
	}
	log := e.logger.With(zap.String("run_id", env.RunID))
	total := len(stages)

	for i, stage := range stages {
		id := stage.ID()
		if err := ctx.Err(); err != nil {
			result.CompletedAt = time.Now()
			return result, &types.StageExecutionError{Stage: id, Index: i + 1, Total: total, Err: err}
		}

		log.Debug("stage starting", zap.String("stage", string(id)), zap.Int("step", i+1))
		start := time.Now()
		stageResult, err := e.runStage(ctx, stage, state, env)
		elapsed := time.Since(start)
		lang := i18n.Resolve(env.Options.Language, state.InputLanguage)

		if err != nil {
			log.Error("stage failed", zap.String("stage", string(id)), zap.Duration("elapsed", elapsed), zap.Error(err))
			result.Timings = append(result.Timings, types.StageTiming{Stage: id, Duration: elapsed, Outcome: types.OutcomeFailed})
			e.reporter.Report(Progress{
				Stage:      id,
				StageLabel: i18n.StageLabel(lang, id),
				StepIndex:  i + 1,
				TotalSteps: total,
				Action:     i18n.StageAction(lang, id),
				Rationale:  strategy.StageReasons[id],
				Elapsed:    elapsed,
				Outcome:    types.OutcomeFailed,
			})
			result.CompletedAt = time.Now()
			return result, &types.StageExecutionError{Stage: id, Index: i + 1, Total: total, Err: err}
		}

		state.Version++
		outcome := stageResult.Outcome
		if outcome == "" {
			outcome = types.OutcomeOK
		}
		result.Timings = append(result.Timings, types.StageTiming{Stage: id, Duration: elapsed, Outcome: outcome})
		log.Info("stage completed",
			zap.String("stage", string(id)),
			zap.Duration("elapsed", elapsed),
			zap.String("outcome", string(outcome)),
			zap.Int("state_version", state.Version))

		e.reporter.Report(Progress{
			Stage:       id,
			StageLabel:  i18n.StageLabel(lang, id),
			StepIndex:   i + 1,
			TotalSteps:  total,
			Action:      i18n.StageAction(lang, id),
			Rationale:   strategy.StageReasons[id],
			Discoveries: stageResult.Discoveries,
			Elapsed:     elapsed,
			Completed:   true,
			Outcome:     outcome,
		})
	}

	result.CompletedAt = time.Now()
	return result, nil
}

// runStage executes one stage, converting a panic into an error.
func (e *Executor) runStage(ctx context.Context, stage Stage, state *types.AnalysisState, env *Env) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	res, err = stage.Execute(ctx, state, env)
	if err == nil && res == nil {
		res = &Result{}
	}
	return res, err
}
