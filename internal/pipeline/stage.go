// Package pipeline runs a WorkflowStrategy: it resolves the planned stages
// from a registry and executes them strictly in sequence over one
// AnalysisState, aborting the whole run on the first stage failure.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/steveyegge/curator/internal/config"
	"github.com/steveyegge/curator/internal/store"
	"github.com/steveyegge/curator/internal/types"
)

// Stage is one unit of the analysis catalog.
//
// Execute extends the state: it may append to the list and map sections it
// owns and set its own optional sub-object once. It must never remove another
// stage's contribution. Stages are stateless across runs.
type Stage interface {
	// ID returns the catalog identifier of the stage.
	ID() types.StageID

	// Execute runs the stage against the shared state.
	Execute(ctx context.Context, state *types.AnalysisState, env *Env) (*Result, error)
}

// Result is what a stage reports back besides its state changes.
type Result struct {
	// Discoveries are short human-readable findings for progress narration.
	Discoveries []string

	// Outcome is degraded when a fallback strategy produced the data.
	Outcome types.OutcomeStatus
}

// Completer is the completion service collaborator.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// Env carries the collaborators and read-only inputs of one run.
type Env struct {
	RunID   string
	Store   store.Capabilities
	Config  *config.Config
	Options config.Options
	Profile types.Profile

	// Completer is optional; stages fall back to heuristics without it.
	Completer Completer

	Logger *zap.Logger
}

// Log returns the run logger, or a no-op logger when none was set.
func (e *Env) Log() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
