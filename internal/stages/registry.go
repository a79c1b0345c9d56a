// Package stages implements the analysis catalog. Each stage is a small value
// type implementing pipeline.Stage; the catalog table below maps every
// catalog ID to its implementation.
package stages

import (
	"fmt"

	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/types"
)

// catalog lists one implementation per stage, in catalog order.
var catalog = []pipeline.Stage{
	discoveryStage{},
	deepContentStage{},
	contentAnalysisStage{},
	patternStage{},
	relationshipStage{},
	domainStage{},
	semanticStage{},
	optimizationStage{},
	migrationStage{},
	generationStage{},
	formattingStage{},
	synthesisStage{},
}

// NewRegistry returns a registry holding the full catalog.
func NewRegistry() *pipeline.Registry {
	r := pipeline.NewRegistry()
	for _, s := range catalog {
		if err := r.Register(s); err != nil {
			panic(fmt.Sprintf("stages: %v", err))
		}
	}
	return r
}

// IDs returns the catalog IDs in order.
func IDs() []types.StageID {
	ids := make([]types.StageID, len(catalog))
	for i, s := range catalog {
		ids[i] = s.ID()
	}
	return ids
}
