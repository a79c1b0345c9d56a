package types

import (
	"fmt"
	"strings"
	"time"
)

// WorkflowStrategy is the planned, ordered subset of stages chosen for a profile.
// Rationales are narration only; nothing branches on them.
type WorkflowStrategy struct {
	Profile           Profile       `json:"profile"`
	Stages            []StageID     `json:"stages"`
	Rationales        []string      `json:"rationales"`
	EstimatedDuration time.Duration `json:"estimated_duration"`

	// StageReasons maps each selected stage to the decision that added it.
	StageReasons map[StageID]string `json:"stage_reasons,omitempty"`
}

// Validate checks the ordering and coverage rules of an executable strategy.
func (s *WorkflowStrategy) Validate() error {
	if len(s.Stages) == 0 {
		return fmt.Errorf("strategy has no stages")
	}
	seen := make(map[StageID]bool, len(s.Stages))
	last := -1
	for _, id := range s.Stages {
		pos := id.Position()
		if pos < 0 {
			return fmt.Errorf("unknown stage %q", id)
		}
		if seen[id] {
			return fmt.Errorf("duplicate stage %q", id)
		}
		if pos < last {
			return fmt.Errorf("stage %q is out of catalog order", id)
		}
		seen[id] = true
		last = pos
	}
	for _, id := range MandatoryStages {
		if !seen[id] {
			return fmt.Errorf("mandatory stage %q missing", id)
		}
	}
	return nil
}

// Includes reports whether the strategy selected the given stage.
func (s *WorkflowStrategy) Includes(id StageID) bool {
	for _, st := range s.Stages {
		if st == id {
			return true
		}
	}
	return false
}

// Summary returns a one-line description of the plan.
func (s *WorkflowStrategy) Summary() string {
	names := make([]string, len(s.Stages))
	for i, id := range s.Stages {
		names[i] = string(id)
	}
	return fmt.Sprintf("%s/%s corpus, %d stages (%s), ~%v",
		s.Profile.Complexity, s.Profile.OrganizationLevel, len(s.Stages),
		strings.Join(names, " → "), s.EstimatedDuration.Round(time.Second))
}
