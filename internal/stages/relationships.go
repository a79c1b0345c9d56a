package stages

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/steveyegge/curator/internal/pipeline"
	"github.com/steveyegge/curator/internal/types"
)

const (
	minInboundLinks   = 2
	minClusterMembers = 2
	maxClustersPerRun = 10
	maxCentralNodes   = 10
)

// relationshipStage maps links between the documents read so far and groups
// folders that share tags.
type relationshipStage struct{}

func (relationshipStage) ID() types.StageID { return types.StageRelationshipMapping }

func (relationshipStage) Execute(ctx context.Context, state *types.AnalysisState, _ *pipeline.Env) (*pipeline.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := &state.Relationships
	if state.DeepContent == nil || len(state.DeepContent.ReadFiles) == 0 {
		return &pipeline.Result{
			Discoveries: []string{"no document content to map"},
			Outcome:     types.OutcomeDegraded,
		}, nil
	}
	docs := state.DeepContent.ReadFiles

	inbound := make(map[string]int)
	links := 0
	for _, doc := range docs {
		for _, target := range doc.InternalLinks {
			inbound[linkKey(target)]++
		}
		links += len(doc.InternalLinks) + doc.ExternalLinks
	}
	rel.LinkDensity = float64(links) / float64(len(docs))

	for _, target := range truncateList(rankKeys(inbound), maxCentralNodes) {
		if inbound[target] < minInboundLinks {
			break
		}
		rel.AddCentralNode(types.CentralNode{Path: target, InboundLinks: inbound[target]})
	}

	members := make(map[string][]string)
	for _, doc := range docs {
		for _, tag := range doc.Tags {
			members[tag] = appendUnique(members[tag], doc.Path)
		}
	}
	tags := make([]string, 0, len(members))
	for tag, m := range members {
		if len(m) >= minClusterMembers {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool {
		if len(members[tags[i]]) != len(members[tags[j]]) {
			return len(members[tags[i]]) > len(members[tags[j]])
		}
		return tags[i] < tags[j]
	})
	for _, tag := range truncateList(tags, maxClustersPerRun) {
		m := append([]string(nil), members[tag]...)
		sort.Strings(m)
		rel.AddCluster(types.Cluster{Name: tag, Members: m, SharedTags: []string{tag}})
	}

	return &pipeline.Result{Discoveries: []string{
		fmt.Sprintf("%d central documents, %d tag clusters, %.1f links per document",
			len(rel.CentralNodes), len(rel.Clusters), rel.LinkDensity),
	}}, nil
}

// linkKey normalizes a link target so wiki links and relative paths to the
// same note count together.
func linkKey(target string) string {
	return strings.ToLower(strings.TrimSuffix(path.Base(target), ".md"))
}
