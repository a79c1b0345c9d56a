package types

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrSectionAlreadySet is returned when a stage tries to set an optional
// sub-object that an earlier stage (or itself) already set.
var ErrSectionAlreadySet = errors.New("analysis section already set")

// AnalysisState is the single accumulator threaded through every stage of a run.
//
// List and map sections are append-only: stages add entries through the Add*/Inc*
// helpers and never remove another stage's contribution. Optional sub-objects
// are set at most once through their Set* method.
type AnalysisState struct {
	RunID     string
	Version   int
	StartedAt time.Time

	Structure     StructureSection
	Content       ContentPatterns
	Relationships RelationshipSection
	Insights      InsightSection

	// InputLanguage is the last language detected from corpus content ("" if unknown).
	InputLanguage string

	DeepContent  *DeepContentResult
	Semantic     *SemanticResult
	Domain       *DomainAnalysis
	Optimization *OptimizationReport
	Migration    *MigrationPlan
	Draft        *InstructionDraft
	Formatted    *FormattedInstructions
	Document     *RenderedDocument
}

// NewAnalysisState creates an empty state for one run.
func NewAnalysisState(runID string) *AnalysisState {
	return &AnalysisState{
		RunID:     runID,
		StartedAt: time.Now(),
		Structure: StructureSection{
			FileTypes: make(map[string]int),
		},
		Content: ContentPatterns{
			MetadataFields: make(map[string]int),
			Tags:           make(map[string]int),
		},
	}
}

// StructureSection is owned by the discovery stage.
type StructureSection struct {
	FileCount   int
	FolderCount int
	MaxDepth    int
	FileTypes   map[string]int
	Folders     []FolderSummary
}

// FolderSummary is one line of the folder hierarchy sketch.
type FolderSummary struct {
	Path      string
	Depth     int
	FileCount int
}

// AddFolder appends a folder to the hierarchy sketch.
func (s *StructureSection) AddFolder(f FolderSummary) {
	s.Folders = append(s.Folders, f)
}

// IncFileType increments the histogram entry for a file extension.
func (s *StructureSection) IncFileType(ext string, n int) {
	if s.FileTypes == nil {
		s.FileTypes = make(map[string]int)
	}
	s.FileTypes[ext] += n
}

// ContentPatterns is owned by the content analysis stage.
type ContentPatterns struct {
	MetadataFields    map[string]int
	Tags              map[string]int
	NamingConventions []string
}

// IncMetadataField records one use of a front-matter field.
func (c *ContentPatterns) IncMetadataField(field string, n int) {
	if c.MetadataFields == nil {
		c.MetadataFields = make(map[string]int)
	}
	c.MetadataFields[field] += n
}

// IncTag records one use of a tag.
func (c *ContentPatterns) IncTag(tag string, n int) {
	if c.Tags == nil {
		c.Tags = make(map[string]int)
	}
	c.Tags[tag] += n
}

// AddNamingConvention appends a convention if it is not already listed.
func (c *ContentPatterns) AddNamingConvention(name string) {
	c.NamingConventions = appendUnique(c.NamingConventions, name)
}

// TopTags returns up to n tags ordered by descending count, then name.
func (c *ContentPatterns) TopTags(n int) []string {
	return topKeys(c.Tags, n)
}

// RelationshipSection is owned by the relationship mapping stage.
type RelationshipSection struct {
	CentralNodes []CentralNode
	Clusters     []Cluster
	LinkDensity  float64
}

// CentralNode is a document many others link to.
type CentralNode struct {
	Path         string
	InboundLinks int
}

// Cluster groups folders or documents that share tags.
type Cluster struct {
	Name       string
	Members    []string
	SharedTags []string
}

// AddCentralNode appends a central node.
func (r *RelationshipSection) AddCentralNode(n CentralNode) {
	r.CentralNodes = append(r.CentralNodes, n)
}

// AddCluster appends a cluster.
func (r *RelationshipSection) AddCluster(c Cluster) {
	r.Clusters = append(r.Clusters, c)
}

// InsightSection collects findings from several stages.
type InsightSection struct {
	Domains                []string
	WorkflowPatterns       []string
	OrganizationPrinciples []string
}

// AddDomain appends a domain if it is not already listed.
func (i *InsightSection) AddDomain(d string) {
	i.Domains = appendUnique(i.Domains, d)
}

// AddWorkflowPattern appends a workflow pattern if it is not already listed.
func (i *InsightSection) AddWorkflowPattern(p string) {
	i.WorkflowPatterns = appendUnique(i.WorkflowPatterns, p)
}

// AddOrganizationPrinciple appends a principle if it is not already listed.
func (i *InsightSection) AddOrganizationPrinciple(p string) {
	i.OrganizationPrinciples = appendUnique(i.OrganizationPrinciples, p)
}

// DeepContentResult is produced by the deep content discovery stage. Every
// fallback strategy fills the same fields; degraded strategies leave some empty.
type DeepContentResult struct {
	Source string
	Status OutcomeStatus
	Reason string

	TotalFiles      int
	FolderCount     int
	Representatives map[string][]string
	ReadFiles       []DocumentInsight
	CharsRead       int
	CharBudget      int

	DocumentTypes    map[string]int
	FolderCategories map[string][]string
	Flags            StructuralFlags
}

// DocumentInsight is what content acquisition learned about one document.
type DocumentInsight struct {
	Path           string
	Folder         string
	Type           string
	Length         int
	LengthTier     string
	Headings       []string
	Tags           []string
	MetadataFields []string
	InternalLinks  []string
	ExternalLinks  int
	HasCode        bool
	HasHeaders     bool
	HasTasks       bool
	Preview        string
}

// StructuralFlags summarize document-level features across the corpus.
type StructuralFlags struct {
	HasPrimaryDocumentation bool
	HasCodeDocumentation    bool
	HasTaskLists            bool
	HasCrossLinks           bool
	HasExternalReferences   bool
}

// SemanticResult is produced by the semantic insight stage.
type SemanticResult struct {
	Source          string
	Status          OutcomeStatus
	Reason          string
	Themes          []Theme
	Networks        []KnowledgeNetwork
	UsagePatterns   []string
	Characteristics []string
}

// Theme is a recurring subject in the corpus.
type Theme struct {
	Name        string
	Prevalence  float64 // relative frequency, 0-1
	Depth       float64 // 0-1
	Connections []string
}

// KnowledgeNetwork is a concept with at least two distinct co-occurring concepts.
type KnowledgeNetwork struct {
	Concept        string
	Connections    []string
	Strength       float64 // connections/5, capped at 1.0
	LinkingPattern string
}

// DomainAnalysis is produced by the domain analysis stage.
type DomainAnalysis struct {
	Labels []DomainLabel
}

// DomainLabel is a subject domain with supporting evidence.
type DomainLabel struct {
	Name      string
	Documents int
	Keywords  []string
}

// OptimizationReport is produced by the optimization analysis stage.
type OptimizationReport struct {
	OversizedFolders []string
	OrphanDocuments  []string
	DeepPaths        []string
	Suggestions      []string
}

// MigrationPlan is produced by the legacy migration stage.
type MigrationPlan struct {
	Candidates []MigrationCandidate
}

// MigrationCandidate is a folder that would benefit from restructuring.
type MigrationCandidate struct {
	Folder     string
	FileCount  int
	Suggestion string
}

// InstructionDraft is the unformatted content of the guidance document.
type InstructionDraft struct {
	Overview        string
	GeneratedBy     string // "completion" or "heuristic"
	Domains         []string
	Patterns        []string
	Principles      []string
	Characteristics []string
	Themes          []Theme
	Networks        []KnowledgeNetwork
	Recommendations []string
}

// FormattedInstructions holds localized, truncated sections ready for rendering.
type FormattedInstructions struct {
	Language string
	Title    string
	Sections []FormattedSection
}

// FormattedSection is one fixed section of the output document.
type FormattedSection struct {
	Key   string
	Title string
	Lines []string
}

// RenderedDocument is the final output of a run.
type RenderedDocument struct {
	Content       string
	Language      string
	CreatedAt     time.Time
	ItemsAnalyzed int
	StagesRun     int
}

// SetDeepContent sets the deep content result once.
func (s *AnalysisState) SetDeepContent(v *DeepContentResult) error {
	return setOnce(&s.DeepContent, v, "deep content")
}

// SetSemantic sets the semantic result once.
func (s *AnalysisState) SetSemantic(v *SemanticResult) error {
	return setOnce(&s.Semantic, v, "semantic")
}

// SetDomain sets the domain analysis once.
func (s *AnalysisState) SetDomain(v *DomainAnalysis) error {
	return setOnce(&s.Domain, v, "domain")
}

// SetOptimization sets the optimization report once.
func (s *AnalysisState) SetOptimization(v *OptimizationReport) error {
	return setOnce(&s.Optimization, v, "optimization")
}

// SetMigration sets the migration plan once.
func (s *AnalysisState) SetMigration(v *MigrationPlan) error {
	return setOnce(&s.Migration, v, "migration")
}

// SetDraft sets the instruction draft once.
func (s *AnalysisState) SetDraft(v *InstructionDraft) error {
	return setOnce(&s.Draft, v, "draft")
}

// SetFormatted sets the formatted instructions once.
func (s *AnalysisState) SetFormatted(v *FormattedInstructions) error {
	return setOnce(&s.Formatted, v, "formatted instructions")
}

// SetDocument sets the rendered document once.
func (s *AnalysisState) SetDocument(v *RenderedDocument) error {
	return setOnce(&s.Document, v, "document")
}

func setOnce[T any](dst **T, v *T, name string) error {
	if v == nil {
		return fmt.Errorf("%s: nil value", name)
	}
	if *dst != nil {
		return fmt.Errorf("%s: %w", name, ErrSectionAlreadySet)
	}
	*dst = v
	return nil
}

func appendUnique(list []string, item string) []string {
	for _, s := range list {
		if s == item {
			return list
		}
	}
	return append(list, item)
}

// topKeys returns up to n map keys ordered by descending count, ties by name.
func topKeys(m map[string]int, n int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
