package stages

import "github.com/steveyegge/curator/internal/i18n"

// Linking-pattern categories for knowledge networks.
const (
	linkTechnical = string(i18n.LinkTechnical)
	linkProcess   = string(i18n.LinkProcess)
	linkDomain    = string(i18n.LinkDomain)
)

var linkingTaxonomy = newTaxonomy(map[string][]string{
	linkTechnical: {
		"api", "code", "architecture", "system", "database", "design", "deploy",
		"software", "programming", "algorithm", "data", "infra", "security",
		"test", "server", "cloud", "golang", "python", "rust", "kubernetes",
	},
	linkProcess: {
		"workflow", "process", "meeting", "review", "plan", "project", "task",
		"sprint", "retro", "checklist", "roadmap", "milestone", "okr", "weekly",
		"daily", "onboarding", "hiring",
	},
})

// domainTaxonomy labels subject domains from tags, headings and folder names.
var domainTaxonomy = newTaxonomy(map[string][]string{
	string(i18n.DomainSoftware): {
		"code", "api", "programming", "software", "dev", "architecture", "bug",
		"deploy", "backend", "frontend", "database", "golang", "python", "testing",
	},
	string(i18n.DomainResearch): {
		"paper", "research", "study", "literature", "hypothesis", "experiment",
		"thesis", "citation", "survey",
	},
	string(i18n.DomainProject): {
		"project", "meeting", "roadmap", "milestone", "sprint", "okr", "planning",
		"retro", "stakeholder",
	},
	string(i18n.DomainPersonal): {
		"journal", "daily", "reflection", "idea", "habit", "book", "reading",
		"zettel", "evergreen",
	},
	string(i18n.DomainBusiness): {
		"market", "sales", "customer", "strategy", "finance", "budget", "revenue",
		"product", "pricing",
	},
	string(i18n.DomainWriting): {
		"essay", "blog", "article", "outline", "writing", "chapter", "story",
	},
	string(i18n.DomainLearning): {
		"course", "lecture", "tutorial", "learn", "lesson", "exercise", "exam",
	},
})

// Representative-file scoring.
var (
	priorityNames   = []string{"index", "readme", "_index", "home", "overview", "moc", "start-here"}
	descriptiveKeys = []string{"guide", "architecture", "api", "overview", "design", "spec", "reference", "tutorial", "howto", "setup"}
)
