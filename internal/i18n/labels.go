package i18n

import (
	"fmt"
	"strings"
)

// Label keys name findings that stages record in the analysis state. They are
// namespaced so they never collide with concepts extracted from content.
const (
	// Workflow patterns.
	WorkflowJournaling      Key = "workflow.daily_journaling"
	WorkflowPermanentNotes  Key = "workflow.permanent_notes"
	WorkflowProjectTracking Key = "workflow.project_tracking"
	WorkflowTemplates       Key = "workflow.templates"
	WorkflowVersionControl  Key = "workflow.version_control"
	WorkflowAssistant       Key = "workflow.assistant_instructions"
	WorkflowTaskTracking    Key = "workflow.task_tracking"
	WorkflowDatedEntries    Key = "workflow.dated_entries"
	WorkflowChronological   Key = "workflow.chronological_naming"

	// Organization principles.
	PrincipleHubs        Key = "principle.hub_documents"
	PrincipleTags        Key = "principle.tag_classification"
	PrincipleFrontMatter Key = "principle.front_matter"
	PrincipleHierarchy   Key = "principle.hierarchical_folders"
	PrincipleFlat        Key = "principle.flat_layout"
	PrincipleCrossLinks  Key = "principle.cross_links"
	PrincipleNaming      Key = "principle.consistent_naming"

	// Usage patterns.
	UsageHubNavigation  Key = "usage.hub_navigation"
	UsageTemporal       Key = "usage.temporal_organization"
	UsageTagRetrieval   Key = "usage.tag_retrieval"
	UsageHierarchical   Key = "usage.hierarchical_browsing"
	UsageLinkFollowing  Key = "usage.link_following"
	UsageProjectCentric Key = "usage.project_centric"

	// Characteristics.
	CharMultiDomain   Key = "characteristic.multi_domain"
	CharDocQuality    Key = "characteristic.documentation_quality"
	CharTechnical     Key = "characteristic.technical_depth"
	CharRichNetworks  Key = "characteristic.rich_networks"
	CharFocusedCorpus Key = "characteristic.focused_corpus"

	// Knowledge-network linking patterns.
	LinkDomain    Key = "link.domain_cluster"
	LinkProcess   Key = "link.process_cluster"
	LinkTechnical Key = "link.technical_cluster"

	// Subject domains.
	DomainBusiness Key = "domain.business"
	DomainLearning Key = "domain.learning"
	DomainPersonal Key = "domain.personal_knowledge"
	DomainProject  Key = "domain.project_management"
	DomainResearch Key = "domain.research"
	DomainSoftware Key = "domain.software_engineering"
	DomainWriting  Key = "domain.writing"

	// Recommendations.
	RecSplitFolders Key = "rec.split_folders"
	RecLinkOrphans  Key = "rec.link_orphans"
	RecFlatten      Key = "rec.flatten"
	RecAddIndex     Key = "rec.add_index"
	RecTriage       Key = "rec.triage_folder"
	RecBreakFolder  Key = "rec.break_folder"
	RecMoveRoot     Key = "rec.move_root_files"
)

var labels = map[string]map[Key]string{
	English: {
		WorkflowJournaling:      "daily journaling",
		WorkflowPermanentNotes:  "zettelkasten-style permanent notes",
		WorkflowProjectTracking: "project-based work tracking",
		WorkflowTemplates:       "template-driven note creation",
		WorkflowVersionControl:  "version-controlled corpus",
		WorkflowAssistant:       "existing assistant instructions",
		WorkflowTaskTracking:    "task tracking in documents",
		WorkflowDatedEntries:    "dated entries",
		WorkflowChronological:   "chronological file naming",

		PrincipleHubs:        "hub and index documents",
		PrincipleTags:        "tag-based classification",
		PrincipleFrontMatter: "structured front matter",
		PrincipleHierarchy:   "hierarchical folders",
		PrincipleFlat:        "flat folder layout",
		PrincipleCrossLinks:  "cross-linked documents",
		PrincipleNaming:      "consistent file naming",

		UsageHubNavigation:  "hub-based navigation",
		UsageTemporal:       "temporal organization",
		UsageTagRetrieval:   "tag-driven retrieval",
		UsageHierarchical:   "hierarchical browsing",
		UsageLinkFollowing:  "link-following exploration",
		UsageProjectCentric: "project-centric work",

		CharMultiDomain:   "multi-domain breadth",
		CharDocQuality:    "documentation quality",
		CharTechnical:     "technical depth",
		CharRichNetworks:  "rich knowledge networks",
		CharFocusedCorpus: "focused corpus",

		LinkDomain:    "domain cluster",
		LinkProcess:   "process cluster",
		LinkTechnical: "technical cluster",

		DomainBusiness: "business",
		DomainLearning: "learning",
		DomainPersonal: "personal knowledge",
		DomainProject:  "project management",
		DomainResearch: "research",
		DomainSoftware: "software engineering",
		DomainWriting:  "writing",

		RecSplitFolders: "split folders with more than %d files into topical subfolders",
		RecLinkOrphans:  "link orphan documents from a relevant index or hub",
		RecFlatten:      "flatten hierarchies deeper than %d levels",
		RecAddIndex:     "add a top-level index or README describing the corpus",
		RecTriage:       "triage %q: move live documents into topical folders and archive the rest",
		RecBreakFolder:  "break %q (%d files) into subfolders by topic or date",
		RecMoveRoot:     "move the %d top-level files into subfolders by topic or date",
	},
	Japanese: {
		WorkflowJournaling:      "日次ジャーナル",
		WorkflowPermanentNotes:  "ツェッテルカステン式の恒久ノート",
		WorkflowProjectTracking: "プロジェクト単位の作業管理",
		WorkflowTemplates:       "テンプレートによるノート作成",
		WorkflowVersionControl:  "バージョン管理されたコーパス",
		WorkflowAssistant:       "既存のアシスタント向け指示",
		WorkflowTaskTracking:    "文書内のタスク管理",
		WorkflowDatedEntries:    "日付付きエントリ",
		WorkflowChronological:   "時系列のファイル命名",

		PrincipleHubs:        "ハブ・索引文書",
		PrincipleTags:        "タグによる分類",
		PrincipleFrontMatter: "構造化されたフロントマター",
		PrincipleHierarchy:   "階層的なフォルダ",
		PrincipleFlat:        "フラットなフォルダ構成",
		PrincipleCrossLinks:  "相互リンクされた文書",
		PrincipleNaming:      "一貫したファイル命名",

		UsageHubNavigation:  "ハブを起点とした移動",
		UsageTemporal:       "時系列での整理",
		UsageTagRetrieval:   "タグによる検索",
		UsageHierarchical:   "階層的な閲覧",
		UsageLinkFollowing:  "リンクをたどる探索",
		UsageProjectCentric: "プロジェクト中心の作業",

		CharMultiDomain:   "複数ドメインにわたる広がり",
		CharDocQuality:    "文書化の質",
		CharTechnical:     "技術的な深さ",
		CharRichNetworks:  "豊かな知識ネットワーク",
		CharFocusedCorpus: "焦点の定まったコーパス",

		LinkDomain:    "ドメインクラスタ",
		LinkProcess:   "プロセスクラスタ",
		LinkTechnical: "技術クラスタ",

		DomainBusiness: "ビジネス",
		DomainLearning: "学習",
		DomainPersonal: "個人ナレッジ",
		DomainProject:  "プロジェクト管理",
		DomainResearch: "研究",
		DomainSoftware: "ソフトウェア開発",
		DomainWriting:  "執筆",

		RecSplitFolders: "%d 件を超えるファイルを持つフォルダをトピック別のサブフォルダに分割する",
		RecLinkOrphans:  "孤立した文書を関連する索引やハブからリンクする",
		RecFlatten:      "%d 階層より深い階層を浅くする",
		RecAddIndex:     "コーパスを説明するトップレベルの索引または README を追加する",
		RecTriage:       "%q を整理する：現役の文書をトピック別フォルダへ移し、残りをアーカイブする",
		RecBreakFolder:  "%q（%d 件）をトピックまたは日付でサブフォルダに分割する",
		RecMoveRoot:     "トップレベルの %d 件のファイルをトピックまたは日付でサブフォルダに移す",
	},
}

// Label localizes a finding recorded in the analysis state. Values that are
// not label keys, such as concepts taken from content, are returned as is.
func Label(lang, value string, args ...any) string {
	if !strings.Contains(value, ".") {
		return value
	}
	key := Key(value)
	table, ok := labels[lang]
	if !ok {
		table = labels[Default]
	}
	format, ok := table[key]
	if !ok {
		if format, ok = labels[Default][key]; !ok {
			return value
		}
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Labels localizes every value in values.
func Labels(lang string, values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Label(lang, v)
	}
	return out
}
