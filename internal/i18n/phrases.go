package i18n

import "github.com/steveyegge/curator/internal/types"

var phrases = map[string]map[Key]string{
	English: {
		KeyTitle:           "Corpus Guide",
		KeyOverview:        "Overview",
		KeyDomains:         "Domains",
		KeyPatterns:        "Organization Patterns",
		KeyCharacteristics: "Characteristics",
		KeyThemes:          "Key Themes",
		KeyNetworks:        "Knowledge Networks",
		KeyRecommendations: "Recommendations",
		KeyNone:            "None detected",
		KeyCreatedAt:       "created",
		KeyLanguage:        "language",
		KeyItemsAnalyzed:   "items_analyzed",
		KeyStagesRun:       "stages_run",
		KeyCompleted:       "completed",
		KeyThemeLine:       "%s (prevalence %.0f%%, depth %.2f)",
		KeyNetworkLine:     "%s → %s (strength %.1f, %s)",
		KeyHeuristicNote:   "This corpus has %d documents in %d folders (max depth %d), organized at a %s level with %s complexity.",
	},
	Japanese: {
		KeyTitle:           "コーパスガイド",
		KeyOverview:        "概要",
		KeyDomains:         "ドメイン",
		KeyPatterns:        "整理パターン",
		KeyCharacteristics: "特徴",
		KeyThemes:          "主要テーマ",
		KeyNetworks:        "知識ネットワーク",
		KeyRecommendations: "推奨事項",
		KeyNone:            "検出されませんでした",
		KeyCompleted:       "完了",
		KeyThemeLine:       "%s（出現率 %.0f%%、深さ %.2f）",
		KeyNetworkLine:     "%s → %s（強度 %.1f、%s）",
		KeyHeuristicNote:   "このコーパスには %d 件の文書が %d 個のフォルダ（最大深さ %d）にあり、整理レベルは %s、複雑さは %s です。",
	},
}

var stageTexts = map[string]map[types.StageID]stageText{
	English: {
		types.StageDiscovery:             {"Discovery", "Mapping folder hierarchy and file types"},
		types.StageDeepContentDiscovery:  {"Deep Content Discovery", "Reading representative documents"},
		types.StageContentAnalysis:       {"Content Analysis", "Collecting metadata, tags and naming conventions"},
		types.StagePatternRecognition:    {"Pattern Recognition", "Detecting workflow and organization patterns"},
		types.StageRelationshipMapping:   {"Relationship Mapping", "Finding central documents and clusters"},
		types.StageDomainAnalysis:        {"Domain Analysis", "Labeling subject domains"},
		types.StageInsightGeneration:     {"Semantic Insight", "Extracting themes and knowledge networks"},
		types.StageOptimizationAnalysis:  {"Optimization Analysis", "Looking for oversized folders and orphans"},
		types.StageLegacyMigration:       {"Legacy Migration", "Planning restructuring of flat folders"},
		types.StageInstructionGeneration: {"Instruction Generation", "Drafting guidance"},
		types.StageInstructionFormatting: {"Instruction Formatting", "Localizing and trimming sections"},
		types.StageInstructionSynthesis:  {"Instruction Synthesis", "Rendering the guide document"},
	},
	Japanese: {
		types.StageDiscovery:             {"探索", "フォルダ構造とファイル種別を把握中"},
		types.StageDeepContentDiscovery:  {"詳細コンテンツ探索", "代表的な文書を読み込み中"},
		types.StageContentAnalysis:       {"コンテンツ分析", "メタデータ・タグ・命名規則を収集中"},
		types.StagePatternRecognition:    {"パターン認識", "ワークフローと整理パターンを検出中"},
		types.StageRelationshipMapping:   {"関係マッピング", "中心文書とクラスタを探索中"},
		types.StageDomainAnalysis:        {"ドメイン分析", "主題ドメインを分類中"},
		types.StageInsightGeneration:     {"セマンティック分析", "テーマと知識ネットワークを抽出中"},
		types.StageOptimizationAnalysis:  {"最適化分析", "肥大化フォルダと孤立文書を確認中"},
		types.StageLegacyMigration:       {"移行計画", "フラットなフォルダの再構成を計画中"},
		types.StageInstructionGeneration: {"ガイド生成", "ガイドの下書きを作成中"},
		types.StageInstructionFormatting: {"ガイド整形", "セクションをローカライズ・整理中"},
		types.StageInstructionSynthesis:  {"ガイド統合", "ガイド文書をレンダリング中"},
	},
}
