// Package i18n holds the phrase tables used for progress narration and the
// rendered document, and resolves which language to produce output in.
//
// Phrases are looked up by structured keys (a StageID or a Key), never by
// matching display strings. Glyphs and colors are added by the terminal
// front end, not here.
package i18n

import (
	"fmt"
	"unicode"

	"golang.org/x/text/language"

	"github.com/steveyegge/curator/internal/types"
)

// Supported output languages.
const (
	English  = "en"
	Japanese = "ja"
	Default  = English
)

var (
	supported = []language.Tag{language.English, language.Japanese}
	matcher   = language.NewMatcher(supported)
)

// Resolve picks the output language: an explicit preference wins, then the
// last language detected in the corpus, then the default.
func Resolve(preference, detected string) string {
	for _, candidate := range []string{preference, detected} {
		if lang, ok := Match(candidate); ok {
			return lang
		}
	}
	return Default
}

// Match maps a BCP 47 tag (e.g. "ja-JP", "en_US") to a supported language.
func Match(tag string) (string, bool) {
	if tag == "" {
		return "", false
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return "", false
	}
	_, idx, confidence := matcher.Match(parsed)
	if confidence == language.No {
		return "", false
	}
	base, _ := supported[idx].Base()
	return base.String(), true
}

// Detect guesses the dominant language of text from its script mix.
// It returns "" when the text has no letters.
func Detect(text string) string {
	var japanese, latin int
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han):
			japanese++
		case unicode.IsLetter(r) && r < unicode.MaxLatin1:
			latin++
		}
	}
	if japanese == 0 && latin == 0 {
		return ""
	}
	// Kana and kanji carry far more information per rune than latin letters.
	if japanese*5 >= latin {
		return Japanese
	}
	return English
}

// Key identifies a phrase that is not tied to a stage.
type Key string

const (
	KeyTitle           Key = "title"
	KeyOverview        Key = "overview"
	KeyDomains         Key = "domains"
	KeyPatterns        Key = "patterns"
	KeyCharacteristics Key = "characteristics"
	KeyThemes          Key = "themes"
	KeyNetworks        Key = "networks"
	KeyRecommendations Key = "recommendations"
	KeyNone            Key = "none"
	KeyCreatedAt       Key = "created_at"
	KeyLanguage        Key = "language"
	KeyItemsAnalyzed   Key = "items_analyzed"
	KeyStagesRun       Key = "stages_run"
	KeyCompleted       Key = "completed"
	KeyThemeLine       Key = "theme_line"
	KeyNetworkLine     Key = "network_line"
	KeyHeuristicNote   Key = "heuristic_note"
)

// Phrase returns the phrase for key in lang, formatted with args.
// Unknown languages fall back to the default language; unknown keys return the key.
func Phrase(lang string, key Key, args ...any) string {
	table, ok := phrases[lang]
	if !ok {
		table = phrases[Default]
	}
	format, ok := table[key]
	if !ok {
		format, ok = phrases[Default][key]
		if !ok {
			return string(key)
		}
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// StageLabel returns the display label of a stage.
func StageLabel(lang string, id types.StageID) string {
	return stagePhrase(lang, id).label
}

// StageAction returns a short description of what a stage does.
func StageAction(lang string, id types.StageID) string {
	return stagePhrase(lang, id).action
}

type stageText struct {
	label  string
	action string
}

func stagePhrase(lang string, id types.StageID) stageText {
	table, ok := stageTexts[lang]
	if !ok {
		table = stageTexts[Default]
	}
	if t, ok := table[id]; ok {
		return t
	}
	if t, ok := stageTexts[Default][id]; ok {
		return t
	}
	return stageText{label: string(id), action: string(id)}
}
