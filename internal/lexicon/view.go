package lexicon

import (
	"fmt"
	"slices"
)

// View is the effective vocabulary for one language, as printed by the CLI
// and served by the API.
type View struct {
	Source       string              `yaml:"source" json:"source"`
	Language     string              `yaml:"language" json:"language"`
	Verbs        map[string][]string `yaml:"verbs" json:"verbs"`
	StrongVerbs  []string            `yaml:"strong_verbs,omitempty" json:"strong_verbs,omitempty"`
	GenericVerbs []string            `yaml:"generic_verbs,omitempty" json:"generic_verbs,omitempty"`
	Buzzwords    []string            `yaml:"buzzwords,omitempty" json:"buzzwords,omitempty"`
	SafeFonts    []string            `yaml:"safe_fonts,omitempty" json:"safe_fonts,omitempty"`
	Stopwords    []string            `yaml:"stopwords,omitempty" json:"stopwords,omitempty"`
}

// View returns the vocabulary for lang. A non-empty category restricts the
// view to that verb category and leaves the word lists out.
func (l *Lexicon) View(lang, category string) (*View, error) {
	lang = NormalizeLanguage(lang)
	v := &View{
		Source:   l.Source,
		Language: lang,
		Verbs:    make(map[string][]string),
	}

	if category != "" {
		if !slices.Contains(l.Categories(lang), category) {
			return nil, fmt.Errorf("unknown verb category %q for language %s (known: %v)", category, lang, l.Categories(lang))
		}
		v.Verbs[category] = l.Lookup(category, lang)
		return v, nil
	}

	for _, name := range l.Categories(lang) {
		v.Verbs[name] = l.Lookup(name, lang)
	}
	v.StrongVerbs = l.StrongVerbs
	v.GenericVerbs = l.GenericVerbs
	v.Buzzwords = l.Buzzwords
	v.SafeFonts = l.SafeFonts
	v.Stopwords = l.Stopwords[lang]
	return v, nil
}
