// Package lexicon holds the static vocabulary the scoring checks read: the
// multilingual action-verb bank, strong verbs, generic verbs, buzzwords,
// stopwords and ATS-safe fonts.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Verb categories used by the impact check.
const (
	CategoryLeadership  = "leadership"
	CategoryWorkedOn    = "workedOn"
	CategoryImproved    = "improved"
	CategoryAchievement = "achievement"
)

// DefaultLanguage is used whenever a language code is missing or unsupported.
const DefaultLanguage = "en"

// SupportedLanguages lists the languages the verb bank carries.
var SupportedLanguages = []string{"en", "fr", "es", "de", "it", "pt", "nl"}

// Lexicon is read-only after Load returns. Share it freely between goroutines.
type Lexicon struct {
	StrongVerbs  []string                       `yaml:"strong_verbs"`
	GenericVerbs []string                       `yaml:"generic_verbs"`
	Buzzwords    []string                       `yaml:"buzzwords"`
	SafeFonts    []string                       `yaml:"safe_fonts"`
	Stopwords    map[string][]string            `yaml:"stopwords"`
	Verbs        map[string]map[string][]string `yaml:"verbs"`

	// Source is "default" or the override file path.
	Source string `yaml:"-"`
}

// Default returns the built-in lexicon.
func Default() (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(defaultYAML, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse built-in lexicon: %w", err)
	}
	lex.Source = "default"
	return &lex, nil
}

// MustDefault is Default for package-level initialisation and tests.
func MustDefault() *Lexicon {
	lex, err := Default()
	if err != nil {
		panic(err)
	}
	return lex
}

// Load reads an override file and merges it over the built-in lexicon. Lists
// present in the file replace the default list; verb languages and
// categories are merged key by key. An empty path returns the default.
func Load(path string) (*Lexicon, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return base, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lexicon path '%s': %w", path, err)
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file '%s': %w", absPath, err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return nil, fmt.Errorf("lexicon file '%s' is empty", absPath)
	}

	var override Lexicon
	if err := yaml.Unmarshal(content, &override); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon file '%s': %w", absPath, err)
	}

	merged := base.merge(&override)
	merged.Source = absPath
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("lexicon file '%s': %w", absPath, err)
	}
	return merged, nil
}

func (l *Lexicon) merge(o *Lexicon) *Lexicon {
	out := &Lexicon{
		StrongVerbs:  pick(o.StrongVerbs, l.StrongVerbs),
		GenericVerbs: pick(o.GenericVerbs, l.GenericVerbs),
		Buzzwords:    pick(o.Buzzwords, l.Buzzwords),
		SafeFonts:    pick(o.SafeFonts, l.SafeFonts),
		Stopwords:    make(map[string][]string, len(l.Stopwords)),
		Verbs:        make(map[string]map[string][]string, len(l.Verbs)),
	}
	for lang, words := range l.Stopwords {
		out.Stopwords[lang] = words
	}
	for lang, words := range o.Stopwords {
		out.Stopwords[lang] = words
	}
	for lang, cats := range l.Verbs {
		out.Verbs[lang] = make(map[string][]string, len(cats))
		for cat, verbs := range cats {
			out.Verbs[lang][cat] = verbs
		}
	}
	for lang, cats := range o.Verbs {
		if out.Verbs[lang] == nil {
			out.Verbs[lang] = make(map[string][]string, len(cats))
		}
		for cat, verbs := range cats {
			out.Verbs[lang][cat] = verbs
		}
	}
	return out
}

func pick(override, fallback []string) []string {
	if len(override) > 0 {
		return override
	}
	return fallback
}

// NormalizeLanguage maps codes like "FR", "fra" or "french" to a supported
// two-letter code, falling back to English.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if len(lang) > 2 {
		lang = lang[:2]
	}
	if slices.Contains(SupportedLanguages, lang) {
		return lang
	}
	return DefaultLanguage
}

// Lookup returns the verbs of one category in the given language. Unknown
// languages resolve to English; unknown categories return nil.
func (l *Lexicon) Lookup(category, lang string) []string {
	cats, ok := l.Verbs[NormalizeLanguage(lang)]
	if !ok {
		cats = l.Verbs[DefaultLanguage]
	}
	return cats[category]
}

// Categories returns the verb categories known for a language, sorted.
func (l *Lexicon) Categories(lang string) []string {
	cats := l.Verbs[NormalizeLanguage(lang)]
	names := make([]string, 0, len(cats))
	for name := range cats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllStopwords flattens the per-language stopword lists.
func (l *Lexicon) AllStopwords() []string {
	langs := make([]string, 0, len(l.Stopwords))
	for lang := range l.Stopwords {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	var all []string
	for _, lang := range langs {
		all = append(all, l.Stopwords[lang]...)
	}
	return all
}

// Validate reports lists the checks cannot run without.
func (l *Lexicon) Validate() error {
	var missing []string
	if len(l.StrongVerbs) == 0 {
		missing = append(missing, "strong_verbs")
	}
	if len(l.Stopwords) == 0 {
		missing = append(missing, "stopwords")
	}
	if len(l.Verbs[DefaultLanguage]) == 0 {
		missing = append(missing, "verbs.en")
	}
	if len(missing) > 0 {
		return fmt.Errorf("lexicon is missing required lists: %s", strings.Join(missing, ", "))
	}
	return nil
}
