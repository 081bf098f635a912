package formatters

import (
	"encoding/json"
	"fmt"
	"sort"

	"atsscore/internal/types"

	"gopkg.in/yaml.v3"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("yaml", "any", &YAMLFormatter{})
	registry.RegisterFormatter("text", "ATSReport", &ReportTextFormatter{})
	registry.RegisterFormatter("markdown", "ATSReport", &ReportMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case *types.ATSReport, types.ATSReport:
		return "ATSReport"
	default:
		return "any"
	}
}

// asReport accepts a report by value or pointer
func asReport(data any) (*types.ATSReport, error) {
	switch r := data.(type) {
	case *types.ATSReport:
		if r == nil {
			return nil, fmt.Errorf("report is nil")
		}
		return r, nil
	case types.ATSReport:
		return &r, nil
	default:
		return nil, fmt.Errorf("expected ATSReport, got %T", data)
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// YAMLFormatter handles YAML formatting for any data type
type YAMLFormatter struct{}

func (yf *YAMLFormatter) Format(data any) (string, error) {
	out, err := yaml.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (yf *YAMLFormatter) SupportedType() string {
	return "any"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
