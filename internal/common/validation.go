package common

import (
	"fmt"
	"slices"
	"strings"

	"atsscore/internal/errors"
)

// ValidateOutputFormat checks format against the allowed list. An empty
// list allows any format the registry knows.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 || slices.Contains(supportedFormats, format) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %s",
			format, strings.Join(supportedFormats, ", ")), nil)
}

// ResolveOutputFormat returns format, or defaultFormat when format is empty,
// after checking it against supportedFormats.
func ResolveOutputFormat(format, defaultFormat string, supportedFormats []string) (string, error) {
	if format == "" {
		format = defaultFormat
	}
	if err := ValidateOutputFormat(format, supportedFormats); err != nil {
		return "", err
	}
	return format, nil
}
