package common

import (
	"testing"

	"atsscore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name      string
		format    string
		supported []string
		wantErr   string
	}{
		{name: "json", format: "json", supported: supported},
		{name: "markdown", format: "markdown", supported: supported},
		{name: "unknown", format: "xml", supported: supported,
			wantErr: "unsupported output format 'xml'. Supported formats: json, text, markdown"},
		{name: "case sensitive", format: "JSON", supported: supported,
			wantErr: "unsupported output format 'JSON'"},
		{name: "empty format", format: "", supported: supported,
			wantErr: "unsupported output format ''"},
		{name: "no restrictions", format: "yaml", supported: nil},
		{name: "single format", format: "text", supported: []string{"json"},
			wantErr: "Supported formats: json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		})
	}
}

func TestResolveOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	format, err := ResolveOutputFormat("", "json", supported)
	require.NoError(t, err)
	assert.Equal(t, "json", format)

	format, err = ResolveOutputFormat("markdown", "json", supported)
	require.NoError(t, err)
	assert.Equal(t, "markdown", format)

	_, err = ResolveOutputFormat("", "yaml", supported)
	require.Error(t, err, "a bad default is still rejected")
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supported := []string{"json", "text", "markdown"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ValidateOutputFormat("markdown", supported)
	}
}
