package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewIOError(ErrCodeFileNotReadable, "cannot read resume", cause)

	assert.Equal(t, "FILE_NOT_READABLE: cannot read resume (caused by: disk full)", err.Error())
	assert.ErrorIs(t, err, cause)

	plain := NewValidationError(ErrCodeEmptyResume, "resume_text is required", nil)
	assert.Equal(t, "EMPTY_RESUME_TEXT: resume_text is required", plain.Error())

	withCtx := plain.WithContext("field", "resume_text")
	assert.Equal(t, "resume_text", withCtx.Context["field"])
}

func TestIsType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		typ  ErrorType
		want bool
	}{
		{"direct validation", NewValidationError(ErrCodeInvalidRequest, "bad", nil), ErrorTypeValidation, true},
		{"wrapped validation", fmt.Errorf("decode: %w", NewValidationError(ErrCodeInvalidRequest, "bad", nil)), ErrorTypeValidation, true},
		{"other type", NewCheckError(ErrCodeCheckPanicked, "boom", nil), ErrorTypeValidation, false},
		{"plain error", stderrors.New("plain"), ErrorTypeInternal, false},
		{"nil", nil, ErrorTypeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.typ))
		})
	}
}

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(level)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}

	_, err := New("verbose")
	assert.Error(t, err)
}

func TestLogErrorExpandsAppError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelDebug, &buf)

	err := NewCheckError(ErrCodeCheckPanicked, "check failed", nil).WithContext("section", "repetition")
	logger.With("request_id", "abc").LogError(err, "Scoring check failed")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Scoring check failed", record["msg"])
	assert.Equal(t, "check", record["error_type"])
	assert.Equal(t, ErrCodeCheckPanicked, record["error_code"])
	assert.Equal(t, "repetition", record["section"])
	assert.Equal(t, "abc", record["request_id"])
}
