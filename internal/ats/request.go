package ats

import (
	_ "embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"atsscore/internal/errors"
	"atsscore/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed request.schema.json
var requestSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error

	validate = newValidator()
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(requestSchema))
	})
	return compiledSchema, schemaErr
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}
	return v
}

// DecodeRequest checks a JSON body against the request schema and decodes
// it. Schema violations come back as validation errors naming the field.
func DecodeRequest(data []byte) (*types.AnalysisRequest, error) {
	schema, err := loadSchema()
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidConfig, "request schema failed to compile", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "request body is not valid JSON", err)
	}
	if !result.Valid() {
		return nil, schemaError(result.Errors())
	}

	var req types.AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "failed to decode analysis request", err)
	}
	return &req, nil
}

func schemaError(resultErrors []gojsonschema.ResultError) error {
	messages := make([]string, 0, len(resultErrors))
	code := errors.ErrCodeSchemaViolation
	field := ""

	for _, re := range resultErrors {
		name := re.Field()
		if re.Type() == "required" {
			if prop, ok := re.Details()["property"].(string); ok {
				name = prop
			}
		}
		if field == "" {
			field = name
			code = codeForField(name)
		}
		messages = append(messages, fmt.Sprintf("%s: %s", name, re.Description()))
	}

	return errors.NewValidationError(code, strings.Join(messages, "; "), nil).
		WithContext("field", field)
}

func codeForField(field string) string {
	switch field {
	case "resume_text":
		return errors.ErrCodeEmptyResume
	case "file_type":
		return errors.ErrCodeMissingFileType
	case "file_size_kb":
		return errors.ErrCodeInvalidFileSize
	default:
		return errors.ErrCodeSchemaViolation
	}
}

// ValidateRequest applies the struct-level rules to a decoded request.
func ValidateRequest(req *types.AnalysisRequest) error {
	if req == nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "analysis request is required", nil)
	}

	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid analysis request", err)
	}

	fe := fieldErrs[0]
	var message string
	switch fe.Field() {
	case "resume_text":
		message = "resume_text is required and cannot be empty"
	case "file_type":
		message = "file_type is required"
	case "file_size_kb":
		message = "file_size_kb must be a number"
		if fe.Tag() == "gte" {
			message = "file_size_kb must not be negative"
		}
	default:
		message = fmt.Sprintf("%s failed the '%s' rule", strings.TrimPrefix(fe.Namespace(), "AnalysisRequest."), fe.Tag())
	}

	return errors.NewValidationError(codeForField(fe.Field()), message, err).
		WithContext("field", fe.Field())
}
