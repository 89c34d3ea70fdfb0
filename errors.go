package pptxgen

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/tsawler/pptxgen/jobspec"
	"github.com/tsawler/pptxgen/layouts"
	"github.com/tsawler/pptxgen/mapping"
	"github.com/tsawler/pptxgen/render"
	"github.com/tsawler/pptxgen/template"
)

// Pipeline steps, in the order they run.
const (
	StepExtract  = "extract"
	StepValidate = "validate"
	StepMapping  = "mapping"
	StepRender   = "render"
	StepPolish   = "polish"
	StepAudit    = "audit"
	StepPDF      = "pdf"
)

// Exit codes returned by ExitCode.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitSchema       = 2
	ExitBusinessRule = 3
	ExitMissingFile  = 4
)

// Error categories returned by Category.
const (
	CategorySchema       = "SchemaError"
	CategoryBusinessRule = "BusinessRuleError"
	CategoryTemplate     = "TemplateExtractError"
	CategorySuite        = "ValidationSuiteError"
	CategoryMapping      = "MappingError"
	CategoryRender       = "RenderError"
	CategoryMissingFile  = "FileNotFound"
	CategoryInternal     = "Error"
)

// StepError is a failure of one pipeline step. Artifacts written by
// earlier steps are left on disk.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ExitCode maps err to the process exit code of the command line tool.
func ExitCode(err error) int {
	var (
		serr *jobspec.SchemaError
		berr *jobspec.BusinessRuleError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &serr):
		return ExitSchema
	case errors.As(err, &berr):
		return ExitBusinessRule
	case errors.Is(err, fs.ErrNotExist):
		return ExitMissingFile
	default:
		return ExitFailure
	}
}

// Category names the kind of failure for display.
func Category(err error) string {
	var (
		serr *jobspec.SchemaError
		berr *jobspec.BusinessRuleError
		terr *template.ExtractError
		lerr *layouts.SuiteError
		merr *mapping.Error
		rerr *render.Error
	)
	switch {
	case errors.As(err, &serr):
		return CategorySchema
	case errors.As(err, &berr):
		return CategoryBusinessRule
	case errors.Is(err, fs.ErrNotExist):
		return CategoryMissingFile
	case errors.As(err, &terr):
		return CategoryTemplate
	case errors.As(err, &lerr):
		return CategorySuite
	case errors.As(err, &merr):
		return CategoryMapping
	case errors.As(err, &rerr):
		return CategoryRender
	default:
		return CategoryInternal
	}
}

// Details returns a JSON-encodable description of err: its step, message
// and the structured payload of schema and business rule failures.
func Details(err error) map[string]any {
	if err == nil {
		return nil
	}
	d := map[string]any{
		"category": Category(err),
		"message":  err.Error(),
	}
	var step *StepError
	if errors.As(err, &step) {
		d["step"] = step.Step
	}

	var (
		serr *jobspec.SchemaError
		berr *jobspec.BusinessRuleError
		rerr *render.Error
		merr *mapping.Error
		lerr *layouts.SuiteError
		perr *fs.PathError
	)
	switch {
	case errors.As(err, &serr):
		d["errors"] = serr.Errors
	case errors.As(err, &berr):
		d["violations"] = berr.Violations
		d["ids"] = berr.IDs()
	case errors.As(err, &rerr):
		if rerr.SlideID != "" {
			d["slide_id"] = rerr.SlideID
		}
		if rerr.Anchor != "" {
			d["anchor"] = rerr.Anchor
		}
	case errors.As(err, &merr):
		if merr.SlideID != "" {
			d["slide_id"] = merr.SlideID
		}
	case errors.As(err, &lerr):
		d["artifact"] = lerr.Artifact
	}
	if errors.As(err, &perr) {
		d["path"] = perr.Path
	}
	return d
}
