package pptxgen

import (
	"go.uber.org/zap"

	"github.com/tsawler/pptxgen/config"
)

// Defaults of a generation run.
const (
	DefaultWorkdir    = ".pptx/gen"
	DefaultOutputName = "proposal.pptx"
)

// PDF export modes.
const (
	PDFModeBoth = "both"
	PDFModeOnly = "only"
)

// GenerateOptions holds the configuration of a generation run.
type GenerateOptions struct {
	workdir      string
	templatePath string
	outputName   string

	rules    *config.Rules
	branding *config.Branding
	env      config.Env
	envSet   bool

	// Mapping inputs. Mapping runs only when both layouts and cards are
	// set.
	layoutsPath  string
	cardsPath    string
	draftPath    string
	analysisPath string

	exportPDF bool
	pdfMode   string
	pdfOutput string
	logger    *zap.Logger
}

// defaultGenerateOptions returns the options of a run with no overrides.
func defaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		workdir:    DefaultWorkdir,
		outputName: DefaultOutputName,
		pdfMode:    PDFModeBoth,
	}
}

// clone creates a copy of GenerateOptions. Rules and branding are shared;
// they are never modified by a run.
func (o GenerateOptions) clone() GenerateOptions {
	return o
}

func (o GenerateOptions) log() *zap.Logger {
	if o.logger == nil {
		return zap.NewNop()
	}
	return o.logger
}

func (o GenerateOptions) mapping() bool {
	return o.layoutsPath != "" && o.cardsPath != ""
}

// ExtractOptions holds the configuration of a template extraction run.
type ExtractOptions struct {
	outputDir    string
	layoutPrefix string
	anchorPrefix string
	baseline     string
	snapshot     string
	identifiers  bool
	logger       *zap.Logger
}

// DefaultExtractDir is where template artifacts are written by default.
const DefaultExtractDir = ".pptx/extract"

func defaultExtractOptions() ExtractOptions {
	return ExtractOptions{outputDir: DefaultExtractDir}
}

func (o ExtractOptions) clone() ExtractOptions {
	return o
}
