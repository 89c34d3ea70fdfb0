package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tsawler/pptxgen/config"
)

// PDFConverter converts decks to PDF with LibreOffice in headless mode.
type PDFConverter struct {
	Binary  string
	Timeout time.Duration
	// Retries is the number of attempts after the first one.
	Retries int
	Skip    bool
	Logger  *zap.Logger
	Runner  Runner
}

// NewPDFConverter configures a converter from the environment and rules.
func NewPDFConverter(env config.Env, rules config.PDFRules, log *zap.Logger) *PDFConverter {
	if log == nil {
		log = zap.NewNop()
	}
	bin := env.LibreOfficePath
	if bin == "" {
		bin = config.DefaultLibreOffice
	}
	return &PDFConverter{
		Binary:  bin,
		Timeout: rules.Timeout(),
		Retries: rules.Retries,
		Skip:    env.SkipPDFConvert,
		Logger:  log,
		Runner:  ExecRunner{},
	}
}

// Convert writes pptxPath as a PDF to outputPath and returns outputPath.
// When conversion is disabled it returns ErrSkipped.
func (c *PDFConverter) Convert(ctx context.Context, pptxPath, outputPath string) (string, error) {
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if c.Skip {
		log.Warn("pdf conversion skipped", zap.String("reason", "PPTXGEN_SKIP_PDF_CONVERT is set"))
		return "", ErrSkipped
	}
	runner := c.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	outDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating pdf directory: %w", err)
	}
	// LibreOffice names its output after the input file.
	produced := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(pptxPath), filepath.Ext(pptxPath))+".pdf")
	args := []string{"--headless", "--convert-to", "pdf", "--outdir", outDir, pptxPath}

	attempts := c.Retries + 1
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		start := time.Now()
		lastErr = c.runOnce(ctx, runner, args, produced)
		if lastErr == nil {
			if produced != outputPath {
				if err := os.Rename(produced, outputPath); err != nil {
					return "", fmt.Errorf("moving pdf into place: %w", err)
				}
			}
			log.Info("pdf exported",
				zap.String("path", outputPath),
				zap.Int("attempt", attempt),
				zap.Duration("elapsed", time.Since(start)))
			return outputPath, nil
		}
		log.Debug("pdf conversion attempt failed", zap.Int("attempt", attempt), zap.Error(lastErr))
	}
	return "", fmt.Errorf("pdf conversion failed after %d attempt(s): %w", attempts, lastErr)
}

func (c *PDFConverter) runOnce(ctx context.Context, runner Runner, args []string, produced string) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	out, err := runner.Run(ctx, c.Binary, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", c.Timeout, err)
		}
		return &CommandError{Command: c.Binary, Output: string(out), Err: err}
	}
	if _, err := os.Stat(produced); err != nil {
		return fmt.Errorf("%s produced no pdf: %w", c.Binary, err)
	}
	return nil
}
