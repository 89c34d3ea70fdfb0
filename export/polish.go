package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tsawler/pptxgen/config"
)

// Polisher runs the configured post-processing command on a deck in place.
// The command receives its configured arguments followed by
// "--input <deck>" and, when a rules file is set, "--rules <path>".
type Polisher struct {
	Executable string
	Arguments  []string
	RulesPath  string
	Timeout    time.Duration
	Logger     *zap.Logger
	Runner     Runner
}

// NewPolisher returns a Polisher for rules, or nil when polishing is
// disabled.
func NewPolisher(rules config.PolisherRules, log *zap.Logger) *Polisher {
	if !rules.Enabled {
		return nil
	}
	return &Polisher{
		Executable: rules.Executable,
		Arguments:  rules.Arguments,
		RulesPath:  rules.RulesPath,
		Timeout:    rules.Timeout(),
		Logger:     log,
		Runner:     ExecRunner{},
	}
}

// Polish runs the command on pptxPath.
func (p *Polisher) Polish(ctx context.Context, pptxPath string) error {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	runner := p.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	args := append([]string(nil), p.Arguments...)
	args = append(args, "--input", pptxPath)
	if p.RulesPath != "" {
		args = append(args, "--rules", p.RulesPath)
	}

	start := time.Now()
	out, err := runner.Run(ctx, p.Executable, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", p.Timeout, err)
		}
		return &CommandError{Command: p.Executable, Output: string(out), Err: err}
	}
	log.Info("deck polished", zap.String("path", pptxPath), zap.Duration("elapsed", time.Since(start)))
	return nil
}
