package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/joseph-ayodele/legal-analyzer/internal/common"
)

// Runner executes the OCR helpers (tesseract, pdftoppm). Tests swap in a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

// maxStderrLog caps how much helper stderr reaches the log.
const maxStderrLog = 8 << 10

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	bin, err := exec.LookPath(name)
	if err != nil {
		// a host without the helper cannot read scans at all
		if errors.Is(err, exec.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s not installed", common.ErrExtraction, name)
		}
		return nil, nil, err
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%s interrupted: %w", name, ctx.Err())
		}
		r.logger.Warn("extract.helper.failed",
			"helper", name,
			"argc", len(args),
			"elapsed_ms", elapsed,
			"error", err,
			"stderr", truncate(stderr.String(), maxStderrLog),
		)
		return stdout.Bytes(), stderr.Bytes(), err
	}
	r.logger.Debug("extract.helper.ok", "helper", name, "elapsed_ms", elapsed, "stdout_bytes", stdout.Len())
	return stdout.Bytes(), stderr.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
