package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/doctools/internal/docerr"
)

// tempPrefix marks scratch directories created for LibreOffice runs.
const tempPrefix = "doctools-lo-"

// LibreOffice converts DOCX to PDF with a headless soffice process. The
// output keeps layout, tables and images, unlike WordToPDF.
type LibreOffice struct {
	binary    string
	timeout   time.Duration
	semaphore chan struct{}
	breaker   *Breaker
}

// NewLibreOffice returns a converter running at most maxWorkers processes.
func NewLibreOffice(binary string, timeout time.Duration, maxWorkers int) *LibreOffice {
	if binary == "" {
		binary = "libreoffice"
	}
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &LibreOffice{
		binary:    binary,
		timeout:   timeout,
		semaphore: make(chan struct{}, maxWorkers),
		breaker:   NewBreaker("libreoffice", 30*time.Second, 5*time.Minute),
	}
}

// Available reports whether the binary is on PATH.
func (l *LibreOffice) Available() bool {
	_, err := exec.LookPath(l.binary)
	return err == nil
}

// Binary returns the configured executable name.
func (l *LibreOffice) Binary() string { return l.binary }

// ConvertDOCX converts data and returns the PDF bytes. After a process
// failure it returns ErrCircuitOpen until the cooldown expires.
func (l *LibreOffice) ConvertDOCX(ctx context.Context, data []byte) ([]byte, error) {
	if l.breaker.IsOpen() {
		return nil, ErrCircuitOpen
	}
	pdf, err := l.convert(ctx, data)
	switch {
	case err == nil:
		l.breaker.Close()
	case ctx.Err() == nil && docerr.KindOf(err) != docerr.KindUnsupported:
		l.breaker.Open()
	}
	return pdf, err
}

func (l *LibreOffice) convert(ctx context.Context, data []byte) ([]byte, error) {
	const op = "word-to-pdf"
	start := time.Now()

	select {
	case l.semaphore <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-l.semaphore }()

	workDir, err := os.MkdirTemp("", tempPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	input := filepath.Join(workDir, "input.docx")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}
	// separate profile per run, soffice refuses to share one
	profileDir := filepath.Join(workDir, "profile-"+uuid.New().String())
	outDir := filepath.Join(workDir, "out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, l.binary,
		fmt.Sprintf("-env:UserInstallation=file://%s", profileDir),
		"--headless",
		"--convert-to", "pdf",
		"--outdir", outDir,
		input,
	)
	log.Debug().Str("cmd", strings.Join(cmd.Args, " ")).Msg("LibreOffice command")

	if out, err := cmd.CombinedOutput(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("conversion timeout after %v", l.timeout)
		}
		lower := strings.ToLower(string(out))
		if strings.Contains(lower, "password") || strings.Contains(lower, "encrypted") {
			return nil, docerr.Unsupported(op, "document is password protected")
		}
		return nil, fmt.Errorf("libreoffice: %w: %s", err, strings.TrimSpace(string(out)))
	}

	pdf, err := os.ReadFile(filepath.Join(outDir, "input.pdf"))
	if err != nil {
		return nil, docerr.Parse(op, fmt.Errorf("libreoffice produced no output: %w", err))
	}
	log.Info().Int("bytes_in", len(data)).Int("bytes_out", len(pdf)).Dur("duration", time.Since(start)).Msg("libreoffice conversion successful")
	return pdf, nil
}

// CleanupTemps removes LibreOffice scratch directories older than maxAge,
// left behind by a killed process.
func CleanupTemps(maxAge time.Duration) int {
	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		return 0
	}
	removed := 0
	now := time.Now()
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if os.RemoveAll(filepath.Join(os.TempDir(), e.Name())) == nil {
			removed++
		}
	}
	return removed
}
