// Package ocr turns captured images into free-form text.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrEmptyImage is returned when there is nothing to recognize.
var ErrEmptyImage = errors.New("ocr: empty image")

// Recognizer extracts text from an image.
type Recognizer interface {
	Recognize(ctx context.Context, image io.Reader) (string, error)
}

// Config selects the recognition command.
type Config struct {
	// Command is the tesseract executable (name on PATH or absolute path).
	Command string
	// Language is passed to tesseract with -l.
	Language string
}

// Tesseract runs the tesseract CLI on a temporary copy of the image.
type Tesseract struct {
	cfg Config
}

// NewTesseract creates a recognizer for cfg, applying defaults.
func NewTesseract(cfg Config) *Tesseract {
	if cfg.Command == "" {
		cfg.Command = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &Tesseract{cfg: cfg}
}

func (t *Tesseract) Recognize(ctx context.Context, image io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "oddsledger-ocr-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, image)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to buffer image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp image: %w", err)
	}
	if n == 0 {
		return "", ErrEmptyImage
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.cfg.Command, tmp.Name(), "stdout", "-l", t.cfg.Language)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug().Str("command", t.cfg.Command).Int64("bytes", n).Msg("Running text recognition")
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", t.cfg.Command, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// PlainText treats the input as already-recognized text.
type PlainText struct{}

func (PlainText) Recognize(ctx context.Context, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return string(b), nil
}
