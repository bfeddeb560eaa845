// Package cli is the terminal front end: cobra commands, outcome rendering,
// and the interactive chat loop.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
	"github.com/harshaljain-cs/jarvis-go/internal/services"
)

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiDim    = "\033[2m"
)

// Renderer writes pipeline outcomes in a friendly, ASCII-only format. Colors
// are enabled only when stdout is a terminal.
type Renderer struct {
	out   io.Writer
	color bool
}

// NewRenderer builds a renderer for stdout with automatic color detection.
func NewRenderer() *Renderer {
	return &Renderer{
		out:   os.Stdout,
		color: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}
}

// RenderOutcome prints one pipeline result.
func (r *Renderer) RenderOutcome(outcome services.CommandOutcome) {
	fmt.Fprintln(r.out, outcome.Response)
	detail := fmt.Sprintf("[intent=%s score=%.2f mode=%s]",
		outcome.Intent, outcome.Score, outcome.Mode)
	fmt.Fprintln(r.out, r.paint(r.modeColor(outcome.Mode), detail))
}

// RenderVerbatim prints plain text, dimmed on terminals.
func (r *Renderer) RenderVerbatim(text string) {
	fmt.Fprintln(r.out, r.paint(ansiDim, text))
}

func (r *Renderer) modeColor(mode domain.ExecutionMode) string {
	switch mode {
	case domain.ModeAuto:
		return ansiGreen
	case domain.ModeConfirm:
		return ansiYellow
	default:
		return ansiRed
	}
}

func (r *Renderer) paint(color, text string) string {
	if !r.color {
		return text
	}
	return color + text + ansiReset
}
