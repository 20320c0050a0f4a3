package output

import (
	"fmt"
	"io"
)

// ANSI SGR sequences used when color is enabled.
const (
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiReset  = "\033[0m"
)

// Printer writes status messages for human-oriented output. Commands
// printing JSON or YAML skip the Printer so their output stays
// machine-parseable.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a printer writing to out. The caller decides whether
// color is appropriate, typically from the --no-color flag.
func NewPrinter(out io.Writer, color bool) *Printer {
	return &Printer{out: out, color: color}
}

// Success prints msg, green when color is on.
func (p *Printer) Success(msg string) {
	p.print(ansiGreen, msg)
}

// Warning prints msg, yellow when color is on.
func (p *Printer) Warning(msg string) {
	p.print(ansiYellow, msg)
}

// Error prints msg, red when color is on.
func (p *Printer) Error(msg string) {
	p.print(ansiRed, msg)
}

func (p *Printer) print(sgr, msg string) {
	if p.color {
		_, _ = fmt.Fprintf(p.out, "%s%s%s\n", sgr, msg, ansiReset)
		return
	}
	_, _ = fmt.Fprintln(p.out, msg)
}
