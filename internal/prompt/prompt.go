// Package prompt asks the user yes/no questions and reads answers from a
// line-oriented input.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Default selects the default answer and the choice suffix of a question.
type Default int

const (
	// Yes defaults to yes; only "n" answers no. Suffix " [Y/n]?".
	Yes Default = iota
	// No defaults to no; only "y" answers yes. Suffix " [y/N]?".
	No
	// Certain defaults to no; only the full word "yes" answers yes.
	// Suffix " [yes/N]".
	Certain
)

func (d Default) suffix() string {
	switch d {
	case No:
		return " [y/N]?"
	case Certain:
		return " [yes/N]"
	}
	return " [Y/n]?"
}

// Prompter reads answers from in and writes questions to out.
type Prompter struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: in, reader: bufio.NewReader(in), out: out}
}

// Out is where questions are written.
func (p *Prompter) Out() io.Writer { return p.out }

// Reader is the input that child processes and helper scripts must share
// with the Prompter, so lines already buffered by a question are not lost.
// A terminal with nothing buffered is returned as is and keeps its tty.
func (p *Prompter) Reader() io.Reader {
	if p.reader.Buffered() == 0 && isTerminal(p.in) {
		return p.in
	}
	return p.reader
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// YesOrNo prints the question with its choice suffix and reads an answer.
// End of input counts as an empty answer.
func (p *Prompter) YesOrNo(def Default, format string, args ...any) bool {
	fmt.Fprintf(p.out, format+def.suffix()+" ", args...)
	line, _ := p.reader.ReadString('\n')
	choice := strings.ToLower(strings.TrimSpace(line))

	switch def {
	case No:
		return choice == "y"
	case Certain:
		return choice == "yes"
	}
	return choice != "n"
}

// Line prints msg and returns the trimmed answer.
func (p *Prompter) Line(msg string) (string, error) {
	fmt.Fprint(p.out, msg)
	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading input: %w", err)
	}
	if err == io.EOF && line == "" {
		return "", io.EOF
	}
	return strings.TrimSpace(line), nil
}

// Secret prints msg and reads an answer without echo when the input is a
// terminal, falling back to Line otherwise.
func (p *Prompter) Secret(msg string) (string, error) {
	if !isTerminal(p.in) {
		return p.Line(msg)
	}
	f := p.in.(*os.File)

	fmt.Fprint(p.out, msg)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
