// Package console holds the line-based prompt used by the interactive loops.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/FACorreiaa/travel-assistant/internal/types"
)

// Prompter writes prompts to out and reads one line of input per prompt.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Ask prints prompt and returns the next line with surrounding whitespace
// removed. Once the input is exhausted it returns types.ErrInputClosed.
func (p *Prompter) Ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return "", types.ErrInputClosed
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// AskLower is Ask with the answer lowercased.
func (p *Prompter) AskLower(prompt string) (string, error) {
	answer, err := p.Ask(prompt)
	return strings.ToLower(answer), err
}

// Confirm asks a yes/no question until it gets y, yes, n or no.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	for {
		answer, err := p.AskLower(prompt)
		if err != nil {
			return false, err
		}
		if yes, ok := ParseYesNo(answer); ok {
			return yes, nil
		}
		p.Println("Please enter yes or no.")
	}
}

func (p *Prompter) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

func (p *Prompter) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// Out exposes the writer for callers that render listings directly.
func (p *Prompter) Out() io.Writer {
	return p.out
}

// ParseYesNo recognises yes, y, no and n. ok is false for anything else.
func ParseYesNo(answer string) (yes bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true, true
	case "no", "n":
		return false, true
	default:
		return false, false
	}
}
