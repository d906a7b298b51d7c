// Package input abstracts interactive prompts so commands that ask for
// confirmation (domain remove, vault set) stay testable.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader provides user input for interactive prompts.
type Reader interface {
	// ReadLine reads a single line of input, without the trailing newline.
	ReadLine() (string, error)
	// Confirm prompts with a yes/no question and returns true on "y"/"yes".
	Confirm(prompt string) (bool, error)
}

// StdinReader reads input from standard input.
type StdinReader struct {
	scanner *bufio.Scanner
}

// NewStdinReader returns a Reader backed by os.Stdin.
func NewStdinReader() *StdinReader {
	return &StdinReader{scanner: bufio.NewScanner(os.Stdin)}
}

func (r *StdinReader) ReadLine() (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(r.scanner.Text()), nil
}

func (r *StdinReader) Confirm(prompt string) (bool, error) {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := r.ReadLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// StringReader reads input from a predefined list of lines. Used in tests.
type StringReader struct {
	lines []string
	pos   int
}

// NewStringReader returns a Reader that yields the given lines in order.
func NewStringReader(lines ...string) *StringReader {
	return &StringReader{lines: lines}
}

func (r *StringReader) ReadLine() (string, error) {
	if r.pos >= len(r.lines) {
		return "", io.EOF
	}
	line := r.lines[r.pos]
	r.pos++
	return strings.TrimSpace(line), nil
}

func (r *StringReader) Confirm(prompt string) (bool, error) {
	line, err := r.ReadLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
