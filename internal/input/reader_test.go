package input

import (
	"errors"
	"io"
	"testing"
)

func TestStringReaderReadLine(t *testing.T) {
	r := NewStringReader("first", "  second  ")

	line, err := r.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "first" {
		t.Errorf("expected %q, got %q", "first", line)
	}

	line, err = r.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "second" {
		t.Errorf("expected trimmed %q, got %q", "second", line)
	}

	_, err = r.ReadLine()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after lines exhausted, got %v", err)
	}
}

func TestStringReaderConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes lowercase", "y", true},
		{"yes word", "yes", true},
		{"yes uppercase", "YES", true},
		{"no", "n", false},
		{"empty defaults to no", "", false},
		{"garbage defaults to no", "maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewStringReader(tt.input)
			got, err := r.Confirm("delete example.com from DigiCert?")
			if err != nil {
				t.Fatalf("Confirm: %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStringReaderConfirmEOF(t *testing.T) {
	r := NewStringReader()
	_, err := r.Confirm("proceed?")
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}
