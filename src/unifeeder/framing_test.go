package unifeeder

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestParseTerminator(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{"empty defaults to crlf", "", []byte("\r\n"), false},
		{"crlf", "crlf", []byte("\r\n"), false},
		{"nul", "nul", []byte{0}, false},
		{"unknown", "lf", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTerminator(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadMessage(t *testing.T) {
	t.Run("crlf messages", func(t *testing.T) {
		br := bufio.NewReader(strings.NewReader("hello\r\nworld\r\n"))

		for _, want := range []string{"hello", "world"} {
			got, err := readMessage(br, termCRLF)
			if err != nil {
				t.Fatalf("readMessage: %v", err)
			}
			if got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		}
	})

	t.Run("nul messages keep internal newlines", func(t *testing.T) {
		br := bufio.NewReader(strings.NewReader("line1\r\nline2\x00"))
		got, err := readMessage(br, termNUL)
		if err != nil {
			t.Fatalf("readMessage: %v", err)
		}
		if got != "line1\r\nline2" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("empty message", func(t *testing.T) {
		br := bufio.NewReader(strings.NewReader("\r\n"))
		got, err := readMessage(br, termCRLF)
		if err != nil || got != "" {
			t.Errorf("got %q, %v; want empty message", got, err)
		}
	})

	t.Run("clean close is EOF", func(t *testing.T) {
		br := bufio.NewReader(strings.NewReader(""))
		if _, err := readMessage(br, termCRLF); err != io.EOF {
			t.Errorf("got %v, want io.EOF", err)
		}
	})

	t.Run("mid-message close is a framing error", func(t *testing.T) {
		br := bufio.NewReader(strings.NewReader("partial"))
		if _, err := readMessage(br, termCRLF); err != ErrUnterminated {
			t.Errorf("got %v, want ErrUnterminated", err)
		}
	})

	t.Run("lone CR does not terminate", func(t *testing.T) {
		br := bufio.NewReader(strings.NewReader("a\rb\r\n"))
		got, err := readMessage(br, termCRLF)
		if err != nil {
			t.Fatalf("readMessage: %v", err)
		}
		if got != "a\rb" {
			t.Errorf("got %q, want %q", got, "a\rb")
		}
	})
}

func TestFrame(t *testing.T) {
	if got := frame("quote", termCRLF); string(got) != "quote\r\n" {
		t.Errorf("got %q", got)
	}
	if got := frame("quote", termNUL); string(got) != "quote\x00" {
		t.Errorf("got %q", got)
	}
}
