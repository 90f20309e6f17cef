package unifeeder

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// -----------------------------------------------------------------------------
// Message framing. Every message on the wire, both directions, ends with a
// fixed terminator: CRLF in the canonical deployment or a single NUL byte
// for legacy clients. One deployment uses exactly one of the two.
// -----------------------------------------------------------------------------

var (
	termCRLF = []byte("\r\n")
	termNUL  = []byte{0}

	// ErrUnterminated reports a stream that closed in the middle of a
	// message. The affected connection is torn down.
	ErrUnterminated = errors.New("unifeeder: stream ended mid-message")
)

// -----------------------------------------------------------------------------

// ParseTerminator resolves the configured terminator name. Empty defaults
// to CRLF.
func ParseTerminator(name string) ([]byte, error) {
	switch name {
	case "", "crlf":
		return termCRLF, nil
	case "nul":
		return termNUL, nil
	default:
		return nil, fmt.Errorf("unifeeder: unknown terminator %q (want crlf or nul)", name)
	}
}

// -----------------------------------------------------------------------------

// readMessage accumulates bytes until the terminator is observed and returns
// them with the terminator excluded. A clean EOF before any byte is io.EOF;
// EOF inside a message is ErrUnterminated.
func readMessage(r *bufio.Reader, term []byte) (string, error) {
	var buf bytes.Buffer

	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				if buf.Len() == 0 {
					return "", io.EOF
				}
				return "", ErrUnterminated
			}
			return "", err
		}

		buf.WriteByte(b)
		if bytes.HasSuffix(buf.Bytes(), term) {
			return string(buf.Bytes()[:buf.Len()-len(term)]), nil
		}
	}
}

// -----------------------------------------------------------------------------

// frame appends the terminator to a message payload.
func frame(message string, term []byte) []byte {
	out := make([]byte, 0, len(message)+len(term))
	out = append(out, message...)
	return append(out, term...)
}
