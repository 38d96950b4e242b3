package text

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FormatError reports malformed DXF input. It aborts the whole import.
type FormatError struct {
	Line int    // 1-based line number of the offending line
	Msg  string // Description
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// pair is one op-code/value record
type pair struct {
	code  int
	value string
	line  int // Line number of the op-code line
}

// scanner splits a DXF stream into op-code/value pairs
type scanner struct {
	s    *bufio.Scanner
	line int
	eof  bool // EOF keyword already consumed
}

func newScanner(r io.Reader) *scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &scanner{s: s}
}

// readLine returns the next raw line with any trailing carriage return and,
// on the first line, a UTF-8 byte order mark removed.
func (s *scanner) readLine() (string, bool) {
	if !s.s.Scan() {
		return "", false
	}
	s.line++
	line := strings.TrimSuffix(s.s.Text(), "\r")
	if s.line == 1 {
		line = strings.TrimPrefix(line, "\ufeff")
	}
	return line, true
}

// next returns the next pair. ok is false at the end of the stream.
func (s *scanner) next() (p pair, ok bool, err error) {
	codeLine, ok := s.readLine()
	if !ok {
		return pair{}, false, s.err()
	}

	if s.eof {
		// Only blank lines may follow EOF
		for strings.TrimSpace(codeLine) == "" {
			if codeLine, ok = s.readLine(); !ok {
				return pair{}, false, s.err()
			}
		}
		return pair{}, false, &FormatError{Line: s.line, Msg: "attempting to read past EOF"}
	}

	code, err := strconv.Atoi(strings.TrimSpace(codeLine))
	if err != nil {
		return pair{}, false, &FormatError{Line: s.line, Msg: fmt.Sprintf("expected numeric op-code, got %q", codeLine)}
	}
	codeLineNo := s.line

	value, ok := s.readLine()
	if !ok {
		if err := s.err(); err != nil {
			return pair{}, false, err
		}
		return pair{}, false, &FormatError{Line: codeLineNo, Msg: fmt.Sprintf("missing value for op-code %d", code)}
	}

	if isStringCode(code) {
		value = strings.TrimLeft(value, " ")
	} else {
		value = strings.TrimSpace(value)
	}
	return pair{code: code, value: value, line: codeLineNo}, true, nil
}

// isStringCode reports whether values of op-code carry free text (labels,
// names, extended data), which keeps its trailing whitespace.
func isStringCode(code int) bool {
	switch {
	case code >= 1 && code <= 8:
		return true
	case code >= 300 && code <= 369, code == 999:
		return true
	case code >= 1000 && code <= 1009:
		return true
	}
	return false
}

func (s *scanner) err() error {
	if err := s.s.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}
