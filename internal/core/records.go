package core

// records.go turns raw record files into typed rows.
//
// The format is deliberately simple: the first line is a header, every other
// non-blank line is one record, fields are separated by commas. There is no
// quoting support, so a comma inside a quoted value splits the value. Rows are
// materialized eagerly because validation needs the full extent of each file.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMalformedRow is matched by errors.Is for rows with too few fields.
var ErrMalformedRow = errors.New("malformed row")

// MalformedRowError reports a row that does not carry every positional field.
// It fails the whole load.
type MalformedRowError struct {
	Line int // 1-based line number in the file
	Got  int // fields present
	Want int // fields required by the schema
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row at line %d: got %d fields, want %d", e.Line, e.Got, e.Want)
}

// Is lets errors.Is(err, ErrMalformedRow) match.
func (e *MalformedRowError) Is(target error) bool {
	return target == ErrMalformedRow
}

// ReadRecords parses every data line of r and maps it with mapFn.
//
// The header line is skipped unconditionally, as are blank and all-whitespace
// lines. Each remaining line is split on [Delimiter]; rows with fewer than
// width fields fail with a [MalformedRowError]. Extra fields are passed to
// mapFn untouched.
func ReadRecords[T any](r io.Reader, width int, mapFn func(fields []string) T) ([]Row[T], error) {
	data, err := readClean(r)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	rows := make([]Row[T], 0, len(lines))

	for i, line := range lines {
		lineNum := i + 1
		if lineNum == 1 {
			continue // header
		}

		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, Delimiter)
		if len(fields) < width {
			return nil, &MalformedRowError{Line: lineNum, Got: len(fields), Want: width}
		}

		rows = append(rows, Row[T]{Line: lineNum, Value: mapFn(fields)})
	}

	return rows, nil
}

// LoadRecords opens path and parses it with ReadRecords.
func LoadRecords[T any](path string, width int, mapFn func(fields []string) T) ([]Row[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadRecords(f, width, mapFn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// readClean reads the whole input, dropping a leading UTF-8 BOM and replacing
// invalid UTF-8 sequences with U+FFFD. Files exported from Windows tools
// commonly carry both.
func readClean(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)

	bom, err := br.Peek(3)
	if err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, err
	}

	return bytes.ToValidUTF8(data, []byte("\uFFFD")), nil
}
