// Package tableio reads and writes the plain-text tables exchanged between
// the extraction, basis and reduction steps.
package tableio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	ErrRaggedTable  = errors.New("inconsistent row sizes")
	ErrInvalidValue = errors.New("invalid value")
)

// SaveCSV writes m one row per line, comma separated, with enough digits to
// round-trip every value exactly.
func SaveCSV(path string, m [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open %s for writing: %w", path, err)
	}

	w := bufio.NewWriter(f)
	if err := WriteCSV(w, m); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// SaveColumn writes v as a single-column table.
func SaveColumn(path string, v []float64) error {
	m := make([][]float64, len(v))
	for i, x := range v {
		m[i] = []float64{x}
	}
	return SaveCSV(path, m)
}

// WriteCSV writes m to w. Lines are newline separated with no trailing newline.
func WriteCSV(w io.Writer, m [][]float64) error {
	var sb strings.Builder
	for i, row := range m {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for j, v := range row {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// LoadCSV parses a comma separated numeric table, skipping the first
// skipLines lines. Tokens are trimmed of whitespace and double quotes. An
// empty file yields an empty table.
func LoadCSV(path string, skipLines int) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer f.Close()

	m, err := ReadCSV(f, skipLines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ReadCSV is LoadCSV over a reader.
func ReadCSV(r io.Reader, skipLines int) ([][]float64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var table [][]float64
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo <= skipLines {
			continue
		}

		line := scanner.Text()
		tokens := strings.Split(line, ",")
		row := make([]float64, 0, len(tokens))
		for _, token := range tokens {
			v, err := strconv.ParseFloat(trimToken(token), 64)
			if err != nil {
				msg := fmt.Sprintf("%q in line %d", token, lineNo)
				if lineNo == 1 {
					msg += " (is there a header line to skip?)"
				}
				return nil, fmt.Errorf("%w %s", ErrInvalidValue, msg)
			}
			row = append(row, v)
		}

		if len(table) > 0 && len(row) != len(table[0]) {
			return nil, fmt.Errorf("%w: line %d has %d values, expected %d", ErrRaggedTable, lineNo, len(row), len(table[0]))
		}
		table = append(table, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// LoadVector loads a table and returns its cells in row-major order. This
// reads single-column files such as a mean or a reduced vector.
func LoadVector(path string) ([]float64, error) {
	m, err := LoadCSV(path, 0)
	if err != nil {
		return nil, err
	}
	var v []float64
	for _, row := range m {
		v = append(v, row...)
	}
	return v, nil
}

func trimToken(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == '"' || r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '\v' || r == '\f'
	})
}
