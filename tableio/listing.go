package tableio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrMissingFile = errors.New("listed file not found")
	ErrBadLabel    = errors.New("file stem does not start with a digit label")
)

// ReadFileListing reads one path per line. A pair of matching single or
// double quotes around a path is stripped and blank lines are skipped. Every
// listed file must exist.
func ReadFileListing(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open listing: %w", err)
	}
	defer f.Close()

	var files []string
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		name := stripQuotes(strings.TrimSpace(scanner.Text()))
		if name == "" {
			continue
		}
		if _, err := os.Stat(name); err != nil {
			return nil, fmt.Errorf("%w: %s (line #%d of %s)", ErrMissingFile, name, lineNo, path)
		}
		files = append(files, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

func stripQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// ReplaceExt swaps the extension of path for ext (which includes the dot).
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// Stem is the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LabelFromStem reads the class label from the first character of the file
// stem, so "3_clip.reduced" is class 3.
func LabelFromStem(path string) (int, error) {
	stem := Stem(path)
	if stem == "" || stem[0] < '0' || stem[0] > '9' {
		return 0, fmt.Errorf("%w: %q", ErrBadLabel, stem)
	}
	return int(stem[0] - '0'), nil
}

// WriteSVM writes one libsvm line: the label followed by 1-based index:value
// pairs, each followed by a space.
func WriteSVM(w io.Writer, label int, vec []float64) error {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(label))
	sb.WriteByte(' ')
	for i, v := range vec {
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(v, 'g', 6, 64))
		sb.WriteByte(' ')
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}
