package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadTable parses a whitespace-separated numeric table. Blank lines are
// skipped and '#' starts a comment that runs to the end of the line. Every
// data row must carry the same number of columns.
func ReadTable(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows [][]float64
	cols := -1
	lineNo := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if cols == -1 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, fmt.Errorf("%s:%d: expected %d columns, got %d", path, lineNo, cols, len(fields))
		}
		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: column %d: %w", path, lineNo, i+1, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return rows, nil
}

// readScalars flattens a table into the sequence of numbers it contains, in
// row order. Used for the files holding a single value or a single interval.
func readScalars(path string) ([]float64, error) {
	rows, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	var values []float64
	for _, row := range rows {
		values = append(values, row...)
	}
	return values, nil
}

// readToken returns the first whitespace-delimited token in the file.
func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", fmt.Errorf("%s: empty marker file", path)
	}
	return fields[0], nil
}
