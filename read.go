package dataflow

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Upload is a single uploaded file: its original name (the extension
// selects the reader) and its raw bytes.
type Upload struct {
	Name string
	Data []byte
}

// missingTokens are literal cell contents treated as null during
// parsing, not as data.
var missingTokens = map[string]bool{
	"":     true,
	" ":    true,
	"null": true,
	"nan":  true,
	"NaN":  true,
	"NA":   true,
	"None": true,
}

// ReadUpload parses an upload into a table of text cells. It stages the
// bytes to a temporary file for the format readers and removes it on
// every exit path.
//
// Unknown extensions fail with [FormatError]; a file no
// encoding/delimiter combination parses fails with [DecodeError].
func ReadUpload(up Upload, c *Contract) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(up.Name))

	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return nil, &StorageError{Path: "temp staging file", Err: err}
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(up.Data); err != nil {
		tmp.Close()
		return nil, &StorageError{Path: tmp.Name(), Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &StorageError{Path: tmp.Name(), Err: err}
	}

	var t *Table
	switch ext {
	case ".csv":
		t, err = readCSV(up.Name, tmp.Name())
	case ".xlsx":
		t, err = readExcel(up.Name, tmp.Name())
	case ".json":
		t, err = readJSON(up.Name, tmp.Name(), c.RecordsPath)
	default:
		return nil, &FormatError{Ext: ext}
	}
	if err != nil {
		return nil, err
	}
	if c.MaxRows > 0 && t.NumRows() > c.MaxRows {
		return nil, &DecodeError{Name: up.Name, Err: fmt.Errorf("%d rows exceed the %d row limit", t.NumRows(), c.MaxRows)}
	}
	return t, nil
}

// readCSV reads a CSV file with delimiter sniffing and a Latin-1
// fallback for files that are not valid UTF-8.
func readCSV(name, path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Name: name, Err: err}
	}

	sep := ','
	if !utf8.Valid(data) {
		// Legacy exports are Latin-1 encoded and semicolon separated.
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, &DecodeError{Name: name, Err: err}
		}
		data = decoded
		sep = ';'
	} else if line, _, _ := strings.Cut(string(data), "\n"); strings.Contains(line, ";") {
		sep = ';'
	}

	t, err := parseCSV(data, sep)
	if err != nil || t.NumCols() < 2 {
		// Wrong delimiter guess collapses every row into one column;
		// retry with the alternate before giving up.
		alt := ';'
		if sep == ';' {
			alt = ','
		}
		cols := 0
		if t != nil {
			cols = t.NumCols()
		}
		if t2, err2 := parseCSV(data, alt); err2 == nil && t2.NumCols() > cols {
			return t2, nil
		}
		if err != nil {
			return nil, &DecodeError{Name: name, Err: err}
		}
	}
	return t, nil
}

// parseCSV parses decoded CSV bytes with a fixed delimiter into a table
// of text cells. Short records are padded with nulls, long ones
// truncated to the header width.
func parseCSV(data []byte, sep rune) (*Table, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.Comma = sep
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row")
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	rows := records[1:]

	t := NewTable()
	seen := make(map[string]bool)
	for i, name := range header {
		name = strings.TrimSpace(name)
		if dropHeader(name) {
			continue
		}
		name = uniqueName(name, seen)
		cells := make([]Value, len(rows))
		for j, row := range rows {
			if i < len(row) {
				cells[j] = cellValue(row[i])
			} else {
				cells[j] = NullValue(Text)
			}
		}
		t.AddColumn(name, cells)
	}
	return t, nil
}

// cellValue turns raw cell text into a text cell, mapping the
// missing-value tokens to null.
func cellValue(s string) Value {
	if missingTokens[s] {
		return NullValue(Text)
	}
	return TextValue(s)
}

// dropHeader reports whether a header is an index artifact of a prior
// export rather than a real column.
func dropHeader(name string) bool {
	return name == "" || strings.HasPrefix(name, "Unnamed")
}

// uniqueName disambiguates a repeated header by suffixing it, and marks
// the chosen name as taken. Exports with duplicated headers are valid
// input and must not abort the read.
func uniqueName(name string, seen map[string]bool) string {
	picked := name
	for i := 1; seen[picked]; i++ {
		picked = fmt.Sprintf("%s.%d", name, i)
	}
	seen[picked] = true
	return picked
}
