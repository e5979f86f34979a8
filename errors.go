package dataflow

import (
	"errors"
	"fmt"
	"strings"
)

// The pipeline sorts fatal failures into a small taxonomy so the caller
// can tell a bad upload from a bad deployment. Cell-level conversion
// failures are not part of it: they degrade to null/zero and are only
// counted.

// FormatError reports an upload with an extension no reader handles.
type FormatError struct {
	Ext string
}

func (e *FormatError) Error() string {
	if e.Ext == "" {
		return "unrecognized file format: missing extension"
	}
	return fmt.Sprintf("unrecognized file format %q", e.Ext)
}

// DecodeError reports a file that no encoding/delimiter combination
// could parse into a table.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %q: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SchemaError reports required columns absent from the upload.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// IntegrityError reports a table whose share of complete rows is below
// the contract threshold, or a table with no rows at all.
type IntegrityError struct {
	Report IntegrityReport
	Min    float64
	Empty  bool
}

func (e *IntegrityError) Error() string {
	if e.Empty {
		return "empty file: no rows"
	}
	return fmt.Sprintf("integrity %.2f%% below the %.2f%% minimum", e.Report.IntegrityPct, e.Min)
}

// StorageError reports a failed artifact or status-record write.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("cannot write %q: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ErrNoData is returned by the loader when there is no readable READY
// artifact yet. Consumers treat it as "nothing to show", not a failure.
var ErrNoData = errors.New("no processed data available")
