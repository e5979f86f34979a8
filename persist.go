package dataflow

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Stamp is the timestamp-derived identifier shared by an artifact and
// its status record, embedded in both file names.
const Stamp = "20060102_150405"

// Status record outcomes.
const (
	StatusReady    = "READY"
	StatusRejected = "REJECTED"
)

// StatusRecord is the machine-readable outcome of a run, polled by
// downstream consumers. Consumers treat a missing record, or any
// status other than READY, as "no usable data yet".
//
// Columns maps artifact column names to their kind so the loader can
// re-hydrate typed cells from the CSV artifact.
type StatusRecord struct {
	Status       string            `json:"status"`
	FilePath     string            `json:"file_path"`
	Rows         int               `json:"rows"`
	GeneratedAt  string            `json:"generated_at"`
	IntegrityPct float64           `json:"integrity_pct"`
	Reason       string            `json:"reason,omitempty"`
	Columns      map[string]string `json:"columns,omitempty"`
}

// Store owns the two shared directories of the pipeline: the trusted
// directory for enriched artifacts and the flags directory for status
// records. Writers only ever add new, uniquely named files; nothing is
// mutated or deleted, so successive runs supersede rather than replace.
type Store struct {
	TrustedDir string
	FlagsDir   string

	now func() time.Time // test hook
}

// NewStore returns a store over the two artifact directories.
func NewStore(trustedDir, flagsDir string) *Store {
	return &Store{TrustedDir: trustedDir, FlagsDir: flagsDir, now: time.Now}
}

// Persist writes the enriched table as a CSV artifact and then its
// READY status record, both named <basename>_<stamp>. The artifact is
// written to a temporary file and renamed, and the status record is
// written only after the artifact, so a partial write is never visible
// to consumers as READY data.
func (s *Store) Persist(t *Table, originalName string, rep IntegrityReport) (*StatusRecord, error) {
	stamp := s.now().Format(Stamp)
	base := artifactBase(originalName)

	if err := os.MkdirAll(s.TrustedDir, 0755); err != nil {
		return nil, &StorageError{Path: s.TrustedDir, Err: err}
	}
	artifact := filepath.Join(s.TrustedDir, fmt.Sprintf("%s_%s.csv", base, stamp))
	if err := writeArtifact(artifact, t); err != nil {
		return nil, err
	}

	columns := make(map[string]string, t.NumCols())
	for _, name := range t.Names() {
		columns[name] = columnKind(t.Column(name)).String()
	}
	record := &StatusRecord{
		Status:       StatusReady,
		FilePath:     artifact,
		Rows:         t.NumRows(),
		GeneratedAt:  stamp,
		IntegrityPct: rep.IntegrityPct,
		Columns:      columns,
	}
	if err := s.writeRecord(base, stamp, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Reject writes a rejection status record so consumers can tell a
// rejected upload from one that never arrived. No artifact is written.
func (s *Store) Reject(originalName, reason string, rep IntegrityReport) (*StatusRecord, error) {
	stamp := s.now().Format(Stamp)
	record := &StatusRecord{
		Status:       StatusRejected,
		Rows:         rep.ValidRows,
		GeneratedAt:  stamp,
		IntegrityPct: rep.IntegrityPct,
		Reason:       reason,
	}
	if err := s.writeRecord(artifactBase(originalName), stamp, record); err != nil {
		return nil, err
	}
	return record, nil
}

// writeArtifact writes the table as CSV through a temporary file in the
// same directory, renamed into place once fully written.
func writeArtifact(path string, t *Table) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return &StorageError{Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(t.Names()); err != nil {
		tmp.Close()
		return &StorageError{Path: path, Err: err}
	}
	row := make([]string, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, name := range t.Names() {
			row[j] = t.Column(name).Value(i).String()
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return &StorageError{Path: path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return &StorageError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &StorageError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &StorageError{Path: path, Err: err}
	}
	return nil
}

// writeRecord writes a status record JSON file into the flags dir.
func (s *Store) writeRecord(base, stamp string, record *StatusRecord) error {
	if err := os.MkdirAll(s.FlagsDir, 0755); err != nil {
		return &StorageError{Path: s.FlagsDir, Err: err}
	}
	path := filepath.Join(s.FlagsDir, fmt.Sprintf("%s_%s.json", base, stamp))
	data, err := json.Marshal(record)
	if err != nil {
		return &StorageError{Path: path, Err: err}
	}
	tmp, err := os.CreateTemp(s.FlagsDir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return &StorageError{Path: path, Err: err}
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &StorageError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &StorageError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &StorageError{Path: path, Err: err}
	}
	return nil
}

// artifactBase strips the directory and extension from an upload name.
func artifactBase(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// History returns up to limit status records, newest first. With
// limit <= 0 every record is returned.
func (s *Store) History(limit int) ([]StatusRecord, error) {
	records, err := s.readRecords()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// readRecords reads every parseable status record, newest first.
// Unreadable files are skipped: a record being written concurrently
// must not break a reader.
func (s *Store) readRecords() ([]StatusRecord, error) {
	entries, err := os.ReadDir(s.FlagsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var records []StatusRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.FlagsDir, e.Name()))
		if err != nil {
			continue
		}
		var rec StatusRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	// Newest first; the stamp format sorts lexicographically.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].GeneratedAt > records[j].GeneratedAt
	})
	return records, nil
}
