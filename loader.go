package dataflow

import (
	"encoding/csv"
	"log"
	"os"
)

// LoadLatest reads back the most recent READY artifact for the
// reporting layer, re-hydrating cells to the kinds recorded at persist
// time.
//
// The latest complete pair is resolved once, at the moment the read
// starts; an artifact appearing while the read is in progress is picked
// up by the next call. Failures are soft: when there is no READY record
// yet the loader returns [ErrNoData], and when the artifact is missing
// or corrupt it logs the cause for operators and returns [ErrNoData] as
// well.
func (s *Store) LoadLatest() (*Table, *StatusRecord, error) {
	records, err := s.readRecords()
	if err != nil {
		log.Printf("cannot list status records in %q: %v", s.FlagsDir, err)
		return nil, nil, ErrNoData
	}
	for _, rec := range records {
		if rec.Status != StatusReady {
			continue
		}
		t, err := readArtifact(rec)
		if err != nil {
			log.Printf("cannot load artifact %q: %v", rec.FilePath, err)
			return nil, nil, ErrNoData
		}
		return t, &rec, nil
	}
	return nil, nil, ErrNoData
}

// readArtifact reads a persisted CSV artifact back into a typed table
// using the column kinds from its status record. A cell that no longer
// parses as its recorded kind re-hydrates as null rather than failing
// the read.
func readArtifact(rec StatusRecord) (*Table, error) {
	f, err := os.Open(rec.FilePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}

	header := records[0]
	rows := records[1:]

	t := NewTable()
	for i, name := range header {
		kind := Text
		if s, ok := rec.Columns[name]; ok {
			if k, err := ParseKind(s); err == nil {
				kind = k
			}
		}
		cells := make([]Value, len(rows))
		for j, row := range rows {
			if i >= len(row) {
				cells[j] = NullValue(kind)
				continue
			}
			v, err := ParseValue(row[i], kind)
			if err != nil {
				cells[j] = NullValue(kind)
				continue
			}
			cells[j] = v
		}
		t.AddColumn(name, cells)
	}
	return t, nil
}
