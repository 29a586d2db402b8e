// Package sink writes scraped records to per-worker CSV files. Appends are
// flushed record by record so a crash loses at most the row being written.
package sink

import (
	"encoding/csv"
	"io"
	"os"

	apperrors "mnsos/internal/errors"
	"mnsos/pkg/contracts/domain"
)

// CSVSink is an append-only record writer. The header row is written once
// when the file is created; reopening an existing sink appends below the
// rows already present.
type CSVSink struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// Open creates or reopens the sink at path.
func Open(path string) (*CSVSink, error) {
	info, err := os.Stat(path)
	needHeader := os.IsNotExist(err) || (err == nil && info.Size() == 0)
	if err != nil && !os.IsNotExist(err) {
		return nil, apperrors.NewStorageError("failed to stat sink file", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open sink file", err)
	}

	s := &CSVSink{
		path:   path,
		file:   file,
		writer: csv.NewWriter(file),
	}

	if needHeader {
		if err := s.writer.Write(domain.Columns); err != nil {
			file.Close()
			return nil, apperrors.NewStorageError("failed to write sink header", err)
		}
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			file.Close()
			return nil, apperrors.NewStorageError("failed to flush sink header", err)
		}
	}

	return s, nil
}

// Append writes one record and flushes it to disk.
func (s *CSVSink) Append(record *domain.BusinessRecord) error {
	if err := s.writer.Write(record.Row()); err != nil {
		return apperrors.NewStorageError("failed to write record", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return apperrors.NewStorageError("failed to flush record", err)
	}
	return nil
}

// Path returns the sink's file path.
func (s *CSVSink) Path() string {
	return s.path
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return apperrors.NewStorageError("failed to flush sink", err)
	}
	return s.file.Close()
}

// LoadKeys returns the set of file_number values already present in the
// sink at path. Used on resume to skip already-persisted businesses when
// the checkpoint's GUID list has been trimmed. A missing file yields an
// empty set; a malformed row ends the scan with what was read so far.
func LoadKeys(path string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return keys, nil
		}
		return nil, apperrors.NewStorageError("failed to open sink file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return keys, nil
	}
	keyIdx := -1
	for i, col := range header {
		if col == "file_number" {
			keyIdx = i
			break
		}
	}
	if keyIdx < 0 {
		return keys, nil
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if keyIdx < len(row) && row[keyIdx] != "" {
			keys[row[keyIdx]] = struct{}{}
		}
	}
	return keys, nil
}
