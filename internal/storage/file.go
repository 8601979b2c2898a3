package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mercari_watch/internal/model"
)

// FileLog implements Storage as a plain text file holding one listing id per
// line. The file is only ever appended to; a missing file is an empty set.
type FileLog struct {
	path string
}

// NewFileLog returns a FileLog backed by the file at path. The file is
// created lazily on the first RecordSent.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Path returns the backing file path.
func (f *FileLog) Path() string {
	return f.path
}

// Close is a no-op; the file is opened per operation.
func (f *FileLog) Close() error {
	return nil
}

// FilterUnseen reads the whole log and returns candidates absent from it.
func (f *FileLog) FilterUnseen(_ context.Context, candidates []model.Listing) ([]model.Listing, error) {
	seen, err := f.load()
	if err != nil {
		return nil, err
	}
	return unseen(candidates, func(id string) bool {
		_, ok := seen[id]
		return ok
	}), nil
}

// RecordSent appends the ids of items to the log, one per line.
func (f *FileLog) RecordSent(_ context.Context, items []model.Listing) error {
	if len(items) == 0 {
		return nil
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o640)
	if err != nil {
		return fmt.Errorf("open found log: %w", err)
	}
	defer func() { _ = file.Close() }()

	var b strings.Builder
	needsNewline, err := missingTrailingNewline(file)
	if err != nil {
		return err
	}
	if needsNewline {
		b.WriteByte('\n')
	}
	for _, item := range items {
		b.WriteString(item.ID)
		b.WriteByte('\n')
	}

	if _, err := file.WriteString(b.String()); err != nil {
		return fmt.Errorf("append found log: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync found log: %w", err)
	}
	return nil
}

func (f *FileLog) load() (map[string]struct{}, error) {
	ids, err := ReadIDs(f.path)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// ReadIDs returns the non-blank lines of a found log in file order. A missing
// file yields no ids and no error.
func ReadIDs(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open found log: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read found log: %w", err)
	}
	return ids, nil
}

// missingTrailingNewline reports whether a non-empty file does not end in
// '\n', so appended ids would otherwise be glued to the last line.
func missingTrailingNewline(file *os.File) (bool, error) {
	info, err := file.Stat()
	if err != nil {
		return false, fmt.Errorf("stat found log: %w", err)
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read found log tail: %w", err)
	}
	return last[0] != '\n', nil
}
