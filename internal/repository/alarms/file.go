package alarms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alarmd/alarmd/internal/config"
	domain "github.com/alarmd/alarmd/internal/domain/alarm"
)

// Repository defines persistence operations for the alarm collection.
type Repository interface {
	LoadAll(ctx context.Context) ([]*domain.Record, error)
	SaveAll(ctx context.Context, records []*domain.Record) error
}

// FileRepository persists alarm records to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON alarms file.
	path string
	// mu protects concurrent access to the alarms file.
	mu sync.Mutex
}

// ErrNotFound is returned when the alarms file does not exist yet.
var ErrNotFound = errors.New("alarms not found")

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// LoadAll reads the full alarm collection from disk.
func (r *FileRepository) LoadAll(_ context.Context) ([]*domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read alarms file: %w", err)
	}

	var records []*domain.Record
	if err = json.Unmarshal(contents, &records); err != nil {
		return nil, fmt.Errorf("decode alarms file: %w", err)
	}

	return records, nil
}

// SaveAll writes the full alarm collection to disk, replacing any previous
// contents.
func (r *FileRepository) SaveAll(_ context.Context, records []*domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if records == nil {
		records = []*domain.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode alarms: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write alarms file: %w", err)
	}

	return nil
}
