// Package file provides file-based persistence implementation for flows, runs and rich runs.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/flowmeta/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
// Records are stored as one JSON document each:
//
//	<root>/flows/<flow_id>.json
//	<root>/runs/<flow_id>/<run_number>.json
//	<root>/rich_runs/<flow_id>/<run_number>.json
type Persistence struct {
	root        string
	flowRepo    *FlowRepository
	runRepo     *RunRepository
	richRunRepo *RichRunRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	flowRepo := NewFlowRepository(cleanRoot)
	runRepo := NewRunRepository(cleanRoot)

	return &Persistence{
		root:        cleanRoot,
		flowRepo:    flowRepo,
		runRepo:     runRepo,
		richRunRepo: NewRichRunRepository(cleanRoot, runRepo),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) FlowRepository() persistence.FlowRepository {
	return fp.flowRepo
}

func (fp *Persistence) RunRepository() persistence.RunRepository {
	return fp.runRepo
}

func (fp *Persistence) RichRunRepository() persistence.RichRunRepository {
	return fp.richRunRepo
}

// flowDir escapes a flow id so it is safe to use as a single path segment.
// Dot-only ids such as "." and ".." are percent-encoded so they never name a
// parent or current directory.
func flowDir(flowID string) string {
	escaped := url.PathEscape(flowID)
	if escaped != "" && strings.Trim(escaped, ".") == "" {
		return strings.ReplaceAll(escaped, ".", "%2E")
	}

	return escaped
}

// readJSON loads one record. A missing file yields (nil, nil).
func readJSON[T any](path string) (*T, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var record T

	err = json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	return &record, nil
}

func writeJSON(path string, record any) error {
	err := os.MkdirAll(filepath.Dir(path), 0750)
	if err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	return os.WriteFile(path, data, 0600)
}

// listJSON loads every record of a directory. A missing directory yields an empty list.
func listJSON[T any](dir string) ([]*T, error) {
	jsonFiles, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	records := make([]*T, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		record, err := readJSON[T](filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, err
		}

		if record != nil {
			records = append(records, record)
		}
	}

	return records, nil
}
