package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/jsonutil"
)

const (
	branchesFileName = "branches.json"
	testRunsFileName = "test_runs.json"
)

// branchRow is the on-disk shape of a Branch. The staged-file list is kept
// as a raw JSON column so a corrupted payload degrades to an empty list at
// the decode boundary instead of poisoning the whole row set.
type branchRow struct {
	ID              string       `json:"id"`
	ProjectID       string       `json:"projectId"`
	Name            string       `json:"name"`
	Type            string       `json:"type"`
	Status          BranchStatus `json:"status"`
	IsCurrent       bool         `json:"isCurrent"`
	AheadCommits    int          `json:"aheadCommits"`
	BehindCommits   int          `json:"behindCommits"`
	StagedFilesJSON string       `json:"stagedFiles"`
	LastTestRunID   string       `json:"lastTestRunId,omitempty"`
	CreatedAt       string       `json:"createdAt"`
	UpdatedAt       string       `json:"updatedAt"`
}

// FileStore persists rows as JSON files per project under a state directory.
// Writes are atomic (temp file + rename) and serialized by a single mutex.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a file store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// GetBranch returns the branch row for (projectID, name), or (nil, nil).
func (s *FileStore) GetBranch(ctx context.Context, projectID, name string) (*Branch, error) {
	branches, err := s.ListBranches(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, b := range branches {
		if b.Name == name {
			return b, nil
		}
	}
	return nil, nil
}

// GetBranchByID returns the branch row with the given id, or (nil, nil).
// The scan is cross-project: ids are globally unique.
func (s *FileStore) GetBranchByID(ctx context.Context, id string) (*Branch, error) {
	s.mu.Lock()
	entries, err := os.ReadDir(s.dir)
	s.mu.Unlock()
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		branches, err := s.ListBranches(ctx, entry.Name())
		if err != nil {
			return nil, err
		}
		for _, b := range branches {
			if b.ID == id {
				return b, nil
			}
		}
	}
	return nil, nil
}

// ListBranches returns all branch rows for a project, ordered by name.
func (s *FileStore) ListBranches(_ context.Context, projectID string) ([]*Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readBranchRows(projectID)
	if err != nil {
		return nil, err
	}

	branches := make([]*Branch, 0, len(rows))
	for _, row := range rows {
		branches = append(branches, rowToBranch(row))
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// SaveBranch upserts a branch row keyed by (projectID, name).
func (s *FileStore) SaveBranch(_ context.Context, branch *Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readBranchRows(branch.ProjectID)
	if err != nil {
		return err
	}

	row := branchToRow(branch)
	replaced := false
	for i := range rows {
		if rows[i].Name == branch.Name {
			rows[i] = row
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, row)
	}

	return s.writeFile(branch.ProjectID, branchesFileName, rows)
}

// DeleteBranch removes the branch row for (projectID, name). Deleting a
// missing row is not an error.
func (s *FileStore) DeleteBranch(_ context.Context, projectID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readBranchRows(projectID)
	if err != nil {
		return err
	}

	kept := rows[:0]
	for _, row := range rows {
		if row.Name != name {
			kept = append(kept, row)
		}
	}

	return s.writeFile(projectID, branchesFileName, kept)
}

// GetTestRun returns the test run with the given id, or (nil, nil).
func (s *FileStore) GetTestRun(_ context.Context, id string) (*TestRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		runs, err := s.readTestRuns(entry.Name())
		if err != nil {
			return nil, err
		}
		for _, run := range runs {
			if run.ID == id {
				out := *run
				return &out, nil
			}
		}
	}
	return nil, nil
}

// SaveTestRun upserts a test run row by id.
func (s *FileStore) SaveTestRun(_ context.Context, run *TestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := s.readTestRuns(run.ProjectID)
	if err != nil {
		return err
	}

	stored := *run
	replaced := false
	for i := range runs {
		if runs[i].ID == run.ID {
			runs[i] = &stored
			replaced = true
			break
		}
	}
	if !replaced {
		runs = append(runs, &stored)
	}

	return s.writeFile(run.ProjectID, testRunsFileName, runs)
}

func (s *FileStore) readBranchRows(projectID string) ([]branchRow, error) {
	var rows []branchRow
	if err := s.readFile(projectID, branchesFileName, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *FileStore) readTestRuns(projectID string) ([]*TestRun, error) {
	var runs []*TestRun
	if err := s.readFile(projectID, testRunsFileName, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *FileStore) readFile(projectID, name string, out any) error {
	path := filepath.Join(s.dir, projectID, name)
	data, err := os.ReadFile(path) //nolint:gosec // path is store-relative
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) writeFile(projectID, name string, v any) error {
	dir := filepath.Join(s.dir, projectID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := jsonutil.MarshalIndentWithNewline(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}

	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s: %w", name, err)
	}
	return nil
}

func branchToRow(b *Branch) branchRow {
	staged := b.StagedFiles
	if staged == nil {
		staged = []StagedFileEntry{}
	}
	return branchRow{
		ID:              b.ID,
		ProjectID:       b.ProjectID,
		Name:            b.Name,
		Type:            b.Type,
		Status:          b.Status,
		IsCurrent:       b.IsCurrent,
		AheadCommits:    b.AheadCommits,
		BehindCommits:   b.BehindCommits,
		StagedFilesJSON: jsonutil.EncodeColumn(staged),
		LastTestRunID:   b.LastTestRunID,
		CreatedAt:       b.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:       b.UpdatedAt.UTC().Format(timeLayout),
	}
}

func rowToBranch(row branchRow) *Branch {
	return &Branch{
		ID:            row.ID,
		ProjectID:     row.ProjectID,
		Name:          row.Name,
		Type:          row.Type,
		Status:        row.Status,
		IsCurrent:     row.IsCurrent,
		AheadCommits:  row.AheadCommits,
		BehindCommits: row.BehindCommits,
		StagedFiles:   jsonutil.ParseColumn(row.StagedFilesJSON, []StagedFileEntry{}),
		LastTestRunID: row.LastTestRunID,
		CreatedAt:     parseTime(row.CreatedAt),
		UpdatedAt:     parseTime(row.UpdatedAt),
	}
}

const timeLayout = time.RFC3339Nano

// parseTime decodes a stored timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
