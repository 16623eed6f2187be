package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/logging"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/store"
)

const (
	// maxFileDiffChars caps one file's diff text before truncation.
	maxFileDiffChars = 2000

	// maxAggregateDiffChars caps the combined diff across all files.
	maxAggregateDiffChars = 12000

	// diffTruncationMarker is appended to truncated diff text. The prefix
	// before it is preserved verbatim.
	diffTruncationMarker = "\n... [diff truncated]"
)

// FileDiff is the per-file view inside a CommitContext. Nil counts mean the
// numstat output was unavailable or malformed for that file.
type FileDiff struct {
	Path      string             `json:"path"`
	Source    store.StagedSource `json:"source"`
	Timestamp *time.Time         `json:"timestamp"`
	Additions *int               `json:"additions"`
	Deletions *int               `json:"deletions"`
	Diff      string             `json:"diff,omitempty"`
	Truncated bool               `json:"truncated"`
}

// CommitContext is the read-only diff view over a branch's staged changes.
type CommitContext struct {
	ProjectID     string     `json:"projectId"`
	Branch        string     `json:"branch"`
	Files         []FileDiff `json:"files"`
	AggregateDiff string     `json:"aggregateDiff,omitempty"`
	Truncated     bool       `json:"truncated"`
	SummaryText   string     `json:"summaryText"`
}

// GetBranchCommitContext builds per-file and aggregate diffs for a branch's
// staged changes. Each file's git calls are independently best-effort: one
// file failing nulls only its own stats.
func (e *Engine) GetBranchCommitContext(ctx context.Context, projectID, branchName string) (*CommitContext, error) {
	ctx = logging.WithProject(ctx, projectID)

	branch, err := e.resolveExistingBranch(ctx, projectID, branchName)
	if err != nil {
		return nil, err
	}

	out := &CommitContext{
		ProjectID: projectID,
		Branch:    branch.Name,
		Files:     make([]FileDiff, 0, len(branch.StagedFiles)),
	}

	pctx := e.projects.Context(ctx, projectID)

	var combined strings.Builder
	for _, entry := range branch.StagedFiles {
		file := FileDiff{
			Path:      entry.Path,
			Source:    entry.Source,
			Timestamp: entry.Timestamp,
		}
		if file.Source == "" {
			file.Source = store.SourceEditor
		}

		if pctx.GitReady && entry.Path != "" {
			file.Additions, file.Deletions = e.fileNumstat(ctx, pctx.ProjectPath, entry.Path)
			diffText, truncated := e.fileDiff(ctx, pctx.ProjectPath, entry.Path)
			file.Diff = diffText
			file.Truncated = truncated
		}

		if file.Diff != "" {
			combined.WriteString(file.Diff)
			combined.WriteString("\n")
		}
		out.Files = append(out.Files, file)
	}

	aggregate := combined.String()
	if len(aggregate) > maxAggregateDiffChars {
		aggregate = aggregate[:maxAggregateDiffChars] + diffTruncationMarker
		out.Truncated = true
	}
	out.AggregateDiff = aggregate
	out.SummaryText = summaryText(out.Files)

	return out, nil
}

// fileNumstat parses `git diff --numstat` for one path. A malformed line
// (no tab-delimited triple) or a binary-file "-" count yields nil counts.
func (e *Engine) fileNumstat(ctx context.Context, dir, path string) (*int, *int) {
	out, err := e.git.Output(ctx, dir, "diff", "--numstat", "--", path)
	if err != nil {
		return nil, nil
	}
	line := strings.SplitN(strings.TrimSpace(out), "\n", 2)[0]
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return nil, nil
	}
	additions, errA := strconv.Atoi(fields[0])
	deletions, errB := strconv.Atoi(fields[1])
	if errA != nil || errB != nil {
		return nil, nil
	}
	return &additions, &deletions
}

// fileDiff fetches one path's unified diff, truncating past the per-file cap.
func (e *Engine) fileDiff(ctx context.Context, dir, path string) (string, bool) {
	out, err := e.git.Output(ctx, dir, "diff", "--unified=5", "--", path)
	if err != nil {
		return "", false
	}
	if len(out) > maxFileDiffChars {
		return out[:maxFileDiffChars] + diffTruncationMarker, true
	}
	return out, false
}

// summaryText renders one numbered line per file. Files without a path
// render as unknown; missing counts render as zero.
func summaryText(files []FileDiff) string {
	if len(files) == 0 {
		return ""
	}

	lines := make([]string, 0, len(files))
	for i, file := range files {
		if file.Path == "" {
			lines = append(lines, fmt.Sprintf("%d. <unknown file>", i+1))
			continue
		}
		additions, deletions := 0, 0
		if file.Additions != nil {
			additions = *file.Additions
		}
		if file.Deletions != nil {
			deletions = *file.Deletions
		}
		lines = append(lines, fmt.Sprintf("%d. %s (+%d / -%d)", i+1, file.Path, additions, deletions))
	}
	return strings.Join(lines, "\n")
}
