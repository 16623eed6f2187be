package engine

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/logging"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// commitPrettyFormat emits one machine-parseable record per commit, with
// unit separators between fields and a record separator at the end.
const commitPrettyFormat = "%H%x1f%an%x1f%ae%x1f%aI%x1f%P%x1f%s%x1f%b%x1e"

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// Commit is one parsed commit record.
type Commit struct {
	SHA             string       `json:"sha"`
	AuthorName      string       `json:"authorName"`
	AuthorEmail     string       `json:"authorEmail"`
	Date            string       `json:"date"`
	Subject         string       `json:"subject"`
	ParentSHAs      []string     `json:"parentShas"`
	Body            string       `json:"body"`
	IsInitialCommit bool         `json:"isInitialCommit"`
	Files           []CommitFile `json:"files,omitempty"`
}

// CommitFile is one changed path in a commit.
type CommitFile struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

// FileDiffContent is the two-sided content view of one file in one commit.
type FileDiffContent struct {
	Path          string `json:"path"`
	Original      string `json:"original"`
	Modified      string `json:"modified"`
	OriginalLabel string `json:"originalLabel"`
	ModifiedLabel string `json:"modifiedLabel"`
	Additions     int    `json:"additions"`
	Deletions     int    `json:"deletions"`
}

// HistoryOptions configures GetCommitHistory.
type HistoryOptions struct {
	Limit int
}

// GetCommitDetails parses one commit into a structured record, including
// its changed files. The sha is validated before any git-readiness check.
func (e *Engine) GetCommitDetails(ctx context.Context, projectID, commitSHA string) (*Commit, error) {
	if strings.TrimSpace(commitSHA) == "" {
		return nil, NewValidationError("commitSha is required")
	}
	ctx = logging.WithProject(ctx, projectID)

	pctx := e.projects.Context(ctx, projectID)
	if !pctx.GitReady {
		return nil, NewInternalError("Git repository unavailable")
	}

	out, err := e.git.Output(ctx, pctx.ProjectPath, "show", "--no-patch", "--pretty=format:"+commitPrettyFormat, commitSHA)
	if err != nil {
		return nil, NewInternalError("Git show failed: " + err.Error())
	}

	commit := parseCommitRecord(strings.TrimSuffix(out, recordSep))

	// The changed-file list is best-effort: the commit record stands on its
	// own even if diff-tree fails.
	filesOut, err := e.git.Output(ctx, pctx.ProjectPath, "diff-tree", "--root", "--no-commit-id", "--name-status", "-r", commitSHA)
	if err != nil {
		logging.Warn(ctx, "diff-tree failed", slog.String("error", err.Error()))
	} else {
		commit.Files = parseNameStatus(filesOut)
	}

	return commit, nil
}

// GetCommitHistory returns up to limit commits, newest first.
func (e *Engine) GetCommitHistory(ctx context.Context, projectID string, opts HistoryOptions) ([]*Commit, error) {
	ctx = logging.WithProject(ctx, projectID)

	pctx := e.projects.Context(ctx, projectID)
	if !pctx.GitReady {
		return nil, NewInternalError("Git repository unavailable")
	}

	limit := opts.Limit
	if limit < 1 {
		limit = 1
	}

	out, err := e.git.Output(ctx, pctx.ProjectPath, "log", "-n", strconv.Itoa(limit), "--pretty=format:"+commitPrettyFormat)
	if err != nil {
		return nil, NewInternalError("Git log failed: " + err.Error())
	}

	var commits []*Commit
	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		commits = append(commits, parseCommitRecord(record))
	}
	return commits, nil
}

// GetCommitFileDiffContent fetches both sides of one file in one commit.
// The parent lookup failing is tolerated as "no parent": the original side
// is then labeled Empty. Each side's content is independently best-effort.
func (e *Engine) GetCommitFileDiffContent(ctx context.Context, projectID, commitSHA, filePath string) (*FileDiffContent, error) {
	if strings.TrimSpace(commitSHA) == "" {
		return nil, NewValidationError("commitSha is required")
	}
	if strings.TrimSpace(filePath) == "" {
		return nil, NewValidationError("filePath is required")
	}
	ctx = logging.WithProject(ctx, projectID)

	pctx := e.projects.Context(ctx, projectID)
	if !pctx.GitReady {
		return nil, NewInternalError("Git repository unavailable")
	}

	parent := ""
	if out, err := e.git.Output(ctx, pctx.ProjectPath, "show", "--no-patch", "--pretty=format:%P", commitSHA); err == nil {
		parents := strings.Fields(out)
		if len(parents) > 0 {
			parent = parents[0]
		}
	}

	original := ""
	originalLabel := "Empty"
	if parent != "" {
		originalLabel = shortSHA(parent)
		if out, err := e.git.Output(ctx, pctx.ProjectPath, "show", parent+":"+filePath); err == nil {
			original = out
		}
	}

	modified := ""
	if out, err := e.git.Output(ctx, pctx.ProjectPath, "show", commitSHA+":"+filePath); err == nil {
		modified = out
	}

	additions, deletions := diffLineCounts(original, modified)

	return &FileDiffContent{
		Path:          filePath,
		Original:      original,
		Modified:      modified,
		OriginalLabel: originalLabel,
		ModifiedLabel: shortSHA(commitSHA),
		Additions:     additions,
		Deletions:     deletions,
	}, nil
}

// parseCommitRecord splits one delimited record into a Commit, applying the
// blank-field defaults.
func parseCommitRecord(record string) *Commit {
	fields := strings.Split(record, fieldSep)
	get := func(i int) string {
		if i < len(fields) {
			return strings.TrimSpace(fields[i])
		}
		return ""
	}

	authorName := get(1)
	if authorName == "" {
		authorName = "Unknown"
	}

	parents := strings.Fields(get(4))

	return &Commit{
		SHA:             get(0),
		AuthorName:      authorName,
		AuthorEmail:     get(2),
		Date:            get(3),
		Subject:         get(5),
		ParentSHAs:      parents,
		Body:            get(6),
		IsInitialCommit: len(parents) == 0,
	}
}

// parseNameStatus parses `diff-tree --name-status` output, skipping any
// line lacking a tab.
func parseNameStatus(out string) []CommitFile {
	var files []CommitFile
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		files = append(files, CommitFile{
			Status: strings.TrimSpace(parts[0]),
			Path:   strings.TrimSpace(parts[1]),
		})
	}
	return files
}

// diffLineCounts computes added/removed line counts between the two sides.
func diffLineCounts(original, modified string) (int, int) {
	dmp := diffmatchpatch.New()
	chars1, chars2, lines := dmp.DiffLinesToChars(original, modified)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lines)

	additions, deletions := 0, 0
	for _, d := range diffs {
		count := strings.Count(d.Text, "\n")
		if count == 0 && d.Text != "" {
			count = 1
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			additions += count
		case diffmatchpatch.DiffDelete:
			deletions += count
		case diffmatchpatch.DiffEqual:
		}
	}
	return additions, deletions
}

// shortSHA abbreviates a commit sha for display labels.
func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
