package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/gitx"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/logging"
	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/store"

	"github.com/samber/lo"
)

// CommitOptions configures a CommitBranchChanges call.
type CommitOptions struct {
	// Message overrides the template/default commit message when non-blank.
	Message string
}

// CommitResult reports a completed commit. SHA values are nil when git
// could not provide them.
type CommitResult struct {
	Branch    *BranchSnapshot `json:"branch"`
	Message   string          `json:"message"`
	FileCount int             `json:"fileCount"`
	SHA       *string         `json:"sha"`
	ShortSHA  *string         `json:"shortSha"`
}

// templateToken matches {summary}-style tokens, case-insensitively.
var templateToken = regexp.MustCompile(`\{[a-zA-Z]+\}`)

// CommitBranchChanges commits a branch's staged files. The git commit is
// load-bearing here: its failure fails the whole call.
func (e *Engine) CommitBranchChanges(ctx context.Context, projectID, branchName string, opts CommitOptions) (*CommitResult, error) {
	if strings.TrimSpace(branchName) == "" {
		return nil, NewValidationError("branchName is required")
	}
	if branchName == MainBranchName {
		return nil, NewValidationError("Cannot commit directly to the main branch")
	}
	ctx = logging.WithProject(ctx, projectID)
	ctx = logging.WithBranch(ctx, branchName)

	branch, err := e.store.GetBranch(ctx, projectID, branchName)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, NewNotFoundError(branchNotFoundMessage(branchName))
	}
	if len(branch.StagedFiles) == 0 {
		return nil, NewValidationError("No staged changes")
	}

	fileCount := len(branch.StagedFiles)
	summary := summarizeStagedFiles(branch.StagedFiles)
	message := e.resolveCommitMessage(projectID, branch.Name, summary, fileCount, opts.Message)

	pctx := e.projects.Context(ctx, projectID)
	var sha, shortSHA *string
	if pctx.GitReady {
		gitx.Advise(ctx, e.git, pctx.ProjectPath, "add", "-A")
		if _, err := e.git.Output(ctx, pctx.ProjectPath, "commit", "-m", message); err != nil {
			return nil, NewInternalError("Git commit failed: " + err.Error())
		}
		sha, shortSHA = e.headSHA(ctx, pctx.ProjectPath)

		// A commit that turns out to be style-only can go straight to the
		// reduced-verification merge path.
		if styleOnly, err := e.isStyleOnlyDiff(ctx, projectID, branch); err == nil && styleOnly {
			branch.Status = store.BranchStatusReadyForMerge
		}
	}

	branch.StagedFiles = []store.StagedFileEntry{}
	branch.AheadCommits = nextAheadCount(branch.AheadCommits)
	branch.UpdatedAt = e.clock.Now()
	if err := e.store.SaveBranch(ctx, branch); err != nil {
		return nil, err
	}

	logging.Info(ctx, "branch changes committed",
		slog.Int("file_count", fileCount),
		slog.String("message", message),
	)
	return &CommitResult{
		Branch:    e.snapshot(ctx, branch),
		Message:   message,
		FileCount: fileCount,
		SHA:       sha,
		ShortSHA:  shortSHA,
	}, nil
}

// nextAheadCount increments the drift counter with a floor at 1, absorbing
// corrupted, zero, or negative stored values.
func nextAheadCount(current int) int {
	next := current + 1
	if next < 1 {
		return 1
	}
	return next
}

// headSHA reads HEAD after a commit. Both values are nil when git cannot
// provide a usable sha.
func (e *Engine) headSHA(ctx context.Context, dir string) (*string, *string) {
	out, err := e.git.Output(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return nil, nil
	}
	full := strings.TrimSpace(out)
	if full == "" {
		return nil, nil
	}
	short := full
	if len(short) > 7 {
		short = short[:7]
	}
	return &full, &short
}

// resolveCommitMessage picks the commit message: explicit override first,
// then the rendered template when enabled and non-empty, then the default.
func (e *Engine) resolveCommitMessage(projectID, branchName, summary string, fileCount int, override string) string {
	if strings.TrimSpace(override) != "" {
		return strings.TrimSpace(override)
	}

	gitSettings := e.settings.Resolve(projectID)
	if gitSettings.UseCommitTemplate && gitSettings.CommitTemplate != "" {
		rendered := RenderCommitTemplate(gitSettings.CommitTemplate, TemplateData{
			Summary:    summary,
			BranchName: branchName,
			FileCount:  fileCount,
		})
		if strings.TrimSpace(rendered) != "" {
			return rendered
		}
	}

	return fmt.Sprintf("chore(%s): update %s", branchName, summary)
}

// TemplateData feeds RenderCommitTemplate.
type TemplateData struct {
	Summary    string
	BranchName string
	FileCount  int
}

// RenderCommitTemplate substitutes {summary}, {branch}, {branchName} and
// {fileCount} tokens, case-insensitively. Unknown tokens are left verbatim.
func RenderCommitTemplate(template string, data TemplateData) string {
	return templateToken.ReplaceAllStringFunc(template, func(token string) string {
		name := strings.ToLower(strings.Trim(token, "{}"))
		switch name {
		case "summary":
			return data.Summary
		case "branch", "branchname":
			return data.BranchName
		case "filecount":
			return strconv.Itoa(data.FileCount)
		default:
			return token
		}
	})
}

// summarizeStagedFiles renders a short human summary of the staged set:
// up to three file basenames, then a remainder count.
func summarizeStagedFiles(entries []store.StagedFileEntry) string {
	names := lo.Map(entries, func(entry store.StagedFileEntry, _ int) string {
		return filepath.Base(entry.Path)
	})
	if len(names) <= 3 {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(names[:3], ", "), len(names)-3)
}
