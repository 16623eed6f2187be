package cli

import (
	"fmt"
	"io"

	"github.com/SimonJamesOdell/Lucid-Coder-sub006/cmd/lucid/cli/store"

	"github.com/TwiN/go-color"
)

// statusLabel renders a branch status with its conventional color.
func statusLabel(status store.BranchStatus) string {
	switch status {
	case store.BranchStatusReadyForMerge:
		return color.InGreen(string(status))
	case store.BranchStatusNeedsFix:
		return color.InRed(string(status))
	default:
		return color.InYellow(string(status))
	}
}

// runLabel renders a test run status with its conventional color.
func runLabel(status store.TestRunStatus) string {
	switch status {
	case store.TestRunPassed:
		return color.InGreen(string(status))
	case store.TestRunFailed:
		return color.InRed(string(status))
	default:
		return color.InYellow(string(status))
	}
}

// printBranchLine renders one branch in list output.
func printBranchLine(w io.Writer, b *branchView) {
	currentNote := ""
	if b.IsCurrent {
		currentNote = " (current)"
	}
	fmt.Fprintf(w, color.InBold(color.InCyan("%s%s"))+"  %s  staged:%d ahead:%d%s\n",
		b.Name, currentNote, statusLabel(b.Status), len(b.StagedFiles), b.AheadCommits, b.lastRunSuffix())
}

// branchView adapts an engine snapshot for display.
type branchView struct {
	Name         string
	Status       store.BranchStatus
	IsCurrent    bool
	AheadCommits int
	StagedFiles  []store.StagedFileEntry
	LastRun      *store.TestRunStatus
}

func (b *branchView) lastRunSuffix() string {
	if b.LastRun == nil {
		return ""
	}
	return "  tests:" + runLabel(*b.LastRun)
}
