package store

import "context"

// Store is the persistence collaborator for branch and test-run rows.
// Lookups return (nil, nil) when the row does not exist; persistence
// failures propagate unchanged, with no retry.
type Store interface {
	GetBranch(ctx context.Context, projectID, name string) (*Branch, error)
	GetBranchByID(ctx context.Context, id string) (*Branch, error)
	ListBranches(ctx context.Context, projectID string) ([]*Branch, error)
	SaveBranch(ctx context.Context, branch *Branch) error
	DeleteBranch(ctx context.Context, projectID, name string) error

	GetTestRun(ctx context.Context, id string) (*TestRun, error)
	SaveTestRun(ctx context.Context, run *TestRun) error
}
