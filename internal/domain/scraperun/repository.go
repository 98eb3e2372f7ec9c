package scraperun

import "context"

type Repository interface {
	Insert(ctx context.Context, run Run) error
	// ListRecent returns up to limit runs, newest first.
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}
