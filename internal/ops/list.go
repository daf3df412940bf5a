package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/capped/internal/db"
	"github.com/hpungsan/capped/internal/note"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Workspace      string // defaults to "default"
	Limit          int    // default: 20, max: 100
	Offset         int    // default: 0
	IncludeDeleted bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []note.Summary `json:"items"`
	Pagination Pagination     `json:"pagination"`
	Sort       string         `json:"sort"`
}

// List retrieves note summaries for a workspace with pagination.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	// Normalize workspace
	workspace := note.Normalize(input.Workspace)
	if workspace == "" {
		workspace = note.DefaultWorkspace
	}

	// Apply pagination defaults and bounds
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	offset := max(input.Offset, 0)

	summaries, total, err := db.ListByWorkspace(ctx, database, workspace, limit, offset, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	// Encode as [] rather than null
	if summaries == nil {
		summaries = []note.Summary{}
	}

	return &ListOutput{
		Items: summaries,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(summaries) < total,
			Total:   total,
		},
		Sort: "updated_at_desc",
	}, nil
}
