package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/capped/internal/db"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID        string
	Workspace string
	Name      string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete soft-deletes a note.
func Delete(ctx context.Context, database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	// Validate address
	addr, err := ValidateAddress(input.ID, input.Workspace, input.Name)
	if err != nil {
		return nil, err
	}

	id := addr.ID
	if !addr.ByID {
		// Deleting must work even for a note stored under looser limits.
		id, err = db.GetIDByName(ctx, database, addr.Workspace, addr.Name)
		if err != nil {
			return nil, err
		}
	}

	// Soft delete: rows stay for include_deleted and export
	if err := db.SoftDelete(ctx, database, id); err != nil {
		return nil, err
	}
	return &DeleteOutput{Deleted: true, ID: id}, nil
}
