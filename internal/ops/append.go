package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/capped/internal/config"
	"github.com/hpungsan/capped/internal/db"
	"github.com/hpungsan/capped/internal/errors"
)

// AppendInput contains parameters for the Append operation.
type AppendInput struct {
	// Addressing
	ID        string
	Workspace string
	Name      string

	Content string // text to append to the body
}

// AppendOutput contains the result of the Append operation.
type AppendOutput struct {
	ID        string   `json:"id"`
	FetchKey  FetchKey `json:"fetch_key"`
	BodyBytes int      `json:"body_bytes"`
	Remaining int      `json:"remaining"`
}

// Append adds content to the end of a note's body. If the result would not
// fit the body limit the call fails with CAPACITY_EXCEEDED and the stored
// note is left exactly as it was.
func Append(ctx context.Context, database *sql.DB, cfg *config.Config, input AppendInput) (*AppendOutput, error) {
	addr, err := ValidateAddress(input.ID, input.Workspace, input.Name)
	if err != nil {
		return nil, err
	}
	if input.Content == "" {
		return nil, errors.NewInvalidRequest("content is required")
	}
	if err := checkUTF8("content", input.Content); err != nil {
		return nil, err
	}

	var out *AppendOutput
	err = withTx(ctx, database, func(tx *sql.Tx) error {
		n, err := getNote(ctx, tx, limitsOf(cfg), addr, false)
		if err != nil {
			return err
		}
		if err := n.Body.TryPush(input.Content); err != nil {
			return errors.FromCapacity("body", err)
		}
		if err := db.UpdateByID(ctx, tx, n); err != nil {
			return err
		}
		out = &AppendOutput{
			ID:        n.ID,
			FetchKey:  BuildFetchKey(n),
			BodyBytes: n.Body.Len(),
			Remaining: n.Body.Remaining(),
		}
		return nil
	})
	if err != nil {
		return nil, logRejection("append", err)
	}
	return out, nil
}
