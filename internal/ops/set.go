package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/capped/internal/config"
	"github.com/hpungsan/capped/internal/db"
	"github.com/hpungsan/capped/internal/errors"
)

// SetInput contains parameters for the Set operation.
type SetInput struct {
	// Addressing
	ID        string
	Workspace string
	Name      string

	// Editable fields (nil = don't change)
	Body  *string
	Title *string
	Tags  *[]string
}

// SetOutput contains the result of the Set operation.
type SetOutput struct {
	ID        string   `json:"id"`
	FetchKey  FetchKey `json:"fetch_key"`
	BodyBytes int      `json:"body_bytes"`
	Remaining int      `json:"remaining"`
}

// Set replaces one or more fields of an existing note. All new values are
// checked before anything is written; one oversize field rejects the whole
// call.
func Set(ctx context.Context, database *sql.DB, cfg *config.Config, input SetInput) (*SetOutput, error) {
	addr, err := ValidateAddress(input.ID, input.Workspace, input.Name)
	if err != nil {
		return nil, err
	}
	if input.Body == nil && input.Title == nil && input.Tags == nil {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}
	if input.Body != nil && *input.Body == "" {
		return nil, errors.NewInvalidRequest("body must not be empty")
	}
	if input.Body != nil {
		if err := checkUTF8("body", *input.Body); err != nil {
			return nil, err
		}
	}
	if input.Title != nil {
		if err := checkUTF8("title", *input.Title); err != nil {
			return nil, err
		}
	}
	if input.Tags != nil {
		if err := checkTagsUTF8(*input.Tags); err != nil {
			return nil, err
		}
	}

	limits := limitsOf(cfg)
	var out *SetOutput
	err = withTx(ctx, database, func(tx *sql.Tx) error {
		n, err := getNote(ctx, tx, limits, addr, false)
		if err != nil {
			return err
		}
		if input.Body != nil {
			if err := n.Body.TrySet(*input.Body); err != nil {
				return errors.FromCapacity("body", err)
			}
		}
		if input.Title != nil {
			if err := n.Title.TrySet(*input.Title); err != nil {
				return errors.FromCapacity("title", err)
			}
		}
		if input.Tags != nil {
			tags, err := limits.NewTags(*input.Tags)
			if err != nil {
				return err
			}
			n.Tags = tags
		}
		if err := db.UpdateByID(ctx, tx, n); err != nil {
			return err
		}
		out = &SetOutput{
			ID:        n.ID,
			FetchKey:  BuildFetchKey(n),
			BodyBytes: n.Body.Len(),
			Remaining: n.Body.Remaining(),
		}
		return nil
	})
	if err != nil {
		return nil, logRejection("set", err)
	}
	return out, nil
}
