package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/capped/internal/config"
	"github.com/hpungsan/capped/internal/db"
	"github.com/hpungsan/capped/internal/errors"
	"github.com/hpungsan/capped/internal/note"
)

// StoreMode controls collision behavior.
type StoreMode string

const (
	StoreModeError   StoreMode = "error"   // default: fail on name collision
	StoreModeReplace StoreMode = "replace" // overwrite existing
)

// StoreInput contains parameters for the Store operation.
type StoreInput struct {
	Workspace string // default: "default"
	Name      string // optional; empty stores an unnamed note
	Title     string // default: same as name
	Body      string // required
	Tags      []string
	Mode      StoreMode // default: StoreModeError
}

// StoreOutput contains the result of the Store operation.
type StoreOutput struct {
	ID        string   `json:"id"`
	FetchKey  FetchKey `json:"fetch_key"`
	Replaced  bool     `json:"replaced"`
	BodyBytes int      `json:"body_bytes"`
	Remaining int      `json:"remaining"`
}

// Store creates a note, or in replace mode overwrites the title, body and
// tags of the active note with the same name. Every field is checked against
// the configured limits; oversize input is rejected, never truncated.
func Store(ctx context.Context, database *sql.DB, cfg *config.Config, input StoreInput) (*StoreOutput, error) {
	if input.Body == "" {
		return nil, errors.NewInvalidRequest("body is required")
	}
	if input.Mode == "" {
		input.Mode = StoreModeError
	}
	if input.Mode != StoreModeError && input.Mode != StoreModeReplace {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace")
	}
	if input.Name != "" && note.Normalize(input.Name) == "" {
		return nil, errors.NewInvalidRequest("name must not be blank (omit it for unnamed notes)")
	}
	for _, f := range []struct{ name, text string }{
		{"workspace", input.Workspace},
		{"name", input.Name},
		{"title", input.Title},
		{"body", input.Body},
	} {
		if err := checkUTF8(f.name, f.text); err != nil {
			return nil, err
		}
	}
	if err := checkTagsUTF8(input.Tags); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Workspace) == "" {
		input.Workspace = note.DefaultWorkspace
	}
	if input.Title == "" {
		input.Title = input.Name
	}

	limits := limitsOf(cfg)
	n, err := limits.New(note.Fields{
		Workspace: input.Workspace,
		Name:      input.Name,
		Title:     input.Title,
		Body:      input.Body,
		Tags:      input.Tags,
	})
	if err != nil {
		return nil, logRejection("store", err)
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()
	n.ID = id
	n.CreatedAt = now
	n.UpdatedAt = now

	replaced := false
	err = withTx(ctx, database, func(tx *sql.Tx) error {
		if input.Mode == StoreModeReplace && n.NameNorm != nil {
			existing, err := db.GetByName(ctx, tx, limits, n.WorkspaceNorm, *n.NameNorm, false)
			switch {
			case err == nil:
				existing.Title = n.Title
				existing.Body = n.Body
				existing.Tags = n.Tags
				if err := db.UpdateByID(ctx, tx, existing); err != nil {
					return err
				}
				n = existing
				replaced = true
				return nil
			case !errors.Is(err, errors.ErrNotFound):
				return err
			}
		}

		if err := db.Insert(ctx, tx, n); err != nil {
			if err == db.ErrUniqueConstraint {
				return errors.NewNameAlreadyExists(input.Workspace, input.Name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &StoreOutput{
		ID:        n.ID,
		FetchKey:  BuildFetchKey(n),
		Replaced:  replaced,
		BodyBytes: n.Body.Len(),
		Remaining: n.Body.Remaining(),
	}, nil
}
