package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/capped/internal/config"
	"github.com/hpungsan/capped/internal/note"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string
	Workspace      string
	Name           string
	IncludeDeleted bool
	IncludeBody    *bool // default: true (nil means default)
}

// NoteView is the JSON form of a note returned to callers.
type NoteView struct {
	ID            string   `json:"id"`
	Workspace     string   `json:"workspace"`
	WorkspaceNorm string   `json:"workspace_norm"`
	Name          string   `json:"name,omitempty"`
	NameNorm      *string  `json:"name_norm,omitempty"`
	Title         string   `json:"title,omitempty"`
	Body          *string  `json:"body,omitempty"`
	BodyBytes     int      `json:"body_bytes"`
	BodyChars     int      `json:"body_chars"`
	BodyCap       int      `json:"body_cap"`
	Tags          []string `json:"tags"`
	CreatedAt     int64    `json:"created_at"`
	UpdatedAt     int64    `json:"updated_at"`
	DeletedAt     *int64   `json:"deleted_at,omitempty"`
}

func viewOf(n *note.Note, includeBody bool) NoteView {
	v := NoteView{
		ID:            n.ID,
		Workspace:     n.Workspace.Inner(),
		WorkspaceNorm: n.WorkspaceNorm,
		Name:          n.Name.Inner(),
		NameNorm:      n.NameNorm,
		Title:         n.Title.Inner(),
		BodyBytes:     n.Body.Len(),
		BodyChars:     n.BodyChars(),
		BodyCap:       n.Body.Cap(),
		Tags:          n.Tags.IntoInner(),
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
		DeletedAt:     n.DeletedAt,
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	if includeBody {
		body := n.Body.Inner()
		v.Body = &body
	}
	return v
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	NoteView
	FetchKey FetchKey `json:"fetch_key"`
}

// Fetch retrieves a note by ID or name.
func Fetch(ctx context.Context, database *sql.DB, cfg *config.Config, input FetchInput) (*FetchOutput, error) {
	addr, err := ValidateAddress(input.ID, input.Workspace, input.Name)
	if err != nil {
		return nil, err
	}

	n, err := getNote(ctx, database, limitsOf(cfg), addr, input.IncludeDeleted)
	if err != nil {
		return nil, logRejection("fetch", err)
	}

	includeBody := input.IncludeBody == nil || *input.IncludeBody
	return &FetchOutput{
		NoteView: viewOf(n, includeBody),
		FetchKey: BuildFetchKey(n),
	}, nil
}
