// Package note defines the bounded note entity. Every user-supplied field is
// a capped value, so a Note in memory never exceeds the configured limits.
package note

import (
	"github.com/hpungsan/capped"
)

// Note is a named, tagged text entry scoped to a workspace.
type Note struct {
	// ID is a ULID that uniquely identifies this note
	ID string

	// Workspace is the workspace as provided by the user
	Workspace capped.Text

	// WorkspaceNorm is the normalized workspace used for lookups
	WorkspaceNorm string

	// Name is the optional name as provided by the user; empty means unnamed
	Name capped.Text

	// NameNorm is the normalized name, nil for unnamed notes
	NameNorm *string

	Title capped.Text

	// Body is the note content, bounded in UTF-8 bytes
	Body capped.String

	Tags capped.Slice[string]

	// CreatedAt is the Unix timestamp when the note was created
	CreatedAt int64

	// UpdatedAt is the Unix timestamp when the note was last updated
	UpdatedAt int64

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64
}

// BodyChars returns the body length in characters.
func (n *Note) BodyChars() int {
	return CountChars(n.Body.Inner())
}

// SetName replaces the name and keeps NameNorm in step with it.
func (n *Note) SetName(name string) error {
	if err := n.Name.TrySet(name); err != nil {
		return err
	}
	n.NameNorm = nil
	if name != "" {
		norm := Normalize(name)
		n.NameNorm = &norm
	}
	return nil
}

// SetWorkspace replaces the workspace and recomputes WorkspaceNorm.
func (n *Note) SetWorkspace(ws string) error {
	if err := n.Workspace.TrySet(ws); err != nil {
		return err
	}
	n.WorkspaceNorm = Normalize(ws)
	return nil
}
