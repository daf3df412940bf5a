package note

// Summary is a note's metadata without the body. Used by list operations.
type Summary struct {
	ID            string   `json:"id"`
	Workspace     string   `json:"workspace"`
	WorkspaceNorm string   `json:"workspace_norm"`
	Name          *string  `json:"name,omitempty"`
	Title         string   `json:"title,omitempty"`
	BodyBytes     int      `json:"body_bytes"`
	BodyChars     int      `json:"body_chars"`
	Tags          []string `json:"tags,omitempty"`
	CreatedAt     int64    `json:"created_at"`
	UpdatedAt     int64    `json:"updated_at"`
	DeletedAt     *int64   `json:"deleted_at,omitempty"`
}

// ToSummary converts a Note to a Summary by stripping the body.
func (n *Note) ToSummary() Summary {
	s := Summary{
		ID:            n.ID,
		Workspace:     n.Workspace.Inner(),
		WorkspaceNorm: n.WorkspaceNorm,
		Title:         n.Title.Inner(),
		BodyBytes:     n.Body.Len(),
		BodyChars:     n.BodyChars(),
		Tags:          n.Tags.Inner(),
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
		DeletedAt:     n.DeletedAt,
	}
	if !n.Name.IsEmpty() {
		name := n.Name.Inner()
		s.Name = &name
	}
	return s
}
