package note

import (
	"fmt"

	"github.com/hpungsan/capped"
	"github.com/hpungsan/capped/internal/config"
	"github.com/hpungsan/capped/internal/errors"
)

// Limits are the per-field capacities applied to every note.
type Limits struct {
	Name  int // characters, also used for workspaces
	Title int // characters
	Body  int // bytes
	Tags  int // tag count
	Tag   int // characters per tag
}

// LimitsFrom reads the note limits out of cfg.
func LimitsFrom(cfg *config.Config) Limits {
	return Limits{
		Name:  cfg.NameMaxChars,
		Title: cfg.TitleMaxChars,
		Body:  cfg.BodyMaxBytes,
		Tags:  cfg.TagsMax,
		Tag:   cfg.TagMaxChars,
	}
}

// Empty returns a note whose fields are empty and carry the limits. Decoding
// into it (from JSON or a database row) checks each field against l.
func (l Limits) Empty() *Note {
	return &Note{
		Workspace: capped.EmptyText(l.Name),
		Name:      capped.EmptyText(l.Name),
		Title:     capped.EmptyText(l.Title),
		Body:      capped.EmptyString(l.Body),
		Tags:      capped.EmptySlice[string](l.Tags),
	}
}

// Fields is the unchecked user input for a note.
type Fields struct {
	Workspace string
	Name      string
	Title     string
	Body      string
	Tags      []string
}

// New builds a note from f. An oversize field fails with CAPACITY_EXCEEDED
// naming the field; nothing is truncated.
func (l Limits) New(f Fields) (*Note, error) {
	n := l.Empty()
	ws := f.Workspace
	if ws == "" {
		ws = DefaultWorkspace
	}
	if err := n.SetWorkspace(ws); err != nil {
		return nil, errors.FromCapacity("workspace", err)
	}
	if err := n.SetName(f.Name); err != nil {
		return nil, errors.FromCapacity("name", err)
	}
	if err := n.Title.TrySet(f.Title); err != nil {
		return nil, errors.FromCapacity("title", err)
	}
	if err := n.Body.TrySet(f.Body); err != nil {
		return nil, errors.FromCapacity("body", err)
	}
	tags, err := l.NewTags(f.Tags)
	if err != nil {
		return nil, err
	}
	n.Tags = tags
	return n, nil
}

// NewTags checks both the tag count and each tag's length.
func (l Limits) NewTags(tags []string) (capped.Slice[string], error) {
	if err := l.CheckTags(tags); err != nil {
		return capped.EmptySlice[string](l.Tags), err
	}
	s, err := capped.TrySlice(tags, l.Tags)
	return s, errors.FromCapacity("tags", err)
}

// CheckTags checks each tag against the per-tag limit.
func (l Limits) CheckTags(tags []string) error {
	for i, tag := range tags {
		if _, err := capped.TryText(tag, l.Tag); err != nil {
			return errors.FromCapacity(fmt.Sprintf("tags[%d]", i), err)
		}
	}
	return nil
}

// Check re-validates a note decoded elsewhere, covering the per-tag limit
// that the slice capacity alone cannot express.
func (l Limits) Check(n *Note) error {
	return l.CheckTags(n.Tags.Inner())
}
