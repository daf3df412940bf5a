package note

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/hpungsan/capped"
	"github.com/hpungsan/capped/internal/errors"
)

// Record is one line of a JSONL export. The first line of a file is a header
// with ExportHeader set and only the header fields filled in.
type Record struct {
	ExportHeader  bool   `json:"_capped_export,omitempty"`
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	ID        string               `json:"id,omitempty"`
	Workspace capped.Text          `json:"workspace"`
	Name      capped.Text          `json:"name"`
	Title     capped.Text          `json:"title"`
	Body      capped.String        `json:"body"`
	Tags      capped.Slice[string] `json:"tags"`
	CreatedAt int64                `json:"created_at,omitempty"`
	UpdatedAt int64                `json:"updated_at,omitempty"`
	DeletedAt *int64               `json:"deleted_at,omitempty"`
}

// EmptyRecord returns a record ready to be decoded into under l.
func (l Limits) EmptyRecord() *Record {
	n := l.Empty()
	return &Record{
		Workspace: n.Workspace,
		Name:      n.Name,
		Title:     n.Title,
		Body:      n.Body,
		Tags:      n.Tags,
	}
}

// DecodeRecord decodes one JSONL line under l. Fields are decoded one at a
// time so a capacity failure comes back as CAPACITY_EXCEEDED naming the
// field. The partly filled record is returned on error; id and name are
// decoded first so a failing line can still be identified.
func (l Limits) DecodeRecord(line []byte) (*Record, error) {
	rec := l.EmptyRecord()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return rec, err
	}

	keys := slices.Sorted(maps.Keys(fields))
	slices.SortStableFunc(keys, func(a, b string) int {
		return recordKeyRank(a) - recordKeyRank(b)
	})
	for _, key := range keys {
		b, err := json.Marshal(map[string]json.RawMessage{key: fields[key]})
		if err != nil {
			return rec, err
		}
		if err := json.Unmarshal(b, rec); err != nil {
			if _, ok := capped.AsCapacityError(err); ok {
				return rec, errors.FromCapacity(key, err)
			}
			return rec, err
		}
	}
	return rec, nil
}

func recordKeyRank(key string) int {
	switch key {
	case "id":
		return 0
	case "name":
		return 1
	}
	return 2
}

// ToNote converts a record to a Note, recomputing the normalized fields. A
// record without a workspace lands in DefaultWorkspace.
func (r *Record) ToNote() (*Note, error) {
	n := &Note{
		ID:        r.ID,
		Workspace: r.Workspace,
		Name:      r.Name,
		Title:     r.Title,
		Body:      r.Body,
		Tags:      r.Tags,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		DeletedAt: r.DeletedAt,
	}
	ws := r.Workspace.Inner()
	if ws == "" {
		ws = DefaultWorkspace
	}
	if err := n.SetWorkspace(ws); err != nil {
		return nil, errors.FromCapacity("workspace", err)
	}
	if !r.Name.IsEmpty() {
		norm := Normalize(r.Name.Inner())
		n.NameNorm = &norm
	}
	return n, nil
}

// ToRecord converts a Note to its export record.
func (n *Note) ToRecord() *Record {
	return &Record{
		ID:        n.ID,
		Workspace: n.Workspace,
		Name:      n.Name,
		Title:     n.Title,
		Body:      n.Body,
		Tags:      n.Tags,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		DeletedAt: n.DeletedAt,
	}
}
