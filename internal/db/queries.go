package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/capped"
	"github.com/hpungsan/capped/internal/config"
	"github.com/hpungsan/capped/internal/errors"
	"github.com/hpungsan/capped/internal/note"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.CappedError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// maxRenameAttempts bounds the suffix search in FindUniqueName.
const maxRenameAttempts = 100

const noteColumns = `
	id, workspace_raw, workspace_norm, name_raw, name_norm,
	title, body, tags_json, created_at, updated_at, deleted_at`

// Insert stores a new note, keeping its timestamps and deleted_at as given.
func Insert(ctx context.Context, q Querier, n *note.Note) error {
	query := `
		INSERT INTO notes (
			id, workspace_raw, workspace_norm, name_raw, name_norm,
			title, body, body_bytes, body_chars, tags_json,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		n.ID, n.Workspace, n.WorkspaceNorm, nullText(n.Name), toNullString(n.NameNorm),
		nullText(n.Title), n.Body, n.Body.Len(), n.BodyChars(), nullTags(n.Tags),
		n.CreatedAt, n.UpdatedAt, toNullInt64(n.DeletedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves a note by its ULID, checking every field against limits.
// If includeDeleted is false, soft-deleted notes are excluded.
func GetByID(ctx context.Context, q Querier, limits note.Limits, id string, includeDeleted bool) (*note.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	n, err := scanNote(q.QueryRowContext(ctx, query, id), limits)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// GetByName retrieves a note by normalized workspace and name.
// If includeDeleted is false, soft-deleted notes are excluded.
func GetByName(ctx context.Context, q Querier, limits note.Limits, workspaceNorm, nameNorm string, includeDeleted bool) (*note.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE workspace_norm = ? AND name_norm = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	} else {
		// Prefer the active note; otherwise the most recently updated deleted one.
		query += " ORDER BY (deleted_at IS NULL) DESC, updated_at DESC LIMIT 1"
	}

	n, err := scanNote(q.QueryRowContext(ctx, query, workspaceNorm, nameNorm), limits)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(nameNorm)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// GetIDByName returns the ID of the active note with the given name without
// loading its capped fields.
func GetIDByName(ctx context.Context, q Querier, workspaceNorm, nameNorm string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx,
		`SELECT id FROM notes WHERE workspace_norm = ? AND name_norm = ? AND deleted_at IS NULL`,
		workspaceNorm, nameNorm,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", errors.NewNotFound(nameNorm)
	}
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return id, nil
}

// IDExists reports whether a note with id exists, deleted or not.
func IDExists(ctx context.Context, q Querier, id string) (bool, error) {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM notes WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// CheckNameExists checks if an active note with the given name exists.
func CheckNameExists(ctx context.Context, q Querier, workspaceNorm, nameNorm string) (bool, error) {
	query := `
		SELECT 1 FROM notes
		WHERE workspace_norm = ? AND name_norm = ? AND deleted_at IS NULL
		LIMIT 1
	`

	var exists int
	err := q.QueryRowContext(ctx, query, workspaceNorm, nameNorm).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// FindUniqueName returns the first of base-2, base-3, ... that no active
// note in the workspace uses.
func FindUniqueName(ctx context.Context, q Querier, workspaceNorm, base string) (string, error) {
	for i := 2; i < maxRenameAttempts+2; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		exists, err := CheckNameExists(ctx, q, workspaceNorm, note.Normalize(candidate))
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name after %d attempts", maxRenameAttempts)
}

// UpdateByID writes the mutable fields (title, body, tags) of an active note
// and sets updated_at to now. Workspace and name are not changed.
func UpdateByID(ctx context.Context, q Querier, n *note.Note) error {
	now := time.Now().Unix()

	query := `
		UPDATE notes
		SET title = ?, body = ?, body_bytes = ?, body_chars = ?, tags_json = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := q.ExecContext(ctx, query,
		nullText(n.Title), n.Body, n.Body.Len(), n.BodyChars(), nullTags(n.Tags), now,
		n.ID,
	)
	if err := checkAffected(result, err, n.ID); err != nil {
		return err
	}

	n.UpdatedAt = now
	return nil
}

// UpdateFull overwrites every stored field of the note with the same ID,
// including deleted rows. Used by import in replace mode.
func UpdateFull(ctx context.Context, q Querier, n *note.Note) error {
	query := `
		UPDATE notes
		SET workspace_raw = ?, workspace_norm = ?, name_raw = ?, name_norm = ?,
			title = ?, body = ?, body_bytes = ?, body_chars = ?, tags_json = ?,
			created_at = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?
	`

	result, err := q.ExecContext(ctx, query,
		n.Workspace, n.WorkspaceNorm, nullText(n.Name), toNullString(n.NameNorm),
		nullText(n.Title), n.Body, n.Body.Len(), n.BodyChars(), nullTags(n.Tags),
		n.CreatedAt, n.UpdatedAt, toNullInt64(n.DeletedAt),
		n.ID,
	)
	if err != nil && isUniqueConstraintError(err) {
		return ErrUniqueConstraint
	}
	return checkAffected(result, err, n.ID)
}

// SoftDelete marks a note as deleted by setting deleted_at.
func SoftDelete(ctx context.Context, q Querier, id string) error {
	query := `UPDATE notes SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	result, err := q.ExecContext(ctx, query, time.Now().Unix(), id)
	return checkAffected(result, err, id)
}

func checkAffected(result sql.Result, err error, id string) error {
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// ListByWorkspace returns summaries for a workspace, most recently updated
// first, along with the total count ignoring pagination.
func ListByWorkspace(ctx context.Context, q Querier, workspaceNorm string, limit, offset int, includeDeleted bool) ([]note.Summary, int, error) {
	where := "WHERE workspace_norm = ?"
	if !includeDeleted {
		where += " AND deleted_at IS NULL"
	}

	var total int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes "+where, workspaceNorm).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT id, workspace_raw, workspace_norm, name_raw, title,
			body_bytes, body_chars, tags_json, created_at, updated_at, deleted_at
		FROM notes ` + where + `
		ORDER BY updated_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := q.QueryContext(ctx, query, workspaceNorm, limit, offset)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var summaries []note.Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return summaries, total, nil
}

// ForEach streams full notes in ID order to fn, checking each row against
// limits. A nil workspaceNorm selects every workspace. Iteration stops at the
// first error from the row scan, fn, or ctx.
func ForEach(ctx context.Context, q Querier, limits note.Limits, workspaceNorm *string, includeDeleted bool, fn func(*note.Note) error) error {
	var (
		conds []string
		args  []any
	)
	if workspaceNorm != nil {
		conds = append(conds, "workspace_norm = ?")
		args = append(args, *workspaceNorm)
	}
	if !includeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	query := `SELECT ` + noteColumns + ` FROM notes`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return errors.NewCancelled("export")
		}
		n, err := scanNote(rows, limits)
		if err != nil {
			return err
		}
		if err := fn(n); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// fieldScanner names the capped field a column decodes into, so a stored
// value over the current limit reports which field it was.
type fieldScanner struct {
	field string
	dst   sql.Scanner
}

func (f fieldScanner) Scan(src any) error {
	return errors.FromCapacity(f.field, f.dst.Scan(src))
}

// scanNote scans a row selected with noteColumns into a note whose capped
// fields carry limits. Stored values are never truncated: an oversize column
// fails the scan with CAPACITY_EXCEEDED.
func scanNote(row rowScanner, limits note.Limits) (*note.Note, error) {
	n := limits.Empty()
	var (
		nameNorm  sql.NullString
		deletedAt sql.NullInt64
	)

	err := row.Scan(
		&n.ID,
		fieldScanner{"workspace", &n.Workspace},
		&n.WorkspaceNorm,
		fieldScanner{"name", &n.Name},
		&nameNorm,
		fieldScanner{"title", &n.Title},
		fieldScanner{"body", &n.Body},
		fieldScanner{"tags", &n.Tags},
		&n.CreatedAt, &n.UpdatedAt, &deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		var cErr *errors.CappedError
		if stderrors.As(err, &cErr) {
			return nil, cErr
		}
		return nil, errors.NewInternal(err)
	}
	if err := limits.Check(n); err != nil {
		return nil, err
	}

	n.NameNorm = fromNullString(nameNorm)
	if deletedAt.Valid {
		n.DeletedAt = &deletedAt.Int64
	}
	return n, nil
}

// scanSummary scans a summary row. Summaries are plain values, so listing
// works even for rows stored under looser limits.
func scanSummary(row rowScanner) (note.Summary, error) {
	var (
		s         note.Summary
		nameRaw   sql.NullString
		title     sql.NullString
		tags      = capped.EmptySlice[string](config.MaxTagsMax)
		deletedAt sql.NullInt64
	)
	err := row.Scan(
		&s.ID, &s.Workspace, &s.WorkspaceNorm, &nameRaw, &title,
		&s.BodyBytes, &s.BodyChars, &tags, &s.CreatedAt, &s.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return s, err
	}
	s.Name = fromNullString(nameRaw)
	s.Title = title.String
	s.Tags = tags.IntoInner()
	if deletedAt.Valid {
		s.DeletedAt = &deletedAt.Int64
	}
	return s, nil
}

// nullText stores an empty capped text as NULL.
func nullText(v capped.Text) any {
	if v.IsEmpty() {
		return nil
	}
	return v
}

// nullTags stores an empty tag list as NULL instead of JSON "null" or "[]".
func nullTags(v capped.Slice[string]) any {
	if v.IsEmpty() {
		return nil
	}
	return v
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
