package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	stderrors "errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/capped/internal/config"
	"github.com/hpungsan/capped/internal/db"
	"github.com/hpungsan/capped/internal/errors"
	"github.com/hpungsan/capped/internal/logging"
	"github.com/hpungsan/capped/internal/note"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Address represents a validated note address.
type Address struct {
	ByID      bool
	ID        string
	Workspace string // normalized, defaulted to "default" for name-mode
	Name      string // normalized
}

// ValidateAddress validates addressing parameters and returns a normalized Address.
// Exactly one addressing mode is allowed: id, or (workspace +) name.
func ValidateAddress(id, workspace, name string) (*Address, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	workspace = strings.TrimSpace(workspace)

	hasID := id != ""
	hasName := name != ""

	if hasID && (hasName || workspace != "") {
		return nil, errors.NewAmbiguousAddressing()
	}
	if !hasID && !hasName {
		return nil, errors.NewInvalidRequest("must specify either id or name")
	}

	if hasID {
		return &Address{ByID: true, ID: id}, nil
	}

	workspaceNorm := note.Normalize(workspace)
	if workspaceNorm == "" {
		workspaceNorm = note.DefaultWorkspace
	}
	return &Address{
		Workspace: workspaceNorm,
		Name:      note.Normalize(name),
	}, nil
}

// FetchKey is the stable reference for a named note; unnamed notes are
// referenced by ID.
type FetchKey struct {
	Workspace string `json:"workspace,omitempty"`
	Name      string `json:"name,omitempty"`
	ID        string `json:"id,omitempty"`
}

// BuildFetchKey returns {workspace, name} for named notes and {id} otherwise.
func BuildFetchKey(n *note.Note) FetchKey {
	if !n.Name.IsEmpty() {
		return FetchKey{Workspace: n.Workspace.Inner(), Name: n.Name.Inner()}
	}
	return FetchKey{ID: n.ID}
}

// getNote resolves addr to a note checked against limits.
func getNote(ctx context.Context, q db.Querier, limits note.Limits, addr *Address, includeDeleted bool) (*note.Note, error) {
	if addr.ByID {
		return db.GetByID(ctx, q, limits, addr.ID, includeDeleted)
	}
	return db.GetByName(ctx, q, limits, addr.Workspace, addr.Name, includeDeleted)
}

// withTx runs fn in a transaction, committing only if fn succeeds.
func withTx(ctx context.Context, database *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func limitsOf(cfg *config.Config) note.Limits {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return note.LimitsFrom(cfg)
}

// logRejection records capacity rejections at debug level and returns err.
func logRejection(op string, err error) error {
	var cErr *errors.CappedError
	if stderrors.As(err, &cErr) && cErr.Code == errors.ErrCapacityExceeded {
		logging.Logger().Debug("capacity rejected",
			zap.String("op", op),
			zap.Any("field", cErr.Details["field"]),
			zap.Any("limit", cErr.Details["limit"]),
			zap.Any("attempted", cErr.Details["attempted"]),
		)
	}
	return err
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// checkUTF8 rejects text that is not valid UTF-8. JSON export would replace
// the bad bytes, so the note could be stored but not re-imported.
func checkUTF8(field, s string) error {
	if !utf8.ValidString(s) {
		return errors.NewInvalidRequest(field + " must be valid UTF-8")
	}
	return nil
}

// checkTagsUTF8 applies checkUTF8 to each tag.
func checkTagsUTF8(tags []string) error {
	for i, tag := range tags {
		if err := checkUTF8("tags["+strconv.Itoa(i)+"]", tag); err != nil {
			return err
		}
	}
	return nil
}
