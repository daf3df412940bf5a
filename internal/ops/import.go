package ops

import (
	"bufio"
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/capped/internal/config"
	"github.com/hpungsan/capped/internal/db"
	"github.com/hpungsan/capped/internal/errors"
	"github.com/hpungsan/capped/internal/logging"
	"github.com/hpungsan/capped/internal/note"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // default: fail on ID or name collision
	ImportModeReplace ImportMode = "replace" // overwrite the colliding note
	ImportModeRename  ImportMode = "rename"  // new ID and suffixed name on collision
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation. Imports are all
// or nothing: when Errors is non-empty, Imported is 0 and nothing was written.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes why one line of an import file was rejected.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errImportAborted rolls back the import transaction after a collision.
var errImportAborted = stderrors.New("import aborted")

type parsedRecord struct {
	line int
	note *note.Note
}

// Import reads a JSONL export file. Every record is decoded with the
// configured limits, so an oversize field rejects the file before anything
// is written.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace && input.Mode != ImportModeRename {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, rename")
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if stderrors.As(err, new(*errors.CappedError)) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	limits := limitsOf(cfg)
	records, parseErrors := parseExportFile(file, limits)
	if len(parseErrors) > 0 {
		return &ImportOutput{Errors: parseErrors}, nil
	}

	imported := 0
	var importErr *ImportError
	err = withTx(ctx, database, func(tx *sql.Tx) error {
		for _, rec := range records {
			if ctx.Err() != nil {
				return errors.NewCancelled("import")
			}
			ie, err := importRecord(ctx, tx, input.Mode, rec)
			if err != nil {
				return err
			}
			if ie != nil {
				importErr = ie
				return errImportAborted
			}
			imported++
		}
		return nil
	})
	if err == errImportAborted {
		return &ImportOutput{Errors: []ImportError{*importErr}}, nil
	}
	if err != nil {
		return nil, err
	}

	logging.Logger().Info("import complete",
		zap.String("path", input.Path),
		zap.String("mode", string(input.Mode)),
		zap.Int("imported", imported),
	)
	return &ImportOutput{Imported: imported, Errors: []ImportError{}}, nil
}

// parseExportFile decodes every line of r. Header lines are skipped; all
// other lines must be complete records within limits.
func parseExportFile(r io.Reader, limits note.Limits) ([]parsedRecord, []ImportError) {
	var (
		records     []parsedRecord
		parseErrors []ImportError
	)

	scanner := bufio.NewScanner(r)
	// A JSON-escaped body can be up to six times its raw size.
	scanner.Buffer(make([]byte, 0, 64*1024), max(1<<20, limits.Body*6+64*1024))

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		rec, err := limits.DecodeRecord(line)
		if err != nil {
			parseErrors = append(parseErrors, lineError(lineNum, rec, err))
			continue
		}
		if rec.ExportHeader {
			continue
		}
		if rec.ID == "" {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "INVALID_RECORD",
				Message: "missing id field",
			})
			continue
		}
		if rec.Body.IsEmpty() {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				ID:      rec.ID,
				Code:    "INVALID_RECORD",
				Message: "missing body field",
			})
			continue
		}

		n, err := rec.ToNote()
		if err == nil {
			err = limits.Check(n)
		}
		if err != nil {
			parseErrors = append(parseErrors, lineError(lineNum, rec, err))
			continue
		}
		now := time.Now().Unix()
		if n.CreatedAt == 0 {
			n.CreatedAt = now
		}
		if n.UpdatedAt == 0 {
			n.UpdatedAt = n.CreatedAt
		}
		records = append(records, parsedRecord{line: lineNum, note: n})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum + 1,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}
	return records, parseErrors
}

// lineError classifies a decode failure. Coded errors, capacity violations
// among them, keep their code and message; anything else is malformed JSON.
func lineError(line int, rec *note.Record, err error) ImportError {
	ie := ImportError{Line: line, ID: rec.ID, Name: rec.Name.Inner()}
	var cErr *errors.CappedError
	if stderrors.As(err, &cErr) {
		ie.Code = string(cErr.Code)
		ie.Message = cErr.Message
		return ie
	}
	ie.Code = "PARSE_ERROR"
	ie.Message = fmt.Sprintf("invalid JSON: %v", err)
	return ie
}

// importRecord writes one record inside the import transaction. A collision
// that the mode cannot resolve is returned as an ImportError.
func importRecord(ctx context.Context, tx *sql.Tx, mode ImportMode, rec parsedRecord) (*ImportError, error) {
	n := rec.note
	name := n.Name.Inner()
	collision := func(code, msg string) *ImportError {
		return &ImportError{Line: rec.line, ID: n.ID, Name: name, Code: code, Message: msg}
	}

	idExists, err := db.IDExists(ctx, tx, n.ID)
	if err != nil {
		return nil, err
	}
	var nameOwner string
	if n.NameNorm != nil {
		nameOwner, err = db.GetIDByName(ctx, tx, n.WorkspaceNorm, *n.NameNorm)
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
	}

	switch mode {
	case ImportModeError:
		if idExists {
			return collision("ID_COLLISION", fmt.Sprintf("note with id %q already exists", n.ID)), nil
		}
		if nameOwner != "" {
			return collision("NAME_COLLISION",
				fmt.Sprintf("note with name %q already exists in workspace %q", name, n.Workspace.Inner())), nil
		}

	case ImportModeReplace:
		if idExists && nameOwner != "" && nameOwner != n.ID {
			return collision("AMBIGUOUS_COLLISION",
				fmt.Sprintf("id %q matches an existing note but name %q matches a different one", n.ID, name)), nil
		}
		if !idExists && nameOwner != "" {
			n.ID = nameOwner
			idExists = true
		}
		if idExists {
			err := db.UpdateFull(ctx, tx, n)
			if err == db.ErrUniqueConstraint {
				return collision("NAME_COLLISION",
					fmt.Sprintf("name %q is already used by another note in workspace %q", name, n.Workspace.Inner())), nil
			}
			return nil, err
		}

	case ImportModeRename:
		if idExists {
			id, err := generateULID()
			if err != nil {
				return nil, errors.NewInternal(err)
			}
			n.ID = id
		}
		if nameOwner != "" {
			newName, err := db.FindUniqueName(ctx, tx, n.WorkspaceNorm, name)
			if err == nil {
				err = errors.FromCapacity("name", n.SetName(newName))
			}
			if err != nil {
				return collision("RENAME_FAILED", fmt.Sprintf("failed to rename %q: %v", name, err)), nil
			}
		}
	}

	if err := db.Insert(ctx, tx, n); err != nil {
		if err == db.ErrUniqueConstraint {
			return collision("NAME_COLLISION",
				fmt.Sprintf("note %q collides with an earlier record in the same file", n.ID)), nil
		}
		return nil, err
	}
	return nil, nil
}
