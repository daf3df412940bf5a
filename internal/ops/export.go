package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/capped/internal/config"
	"github.com/hpungsan/capped/internal/db"
	"github.com/hpungsan/capped/internal/errors"
	"github.com/hpungsan/capped/internal/logging"
	"github.com/hpungsan/capped/internal/note"
)

// ExportSchemaVersion is written to the header line of every export.
const ExportSchemaVersion = "1.0"

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path           string  // optional, default: ~/.capped/exports/<workspace>-<timestamp>.jsonl
	Workspace      *string // optional filter by workspace
	IncludeDeleted bool
}

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	CappedExport  bool   `json:"_capped_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes notes to a JSONL file: a header line followed by one record
// per note in ID order. The file is written to a temp file and renamed into
// place, so a failed export leaves any existing file untouched.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	var workspaceNorm *string
	if input.Workspace != nil && note.Normalize(*input.Workspace) != "" {
		ws := note.Normalize(*input.Workspace)
		workspaceNorm = &ws
	}

	exportPath := input.Path
	if exportPath == "" {
		var err error
		exportPath, err = defaultExportPath(workspaceNorm, now)
		if err != nil {
			return nil, err
		}
	}
	// Default paths are validated too; the workspace is part of the file name.
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	w := bufio.NewWriter(file)
	writeLine := func(v any) error {
		line, err := json.Marshal(v)
		if err != nil {
			return errors.NewInternal(err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return errors.NewInternal(err)
		}
		return nil
	}

	header := ExportHeader{
		CappedExport:  true,
		SchemaVersion: ExportSchemaVersion,
		ExportedAt:    now.Unix(),
	}
	if err := writeLine(header); err != nil {
		return nil, err
	}

	count := 0
	err = db.ForEach(ctx, database, limitsOf(cfg), workspaceNorm, input.IncludeDeleted, func(n *note.Note) error {
		if err := writeLine(n.ToRecord()); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := w.Flush(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink at the destination.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("path must not be a symlink")
	}

	// On Windows, Rename fails when the destination exists; the existing file
	// is kept rather than risking a non-atomic delete and rename.
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows (choose a new path or delete the existing file)")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}
	success = true

	logging.Logger().Info("export written",
		zap.String("path", exportPath),
		zap.Int("count", count),
	)
	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: now.Unix(),
	}, nil
}

// defaultExportPath returns ~/.capped/exports/<workspace>-<timestamp>.jsonl,
// using "all" when no workspace filter is set.
func defaultExportPath(workspaceNorm *string, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	name := "all"
	if workspaceNorm != nil {
		name = SanitizeForFilename(*workspaceNorm)
	}
	filename := fmt.Sprintf("%s-%s.jsonl", name, now.Format("2006-01-02T150405"))
	return filepath.Join(dir, filename), nil
}
