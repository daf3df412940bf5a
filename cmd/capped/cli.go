package main

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/capped"
	"github.com/hpungsan/capped/internal/config"
	"github.com/hpungsan/capped/internal/errors"
	"github.com/hpungsan/capped/internal/ops"
)

// maxTextBytes bounds stdin for check and truncate, which store nothing.
const maxTextBytes = 16 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	app := &cli.App{
		Name:    "capped",
		Usage:   "Local bounded-note store",
		Version: Version,
		Commands: []*cli.Command{
			storeCmd(db, cfg),
			fetchCmd(db, cfg),
			appendCmd(db, cfg),
			setCmd(db, cfg),
			listCmd(db),
			deleteCmd(db),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			checkCmd(),
			truncateCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addressFlags are shared by commands that take [id] or --workspace/--name.
func addressFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Value: "default", Usage: "Workspace name"},
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Note name"},
	}, extra...)
}

// address returns id, workspace and name; a positional id wins over flags.
func address(c *cli.Context) (id, workspace, name string) {
	if c.NArg() > 0 {
		return c.Args().First(), "", ""
	}
	return "", c.String("workspace"), c.String("name")
}

// storeCmd creates the store command.
func storeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Store a note (reads the body from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Value: "default", Usage: "Workspace name"},
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Note name (optional)"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Note title (defaults to name)"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("body must be piped via stdin"))
			}
			body, err := readStdin("body", cfg.BodyMaxBytes)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Store(c.Context, db, cfg, ops.StoreInput{
				Workspace: c.String("workspace"),
				Name:      c.String("name"),
				Title:     c.String("title"),
				Body:      body,
				Tags:      parseTags(c.String("tags")),
				Mode:      ops.StoreMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a note by ID or name",
		ArgsUsage: "[id]",
		Flags: addressFlags(
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted notes"},
			&cli.BoolFlag{Name: "no-body", Usage: "Exclude the body from output"},
		),
		Action: func(c *cli.Context) error {
			input := ops.FetchInput{IncludeDeleted: c.Bool("include-deleted")}
			input.ID, input.Workspace, input.Name = address(c)
			if c.Bool("no-body") {
				includeBody := false
				input.IncludeBody = &includeBody
			}

			output, err := ops.Fetch(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// appendCmd creates the append command.
func appendCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "append",
		Usage:     "Append text to a note's body (--content or stdin)",
		ArgsUsage: "[id]",
		Flags: addressFlags(
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "Text to append"},
		),
		Action: func(c *cli.Context) error {
			input := ops.AppendInput{Content: c.String("content")}
			input.ID, input.Workspace, input.Name = address(c)

			if !c.IsSet("content") {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("content must be given with --content or piped via stdin"))
				}
				content, err := readStdin("content", cfg.BodyMaxBytes)
				if err != nil {
					return outputError(err)
				}
				input.Content = content
			}

			output, err := ops.Append(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// setCmd creates the set command.
func setCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Replace fields of a note (optionally reads the body from stdin)",
		ArgsUsage: "[id]",
		Flags: addressFlags(
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "tags", Usage: "New comma-separated tags"},
		),
		Action: func(c *cli.Context) error {
			var input ops.SetInput
			input.ID, input.Workspace, input.Name = address(c)

			if stdinHasData() {
				body, err := readStdin("body", cfg.BodyMaxBytes)
				if err != nil {
					return outputError(err)
				}
				if body != "" {
					input.Body = &body
				}
			}
			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}
			if c.IsSet("tags") {
				tags := parseTags(c.String("tags"))
				input.Tags = &tags
			}

			output, err := ops.Set(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List notes in a workspace",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Value: "default", Usage: "Workspace name"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted notes"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, db, ops.ListInput{
				Workspace:      c.String("workspace"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a note",
		ArgsUsage: "[id]",
		Flags:     addressFlags(),
		Action: func(c *cli.Context) error {
			var input ops.DeleteInput
			input.ID, input.Workspace, input.Name = address(c)

			output, err := ops.Delete(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export notes to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.capped/exports/<workspace>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "Filter by workspace"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted notes"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ExportInput{
				Path:           c.String("path"),
				IncludeDeleted: c.Bool("include-deleted"),
			}
			if workspace := c.String("workspace"); workspace != "" {
				input.Workspace = &workspace
			}

			output, err := ops.Export(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import notes from a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|rename"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, db, cfg, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// textFlags are shared by check and truncate.
func textFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "text", Usage: "Text to measure (default: stdin)"},
		&cli.StringFlag{Name: "metric", Value: string(ops.MetricBytes), Usage: "Size metric: bytes|chars"},
		&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Required: true, Usage: "Capacity"},
	}
}

// textArg returns --text, or stdin when the flag is absent.
func textArg(c *cli.Context) (string, error) {
	if c.IsSet("text") {
		return c.String("text"), nil
	}
	if !stdinHasData() {
		return "", errors.NewInvalidRequest("text must be given with --text or piped via stdin")
	}
	return readStdin("text", maxTextBytes)
}

// checkCmd creates the check command.
func checkCmd() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Report whether text fits a capacity",
		Flags: textFlags(),
		Action: func(c *cli.Context) error {
			text, err := textArg(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Check(ops.CheckInput{
				Text:   text,
				Metric: ops.Metric(c.String("metric")),
				Limit:  c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// truncateCmd creates the truncate command.
func truncateCmd() *cli.Command {
	return &cli.Command{
		Name:  "truncate",
		Usage: "Cut text down to a capacity",
		Flags: textFlags(),
		Action: func(c *cli.Context) error {
			text, err := textArg(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Truncate(ops.TruncateInput{
				Text:   text,
				Metric: ops.Metric(c.String("metric")),
				Limit:  c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI as "[CODE] message".
func outputError(err error) error {
	var cErr *errors.CappedError
	if stderrors.As(err, &cErr) {
		msg := cErr.Message
		if cErr.Code == errors.ErrCapacityExceeded {
			msg = fmt.Sprintf("%s (field=%v limit=%v attempted=%v)", msg,
				cErr.Details["field"], cErr.Details["limit"], cErr.Details["attempted"])
		}
		return cli.Exit(fmt.Sprintf("[%s] %s", cErr.Code, msg), 1)
	}
	if stderrors.Is(err, context.Canceled) {
		return cli.Exit(fmt.Sprintf("[%s] operation cancelled", errors.ErrCancelled), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads stdin up to limit bytes, dropping trailing newlines. Input
// that goes on past limit+1 bytes fails with CAPACITY_EXCEEDED for field
// before any trimming; the attempted size reported is then a lower bound.
func readStdin(field string, limit int) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, int64(limit)+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if len(data) > limit {
		// Only a single trailing newline may sit past the limit.
		var next [1]byte
		n, err := io.ReadFull(os.Stdin, next[:])
		if n > 0 {
			return "", errors.NewCapacityExceeded(field, limit, len(data)+n)
		}
		if err != io.EOF {
			return "", errors.NewInternal(err)
		}
	}

	text := strings.TrimRight(string(data), "\r\n")
	if !utf8.ValidString(text) {
		return "", errors.NewInvalidRequest(field + " must be valid UTF-8")
	}
	s, err := capped.TryString(text, limit)
	if err != nil {
		return "", errors.FromCapacity(field, err)
	}
	return s.IntoInner(), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
