package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/capped/internal/config"
	"github.com/hpungsan/capped/internal/db"
	"github.com/hpungsan/capped/internal/errors"
	"github.com/hpungsan/capped/internal/ops"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// testConfig returns a config with a small body limit.
func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.BodyMaxBytes = 16
	cfg.AllowedPaths = []string{t.TempDir()}
	return cfg
}

// withStdin points os.Stdin at a pipe holding input, or at the null device
// when input is empty, for the duration of the test.
func withStdin(t *testing.T, input string) {
	t.Helper()
	old := os.Stdin
	t.Cleanup(func() { os.Stdin = old })

	if input == "" {
		f, err := os.Open(os.DevNull)
		if err != nil {
			t.Fatalf("failed to open %s: %v", os.DevNull, err)
		}
		t.Cleanup(func() { f.Close() })
		os.Stdin = f
		return
	}

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	go func() {
		_, _ = w.WriteString(input)
		w.Close()
	}()
	t.Cleanup(func() { r.Close() })
	os.Stdin = r
}

// runCLI runs args with stdin set to input and returns what was written to stdout.
func runCLI(t *testing.T, app *cli.App, input string, args ...string) (string, error) {
	t.Helper()
	withStdin(t, input)

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	runErr := app.Run(append([]string{"capped"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout
	return buf.String(), runErr
}

// mustRun runs a command that must succeed and decodes its JSON output into v.
func mustRun(t *testing.T, app *cli.App, input string, v any, args ...string) {
	t.Helper()
	out, err := runCLI(t, app, input, args...)
	if err != nil {
		t.Fatalf("%s failed: %v", args[0], err)
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"single tag", "foo", []string{"foo"}},
		{"multiple tags", "foo,bar,baz", []string{"foo", "bar", "baz"}},
		{"tags with spaces", " foo , bar , baz ", []string{"foo", "bar", "baz"}},
		{"empty tags filtered", "foo,,bar,", []string{"foo", "bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseTags(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("expected %d tags, got %d", len(tt.expected), len(result))
			}
			for i, tag := range result {
				if tag != tt.expected[i] {
					t.Errorf("expected tag[%d]=%q, got %q", i, tt.expected[i], tag)
				}
			}
		})
	}
}

func TestCLIStoreAndFetch(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, testConfig(t))

	var stored ops.StoreOutput
	mustRun(t, app, "hello\n", &stored, "store", "--name=greeting", "--tags=foo,bar")
	if stored.ID == "" {
		t.Error("expected non-empty ID")
	}
	if stored.FetchKey.Name != "greeting" {
		t.Errorf("expected fetch_key.name=greeting, got %q", stored.FetchKey.Name)
	}
	if stored.BodyBytes != 5 || stored.Remaining != 11 {
		t.Errorf("body_bytes/remaining = %d/%d, want 5/11", stored.BodyBytes, stored.Remaining)
	}

	t.Run("fetch by name", func(t *testing.T) {
		var fetched ops.FetchOutput
		mustRun(t, app, "", &fetched, "fetch", "--name=greeting")
		if fetched.ID != stored.ID {
			t.Errorf("expected ID=%s, got %s", stored.ID, fetched.ID)
		}
		if fetched.Body == nil || *fetched.Body != "hello" {
			t.Errorf("expected body=hello, got %v", fetched.Body)
		}
		if len(fetched.Tags) != 2 {
			t.Errorf("expected 2 tags, got %v", fetched.Tags)
		}
	})

	t.Run("fetch by id without body", func(t *testing.T) {
		var fetched ops.FetchOutput
		mustRun(t, app, "", &fetched, "fetch", "--no-body", stored.ID)
		if fetched.ID != stored.ID {
			t.Errorf("expected ID=%s, got %s", stored.ID, fetched.ID)
		}
		if fetched.Body != nil {
			t.Errorf("expected no body, got %q", *fetched.Body)
		}
	})
}

func TestCLIStore_RejectsOversizeBody(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, testConfig(t))

	_, err := runCLI(t, app, strings.Repeat("x", 40), "store", "--name=big")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.HasPrefix(err.Error(), "[CAPACITY_EXCEEDED]") {
		t.Errorf("unexpected error: %v", err)
	}

	if _, err := runCLI(t, app, "", "fetch", "--name=big"); err == nil {
		t.Error("oversize note should not have been stored")
	}
}

func TestCLIStore_RejectsBodyPastNewlineAtLimit(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, testConfig(t))

	input := strings.Repeat("x", 16) + "\nmore text"
	_, err := runCLI(t, app, input, "store", "--name=clamped")
	if err == nil || !strings.HasPrefix(err.Error(), "[CAPACITY_EXCEEDED]") {
		t.Fatalf("expected CAPACITY_EXCEEDED, got %v", err)
	}
	if _, err := runCLI(t, app, "", "fetch", "--name=clamped"); err == nil {
		t.Error("truncated body should not have been stored")
	}

	var stored ops.StoreOutput
	mustRun(t, app, strings.Repeat("x", 16)+"\n", &stored, "store", "--name=exact")
	if stored.BodyBytes != 16 {
		t.Errorf("body_bytes = %d, want 16", stored.BodyBytes)
	}
}

func TestCLIStore_RequiresStdin(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, testConfig(t))

	_, err := runCLI(t, app, "", "store", "--name=empty")
	if err == nil || !strings.HasPrefix(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestCLIAppendAndSet(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, testConfig(t))

	var stored ops.StoreOutput
	mustRun(t, app, "hello", &stored, "store", "--name=log")

	var appended ops.AppendOutput
	mustRun(t, app, "", &appended, "append", "--name=log", "--content= world")
	if appended.BodyBytes != 11 || appended.Remaining != 5 {
		t.Errorf("body_bytes/remaining = %d/%d, want 11/5", appended.BodyBytes, appended.Remaining)
	}

	_, err := runCLI(t, app, "", "append", "--name=log", "--content=123456")
	if err == nil || !strings.HasPrefix(err.Error(), "[CAPACITY_EXCEEDED]") {
		t.Fatalf("expected CAPACITY_EXCEEDED, got %v", err)
	}

	mustRun(t, app, "!", &appended, "append", stored.ID)
	if appended.BodyBytes != 12 {
		t.Errorf("body_bytes = %d, want 12", appended.BodyBytes)
	}

	var set ops.SetOutput
	mustRun(t, app, "", &set, "set", "--name=log", "--title=Log")

	var fetched ops.FetchOutput
	mustRun(t, app, "", &fetched, "fetch", "--name=log")
	if fetched.Title != "Log" {
		t.Errorf("expected title=Log, got %q", fetched.Title)
	}
	if fetched.Body == nil || *fetched.Body != "hello world!" {
		t.Errorf("expected body unchanged by set, got %v", fetched.Body)
	}

	mustRun(t, app, "fresh", &set, "set", "--name=log")
	mustRun(t, app, "", &fetched, "fetch", "--name=log")
	if fetched.Body == nil || *fetched.Body != "fresh" {
		t.Errorf("expected body=fresh, got %v", fetched.Body)
	}
}

func TestCLIListAndDelete(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, testConfig(t))

	for _, name := range []string{"a", "b", "c"} {
		var stored ops.StoreOutput
		mustRun(t, app, "body", &stored, "store", "--workspace=ws", "--name="+name)
	}

	var list ops.ListOutput
	mustRun(t, app, "", &list, "list", "--workspace=ws", "--limit=2")
	if len(list.Items) != 2 || !list.Pagination.HasMore || list.Pagination.Total != 3 {
		t.Errorf("unexpected list output: %+v", list)
	}

	var deleted ops.DeleteOutput
	mustRun(t, app, "", &deleted, "delete", "--workspace=ws", "--name=b")
	if !deleted.Deleted {
		t.Error("expected deleted=true")
	}

	mustRun(t, app, "", &list, "list", "--workspace=ws")
	if list.Pagination.Total != 2 {
		t.Errorf("expected total=2 after delete, got %d", list.Pagination.Total)
	}
	mustRun(t, app, "", &list, "list", "--workspace=ws", "--include-deleted")
	if list.Pagination.Total != 3 {
		t.Errorf("expected total=3 with deleted, got %d", list.Pagination.Total)
	}
}

func TestCLIExportImport(t *testing.T) {
	database := setupTestDB(t)
	cfg := testConfig(t)
	app := newCLIApp(database, cfg)

	for _, name := range []string{"export-a", "export-b"} {
		var stored ops.StoreOutput
		mustRun(t, app, "body of "+name[len(name)-1:], &stored, "store", "--name="+name)
	}

	exportPath := filepath.Join(cfg.AllowedPaths[0], "export.jsonl")

	var exported ops.ExportOutput
	mustRun(t, app, "", &exported, "export", "--path="+exportPath)
	if exported.Count != 2 {
		t.Errorf("expected count=2, got %d", exported.Count)
	}
	if exported.Path != exportPath {
		t.Errorf("expected path=%s, got %s", exportPath, exported.Path)
	}

	app2 := newCLIApp(setupTestDB(t), cfg)

	var imported ops.ImportOutput
	mustRun(t, app2, "", &imported, "import", "--path="+exportPath)
	if imported.Imported != 2 {
		t.Errorf("expected imported=2, got %d", imported.Imported)
	}

	mustRun(t, app2, "", &imported, "import", "--path="+exportPath, "--mode=rename")
	if imported.Imported != 2 {
		t.Errorf("expected imported=2 in rename mode, got %d", imported.Imported)
	}

	var fetched ops.FetchOutput
	mustRun(t, app2, "", &fetched, "fetch", "--name=export-a-2")
	if fetched.Body == nil || *fetched.Body != "body of a" {
		t.Errorf("renamed copy has body %v", fetched.Body)
	}

	_, err := runCLI(t, app2, "", "export", "--path="+filepath.Join(t.TempDir(), "elsewhere.jsonl"))
	if err == nil || !strings.HasPrefix(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("expected export outside allowed paths to fail, got %v", err)
	}
}

func TestCLICheckAndTruncate(t *testing.T) {
	app := newCLIApp(nil, nil)

	var check ops.CheckOutput
	mustRun(t, app, "", &check, "check", "--text=héllo", "--limit=5")
	if check.Size != 6 || check.Fits {
		t.Errorf("unexpected bytes check: %+v", check)
	}
	mustRun(t, app, "", &check, "check", "--text=héllo", "--limit=5", "--metric=chars")
	if check.Size != 5 || !check.Fits {
		t.Errorf("unexpected chars check: %+v", check)
	}

	var trunc ops.TruncateOutput
	mustRun(t, app, "hello world\n", &trunc, "truncate", "--limit=5")
	if trunc.Text != "hello" || !trunc.Truncated {
		t.Errorf("unexpected truncate output: %+v", trunc)
	}

	_, err := runCLI(t, app, "", "truncate", "--text=x", "--limit=1", "--metric=words")
	if err == nil || !strings.HasPrefix(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("expected INVALID_REQUEST for unknown metric, got %v", err)
	}
}

func TestCLIErrorHandling(t *testing.T) {
	database := setupTestDB(t)
	app := newCLIApp(database, testConfig(t))

	tests := []struct {
		name  string
		input string
		args  []string
		code  errors.ErrorCode
	}{
		{"fetch not found", "", []string{"fetch", "--name=nonexistent"}, errors.ErrNotFound},
		{"delete not found", "", []string{"delete", "--name=nonexistent"}, errors.ErrNotFound},
		{"append to missing note", "x", []string{"append", "--name=nonexistent"}, errors.ErrNotFound},
		{"append without content", "", []string{"append", "--name=nonexistent"}, errors.ErrInvalidRequest},
		{"set without fields", "", []string{"set", "--name=nonexistent"}, errors.ErrInvalidRequest},
		{"unknown store mode", "x", []string{"store", "--mode=merge"}, errors.ErrInvalidRequest},
		{"positional id wins over name", "", []string{"fetch", "--name=a", "01ARZ3NDEKTSV4RRFFQ69G5FAV"}, errors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, app, tt.input, tt.args...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.HasPrefix(err.Error(), "["+string(tt.code)+"]") {
				t.Errorf("expected [%s] prefix, got %q", tt.code, err.Error())
			}
		})
	}

	t.Run("missing required flag", func(t *testing.T) {
		if _, err := runCLI(t, app, "", "check", "--text=x"); err == nil {
			t.Error("expected error for missing --limit, got nil")
		}
	})
}

func TestOutputError_CapacityDetails(t *testing.T) {
	err := outputError(errors.NewCapacityExceeded("body", 16, 20))
	if !strings.Contains(err.Error(), "field=body limit=16 attempted=20") {
		t.Errorf("expected capacity details in message, got %q", err.Error())
	}
	exitErr, ok := err.(cli.ExitCoder)
	if !ok || exitErr.ExitCode() != 1 {
		t.Errorf("expected exit code 1, got %v", err)
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"capped"}, false},
		{"store command", []string{"capped", "store"}, true},
		{"append command", []string{"capped", "append"}, true},
		{"truncate command", []string{"capped", "truncate"}, true},
		{"help flag", []string{"capped", "--help"}, true},
		{"version flag", []string{"capped", "--version"}, true},
		{"short help flag", []string{"capped", "-h"}, true},
		{"short version flag", []string{"capped", "-v"}, true},
		{"unknown arg defaults to MCP", []string{"capped", "--unknown"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isCLIMode(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"capped"}, false},
		{"help flag", []string{"capped", "--help"}, true},
		{"short help flag", []string{"capped", "-h"}, true},
		{"version flag", []string{"capped", "--version"}, true},
		{"short version flag", []string{"capped", "-v"}, true},
		{"help subcommand", []string{"capped", "help"}, true},
		{"store command is not help", []string{"capped", "store"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isHelpOrVersion(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestReadStdin(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		withStdin(t, "small content\n\n")
		result, err := readStdin("body", 1000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != "small content" {
			t.Errorf("expected %q, got %q", "small content", result)
		}
	})

	t.Run("exactly at limit with newline", func(t *testing.T) {
		withStdin(t, strings.Repeat("x", 50)+"\n")
		result, err := readStdin("body", 50)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result) != 50 {
			t.Errorf("expected 50 bytes, got %d", len(result))
		}
	})

	t.Run("newline at limit followed by more text", func(t *testing.T) {
		withStdin(t, "hello\nworld")
		result, err := readStdin("body", 5)
		if !errors.Is(err, errors.ErrCapacityExceeded) {
			t.Fatalf("expected CAPACITY_EXCEEDED, got %q, %v", result, err)
		}
	})

	t.Run("invalid UTF-8", func(t *testing.T) {
		withStdin(t, "ok\xff\n")
		_, err := readStdin("body", 50)
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Fatalf("expected INVALID_REQUEST, got %v", err)
		}
	})

	t.Run("exceeds limit", func(t *testing.T) {
		withStdin(t, strings.Repeat("x", 100))
		_, err := readStdin("content", 50)
		if !errors.Is(err, errors.ErrCapacityExceeded) {
			t.Fatalf("expected CAPACITY_EXCEEDED, got %v", err)
		}
		var cErr *errors.CappedError
		if e, ok := err.(*errors.CappedError); ok {
			cErr = e
		}
		if cErr == nil || cErr.Details["field"] != "content" {
			t.Errorf("expected field=content, got %v", err)
		}
	})
}
