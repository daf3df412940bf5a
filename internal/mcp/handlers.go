package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/capped"
	"github.com/hpungsan/capped/internal/config"
	"github.com/hpungsan/capped/internal/errors"
	"github.com/hpungsan/capped/internal/logging"
	"github.com/hpungsan/capped/internal/note"
	"github.com/hpungsan/capped/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db     *sql.DB
	cfg    *config.Config
	limits note.Limits
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Handlers{db: db, cfg: cfg, limits: note.LimitsFrom(cfg)}
}

// Request types for each tool. Capped fields are seeded with the configured
// limits by the matching new*Request method before decoding.

// StoreRequest represents the arguments for note_store.
type StoreRequest struct {
	Workspace capped.Text          `json:"workspace"`
	Name      capped.Text          `json:"name"`
	Title     capped.Text          `json:"title"`
	Body      capped.String        `json:"body"`
	Tags      capped.Slice[string] `json:"tags"`
	Mode      string               `json:"mode,omitempty"`
}

func (h *Handlers) newStoreRequest() *StoreRequest {
	n := h.limits.Empty()
	return &StoreRequest{
		Workspace: n.Workspace,
		Name:      n.Name,
		Title:     n.Title,
		Body:      n.Body,
		Tags:      n.Tags,
	}
}

// Address holds the addressing arguments shared by several tools.
type Address struct {
	ID        string `json:"id,omitempty"`
	Workspace string `json:"workspace,omitempty"`
	Name      string `json:"name,omitempty"`
}

// FetchRequest represents the arguments for note_fetch.
type FetchRequest struct {
	Address
	IncludeDeleted bool  `json:"include_deleted,omitempty"`
	IncludeBody    *bool `json:"include_body,omitempty"`
}

// AppendRequest represents the arguments for note_append. Content larger
// than the whole body limit is rejected at decode.
type AppendRequest struct {
	Address
	Content capped.String `json:"content"`
}

// SetRequest represents the arguments for note_set.
type SetRequest struct {
	Address
	Body  *capped.String        `json:"body,omitempty"`
	Title *capped.Text          `json:"title,omitempty"`
	Tags  *capped.Slice[string] `json:"tags,omitempty"`
}

func (h *Handlers) newSetRequest() *SetRequest {
	n := h.limits.Empty()
	return &SetRequest{Body: &n.Body, Title: &n.Title, Tags: &n.Tags}
}

// ListRequest represents the arguments for note_list.
type ListRequest struct {
	Workspace      string `json:"workspace,omitempty"`
	Limit          int    `json:"limit,omitempty"`
	Offset         int    `json:"offset,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ExportRequest represents the arguments for note_export.
type ExportRequest struct {
	Path           string  `json:"path,omitempty"`
	Workspace      *string `json:"workspace,omitempty"`
	IncludeDeleted bool    `json:"include_deleted,omitempty"`
}

// ImportRequest represents the arguments for note_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// TextRequest represents the arguments for text_check and text_truncate.
type TextRequest struct {
	Text   string `json:"text"`
	Metric string `json:"metric,omitempty"`
	Limit  *int   `json:"limit"`
}

// Handler implementations

// HandleStore handles the note_store tool call.
func (h *Handlers) HandleStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input := h.newStoreRequest()
	if err := decode(req, input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Store(ctx, h.db, h.cfg, ops.StoreInput{
		Workspace: input.Workspace.Inner(),
		Name:      input.Name.Inner(),
		Title:     input.Title.Inner(),
		Body:      input.Body.Inner(),
		Tags:      input.Tags.Inner(),
		Mode:      ops.StoreMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFetch handles the note_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input FetchRequest
	if err := decode(req, &input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Fetch(ctx, h.db, h.cfg, ops.FetchInput{
		ID:             input.ID,
		Workspace:      input.Workspace,
		Name:           input.Name,
		IncludeDeleted: input.IncludeDeleted,
		IncludeBody:    input.IncludeBody,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleAppend handles the note_append tool call.
func (h *Handlers) HandleAppend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input := AppendRequest{Content: capped.EmptyString(h.limits.Body)}
	if err := decode(req, &input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Append(ctx, h.db, h.cfg, ops.AppendInput{
		ID:        input.ID,
		Workspace: input.Workspace,
		Name:      input.Name,
		Content:   input.Content.Inner(),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSet handles the note_set tool call.
func (h *Handlers) HandleSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input := h.newSetRequest()
	if err := decode(req, input); err != nil {
		return errorResult(err), nil
	}

	setInput := ops.SetInput{
		ID:        input.ID,
		Workspace: input.Workspace,
		Name:      input.Name,
	}
	if present(req, "body") && input.Body != nil {
		setInput.Body = ptr(input.Body.Inner())
	}
	if present(req, "title") && input.Title != nil {
		setInput.Title = ptr(input.Title.Inner())
	}
	if present(req, "tags") && input.Tags != nil {
		setInput.Tags = ptr(input.Tags.Inner())
	}

	result, err := ops.Set(ctx, h.db, h.cfg, setInput)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList handles the note_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ListRequest
	if err := decode(req, &input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Workspace:      input.Workspace,
		Limit:          input.Limit,
		Offset:         input.Offset,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDelete handles the note_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input Address
	if err := decode(req, &input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{
		ID:        input.ID,
		Workspace: input.Workspace,
		Name:      input.Name,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExport handles the note_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ExportRequest
	if err := decode(req, &input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		Path:           input.Path,
		Workspace:      input.Workspace,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the note_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input ImportRequest
	if err := decode(req, &input); err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

func decodeText(req mcp.CallToolRequest) (*TextRequest, error) {
	var input TextRequest
	if err := decode(req, &input); err != nil {
		return nil, err
	}
	if input.Limit == nil {
		return nil, errors.NewInvalidRequest("limit is required")
	}
	return &input, nil
}

// HandleCheck handles the text_check tool call.
func (h *Handlers) HandleCheck(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeText(req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Check(ops.CheckInput{
		Text:   input.Text,
		Metric: ops.Metric(input.Metric),
		Limit:  *input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTruncate handles the text_truncate tool call.
func (h *Handlers) HandleTruncate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decodeText(req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Truncate(ops.TruncateInput{
		Text:   input.Text,
		Metric: ops.Metric(input.Metric),
		Limit:  *input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error, with IsError set
// so clients recognize the failure. INTERNAL errors carry no details, which
// may hold file paths or SQL text.
func errorResult(err error) *mcp.CallToolResult {
	errorObj := map[string]any{
		"code":    errors.ErrInternal,
		"message": "an internal error occurred",
		"status":  500,
	}

	var cErr *errors.CappedError
	if stderrors.As(err, &cErr) {
		msg := cErr.Message
		if err != error(cErr) {
			// Keep context added by wrapping.
			msg = err.Error()
		}
		errorObj["code"] = cErr.Code
		errorObj["message"] = msg
		errorObj["status"] = cErr.Status
		if cErr.Code != errors.ErrInternal && cErr.Details != nil {
			errorObj["details"] = cErr.Details
		}
	}
	if errorObj["code"] == errors.ErrInternal {
		logging.Logger().Error("tool failed", zap.Error(err))
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

func ptr[T any](v T) *T {
	return &v
}
