package mcp

import "github.com/mark3labs/mcp-go/mcp"

var stringItems = mcp.Items(map[string]any{"type": "string"})

func addressingOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("id", mcp.Description("Note ID. Mutually exclusive with workspace/name.")),
		mcp.WithString("workspace", mcp.Description("Workspace (default: \"default\"). Used with name.")),
		mcp.WithString("name", mcp.Description("Note name, matched case- and whitespace-insensitively.")),
	}
}

func tool(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(description)}, opts...)...)
}

var storeToolDef = tool("note_store",
	"Store a note. Every field is checked against the configured limits; oversize input is rejected with CAPACITY_EXCEEDED, never truncated.",
	mcp.WithString("body", mcp.Required(), mcp.Description("Note body. Limited in UTF-8 bytes.")),
	mcp.WithString("workspace", mcp.Description("Workspace (default: \"default\").")),
	mcp.WithString("name", mcp.Description("Optional unique name within the workspace.")),
	mcp.WithString("title", mcp.Description("Title (default: the name).")),
	mcp.WithArray("tags", stringItems, mcp.Description("Tags.")),
	mcp.WithString("mode", mcp.Enum("error", "replace"), mcp.Description("On name collision: error (default) or replace.")),
)

var fetchToolDef = tool("note_fetch",
	"Fetch a note by id or by workspace and name.",
	append(addressingOptions(),
		mcp.WithBoolean("include_deleted", mcp.Description("Also match soft-deleted notes.")),
		mcp.WithBoolean("include_body", mcp.Description("Include the body (default: true).")),
	)...,
)

var appendToolDef = tool("note_append",
	"Append text to a note's body. If the result would exceed the body limit, nothing is changed and CAPACITY_EXCEEDED is returned.",
	append(addressingOptions(),
		mcp.WithString("content", mcp.Required(), mcp.Description("Text to append.")),
	)...,
)

var setToolDef = tool("note_set",
	"Replace the body, title or tags of a note. All values are checked before anything is written.",
	append(addressingOptions(),
		mcp.WithString("body", mcp.Description("New body.")),
		mcp.WithString("title", mcp.Description("New title.")),
		mcp.WithArray("tags", stringItems, mcp.Description("New tags (replaces all).")),
	)...,
)

var listToolDef = tool("note_list",
	"List note summaries in a workspace, most recently updated first.",
	mcp.WithString("workspace", mcp.Description("Workspace (default: \"default\").")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100).")),
	mcp.WithNumber("offset", mcp.Description("Items to skip.")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted notes.")),
)

var deleteToolDef = tool("note_delete",
	"Soft-delete a note.",
	addressingOptions()...,
)

var exportToolDef = tool("note_export",
	"Export notes to a JSONL file in ~/.capped/exports or an allowed path.",
	mcp.WithString("path", mcp.Description("Destination .jsonl path (default: ~/.capped/exports/<workspace>-<timestamp>.jsonl).")),
	mcp.WithString("workspace", mcp.Description("Only export this workspace.")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted notes.")),
)

var importToolDef = tool("note_import",
	"Import notes from a JSONL export. The whole file is rejected if any record is invalid, oversize, or collides.",
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl path.")),
	mcp.WithString("mode", mcp.Enum("error", "replace", "rename"), mcp.Description("On collision: error (default), replace, or rename.")),
)

var checkToolDef = tool("text_check",
	"Measure text against a limit without storing it.",
	mcp.WithString("text", mcp.Required(), mcp.Description("Text to measure.")),
	mcp.WithNumber("limit", mcp.Required(), mcp.Description("Maximum size.")),
	mcp.WithString("metric", mcp.Enum("bytes", "chars"), mcp.Description("Size metric (default: bytes).")),
)

var truncateToolDef = tool("text_truncate",
	"Cut text down to fit a limit. Byte truncation never splits a character.",
	mcp.WithString("text", mcp.Required(), mcp.Description("Text to truncate.")),
	mcp.WithNumber("limit", mcp.Required(), mcp.Description("Maximum size.")),
	mcp.WithString("metric", mcp.Enum("bytes", "chars"), mcp.Description("Size metric (default: bytes).")),
)
