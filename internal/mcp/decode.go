package mcp

import (
	"encoding/json"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/capped/internal/errors"
)

// decode unmarshals MCP request arguments into dst, one argument at a time so
// a failure can name the argument. Capped fields in dst must already carry
// their limits; an argument that does not fit fails with CAPACITY_EXCEEDED.
func decode(req mcp.CallToolRequest, dst any) error {
	args := req.GetArguments()
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		b, err := json.Marshal(map[string]any{key: args[key]})
		if err != nil {
			return errors.NewInvalidRequest("invalid " + key + ": " + err.Error())
		}
		if err := json.Unmarshal(b, dst); err != nil {
			return errors.FromCapacity(key, err)
		}
	}
	return nil
}

// present reports whether the request carries a non-null argument named key.
func present(req mcp.CallToolRequest, key string) bool {
	v, ok := req.GetArguments()[key]
	return ok && v != nil
}
