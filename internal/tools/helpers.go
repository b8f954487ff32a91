// Package tools implements the MCP tool handlers for cfbench.
//
// Each tool is a struct with its dependencies injected through the
// constructor. Definition returns the mcp.Tool schema and Handle processes
// a call. User mistakes come back as tool errors, never as Go errors, so
// the host can show them to the model.
package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// maxDocumentBytes bounds documents read from disk.
const maxDocumentBytes = 8 << 20

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// readDocument loads a document named by a tool argument. Relative paths
// resolve against the working directory.
func readDocument(path string) (name, content string, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("reading %s: is a directory", path)
	}
	if info.Size() > maxDocumentBytes {
		return "", "", fmt.Errorf("reading %s: %d bytes exceeds the %d byte limit", path, info.Size(), maxDocumentBytes)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	return filepath.Base(abs), string(data), nil
}

// documentArg resolves the content/path pair every document tool accepts.
// Inline content wins over a path.
func documentArg(req mcp.CallToolRequest) (name, content string, err error) {
	content = req.GetString("content", "")
	path := strings.TrimSpace(req.GetString("path", ""))
	name = strings.TrimSpace(req.GetString("name", ""))

	switch {
	case strings.TrimSpace(content) != "":
		if name == "" {
			name = "inline"
		}
		return name, content, nil
	case path != "":
		base, body, err := readDocument(path)
		if err != nil {
			return "", "", err
		}
		if name == "" {
			name = base
		}
		return name, body, nil
	}
	return "", "", fmt.Errorf("either 'content' or 'path' is required")
}
