// Package mcp exposes a single workspace directory to MCP clients over stdio.
//
// The server registers four tools built on the MCP SDK
// (github.com/modelcontextprotocol/go-sdk/mcp): read_file, write_file,
// list_files and analyze_project. Every path argument is resolved against the
// workspace root and rejected if it escapes it, symlinks included.
package mcp
