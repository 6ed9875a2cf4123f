package server

import (
	"encoding/json"
	"fmt"

	"github.com/hbollon/go-edlib"
)

// Request message types.
const (
	TypeAnalyzeProject = "analyze_project"
	TypeGetFileContent = "get_file_content"
	TypeUpdateFile     = "update_file"
	TypeRunCommand     = "run_command"
)

// Reply message types.
const (
	TypeProjectAnalysis = "project_analysis"
	TypeFileContent     = "file_content"
	TypeFileUpdated     = "file_updated"
	TypeCommandResult   = "command_result"
	TypeError           = "error"
)

// RequestTypes lists the message types a client may send.
var RequestTypes = []string{
	TypeAnalyzeProject,
	TypeGetFileContent,
	TypeUpdateFile,
	TypeRunCommand,
}

// suggestionThreshold is the minimum Levenshtein similarity for a
// "did you mean" hint on an unknown type.
const suggestionThreshold = 0.6

// Message is one inbound frame.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	// ID is echoed on the reply when it is a JSON string. Other types are
	// ignored so a foreign id never blocks dispatch.
	ID json.RawMessage `json:"id,omitempty"`
}

// echoID returns the string id to echo, or "" when absent or not a string.
func (m Message) echoID() string {
	var id string
	if len(m.ID) == 0 || json.Unmarshal(m.ID, &id) != nil {
		return ""
	}
	return id
}

// Reply is one outbound frame. Error replies carry Message instead of Data.
type Reply struct {
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}

// FileRequest is the payload of get_file_content.
type FileRequest struct {
	Path string `json:"path"`
}

// UpdateRequest is the payload of update_file.
type UpdateRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// CommandRequest is the payload of run_command.
type CommandRequest struct {
	Command          string `json:"command"`
	WorkingDirectory string `json:"workingDirectory,omitempty"`
}

// FileUpdated is the payload of file_updated.
type FileUpdated struct {
	Path    string `json:"path"`
	Success bool   `json:"success"`
}

func errorReply(msg string) Reply {
	return Reply{Type: TypeError, Message: msg}
}

// decodeData unmarshals a request payload. An absent or null payload leaves
// v at its zero value so the handler reports the missing field itself.
func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}
	return nil
}

// unknownTypeMessage names the rejected type and, when one is close enough,
// the request type the client probably meant.
func unknownTypeMessage(got string) string {
	msg := "Unknown message type: " + got
	if s := suggestType(got); s != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", s)
	}
	return msg
}

func suggestType(got string) string {
	if got == "" {
		return ""
	}
	var (
		best      string
		bestScore float32
	)
	for _, candidate := range RequestTypes {
		score, err := edlib.StringsSimilarity(got, candidate, edlib.Levenshtein)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if bestScore < suggestionThreshold {
		return ""
	}
	return best
}
