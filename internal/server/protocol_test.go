package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestType(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{"analyse_project", TypeAnalyzeProject},
		{"get_file_contents", TypeGetFileContent},
		{"update-file", TypeUpdateFile},
		{"run_comand", TypeRunCommand},
		{"ping", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.got, func(t *testing.T) {
			assert.Equal(t, tt.want, suggestType(tt.got))
		})
	}
}

func TestReplyEncoding(t *testing.T) {
	t.Run("error reply has message and no data", func(t *testing.T) {
		b, err := json.Marshal(errorReply("boom"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"error","message":"boom"}`, string(b))
	})

	t.Run("data reply carries id when set", func(t *testing.T) {
		b, err := json.Marshal(Reply{Type: TypeFileUpdated, Data: FileUpdated{Path: "a.txt", Success: true}, ID: "7"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"file_updated","data":{"path":"a.txt","success":true},"id":"7"}`, string(b))
	})
}

func TestDecodeData(t *testing.T) {
	var req CommandRequest
	require.NoError(t, decodeData(nil, &req))
	assert.Empty(t, req.Command)

	require.NoError(t, decodeData(json.RawMessage(`null`), &req))
	require.NoError(t, decodeData(json.RawMessage(`{"command":"ls","workingDirectory":"/tmp"}`), &req))
	assert.Equal(t, CommandRequest{Command: "ls", WorkingDirectory: "/tmp"}, req)

	err := decodeData(json.RawMessage(`[1]`), &req)
	assert.ErrorContains(t, err, "invalid data")
}

func TestMetricType(t *testing.T) {
	assert.Equal(t, TypeRunCommand, metricType(TypeRunCommand))
	assert.Equal(t, typeUnknown, metricType("drop_tables"))
}
