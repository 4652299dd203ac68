package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatTextScan(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"bytes", []byte(`{"a":1}`), `{"a":1}`},
		{"string", `"hi"`, `"hi"`},
		{"integer", int64(42), `42`},
		{"float", float64(2.5), `2.5`},
		{"bool", true, `true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var text ChatText
			require.NoError(t, text.Scan(tt.value))
			assert.Equal(t, tt.want, string(text))
		})
	}

	var text ChatText
	assert.Error(t, text.Scan(struct{}{}))
}

func TestChatTextJSON(t *testing.T) {
	msg := ChatMessage{Payload: ChatText(`{"court":3}`)}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"text":{"court":3}`)

	var back ChatMessage
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, `{"court":3}`, string(back.Payload))
}
