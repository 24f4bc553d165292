package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceVariables(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		vars     map[string]string
		expected string
	}{
		{
			name:     "single variable",
			text:     "Hi {{username}}!",
			vars:     map[string]string{"username": "alice"},
			expected: "Hi alice!",
		},
		{
			name:     "repeated variable",
			text:     "{{username}} and {{username}}",
			vars:     map[string]string{"username": "bob"},
			expected: "bob and bob",
		},
		{
			name:     "multiple variables",
			text:     "{{username}} commented on {{media}}",
			vars:     map[string]string{"username": "alice", "media": "post 9"},
			expected: "alice commented on post 9",
		},
		{
			name:     "unknown token stays verbatim",
			text:     "Hi {{username}}, see {{link}}",
			vars:     map[string]string{"username": "alice"},
			expected: "Hi alice, see {{link}}",
		},
		{
			name:     "no variables",
			text:     "Thanks for your comment!",
			vars:     map[string]string{"username": "alice"},
			expected: "Thanks for your comment!",
		},
		{
			name:     "empty text",
			text:     "",
			vars:     map[string]string{"username": "alice"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ReplaceVariables(tt.text, tt.vars))
		})
	}
}

func TestReplaceVariables_Idempotent(t *testing.T) {
	vars := map[string]string{"username": "alice"}
	once := ReplaceVariables("Hi {{username}}!", vars)
	twice := ReplaceVariables(once, vars)

	assert.Equal(t, once, twice)
}
