package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"with space", "'with space'"},
		{"", "''"},
		{"it's", `'it'\''s'`},
		{"$HOME", "'$HOME'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShellQuote(tt.in))
	}
}

func TestShellQuotePreserveTilde(t *testing.T) {
	assert.Equal(t, "~/'.sofilab_scripts/x.sh'", ShellQuotePreserveTilde("~/.sofilab_scripts/x.sh"))
	assert.Equal(t, "~", ShellQuotePreserveTilde("~"))
	assert.Equal(t, "'/abs/path'", ShellQuotePreserveTilde("/abs/path"))
}
