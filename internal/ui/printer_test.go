package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainPrinterSymbols(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	p.Success("uploaded %s", "setup.sh")
	p.Fail("script failed")
	p.Warn("host key changed")
	p.Info("port 22 open")
	p.Progress("connecting")

	out := buf.String()
	assert.Contains(t, out, "✓ uploaded setup.sh")
	assert.Contains(t, out, "✗ script failed")
	assert.Contains(t, out, "! host key changed")
	assert.Contains(t, out, "· port 22 open")
	assert.Contains(t, out, "◐ connecting")
}

func TestOutputFrames(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	p.OutputStart()
	p.Plain("remote line")
	p.OutputEnd()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "┌─ Remote Script Output"))
	assert.Equal(t, "remote line", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "└"))
}

func TestRenderHeader(t *testing.T) {
	out := RenderHeader(HeaderInfo{Version: "v1.0.0", Action: "Login", Target: "lab.example:22"})
	assert.Contains(t, out, "sofilab")
	assert.Contains(t, out, "Action: Login")
	assert.Contains(t, out, "Target: lab.example:22")
}
