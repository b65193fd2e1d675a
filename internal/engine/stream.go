package engine

import (
	"bytes"
	"io"

	"github.com/sofibox/sofilab/internal/logger"
)

// lineWriter splits a merged remote output stream into lines, echoing
// each to the console writer and tagging it into the remote sink.
// Carriage returns from PTY sessions are stripped so log lines stay
// clean.
type lineWriter struct {
	out    io.Writer
	sink   logger.RemoteSink
	alias  string
	script string
	buf    bytes.Buffer
}

func newLineWriter(out io.Writer, sink logger.RemoteSink, alias, script string) *lineWriter {
	return &lineWriter{out: out, sink: sink, alias: alias, script: script}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)

	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line stays buffered until more data or Flush.
			w.buf.WriteString(line)
			break
		}
		w.emit(line[:len(line)-1])
	}
	return len(p), nil
}

// Flush emits any trailing output that didn't end in a newline.
func (w *lineWriter) Flush() {
	if w.buf.Len() == 0 {
		return
	}
	w.emit(w.buf.String())
	w.buf.Reset()
}

func (w *lineWriter) emit(line string) {
	line = trimCR(line)
	if w.out != nil {
		io.WriteString(w.out, line+"\n")
	}
	if w.sink != nil {
		w.sink.Line(w.alias, w.script, line)
	}
}

func trimCR(line string) string {
	for len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return line
}
