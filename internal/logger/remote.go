package logger

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"
)

// RemoteLogName is the raw remote-output log file name.
const RemoteLogName = "sofilab-remote.log"

// RemoteSink receives raw output lines from remote scripts, tagged by
// host alias and script name.
type RemoteSink interface {
	Line(alias, script, line string)
}

// RemoteLog appends remote script output to a rotating log file, one line
// per entry: [timestamp] [alias] [script] line
type RemoteLog struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewRemoteLog creates a remote-output log in the given directory.
// Returns a discarding sink when dir is empty.
func NewRemoteLog(dir string, opts Options) *RemoteLog {
	if dir == "" {
		return &RemoteLog{w: io.Discard, now: time.Now}
	}
	return &RemoteLog{
		w:   rotatingFile(filepath.Join(dir, RemoteLogName), opts),
		now: time.Now,
	}
}

// Line appends one output line. Write failures are dropped: losing a log
// line must never interrupt a running script.
func (r *RemoteLog) Line(alias, script, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(r.w, "[%s] [%s] [%s] %s\n", ts, alias, script, line)
}

// BufferRemote captures remote lines for test assertions.
type BufferRemote struct {
	mu    sync.Mutex
	Lines []RemoteLine
}

// RemoteLine is one captured remote-output line.
type RemoteLine struct {
	Alias  string
	Script string
	Text   string
}

// NewBufferRemote creates an in-memory remote sink.
func NewBufferRemote() *BufferRemote {
	return &BufferRemote{}
}

func (b *BufferRemote) Line(alias, script, line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Lines = append(b.Lines, RemoteLine{Alias: alias, Script: script, Text: line})
}
