package batch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofibox/sofilab/internal/engine"
	sferrors "github.com/sofibox/sofilab/internal/errors"
	"github.com/sofibox/sofilab/internal/logger"
)

func TestParseEntry(t *testing.T) {
	tests := []struct {
		raw    string
		script string
		args   []string
	}{
		{"20_setup.sh", "20_setup.sh", nil},
		{"20_setup.sh --flag value", "20_setup.sh", []string{"--flag", "value"}},
		{"  deploy.sh  -v  ", "deploy.sh", []string{"-v"}},
		{"", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			e := ParseEntry(tt.raw)
			assert.Equal(t, tt.script, e.Script)
			if tt.args == nil {
				assert.Empty(t, e.InlineArgs)
			} else {
				assert.Equal(t, tt.args, e.InlineArgs)
			}
		})
	}
}

func TestSortNumberedFirst(t *testing.T) {
	entries := ParseEntries([]string{"5_a.sh", "10_b.sh", "2_c.sh", "b.sh", "a.sh"})
	Sort(entries)

	var order []string
	for _, e := range entries {
		order = append(order, e.Script)
	}
	assert.Equal(t, []string{"2_c.sh", "5_a.sh", "10_b.sh", "a.sh", "b.sh"}, order)
}

func TestSortNumericNotLexicographic(t *testing.T) {
	entries := ParseEntries([]string{"100_z.sh", "20_a.sh", "3_b.sh"})
	Sort(entries)

	assert.Equal(t, "3_b.sh", entries[0].Script)
	assert.Equal(t, "20_a.sh", entries[1].Script)
	assert.Equal(t, "100_z.sh", entries[2].Script)
}

func TestSortDashSeparator(t *testing.T) {
	entries := ParseEntries([]string{"10-late.sh", "2-early.sh"})
	Sort(entries)
	assert.Equal(t, "2-early.sh", entries[0].Script)
}

func TestSortSameStageLexicographic(t *testing.T) {
	entries := ParseEntries([]string{"10_b.sh", "10_a.sh"})
	Sort(entries)
	assert.Equal(t, "10_a.sh", entries[0].Script)
}

func TestSortKeepsInlineArgsAttached(t *testing.T) {
	entries := ParseEntries([]string{"20_setup.sh --flag", "10_base.sh -v"})
	Sort(entries)

	assert.Equal(t, "10_base.sh", entries[0].Script)
	assert.Equal(t, []string{"-v"}, entries[0].InlineArgs)
	assert.Equal(t, "20_setup.sh", entries[1].Script)
	assert.Equal(t, []string{"--flag"}, entries[1].InlineArgs)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"10_base.sh", "2_boot.sh", "notes.txt", ".hidden.sh"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/bash\n"), 0755))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0755))

	entries, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	Sort(entries)
	assert.Equal(t, "2_boot.sh", entries[0].Script)
	assert.Equal(t, "10_base.sh", entries[1].Script)
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestResolveArgsPrecedence(t *testing.T) {
	scriptArgs := map[string][]string{"x.sh": {"--from-config"}}
	inline := []string{"--inline"}
	defaults := []string{"--default"}

	// Explicit wins over everything.
	assert.Equal(t, []string{"--cli"},
		ResolveArgs([]string{"--cli"}, scriptArgs, "x.sh", inline, defaults))

	// script_args beats inline and defaults.
	assert.Equal(t, []string{"--from-config"},
		ResolveArgs(nil, scriptArgs, "x.sh", inline, defaults))

	// Inline beats defaults.
	assert.Equal(t, []string{"--inline"},
		ResolveArgs(nil, scriptArgs, "y.sh", inline, defaults))

	// Defaults only when nothing else applies.
	assert.Equal(t, []string{"--default"},
		ResolveArgs(nil, scriptArgs, "y.sh", nil, defaults))

	// Nothing configured at all.
	assert.Nil(t, ResolveArgs(nil, nil, "y.sh", nil, nil))
}

func TestResolveArgsEmptyHigherSourceWins(t *testing.T) {
	// An explicitly empty source suppresses lower sources, it doesn't
	// fall through to them.
	got := ResolveArgs([]string{}, nil, "x.sh", nil, []string{"--default"})
	assert.Empty(t, got)

	scriptArgs := map[string][]string{"x.sh": {}}
	got = ResolveArgs(nil, scriptArgs, "x.sh", []string{"--inline"}, nil)
	assert.Empty(t, got)
}

// fakeExec scripts per-task results and records run order.
type fakeExec struct {
	results map[string]engine.Result
	ran     []string
}

func (f *fakeExec) Run(task engine.Task) engine.Result {
	f.ran = append(f.ran, task.RemoteName())
	if r, ok := f.results[task.RemoteName()]; ok {
		r.Task = task
		return r
	}
	return engine.Result{Task: task, ExitCode: 0}
}

func TestRunnerSequential(t *testing.T) {
	exec := &fakeExec{}
	r := NewRunner(exec, logger.Noop())

	var slept []time.Duration
	r.sleep = func(d time.Duration) { slept = append(slept, d) }

	tasks := []engine.Task{
		{Script: "/s/2_c.sh"},
		{Script: "/s/5_a.sh"},
		{Script: "/s/10_b.sh"},
	}

	results, err := r.Run(tasks)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, []string{"2_c.sh", "5_a.sh", "10_b.sh"}, exec.ran)

	// Pacing between scripts only, not after the last.
	assert.Equal(t, []time.Duration{DefaultPacing, DefaultPacing}, slept)
}

func TestRunnerFailFast(t *testing.T) {
	exec := &fakeExec{results: map[string]engine.Result{
		"5_a.sh": {ExitCode: 1, Phase: engine.PhaseExecute},
	}}
	r := NewRunner(exec, logger.Noop())
	r.sleep = func(time.Duration) {}

	tasks := []engine.Task{
		{Script: "/s/2_c.sh"},
		{Script: "/s/5_a.sh"},
		{Script: "/s/10_b.sh"},
	}

	results, err := r.Run(tasks)
	require.Error(t, err)
	assert.True(t, sferrors.IsCode(err, sferrors.ErrExec))

	// The failing result is included; nothing after it ran.
	assert.Len(t, results, 2)
	assert.Equal(t, []string{"2_c.sh", "5_a.sh"}, exec.ran)
}

func TestRunnerTransportErrorPropagates(t *testing.T) {
	cause := errors.New("connection reset")
	exec := &fakeExec{results: map[string]engine.Result{
		"2_c.sh": {ExitCode: -1, Err: cause, Phase: engine.PhaseExecute},
	}}
	r := NewRunner(exec, logger.Noop())
	r.sleep = func(time.Duration) {}

	_, err := r.Run([]engine.Task{{Script: "/s/2_c.sh"}, {Script: "/s/5_a.sh"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{"2_c.sh"}, exec.ran)
}

func TestRunnerOnStart(t *testing.T) {
	exec := &fakeExec{}
	r := NewRunner(exec, logger.Noop())
	r.sleep = func(time.Duration) {}

	var seen []int
	r.OnStart = func(i, total int, task engine.Task) {
		seen = append(seen, i)
		assert.Equal(t, 2, total)
	}

	_, err := r.Run([]engine.Task{{Script: "/s/a.sh"}, {Script: "/s/b.sh"}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, seen)
}
