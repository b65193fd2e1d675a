// Package batch plans and runs a host's configured script sequence:
// deterministic ordering, single-source argument resolution, fail-fast
// sequential execution with pacing between scripts.
package batch

import (
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Entry is one configured script reference, possibly carrying inline
// arguments ("20_setup.sh --flag value").
type Entry struct {
	Script     string
	InlineArgs []string
}

// ParseEntry splits a configured script entry into the script name and
// its inline arguments. Whitespace-separated; scripts with spaces in
// their names aren't supported in entries.
func ParseEntry(raw string) Entry {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Entry{}
	}
	return Entry{Script: fields[0], InlineArgs: fields[1:]}
}

// ParseEntries parses a configured script list, dropping blanks.
func ParseEntries(raw []string) []Entry {
	var entries []Entry
	for _, r := range raw {
		e := ParseEntry(r)
		if e.Script != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

// Discover builds entries from the scripts present in a directory, for
// hosts that don't configure an explicit list. Only regular *.sh files
// count; dotfiles and subdirectories are skipped.
func Discover(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".sh") {
			continue
		}
		entries = append(entries, Entry{Script: name})
	}
	return entries, nil
}

var numberedPrefix = regexp.MustCompile(`^(\d+)[_-]`)

// sortKey decomposes a script name for ordering. Numbered scripts
// ("10_setup.sh") carry an explicit stage and run before unnumbered
// ones, ordered by numeric value so 2 precedes 10.
func sortKey(name string) (numbered bool, stage int) {
	m := numberedPrefix.FindStringSubmatch(name)
	if m == nil {
		return false, 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return false, 0
	}
	return true, n
}

// Sort orders entries for execution: numbered scripts first by their
// numeric prefix, then unnumbered scripts; lexicographic within ties.
// The sort is stable so equal names keep their configured order.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		iNum, iStage := sortKey(entries[i].Script)
		jNum, jStage := sortKey(entries[j].Script)

		if iNum != jNum {
			return iNum
		}
		if iNum && iStage != jStage {
			return iStage < jStage
		}
		return entries[i].Script < entries[j].Script
	})
}
