package batch

// ResolveArgs picks the argument list for one script from exactly one
// source, in precedence order:
//
//  1. explicit arguments given on the command line
//  2. the per-script script_args entry from config
//  3. inline arguments in the script list entry
//  4. the host's default_args
//
// Sources never merge. A present-but-empty higher source still wins,
// so "run with no args" is expressible against a host that configures
// defaults.
func ResolveArgs(explicit []string, scriptArgs map[string][]string, script string, inline, defaults []string) []string {
	if explicit != nil {
		return explicit
	}
	if scriptArgs != nil {
		if args, ok := scriptArgs[script]; ok {
			return args
		}
	}
	if inline != nil {
		return inline
	}
	return defaults
}
