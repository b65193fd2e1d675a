package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Operation completed successfully
	SymbolFail     = "✗" // Operation failed
	SymbolWarn     = "!" // Recoverable condition worth auditing
	SymbolInfo     = "·" // Informational
	SymbolProgress = "◐" // Operation in progress
)
