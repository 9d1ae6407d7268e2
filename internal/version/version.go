// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - Eclipse timeline TUI, file watching, GeoJSON line export
// 0.2.0 - Saros grouping, sqlite evaluation cache, Horizons evaluator
// 0.1.0 - Initial release: return solver, astrocartography lines, eclipse activations
