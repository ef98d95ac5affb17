// Package host defines the small host interface the Loader Orchestrator is
// driven through (spec §6 "Loader API (consumed by host bundler)") and a
// default filesystem-backed implementation for the standalone CLI and MCP
// server, where there is no embedding bundler to supply one. The interface
// shape mirrors the teacher's pkg/util.FileCache: an explicit interface
// plus one concrete implementation, rather than a bag of free functions.
package host

// Source supplies file contents to the pipeline (spec §6 "getSource(path)
// -> string").
type Source interface {
	GetSource(path string) (string, error)
}

// Resolver maps an import specifier plus containing file to an absolute
// path (spec §6 "resolve(specifier, containingFile) -> path"). Must fail
// loudly (return a non-nil error) when a specifier cannot be resolved; the
// orchestrator decides whether that failure matters (spec §7: only a hard
// error when the unresolved dependency is actually reached).
type Resolver interface {
	Resolve(specifier, containingFile string) (string, error)
}

// Host bundles the two host-provided hooks the orchestrator needs. A host
// bundler embedding this module implements Host directly; the standalone
// CLI/MCP server use Default below.
type Host interface {
	Source
	Resolver
}

// Invalidator is the optional third hook (spec §6 "optional invalidate(path)
// signal — the orchestrator wires this to cache.invalidateFile"). It is not
// part of Host because a host that never mutates files on disk (e.g. a
// one-shot CLI run) has no need to supply it.
type Invalidator interface {
	Invalidate(path string)
}
