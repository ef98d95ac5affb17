package docnode

import (
	om "github.com/wk8/go-ordered-map/v2"
)

// SymbolMap is an insertion-order-preserving name -> Node map, used for both
// Asset.Exports and the linker's Links side-table (spec §3, §6 "Mapping order
// is preserved").
type SymbolMap = om.OrderedMap[string, *Node]

// NewSymbolMap returns an empty, insertion-ordered symbol map.
func NewSymbolMap() *SymbolMap { return om.New[string, *Node]() }

// Asset is the per-file bundle exchanged between the orchestrator and the
// linker (spec §3 "Asset"). ID is the file's absolute path. Symbols maps a
// local binding name to the exported name it is known under in this file (or
// to the literal "*" when the binding is a namespace re-export).
type Asset struct {
	ID      string            `json:"id"`
	Exports *SymbolMap        `json:"exports"`
	Links   *SymbolMap        `json:"links"`
	Symbols map[string]string `json:"symbols"`
}

// NewAsset returns an empty Asset for the given file path, matching the
// orchestrator's circular-dependency stub shape (spec §4.9).
func NewAsset(filePath string) *Asset {
	return &Asset{
		ID:      filePath,
		Exports: NewSymbolMap(),
		Links:   NewSymbolMap(),
		Symbols: make(map[string]string),
	}
}
