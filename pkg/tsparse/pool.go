package tsparse

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// grammarPool hands out tree-sitter parsers for a single grammar variant so
// concurrent Parse calls don't serialize behind one mutex: go-tree-sitter
// parsers aren't safe for concurrent reuse, but constructing one only to
// throw it away per call is wasteful, so a pool of them is grown lazily up
// to maxSize and recycled through a buffered channel.
type grammarPool struct {
	variant Variant
	langPtr unsafe.Pointer
	slots   chan *ts.Parser
	maxSize int

	mu      sync.Mutex
	created int

	logger *slog.Logger
}

func newGrammarPool(variant Variant, langPtr unsafe.Pointer, maxSize int, logger *slog.Logger) *grammarPool {
	return &grammarPool{
		variant: variant,
		langPtr: langPtr,
		slots:   make(chan *ts.Parser, maxSize),
		maxSize: maxSize,
		logger:  logger,
	}
}

// acquire hands back an idle parser if one is sitting in the pool, otherwise
// grows the pool (up to maxSize) or blocks for a release.
func (p *grammarPool) acquire() (*ts.Parser, error) {
	select {
	case parser := <-p.slots:
		return parser, nil
	default:
	}

	if parser, ok, err := p.grow(); ok || err != nil {
		return parser, err
	}

	// Every slot is checked out and the pool is already at maxSize: wait
	// for whichever caller finishes first rather than unbounded-allocate.
	return <-p.slots, nil
}

// grow creates a new parser if the pool hasn't reached maxSize yet. The
// bool return distinguishes "grew" from "at capacity, caller should wait"
// so acquire doesn't have to duplicate the capacity check.
func (p *grammarPool) grow() (*ts.Parser, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.created >= p.maxSize {
		return nil, false, nil
	}

	parser := ts.NewParser()
	if parser == nil {
		return nil, true, fmt.Errorf("tsparse: failed to create %s parser", p.variant)
	}
	if err := parser.SetLanguage(ts.NewLanguage(p.langPtr)); err != nil {
		parser.Close()
		return nil, true, fmt.Errorf("tsparse: failed to set %s grammar: %w", p.variant, err)
	}

	p.created++
	p.logger.Debug("grammar pool grew", "variant", p.variant.String(), "size", p.created, "max", p.maxSize)
	return parser, true, nil
}

// release returns parser to the pool, or closes it if the pool is already
// at capacity (can happen if maxSize shrinks underneath an in-flight
// acquire, which doesn't happen today but costs nothing to guard against).
func (p *grammarPool) release(parser *ts.Parser) {
	if parser == nil {
		return
	}
	select {
	case p.slots <- parser:
	default:
		p.logger.Warn("grammar pool full, closing excess parser", "variant", p.variant.String())
		parser.Close()
	}
}

func (p *grammarPool) close() {
	close(p.slots)
	closed := 0
	for parser := range p.slots {
		if parser != nil {
			parser.Close()
			closed++
		}
	}
	p.logger.Debug("grammar pool closed", "variant", p.variant.String(), "parsers_closed", closed)
}
