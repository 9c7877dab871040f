// Package script implements the Script handle (§3 of the spec): a Rope plus
// cached Scan/Parse/Analyze results, staged so each later call reuses the
// previous stage's cache and invalidates forward (never backward) when the
// text changes underneath it.
package script

import (
	"github.com/sqlweave/engine/internal/analyzer"
	"github.com/sqlweave/engine/internal/ast"
	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/completion"
	"github.com/sqlweave/engine/internal/cursor"
	"github.com/sqlweave/engine/internal/handle"
	"github.com/sqlweave/engine/internal/parser"
	"github.com/sqlweave/engine/internal/rope"
	"github.com/sqlweave/engine/internal/scanner"
	"github.com/sqlweave/engine/internal/status"
	"github.com/sqlweave/engine/internal/token"
)

// ScannedScript is the frozen result of a scan: the source text at scan
// time, the token stream, the interned name registry, and any lexical
// errors. Re-scanning produces a new ScannedScript; it never mutates one in
// place, so a Cursor or Completion call holding an old reference keeps
// working against a self-consistent snapshot.
type ScannedScript struct {
	Text     string
	Tokens   []token.Token
	Registry *scanner.NameRegistry
	Errors   []scanner.Error
}

// ParsedScript is the scanned script plus the flat AST it parsed to.
type ParsedScript struct {
	*ScannedScript
	Tree   *ast.Tree
	Errors []parser.Error
}

// Script bundles a Rope with the Scan/Parse/Analyze snapshots derived from
// its current text, plus the catalog entry id this script registers under
// if it's ever loaded into a Catalog. Script exclusively owns its Rope; the
// cached snapshots are read-only once produced, so callers may hold onto an
// old *ScannedScript/*ParsedScript/*analyzer.AnalyzedScript after a
// subsequent edit without it changing underneath them (see cursor's own
// doc comment on the same borrowing discipline).
type Script struct {
	rope    *rope.Rope
	cat     *catalog.Catalog
	entryID handle.EntryID

	scanned  *ScannedScript
	parsed   *ParsedScript
	analyzed *analyzer.AnalyzedScript
	loaded   bool // true once LoadIntoCatalog has registered entryID and it hasn't been dropped
}

// New returns an empty Script bound to cat under entryID. cat may be nil for
// a script that never needs cross-script resolution or catalog membership.
func New(entryID handle.EntryID, cat *catalog.Catalog) *Script {
	return &Script{rope: rope.New(), cat: cat, entryID: entryID}
}

// NewWithText is New followed by inserting text at offset 0.
func NewWithText(entryID handle.EntryID, cat *catalog.Catalog, text string) *Script {
	s := New(entryID, cat)
	s.rope.Insert(0, text)
	return s
}

// Text materializes the script's current full text.
func (s *Script) Text() string {
	return s.rope.String()
}

// Len returns the script's length in codepoints.
func (s *Script) Len() int {
	return s.rope.Len()
}

// Edit replaces the codepoint range [charIdx, charIdx+deleteCount) with
// insert, then invalidates every cached stage: per §5's ordering
// guarantees, a text edit invalidates Scan and everything downstream of it,
// since even the scanner's token boundaries may no longer line up with the
// new text.
func (s *Script) Edit(charIdx, deleteCount int, insert string) {
	if deleteCount > 0 {
		s.rope.Remove(charIdx, deleteCount)
	}
	if insert != "" {
		s.rope.Insert(charIdx, insert)
	}
	s.scanned = nil
	s.parsed = nil
	s.analyzed = nil
}

// Scan runs (or returns the cached result of) the scanner over the script's
// current text.
func (s *Script) Scan() *ScannedScript {
	if s.scanned != nil {
		return s.scanned
	}
	text := s.Text()
	res := scanner.Scan(text)
	s.scanned = &ScannedScript{Text: text, Tokens: res.Tokens, Registry: res.Registry, Errors: res.Errors}
	return s.scanned
}

// Parse runs (or returns the cached result of) the parser over the latest
// scan, scanning first if needed: Scan is idempotent and side-effect-free to
// call again, so Parse always has scanned input to work from. The
// ParserInputNotScanned/AnalyzerInputNotParsed status codes exist for a
// caller that drives internal/parser or internal/analyzer directly instead
// of through a Script; neither can fire through this type's own methods,
// which always stage their inputs correctly.
func (s *Script) Parse() (*ParsedScript, error) {
	if s.parsed != nil {
		return s.parsed, nil
	}
	scanned := s.Scan()
	tree, errs := parser.Parse(scanned.Tokens, scanned.Registry)
	s.parsed = &ParsedScript{ScannedScript: scanned, Tree: tree, Errors: errs}
	return s.parsed, nil
}

// Analyze runs (or returns the cached result of) the analyzer over the
// latest parse, resolving against s's bound catalog (nil is allowed: an
// unbound script resolves only against its own declarations).
func (s *Script) Analyze() (*analyzer.AnalyzedScript, error) {
	if s.analyzed != nil {
		return s.analyzed, nil
	}
	parsed, err := s.Parse()
	if err != nil {
		return nil, err
	}
	s.analyzed = analyzer.Analyze(parsed.Tree, parsed.Registry, s.entryID, s.cat)
	return s.analyzed, nil
}

// LoadIntoCatalog analyzes the script if needed and registers the result in
// s's bound catalog at rank, replacing any previous registration under the
// same entry id (§3's lifecycle: LoadScript obsoletes the prior snapshot
// under that id rather than erroring on a collision with itself).
func (s *Script) LoadIntoCatalog(rank int) error {
	if s.cat == nil {
		return status.New(status.CatalogNull, "script has no bound catalog")
	}
	analyzed, err := s.Analyze()
	if err != nil {
		return err
	}
	if s.loaded {
		if err := s.cat.DropScript(s.entryID); err != nil {
			return err
		}
	}
	if err := s.cat.LoadScript(s.entryID, rank, analyzed); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

// DropFromCatalog revokes this script's catalog registration, if any.
func (s *Script) DropFromCatalog() error {
	if !s.loaded {
		return nil
	}
	if err := s.cat.DropScript(s.entryID); err != nil {
		return err
	}
	s.loaded = false
	return nil
}

// Cursor locates offset against the latest parse (and analysis, if
// available), scanning and parsing on demand but never analyzing: analysis
// requires a settled catalog_version, which a caller should control
// explicitly rather than have triggered as a side effect of cursor
// placement. Call Analyze first for a Cursor whose Context should resolve
// against the catalog.
func (s *Script) Cursor(offset int) (*cursor.Cursor, error) {
	parsed, err := s.Parse()
	if err != nil {
		return nil, err
	}
	return cursor.Place(parsed.Tree, parsed.Tokens, s.analyzed, offset), nil
}

// Complete ranks up to k completion candidates at offset. Like Cursor, it
// never analyzes as a side effect; call Analyze first for catalog-aware
// suggestions.
func (s *Script) Complete(offset, k int) ([]completion.Candidate, error) {
	parsed, err := s.Parse()
	if err != nil {
		return nil, err
	}
	c := cursor.Place(parsed.Tree, parsed.Tokens, s.analyzed, offset)
	return completion.Complete(c, parsed.Tree, parsed.Tokens, s.analyzed, parsed.Registry, s.cat, k), nil
}
