// Package status defines the closed set of status codes the embedding API
// (§7 of the spec) surfaces through FFIResult.status_code, plus the
// EngineError type that carries one of them across package boundaries. Kept
// as its own package (rather than living in internal/catalog, where most of
// the codes originate) so internal/parser, internal/analyzer,
// internal/catalog, and internal/completion can all depend on the enum
// without depending on each other.
package status

// Code is one of the closed set of status values returned via
// FFIResult.status_code.
type Code uint32

const (
	OK Code = iota

	// Scanner diagnostics, non-fatal: attached to ScannedScript.Errors.
	ScannerUnterminatedString
	ScannerUnterminatedComment
	ScannerInvalidNumericLiteral

	// Parser diagnostics, non-fatal: attached to ParsedScript.Errors.
	ParserSyntaxError
	ParserInputNotScanned

	AnalyzerInputNotParsed

	CatalogNull
	CatalogMismatch
	CatalogIDOutOfSync
	CatalogScriptNotAnalyzed
	CatalogScriptUnknown
	CatalogDescriptorPoolUnknown
	CatalogDescriptorTablesNull
	CatalogDescriptorTableNameEmpty
	CatalogDescriptorTableNameCollision

	CompletionMissesCursor
	CompletionMissesScannerToken

	ExternalIDCollision

	// Analyzer diagnostics, non-fatal: attached to AnalyzedScript.Errors.
	UnresolvedTable
	UnresolvedColumn
	AmbiguousColumn
	DuplicateTableColumn
)

var names = map[Code]string{
	OK:                                  "OK",
	ScannerUnterminatedString:           "SCANNER_UNTERMINATED_STRING",
	ScannerUnterminatedComment:          "SCANNER_UNTERMINATED_COMMENT",
	ScannerInvalidNumericLiteral:        "SCANNER_INVALID_NUMERIC_LITERAL",
	ParserSyntaxError:                   "PARSER_SYNTAX_ERROR",
	ParserInputNotScanned:               "PARSER_INPUT_NOT_SCANNED",
	AnalyzerInputNotParsed:              "ANALYZER_INPUT_NOT_PARSED",
	CatalogNull:                         "CATALOG_NULL",
	CatalogMismatch:                     "CATALOG_MISMATCH",
	CatalogIDOutOfSync:                  "CATALOG_ID_OUT_OF_SYNC",
	CatalogScriptNotAnalyzed:            "CATALOG_SCRIPT_NOT_ANALYZED",
	CatalogScriptUnknown:                "CATALOG_SCRIPT_UNKNOWN",
	CatalogDescriptorPoolUnknown:        "CATALOG_DESCRIPTOR_POOL_UNKNOWN",
	CatalogDescriptorTablesNull:         "CATALOG_DESCRIPTOR_TABLES_NULL",
	CatalogDescriptorTableNameEmpty:     "CATALOG_DESCRIPTOR_TABLE_NAME_EMPTY",
	CatalogDescriptorTableNameCollision: "CATALOG_DESCRIPTOR_TABLE_NAME_COLLISION",
	CompletionMissesCursor:              "COMPLETION_MISSES_CURSOR",
	CompletionMissesScannerToken:        "COMPLETION_MISSES_SCANNER_TOKEN",
	ExternalIDCollision:                 "EXTERNAL_ID_COLLISION",
	UnresolvedTable:                     "UNRESOLVED_TABLE",
	UnresolvedColumn:                    "UNRESOLVED_COLUMN",
	AmbiguousColumn:                    "AMBIGUOUS_COLUMN",
	DuplicateTableColumn:                "DUPLICATE_TABLE_COLUMN",
}

func (c Code) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return "UNKNOWN"
}

// Location pinpoints where a diagnostic applies, in byte offsets into a
// script's text at the time the diagnostic was produced.
type Location struct {
	Offset int
	Length int
}

// Error is the error type every non-fatal diagnostic (scanner, parser,
// analyzer) and every catalog precondition failure is returned as, carrying
// the closed status Code alongside a human-readable message and (for
// position-bound diagnostics) a Location.
type Error struct {
	Code     Code
	Message  string
	Location *Location
}

func (e *Error) Error() string { return e.Message }

// New returns an Error with no location (used for catalog precondition
// failures, which aren't tied to a script offset).
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// At returns an Error bound to loc (used for scanner/parser/analyzer
// diagnostics).
func At(code Code, loc Location, message string) *Error {
	return &Error{Code: code, Message: message, Location: &loc}
}
