package parser

import (
	"fmt"

	"github.com/sqlweave/engine/internal/token"
)

// Error records a syntax problem found at a specific token. A parse never
// aborts at the first error: it records the error, synchronizes to the next
// statement boundary (a SEMICOLON or EOF), and keeps going so the rest of a
// multi-statement script still yields usable nodes for completion.
type Error struct {
	Pos     token.Pos
	Message string
}

func (e Error) Error() string { return e.Message }

func (p *Parser) errorf(pos token.Pos, format string, args ...any) {
	p.errs = append(p.errs, Error{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) errorUnexpected(want string) {
	tok := p.cur()
	p.errorf(tok.Pos, "unexpected %s, expected %s", tok.Kind, want)
}
