package ast

// BinOp discriminates NodeBinaryExpr nodes via their AttributeKey.
type BinOp uint16

const (
	OpNone BinOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpConcat
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLe
	OpGe
)

// UnaryOp discriminates NodeUnaryExpr and NodeIsExpr nodes via their
// AttributeKey.
type UnaryOp uint16

const (
	UnNone UnaryOp = iota
	UnNeg
	UnIsNull
	UnIsNotNull
	UnIsTrue
	UnIsNotTrue
	UnIsFalse
	UnIsNotFalse
	UnIsUnknown
	UnIsNotUnknown
)

// MatchKind discriminates NodeInExpr/NodeBetweenExpr-adjacent matching
// nodes (LIKE family) via AttributeKey.
type MatchKind uint16

const (
	MatchNone MatchKind = iota
	MatchLike
	MatchILike
	MatchSimilar
)

// JoinKind discriminates NodeJoin nodes via AttributeKey.
type JoinKind uint16

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
	JoinFull
	JoinCross
)

// SetOpKind discriminates NodeSetOpStmt nodes via AttributeKey.
type SetOpKind uint16

const (
	SetOpUnion SetOpKind = iota
	SetOpUnionAll
	SetOpIntersect
	SetOpExcept
)

// NegatedFlag marks a NodeInExpr, NodeBetweenExpr, or NodeMatchExpr as the
// NOT-prefixed form (NOT IN, NOT BETWEEN, NOT LIKE/ILIKE/SIMILAR), set in
// the high bit of AttributeKey alongside MatchKind's low bits for
// NodeMatchExpr. Kept as a flag bit rather than doubling each enum (e.g. a
// separate MatchNotLike) since negation is orthogonal to which of these
// three node kinds it applies to.
const NegatedFlag uint16 = 1 << 15

// AttrMatchKind extracts the MatchKind from a NodeMatchExpr's AttributeKey.
func AttrMatchKind(attributeKey uint16) MatchKind {
	return MatchKind(attributeKey &^ NegatedFlag)
}

// AttrNegated reports whether NegatedFlag is set in attributeKey.
func AttrNegated(attributeKey uint16) bool {
	return attributeKey&NegatedFlag != 0
}
