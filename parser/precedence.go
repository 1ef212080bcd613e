package parser

import "github.com/deepnoodle-ai/gscript/internal/token"

// Precedence order for operators
const (
	_ int = iota
	LOWEST
	TERNARY     // ? :
	OR          // ||
	AND         // &&
	EQUALS      // == or !=
	LESSGREATER // > or <
	SUM         // + or -
	PRODUCT     // * or / or %
	PREFIX      // -X or !X
	CALL        // math.max(X, Y)
)

// Precedences for each token type
var precedences = map[token.Type]int{
	token.QUESTION:  TERNARY,
	token.OR:        OR,
	token.AND:       AND,
	token.EQ:        EQUALS,
	token.NOT_EQ:    EQUALS,
	token.LT:        LESSGREATER,
	token.LT_EQUALS: LESSGREATER,
	token.GT:        LESSGREATER,
	token.GT_EQUALS: LESSGREATER,
	token.PLUS:      SUM,
	token.MINUS:     SUM,
	token.ASTERISK:  PRODUCT,
	token.SLASH:     PRODUCT,
	token.MOD:       PRODUCT,
}
