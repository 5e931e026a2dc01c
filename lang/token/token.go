// Copyright (C) 2026 The Muon Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package token defines the lexical tokens produced by the lang lexer.
package token

// Kind identifies the lexical class of a Token.
type Kind int

const (
	EOF Kind = iota
	ERROR

	IDENT
	NUMBER
	STRING   // single- or double-quoted string, already unescaped
	FSTRING  // f-string fragment sequence start, see Token.Parts
	MLSTRING // multi-line string (no interpolation)

	// Punctuation / operators.
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	LBRACE
	RBRACE
	COMMA
	COLON
	DOT
	ASSIGN    // =
	PLUSEQ    // +=
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQ // ==
	NE // !=
	LT
	LE
	GT
	GE
	QUESTION
	ARROW // ->  (script-mode return-type annotation)

	// Keywords.
	KW_IF
	KW_ELIF
	KW_ELSE
	KW_ENDIF
	KW_FOREACH
	KW_ENDFOREACH
	KW_BREAK
	KW_CONTINUE
	KW_AND
	KW_OR
	KW_NOT
	KW_IN
	KW_TRUE
	KW_FALSE
	KW_FUNC // script-mode function definition
	KW_ENDFUNC
	KW_RETURN
)

var names = map[Kind]string{
	EOF: "eof", ERROR: "error", IDENT: "identifier", NUMBER: "number",
	STRING: "string", FSTRING: "fstring", MLSTRING: "multiline-string",
	LPAREN: "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]",
	LBRACE: "{", RBRACE: "}", COMMA: ",", COLON: ":", DOT: ".",
	ASSIGN: "=", PLUSEQ: "+=", PLUS: "+", MINUS: "-", STAR: "*",
	SLASH: "/", PERCENT: "%", EQ: "==", NE: "!=", LT: "<", LE: "<=",
	GT: ">", GE: ">=", QUESTION: "?", ARROW: "->",
	KW_IF: "if", KW_ELIF: "elif", KW_ELSE: "else", KW_ENDIF: "endif",
	KW_FOREACH: "foreach", KW_ENDFOREACH: "endforeach", KW_BREAK: "break",
	KW_CONTINUE: "continue", KW_AND: "and", KW_OR: "or", KW_NOT: "not",
	KW_IN: "in", KW_TRUE: "true", KW_FALSE: "false",
	KW_FUNC: "func", KW_ENDFUNC: "endfunc", KW_RETURN: "return",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown"
}

// keywords are reserved only outside string/identifier-quoting contexts;
// script mode adds func/endfunc/return on top of the normal-mode set.
var keywords = map[string]Kind{
	"if": KW_IF, "elif": KW_ELIF, "else": KW_ELSE, "endif": KW_ENDIF,
	"foreach": KW_FOREACH, "endforeach": KW_ENDFOREACH,
	"break": KW_BREAK, "continue": KW_CONTINUE,
	"and": KW_AND, "or": KW_OR, "not": KW_NOT, "in": KW_IN,
	"true": KW_TRUE, "false": KW_FALSE,
}

var scriptKeywords = map[string]Kind{
	"func": KW_FUNC, "endfunc": KW_ENDFUNC, "return": KW_RETURN,
}

// Lookup returns the keyword Kind for word, if any. scriptMode also
// recognizes the script-mode-only keywords (spec: "script-mode extensions
// (function definitions with typed signatures, return, break/continue in
// loops...)").
func Lookup(word string, scriptMode bool) (Kind, bool) {
	if k, ok := keywords[word]; ok {
		return k, true
	}
	if scriptMode {
		if k, ok := scriptKeywords[word]; ok {
			return k, true
		}
	}
	return 0, false
}

// Position is a 1-based line/column location within one source file.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Token is one lexeme.
type Token struct {
	Kind  Kind
	Pos   Position
	End   Position
	Str string // IDENT name, unescaped STRING/MLSTRING contents
	Num int64  // NUMBER literal value; this language's numbers are integers only

	// FSTRING: Parts alternates literal fragments and '@var@' references,
	// e.g. "a@b@c" -> Parts = ["a", "b", "c"], FSTRVars = [true at index 1].
	Parts    []string
	FSTRVars []bool

	// Comments attached immediately before this token, only populated in
	// fmt mode (spec.md §4.4: "A separate 'fmt' mode preserves whitespace
	// and comments in the tree").
	LeadingComments []string
}
