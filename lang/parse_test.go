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

package lang

import (
	"testing"

	"github.com/muonic/muon/lang/token"
)

func mustParse(t *testing.T, src string, mode Mode) *Node {
	t.Helper()
	n, err := Parse([]byte(src), mode)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	return n
}

func TestParseAssignment(t *testing.T) {
	n := mustParse(t, "x = 1 + 2\n", Normal)
	if len(n.Children) != 1 || n.Children[0].Kind != KAssign {
		t.Fatalf("expected single assignment statement, got %+v", n.Children)
	}
	assign := n.Children[0]
	if assign.Left.Kind != KIdent || assign.Left.Data != "x" {
		t.Fatalf("lhs wrong: %+v", assign.Left)
	}
	add := assign.Right
	if add.Kind != KBinOp || add.Data != token.PLUS {
		t.Fatalf("rhs wrong: %+v", add)
	}
}

func TestParsePlusEqual(t *testing.T) {
	n := mustParse(t, "srcs += ['a.c']\n", Normal)
	assign := n.Children[0]
	if assign.Kind != KAssign || assign.Data != token.PLUSEQ {
		t.Fatalf("expected += assignment, got %+v", assign)
	}
}

func TestParseCallWithKwargs(t *testing.T) {
	n := mustParse(t, "executable('prog', 'main.c', install: true)\n", Normal)
	call := n.Children[0]
	if call.Kind != KCall {
		t.Fatalf("expected call, got %+v", call)
	}
	if len(call.Children) != 2 {
		t.Fatalf("expected 2 positional args, got %d", len(call.Children))
	}
	if len(call.KwArgs) != 1 || call.KwArgs[0].Name != "install" {
		t.Fatalf("expected install kwarg, got %+v", call.KwArgs)
	}
}

func TestParseMemberCallChain(t *testing.T) {
	n := mustParse(t, "foo.get('x').strip()\n", Normal)
	outer := n.Children[0]
	if outer.Kind != KCall {
		t.Fatalf("expected outer call, got %+v", outer)
	}
	member := outer.Left
	if member.Kind != KMember || member.Data != "strip" {
		t.Fatalf("expected .strip member, got %+v", member)
	}
}

func TestParseIfElifElse(t *testing.T) {
	src := "if a\n  x = 1\nelif b\n  x = 2\nelse\n  x = 3\nendif\n"
	n := mustParse(t, src, Normal)
	ifNode := n.Children[0]
	if ifNode.Kind != KIf {
		t.Fatalf("expected if, got %+v", ifNode)
	}
	if len(ifNode.Branches) != 2 {
		t.Fatalf("expected 2 branches (if+elif), got %d", len(ifNode.Branches))
	}
	if len(ifNode.Else) != 1 {
		t.Fatalf("expected else body of length 1, got %d", len(ifNode.Else))
	}
}

func TestParseForeachTwoVars(t *testing.T) {
	n := mustParse(t, "foreach k, v : d\n  x = v\nendforeach\n", Normal)
	fe := n.Children[0]
	if fe.Kind != KForeach || len(fe.Vars) != 2 || fe.Vars[0] != "k" || fe.Vars[1] != "v" {
		t.Fatalf("foreach vars wrong: %+v", fe)
	}
}

func TestParseTernary(t *testing.T) {
	n := mustParse(t, "x = a ? 1 : 2\n", Normal)
	cond := n.Children[0].Right
	if cond.Kind != KTernary {
		t.Fatalf("expected ternary, got %+v", cond)
	}
}

func TestParseNotIn(t *testing.T) {
	n := mustParse(t, "x = a not in b\n", Normal)
	rhs := n.Children[0].Right
	if rhs.Kind != KUnary || rhs.Data != token.KW_NOT {
		t.Fatalf("expected not-wrapped binop, got %+v", rhs)
	}
	if rhs.Left.Kind != KBinOp || rhs.Left.Data != token.KW_IN {
		t.Fatalf("expected inner 'in' binop, got %+v", rhs.Left)
	}
}

func TestParseFuncDefScriptMode(t *testing.T) {
	src := "func add(a: int, b: int = 0) -> int\n  return a + b\nendfunc\n"
	n := mustParse(t, src, Script)
	fn := n.Children[0]
	if fn.Kind != KFuncDef {
		t.Fatalf("expected funcdef, got %+v", fn)
	}
	sig := fn.Data.(*FuncSig)
	if sig.Name != "add" || len(sig.Params) != 2 || sig.ReturnType != "int" {
		t.Fatalf("signature wrong: %+v", sig)
	}
	if sig.Params[1].Default == nil {
		t.Fatalf("expected default value on second param")
	}
}

func TestParseArrayAndDictLiterals(t *testing.T) {
	n := mustParse(t, "x = {'a': 1, 'b': [1, 2, 3]}\n", Normal)
	dict := n.Children[0].Right
	if dict.Kind != KDictLit || len(dict.Children) != 4 {
		t.Fatalf("dict literal wrong: %+v", dict)
	}
	arr := dict.Children[3]
	if arr.Kind != KArrayLit || len(arr.Children) != 3 {
		t.Fatalf("array literal wrong: %+v", arr)
	}
}

func TestParseIndexExpr(t *testing.T) {
	n := mustParse(t, "x = arr[0]\n", Normal)
	idx := n.Children[0].Right
	if idx.Kind != KIndex {
		t.Fatalf("expected index, got %+v", idx)
	}
}

func TestParseErrorOnUnexpectedToken(t *testing.T) {
	_, err := Parse([]byte("x = )\n"), Normal)
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestWalkVisitsAllNodes(t *testing.T) {
	n := mustParse(t, "x = 1 + 2\n", Normal)
	count := 0
	Walk(visitorFunc(func(node *Node) Visitor {
		if node != nil {
			count++
		}
		return visitorFunc(func(n *Node) Visitor { return nil })
	}), n)
	if count == 0 {
		t.Fatal("expected Walk to visit at least the root")
	}
}

type visitorFunc func(*Node) Visitor

func (f visitorFunc) Visit(n *Node) Visitor { return f(n) }
