package grammar

import (
	"fmt"
	"strconv"
	"strings"
)

func indent(level int) string {
	return strings.Repeat("    ", level)
}

func (p *Program) String() string {
	var b strings.Builder
	for i, item := range p.Items {
		if i > 0 && item.Comment == nil {
			b.WriteString("\n")
		}
		b.WriteString(item.StringWithIndent(0))
	}
	return b.String()
}

func (i *Item) StringWithIndent(level int) string {
	switch {
	case i.Comment != nil:
		return i.Comment.String() + "\n"
	case i.Global != nil:
		return i.Global.String() + "\n"
	case i.Function != nil:
		return i.Function.StringWithIndent(level)
	}
	return ""
}

func (c *Comment) String() string {
	return c.Text
}

func (g *Global) String() string {
	return fmt.Sprintf("global %s: %s;", g.Name, g.Type.String())
}

func (t *Type) String() string {
	if t.Maybe != nil {
		return "maybe " + t.Maybe.String()
	}
	return t.Name
}

func (p *Param) String() string {
	return fmt.Sprintf("%s: %s", p.Name, p.Type.String())
}

func paramList(params []*Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// Signature renders the function header without its body.
func (f *Function) Signature() string {
	s := fmt.Sprintf("fn %s(%s)", f.Name, paramList(f.Params))
	if f.Return != nil {
		s += " -> " + f.Return.String()
	}
	return s
}

func (f *Function) StringWithIndent(level int) string {
	return indent(level) + f.Signature() + " " + f.Body.StringWithIndent(level) + "\n"
}

func (bl *Block) StringWithIndent(level int) string {
	if len(bl.Statements) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, s := range bl.Statements {
		b.WriteString(indent(level+1) + s.StringWithIndent(level+1) + "\n")
	}
	b.WriteString(indent(level) + "}")
	return b.String()
}

func (s *Statement) StringWithIndent(level int) string {
	switch {
	case s.Comment != nil:
		return s.Comment.String()
	case s.Let != nil:
		return s.Let.StringWithIndent(level)
	case s.Var != nil:
		return fmt.Sprintf("var %s: %s = %s;", s.Var.Name, s.Var.Type.String(), s.Var.Value.StringWithIndent(level))
	case s.While != nil:
		return fmt.Sprintf("while %s %s", s.While.Cond.StringWithIndent(level), s.While.Body.StringWithIndent(level))
	case s.Unless != nil:
		return fmt.Sprintf("unless %s %s", s.Unless.Cond.StringWithIndent(level), s.Unless.Body.StringWithIndent(level))
	case s.Print != nil:
		return fmt.Sprintf("print %s;", s.Print.Value.StringWithIndent(level))
	case s.Assert != nil:
		return fmt.Sprintf("assert %s, %s;", s.Assert.Cond.StringWithIndent(level), s.Assert.Message.StringWithIndent(level))
	case s.Return != nil:
		if s.Return.Value == nil {
			return "return;"
		}
		return fmt.Sprintf("return %s;", s.Return.Value.StringWithIndent(level))
	case s.Fail != nil:
		return fmt.Sprintf("fail %s;", s.Fail.Message.StringWithIndent(level))
	case s.Tail != nil:
		return fmt.Sprintf("tail %s(%s);", s.Tail.Callee, exprList(s.Tail.Args, level))
	case s.GlobalAssign != nil:
		return fmt.Sprintf("$%s = %s;", s.GlobalAssign.Name, s.GlobalAssign.Value.StringWithIndent(level))
	case s.Assign != nil:
		return fmt.Sprintf("%s = %s;", s.Assign.Name, s.Assign.Value.StringWithIndent(level))
	case s.Expr != nil:
		if s.Expr.Semi {
			return s.Expr.Expr.StringWithIndent(level) + ";"
		}
		return s.Expr.Expr.StringWithIndent(level)
	}
	return ""
}

func (l *LetStmt) StringWithIndent(level int) string {
	if l.Type != nil {
		return fmt.Sprintf("let %s: %s = %s;", l.Name, l.Type.String(), l.Value.StringWithIndent(level))
	}
	return fmt.Sprintf("let %s = %s;", l.Name, l.Value.StringWithIndent(level))
}

func exprList(exprs []*Expr, level int) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.StringWithIndent(level)
	}
	return strings.Join(parts, ", ")
}

func (e *Expr) String() string {
	return e.StringWithIndent(0)
}

func (e *Expr) StringWithIndent(level int) string {
	s := e.Left.StringWithIndent(level)
	for _, op := range e.Ops {
		s += " " + op.Operator + " " + op.Right.StringWithIndent(level)
	}
	return s
}

func (u *Unary) StringWithIndent(level int) string {
	return u.Operator + u.Value.StringWithIndent(level)
}

func (p *Postfix) StringWithIndent(level int) string {
	s := p.Primary.StringWithIndent(level)
	for _, suffix := range p.Suffix {
		switch {
		case suffix.Call != nil:
			s += "(" + exprList(suffix.Call.Args, level) + ")"
		case suffix.Unwrap != nil:
			s += "! " + strconv.Quote(*suffix.Unwrap)
		case suffix.Assume != nil:
			s += "!! " + strconv.Quote(*suffix.Assume)
		}
	}
	return s
}

func (p *Primary) StringWithIndent(level int) string {
	switch {
	case p.If != nil:
		return p.If.StringWithIndent(level)
	case p.Match != nil:
		return p.Match.StringWithIndent(level)
	case p.Lambda != nil:
		return fmt.Sprintf("fn (%s) -> %s %s", paramList(p.Lambda.Params), p.Lambda.Return.String(), p.Lambda.Body.StringWithIndent(level))
	case p.Some != nil:
		return "some " + p.Some.StringWithIndent(level)
	case p.None != nil:
		return "none " + p.None.String()
	case p.Bool != nil:
		return *p.Bool
	case p.Number != nil:
		return *p.Number
	case p.String != nil:
		return strconv.Quote(*p.String)
	case p.Unit:
		return "()"
	case p.Global != nil:
		return "$" + *p.Global
	case p.Ident != nil:
		return *p.Ident
	case p.Parens != nil:
		return "(" + p.Parens.StringWithIndent(level) + ")"
	}
	return ""
}

func (i *If) StringWithIndent(level int) string {
	cond := i.Cond.StringWithIndent(level)
	if v := i.Arms.Value; v != nil {
		return fmt.Sprintf("if %s then %s else %s", cond, v.Then.StringWithIndent(level), v.Else.StringWithIndent(level))
	}
	arms := i.Arms.Block
	s := fmt.Sprintf("if %s %s", cond, arms.Then.StringWithIndent(level))
	switch {
	case arms.Else == nil:
	case arms.Else.If != nil:
		s += " else " + arms.Else.If.StringWithIndent(level)
	case arms.Else.Block != nil:
		s += " else " + arms.Else.Block.StringWithIndent(level)
	}
	return s
}

func (m *Match) StringWithIndent(level int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("match %s {\n", m.Value.StringWithIndent(level)))
	b.WriteString(fmt.Sprintf("%ssome %s => %s,\n", indent(level+1), m.Binding, m.Some.StringWithIndent(level+1)))
	b.WriteString(fmt.Sprintf("%snone => %s,\n", indent(level+1), m.None.StringWithIndent(level+1)))
	b.WriteString(indent(level) + "}")
	return b.String()
}

func (a *Arm) StringWithIndent(level int) string {
	if a.Block != nil {
		return a.Block.StringWithIndent(level)
	}
	return a.Expr.StringWithIndent(level)
}
