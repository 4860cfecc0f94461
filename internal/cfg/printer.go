package cfg

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

func (a *Atom) String() string     { return fmt.Sprintf("%%%d", a.ID) }
func (r *Register) String() string { return fmt.Sprintf("@r%d", r.ID) }
func (g *GlobalVar) String() string {
	return "$" + g.Name
}

func (l *Literal) String() string {
	if _, ok := l.Type.(*UnitType); ok {
		return "()"
	}
	if s, ok := l.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", l.Value)
}

func atomList(atoms []*Atom) string {
	parts := make([]string, len(atoms))
	for i, a := range atoms {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

func typed(a *Atom) string {
	return fmt.Sprintf("%s: %s", a, a.Type)
}

func opName(e Expr) string {
	if n, ok := e.(Named); ok {
		return n.OpName()
	}
	return fmt.Sprintf("%T", e)
}

func (s *AssignStmt) String() string {
	switch op := s.Op.(type) {
	case *Atom:
		return fmt.Sprintf("%s = %s", typed(s.Result), op)
	case *Literal:
		return fmt.Sprintf("%s = CONST %s", typed(s.Result), op)
	}
	if len(s.Args) == 0 {
		return fmt.Sprintf("%s = %s", typed(s.Result), opName(s.Op))
	}
	return fmt.Sprintf("%s = %s %s", typed(s.Result), opName(s.Op), atomList(s.Args))
}

func (s *ReadGlobalStmt) String() string {
	return fmt.Sprintf("%s = READ_GLOBAL %s", typed(s.Result), s.Global)
}

func (s *WriteGlobalStmt) String() string {
	return fmt.Sprintf("WRITE_GLOBAL %s, %s", s.Global, s.Value)
}

func (s *NewRefStmt) String() string {
	return fmt.Sprintf("%s = NEW_REF %s", typed(s.Result), s.Value)
}

func (s *ReadRefStmt) String() string {
	return fmt.Sprintf("%s = READ_REF %s", typed(s.Result), s.Ref)
}

func (s *WriteRefStmt) String() string {
	return fmt.Sprintf("WRITE_REF %s, %s", s.Ref, s.Value)
}

func (s *DropRefStmt) String() string { return fmt.Sprintf("DROP_REF %s", s.Ref) }

func (s *ReadRegisterStmt) String() string {
	return fmt.Sprintf("%s = READ %s", typed(s.Result), s.Reg)
}

func (s *SetRegisterStmt) String() string {
	return fmt.Sprintf("SET %s, %s", s.Reg, s.Value)
}

func (s *PrintStmt) String() string { return fmt.Sprintf("PRINT %s", s.Msg) }

func (s *AssertStmt) String() string {
	return fmt.Sprintf("ASSERT %s, %s", s.Cond, s.Msg)
}

func (s *CallStmt) String() string {
	return fmt.Sprintf("%s = CALL %s(%s)", typed(s.Result), s.Func, atomList(s.Args))
}

func (s *ExtensionStmt) String() string {
	return fmt.Sprintf("%s = EXT %s(%s)", typed(s.Result), s.Op.ExtensionName(), atomList(s.Args))
}

func blockName(id BlockID) string { return fmt.Sprintf("block%d", id) }

func (t *JumpTerminator) String() string {
	if t.Arg != nil {
		return fmt.Sprintf("JUMP %s(%s)", blockName(t.Target), t.Arg)
	}
	return fmt.Sprintf("JUMP %s", blockName(t.Target))
}

func (t *BranchTerminator) String() string {
	return fmt.Sprintf("BRANCH %s ? %s : %s", t.Cond, blockName(t.True), blockName(t.False))
}

func (t *ReturnTerminator) String() string { return fmt.Sprintf("RETURN %s", t.Value) }

func (t *ReportErrorTerminator) String() string { return fmt.Sprintf("ERROR %s", t.Msg) }

func (t *MaybeBranchTerminator) String() string {
	return fmt.Sprintf("CASE_MAYBE %s just %s nothing %s", t.Value, blockName(t.Just), blockName(t.Nothing))
}

func (t *VariantBranchTerminator) String() string {
	names := make([]string, len(t.Cases))
	for i, c := range t.Cases {
		names[i] = blockName(c)
	}
	return fmt.Sprintf("CASE_VARIANT %s [%s]", t.Value, strings.Join(names, ", "))
}

func (t *TailCallTerminator) String() string {
	return fmt.Sprintf("TAIL_CALL %s(%s)", t.Func, atomList(t.Args))
}

// PrinterOptions controls the text rendering of graphs.
type PrinterOptions struct {
	Color   bool
	Effects bool
}

// Printer provides pretty-printing for graphs
type Printer struct {
	opts   PrinterOptions
	indent int
	output strings.Builder

	header func(a ...interface{}) string
	term   func(a ...interface{}) string
	fail   func(a ...interface{}) string
	dim    func(a ...interface{}) string
}

// NewPrinter creates a printer with the given options.
func NewPrinter(opts PrinterOptions) *Printer {
	p := &Printer{opts: opts}
	p.header = p.colorFunc(color.Bold)
	p.term = p.colorFunc(color.FgCyan)
	p.fail = p.colorFunc(color.FgRed, color.Bold)
	p.dim = p.colorFunc(color.Faint)
	return p
}

func (p *Printer) colorFunc(attrs ...color.Attribute) func(a ...interface{}) string {
	if !p.opts.Color {
		return fmt.Sprint
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.SprintFunc()
}

// Print renders a build result: the function graph followed by its
// auxiliary graphs.
func Print(res *Result) string {
	p := NewPrinter(PrinterOptions{})
	p.PrintResult(res)
	return p.String()
}

// PrintCFG renders a single graph without color.
func PrintCFG(g *CFG) string {
	p := NewPrinter(PrinterOptions{})
	p.PrintCFG(g)
	return p.String()
}

// String returns everything printed so far.
func (p *Printer) String() string { return p.output.String() }

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

// PrintResult prints the function graph and every auxiliary graph.
func (p *Printer) PrintResult(res *Result) {
	p.PrintCFG(res.CFG)
	for _, aux := range res.Aux {
		p.writeLine("")
		p.PrintCFG(aux)
	}
}

// PrintCFG prints one graph.
func (p *Printer) PrintCFG(g *CFG) {
	args := make([]string, len(g.Handle.Args))
	if entry := g.Entry(); entry != nil && len(entry.Inputs) == len(args) {
		for i, in := range entry.Inputs {
			args[i] = typed(in)
		}
	} else {
		for i, t := range g.Handle.Args {
			args[i] = t.String()
		}
	}
	p.writeLine("%s", p.header(fmt.Sprintf("fn %s(%s) -> %s {", g.Handle.Name, strings.Join(args, ", "), g.Handle.Ret)))
	for _, blk := range g.Blocks {
		p.printBlock(blk)
	}
	p.writeLine("%s", p.header("}"))
}

func (p *Printer) printBlock(blk *Block) {
	label := blockName(blk.ID)
	if blk.IsLambda {
		label = fmt.Sprintf("%s(%s)", label, typed(blk.Inputs[0]))
	}
	p.writeLine("%s:", p.header(label))
	p.indent++
	for _, s := range blk.Stmts {
		line := s.String()
		if p.opts.Effects && !IsPure(s) {
			line += "  " + p.dim("; "+effectList(s.GetEffects()))
		}
		p.writeLine("%s", line)
	}
	if _, ok := blk.Term.(*ReportErrorTerminator); ok {
		p.writeLine("%s", p.fail(blk.Term.String()))
	} else {
		p.writeLine("%s", p.term(blk.Term.String()))
	}
	p.indent--
}

func effectList(effects []Effect) string {
	parts := make([]string, len(effects))
	for i, e := range effects {
		switch e := e.(type) {
		case *RegisterEffect:
			parts[i] = fmt.Sprintf("register:%s", e.Type)
		case *GlobalEffect:
			parts[i] = fmt.Sprintf("global:%s $%s", e.Type, e.Name)
		case *RefEffect:
			parts[i] = fmt.Sprintf("ref:%s", e.Type)
		case *ExtensionEffect:
			parts[i] = fmt.Sprintf("extension:%s", e.Name)
		default:
			parts[i] = e.EffectKind()
		}
	}
	return strings.Join(parts, ", ")
}
