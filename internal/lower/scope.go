package lower

import (
	"strings"

	"weft/internal/ast"
	"weft/internal/cfg"
	"weft/internal/errors"
)

// closure is a function literal bound by let. Calling it passes the
// captured atoms ahead of the arguments.
type closure struct {
	handle   *cfg.Handle
	fn       *cfg.FuncType
	captured []*cfg.Atom
}

// binding is a name in scope. Exactly one of atom, reg and closure is set,
// except in typing scopes where only typ is known.
type binding struct {
	name    string
	pos     ast.Position
	typ     cfg.Type
	atom    *cfg.Atom
	reg     *cfg.Register
	closure *closure
	param   bool
	used    bool
}

type scope struct {
	parent *scope
	names  map[string]*binding
	order  []*binding

	// typing scopes only exist while computing the type of a branch ahead
	// of lowering it
	typing bool
}

func newScope(parent *scope, typing bool) *scope {
	return &scope{parent: parent, names: make(map[string]*binding), typing: typing}
}

func (s *scope) bind(b *binding) {
	s.names[b.name] = b
	s.order = append(s.order, b)
}

// lookup finds name in s or an enclosing scope and marks it used.
func (s *scope) lookup(name string) *binding {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.names[name]; ok {
			b.used = true
			return b
		}
	}
	return nil
}

// visible lists every name reachable from s, innermost first.
func (s *scope) visible() []string {
	var names []string
	seen := make(map[string]bool)
	for sc := s; sc != nil; sc = sc.parent {
		for _, b := range sc.order {
			if !seen[b.name] {
				seen[b.name] = true
				names = append(names, b.name)
			}
		}
	}
	return names
}

func (c *function) push() {
	c.scope = newScope(c.scope, c.scope.typing)
}

func (c *function) pushTyping() {
	c.scope = newScope(c.scope, true)
}

// pop leaves the innermost scope, warning about bindings never read.
func (c *function) pop() {
	s := c.scope
	c.scope = s.parent
	if s.typing {
		return
	}
	for _, b := range s.order {
		if !b.used && !b.param && !strings.HasPrefix(b.name, "_") {
			c.report(errors.UnusedVariable(b.name, b.pos))
		}
	}
}

// declare binds a local, rejecting a second declaration of the same name
// in the same scope.
func (c *function) declare(b *binding) {
	if _, exists := c.scope.names[b.name]; exists {
		panic(abort(errors.DuplicateDeclaration(b.name, b.pos)))
	}
	c.scope.bind(b)
}

func (c *function) undefined(name string, pos ast.Position) *errors.CompilerError {
	return abort(errors.UndefinedVariable(name, pos, errors.FindSimilarNames(name, c.scope.visible())))
}
