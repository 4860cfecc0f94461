// Package directory resolves function names to handles. It is filled from
// the externs of a weft.hcl file and from the functions declared in the
// source file being translated.
package directory

import (
	"sort"

	"weft/internal/ast"
	"weft/internal/cfg"
	"weft/internal/errors"
)

// Entry is a resolvable function.
type Entry struct {
	Handle    *cfg.Handle
	Extension bool
	Extern    bool
	Pos       ast.Position
}

// Directory maps function names to entries.
type Directory struct {
	entries map[string]*Entry
}

func New() *Directory {
	return &Directory{entries: make(map[string]*Entry)}
}

// FromConfig returns a directory holding the externs of c.
func FromConfig(c *Config) (*Directory, error) {
	d := New()
	for _, ext := range c.Externs {
		entry := &Entry{Handle: ext.Handle, Extension: ext.Extension, Extern: true, Pos: ext.Pos}
		if err := d.Declare(entry); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Declare adds an entry. Declaring a name twice is an error.
func (d *Directory) Declare(e *Entry) error {
	if _, exists := d.entries[e.Handle.Name]; exists {
		err := errors.DuplicateDeclaration(e.Handle.Name, e.Pos)
		return &err
	}
	d.entries[e.Handle.Name] = e
	return nil
}

// Lookup finds the entry for name.
func (d *Directory) Lookup(name string) (*Entry, bool) {
	e, ok := d.entries[name]
	return e, ok
}

// Names returns every declared name in sorted order.
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.entries))
	for name := range d.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy that can be extended without touching d.
func (d *Directory) Clone() *Directory {
	c := New()
	for name, e := range d.entries {
		c.entries[name] = e
	}
	return c
}
