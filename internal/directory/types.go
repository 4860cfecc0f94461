package directory

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"weft/internal/cfg"
)

// unknownKeyword is attached to the Extra field of diagnostics about type
// keywords that name no weft type.
type unknownKeyword string

// Keyword returns the configuration keyword for t, the inverse of the
// decoding done for extern declarations.
func Keyword(t cfg.Type) string {
	switch t := t.(type) {
	case *cfg.BoolType:
		return "bool"
	case *cfg.IntType:
		return "int"
	case *cfg.StringType:
		return "string"
	case *cfg.UnitType:
		return "unit"
	case *cfg.MaybeType:
		return "maybe_" + Keyword(t.Elem)
	}
	return t.String()
}

// ParseKeyword resolves a type keyword: bool, int, string, unit or
// maybe_<keyword>.
func ParseKeyword(kw string) (cfg.Type, bool) {
	switch kw {
	case "bool":
		return cfg.Bool, true
	case "int":
		return cfg.Int, true
	case "string":
		return cfg.String, true
	case "unit":
		return cfg.Unit, true
	}
	if elem, ok := strings.CutPrefix(kw, "maybe_"); ok {
		if t, ok := ParseKeyword(elem); ok {
			return &cfg.MaybeType{Elem: t}, true
		}
	}
	return nil, false
}

// decodeType accepts either a bare keyword (returns = int) or a string
// (returns = "int").
func decodeType(expr hcl.Expression) (cfg.Type, hcl.Diagnostics) {
	if traversal, diags := hcl.AbsTraversalForExpr(expr); !diags.HasErrors() && len(traversal) == 1 {
		return keywordType(traversal.RootName(), expr.Range())
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() || !val.IsKnown() || !val.Type().Equals(cty.String) {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid type specification",
			Detail:   "A type must be a keyword like int or a string like \"maybe_int\".",
			Subject:  expr.Range().Ptr(),
		}}
	}
	return keywordType(val.AsString(), expr.Range())
}

// decodeTypeList decodes a list of type keywords. An absent attribute is
// an empty list.
func decodeTypeList(expr hcl.Expression) ([]cfg.Type, hcl.Diagnostics) {
	if val, diags := expr.Value(nil); !diags.HasErrors() && val.IsNull() {
		return nil, nil
	}

	elems, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		return nil, diags
	}
	types := make([]cfg.Type, 0, len(elems))
	for _, elem := range elems {
		t, elemDiags := decodeType(elem)
		diags = append(diags, elemDiags...)
		if t != nil {
			types = append(types, t)
		}
	}
	return types, diags
}

func keywordType(kw string, rng hcl.Range) (cfg.Type, hcl.Diagnostics) {
	if t, ok := ParseKeyword(kw); ok {
		return t, nil
	}
	return nil, hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unknown type keyword",
		Detail:   fmt.Sprintf("%q is not a type; use bool, int, string, unit or maybe_<keyword>.", kw),
		Subject:  rng.Ptr(),
		Extra:    unknownKeyword(kw),
	}}
}
