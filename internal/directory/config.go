package directory

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/tliron/commonlog"

	"weft/internal/ast"
	"weft/internal/cfg"
)

var log = commonlog.GetLogger("weft.directory")

// Output selects what the CLI prints for every graph.
type Output struct {
	Color   bool `hcl:"color,optional"`
	Effects bool `hcl:"effects,optional"`
	Summary bool `hcl:"summary,optional"`
}

// Extern is a function implemented outside the translated program. When
// Extension is set, calls to it are emitted as Extension statements rather
// than Call statements.
type Extern struct {
	Handle    *cfg.Handle
	Extension bool
	Pos       ast.Position
}

// Config is the content of a weft.hcl file.
type Config struct {
	Output  Output
	Externs []*Extern
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{Output: Output{Color: true}}
}

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "output"},
		{Type: "extern", LabelNames: []string{"name"}},
	},
}

type hclExtern struct {
	Args    hcl.Expression `hcl:"args,optional"`
	Returns hcl.Expression `hcl:"returns"`
	Kind    *string        `hcl:"kind,optional"`
}

// LoadFile reads and decodes a configuration file.
func LoadFile(path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decode(path, file)
}

// Parse decodes configuration source held in memory.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decode(filename, file)
}

func decode(filename string, file *hcl.File) (*Config, error) {
	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	config := Default()
	if block, blockDiags := findUniqueBlock(content.Blocks, "output"); blockDiags.HasErrors() {
		diags = append(diags, blockDiags...)
	} else if block != nil {
		diags = append(diags, gohcl.DecodeBody(block.Body, nil, &config.Output)...)
	}

	seen := make(map[string]hcl.Range)
	for _, block := range content.Blocks {
		if block.Type != "extern" {
			continue
		}
		name := block.Labels[0]
		if first, dup := seen[name]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate extern",
				Detail:   fmt.Sprintf("extern %q was already declared at %s.", name, first),
				Subject:  block.DefRange.Ptr(),
			})
			continue
		}
		seen[name] = block.DefRange

		extern, externDiags := decodeExtern(name, block)
		diags = append(diags, externDiags...)
		if extern != nil {
			config.Externs = append(config.Externs, extern)
		}
	}

	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}
	log.Debugf("loaded %s: %d externs", filename, len(config.Externs))
	return config, nil
}

func decodeExtern(name string, block *hcl.Block) (*Extern, hcl.Diagnostics) {
	var raw hclExtern
	diags := gohcl.DecodeBody(block.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, diags
	}

	args, argDiags := decodeTypeList(raw.Args)
	diags = append(diags, argDiags...)
	ret, retDiags := decodeType(raw.Returns)
	diags = append(diags, retDiags...)

	extension := false
	if raw.Kind != nil {
		switch *raw.Kind {
		case "function":
		case "extension":
			extension = true
		default:
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid extern kind",
				Detail:   fmt.Sprintf("kind must be \"function\" or \"extension\", got %q.", *raw.Kind),
				Subject:  block.DefRange.Ptr(),
			})
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	return &Extern{
		Handle:    &cfg.Handle{Name: name, Args: args, Ret: ret},
		Extension: extension,
		Pos:       rangePosition(block.DefRange),
	}, diags
}

// findUniqueBlock returns the only block of the given type, or nil.
func findUniqueBlock(blocks hcl.Blocks, name string) (*hcl.Block, hcl.Diagnostics) {
	var found *hcl.Block
	var diags hcl.Diagnostics

	for _, block := range blocks {
		if block.Type == name {
			if found != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate \"" + name + "\" block",
					Detail:   "Only one \"" + name + "\" block is allowed.",
					Subject:  &block.DefRange,
				})
			}
			found = block
		}
	}

	return found, diags
}

func rangePosition(r hcl.Range) ast.Position {
	return ast.Position{
		Filename: r.Filename,
		Offset:   r.Start.Byte,
		Line:     r.Start.Line,
		Column:   r.Start.Column,
	}
}
