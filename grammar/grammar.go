package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

type Program struct {
	Pos   lexer.Position
	Items []*Item `@@*`
}

type Item struct {
	Comment  *Comment  `  @@`
	Global   *Global   `| @@`
	Function *Function `| @@`
}

type Comment struct {
	Pos  lexer.Position
	Text string `@Comment`
}

// Global declares a named global storage location.
type Global struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string `"global" @Ident ":"`
	Type   *Type  `@@ ";"`
}

type Function struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string   `"fn" @Ident "("`
	Params []*Param `[ @@ { "," @@ } ] ")"`
	Return *Type    `[ "->" @@ ]`
	Body   *Block   `@@`
}

type Param struct {
	Pos  lexer.Position
	Name string `@Ident ":"`
	Type *Type  `@@`
}

type Type struct {
	Pos   lexer.Position
	Maybe *Type  `  "maybe" @@`
	Name  string `| @("bool" | "int" | "string" | "unit")`
}

// Block is a braced statement list. A trailing expression statement
// without a semicolon is the value of the block.
type Block struct {
	Pos        lexer.Position
	EndPos     lexer.Position
	Statements []*Statement `"{" @@* "}"`
}

type Statement struct {
	Pos          lexer.Position
	Comment      *Comment          `  @@`
	Let          *LetStmt          `| @@`
	Var          *VarStmt          `| @@`
	While        *WhileStmt        `| @@`
	Unless       *UnlessStmt       `| @@`
	Print        *PrintStmt        `| @@`
	Assert       *AssertStmt       `| @@`
	Return       *ReturnStmt       `| @@`
	Fail         *FailStmt         `| @@`
	Tail         *TailStmt         `| @@`
	GlobalAssign *GlobalAssignStmt `| @@`
	Assign       *AssignStmt       `| @@`
	Expr         *ExprStmt         `| @@`
}

type LetStmt struct {
	Pos   lexer.Position
	Name  string `"let" @Ident`
	Type  *Type  `[ ":" @@ ]`
	Value *Expr  `"=" @@ ";"`
}

// VarStmt declares a mutable variable.
type VarStmt struct {
	Pos   lexer.Position
	Name  string `"var" @Ident ":"`
	Type  *Type  `@@`
	Value *Expr  `"=" @@ ";"`
}

type WhileStmt struct {
	Pos  lexer.Position
	Cond *Expr  `"while" @@`
	Body *Block `@@`
}

type UnlessStmt struct {
	Pos  lexer.Position
	Cond *Expr  `"unless" @@`
	Body *Block `@@`
}

type PrintStmt struct {
	Pos   lexer.Position
	Value *Expr `"print" @@ ";"`
}

type AssertStmt struct {
	Pos     lexer.Position
	Cond    *Expr `"assert" @@ ","`
	Message *Expr `@@ ";"`
}

type ReturnStmt struct {
	Pos   lexer.Position
	Value *Expr `"return" [ @@ ] ";"`
}

type FailStmt struct {
	Pos     lexer.Position
	Message *Expr `"fail" @@ ";"`
}

type TailStmt struct {
	Pos    lexer.Position
	Callee string  `"tail" @Ident`
	Args   []*Expr `"(" [ @@ { "," @@ } ] ")" ";"`
}

type GlobalAssignStmt struct {
	Pos   lexer.Position
	Name  string `"$" @Ident "="`
	Value *Expr  `@@ ";"`
}

type AssignStmt struct {
	Pos   lexer.Position
	Name  string `@Ident "="`
	Value *Expr  `@@ ";"`
}

type ExprStmt struct {
	Pos  lexer.Position
	Expr *Expr `@@`
	Semi bool  `[ @";" ]`
}

// Expr is a flat operator chain; precedence is resolved when lowering.
type Expr struct {
	Pos  lexer.Position
	Left *Unary   `@@`
	Ops  []*BinOp `{ @@ }`
}

type BinOp struct {
	Pos      lexer.Position
	Operator string `@("||" | "&&" | "==" | "!=" | "<=" | ">=" | "<" | ">" | "++" | "+" | "-" | "*" | "/" | "%")`
	Right    *Unary `@@`
}

type Unary struct {
	Pos      lexer.Position
	Operator string   `[ @("!" | "-") ]`
	Value    *Postfix `@@`
}

type Postfix struct {
	Pos     lexer.Position
	Primary *Primary  `@@`
	Suffix  []*Suffix `{ @@ }`
}

// Suffix is a call or an unwrap of an optional. "!" checks presence and
// fails with the message, "!!" assumes presence.
type Suffix struct {
	Pos    lexer.Position
	Call   *CallArgs `  @@`
	Unwrap *string   `| "!" @String`
	Assume *string   `| "!!" @String`
}

type CallArgs struct {
	Args []*Expr `"(" [ @@ { "," @@ } ] ")"`
}

type Primary struct {
	Pos    lexer.Position
	If     *If     `  @@`
	Match  *Match  `| @@`
	Lambda *Lambda `| @@`
	Some   *Unary  `| "some" @@`
	None   *Type   `| "none" @@`
	Bool   *string `| @("true" | "false")`
	Number *string `| @Integer`
	String *string `| @String`
	Unit   bool    `| @"(" ")"`
	Global *string `| "$" @Ident`
	Ident  *string `| @Ident`
	Parens *Expr   `| "(" @@ ")"`
}

// If covers both the expression form (if c then a else b) and the block
// form (if c { ... } else { ... }).
type If struct {
	Pos  lexer.Position
	Cond *Expr   `"if" @@`
	Arms *IfArms `@@`
}

type IfArms struct {
	Value *ValueArms `  @@`
	Block *BlockArms `| @@`
}

type ValueArms struct {
	Then *Expr `"then" @@`
	Else *Expr `"else" @@`
}

type BlockArms struct {
	Then *Block   `@@`
	Else *ElseArm `[ "else" @@ ]`
}

type ElseArm struct {
	If    *If    `  @@`
	Block *Block `| @@`
}

type Match struct {
	Pos     lexer.Position
	Value   *Expr  `"match" @@ "{"`
	Binding string `"some" @Ident "=>"`
	Some    *Arm   `@@ ","`
	None    *Arm   `"none" "=>" @@ [ "," ] "}"`
}

type Arm struct {
	Block *Block `  @@`
	Expr  *Expr  `| @@`
}

// Lambda is a nested function literal.
type Lambda struct {
	Pos    lexer.Position
	Tokens []lexer.Token
	Params []*Param `"fn" "(" [ @@ { "," @@ } ] ")"`
	Return *Type    `"->" @@`
	Body   *Block   `@@`
}
