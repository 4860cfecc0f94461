package errors

import (
	"fmt"

	"weft/internal/ast"
)

// Contract violations raised by the CFG builder. They describe misuse of
// the builder API by a front-end, not problems in the translated program,
// so each one carries a note pointing at the front-end.

const contractNote = "this is a bug in the front-end driving the CFG builder"

func contractViolation(code, message string, pos ast.Position) *CompilerError {
	err := NewSemanticError(code, message, pos).
		WithNote(contractNote).
		Build()
	return &err
}

// NoOpenBlock is raised when a statement or terminator is emitted after the
// current block was sealed.
func NoOpenBlock(op string, pos ast.Position) *CompilerError {
	err := contractViolation(ErrorNoOpenBlock, fmt.Sprintf("%s emitted with no open block", op), pos)
	err.HelpText = "a terminating call ends the block; stop emitting on that path"
	return err
}

// UnterminatedBlock is raised when a block body returns with its block open.
func UnterminatedBlock(block int, pos ast.Position) *CompilerError {
	err := contractViolation(ErrorUnterminatedBlock, fmt.Sprintf("block %d was not terminated by its body", block), pos)
	err.HelpText = "end the body with Jump, Branch, Return, ReportError or TailCall"
	return err
}

// ForeignAtom is raised for an atom the current build never produced.
func ForeignAtom(id int, pos ast.Position) *CompilerError {
	return contractViolation(ErrorForeignAtom, fmt.Sprintf("atom %%%d does not belong to this function", id), pos)
}

// OutOfScopeAtom is raised for an atom used on a path where it was never
// assigned: in a block its defining block does not dominate, before its
// definition in the same block, or from a block that was never defined.
func OutOfScopeAtom(id, block int, pos ast.Position) *CompilerError {
	err := contractViolation(ErrorOutOfScopeAtom, fmt.Sprintf("atom %%%d is not in scope in block %d", id, block), pos)
	err.HelpText = "pass the value as the input of a lambda block to use it after a merge"
	return err
}

// UndefinedLabel is raised when a graph is finished with a terminator
// targeting a label that no block was defined for.
func UndefinedLabel(block int, pos ast.Position) *CompilerError {
	return contractViolation(ErrorUndefinedLabel, fmt.Sprintf("block %d is targeted but never defined", block), pos)
}

// BuilderTypeMismatch is raised when a value reaches a type checkpoint with
// the wrong type.
func BuilderTypeMismatch(context, expected, actual string, pos ast.Position) *CompilerError {
	return contractViolation(ErrorBuilderTypeMismatch,
		fmt.Sprintf("%s: expected %s, found %s", context, expected, actual), pos)
}

// LambdaMismatch is raised when a jump passes a value to a plain block or
// passes none to a lambda block.
func LambdaMismatch(block int, lambda bool, pos ast.Position) *CompilerError {
	msg := fmt.Sprintf("block %d takes no input but the jump passes a value", block)
	if lambda {
		msg = fmt.Sprintf("block %d takes one input but the jump passes none", block)
	}
	return contractViolation(ErrorLambdaMismatch, msg, pos)
}

// DivergedOperand is raised when the result of a terminating call is used
// as a value.
func DivergedOperand(pos ast.Position) *CompilerError {
	return contractViolation(ErrorDivergedOperand, "result of a terminating call used as a value", pos)
}

// VariantArity is raised when a variant dispatch does not supply one
// handler per case.
func VariantArity(expected, actual int, pos ast.Position) *CompilerError {
	return contractViolation(ErrorVariantArity,
		fmt.Sprintf("variant has %d cases, %d handlers given", expected, actual), pos)
}

// ArgumentCount is raised when a call passes the wrong number of arguments.
func ArgumentCount(expected, actual int, pos ast.Position) *CompilerError {
	return contractViolation(ErrorArgumentCount,
		fmt.Sprintf("call expects %d arguments, got %d", expected, actual), pos)
}

// LabelReuse is raised when a label is defined a second time.
func LabelReuse(block int, pos ast.Position) *CompilerError {
	return contractViolation(ErrorLabelReuse, fmt.Sprintf("block %d is already defined", block), pos)
}

// BuilderState is raised when any other builder invariant is broken.
func BuilderState(message string, pos ast.Position) *CompilerError {
	return contractViolation(ErrorBuilderState, message, pos)
}
