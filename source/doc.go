// Package source parses SS32 assembly text into assembler commands.
//
// Each line holds optional labels, then a directive or mnemonic with
// comma separated operands. Comments start with '#'.
//
//	loop:   ld [%r1 + 4], %r2   # load
//	        .word 0x10, loop
//
// Operands are written as %reg, [%reg], [%reg + value], $value or value,
// where a value is a number, a character constant like 'a', or a symbol.
//
// The parser also handles the source level directives:
//
//	.equ NAME VALUE   defines a constant, substituted in later operands
//	.end              ignores the remainder of the input
//
// and evaluates $(expr) as a Starlark integer expression over the .equ
// constants, replacing it with the result. $$(expr) is thus an immediate.
package source
