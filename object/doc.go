// Package object implements the relocatable program representation shared
// by the SS32 assembler, linker and emulator.
//
// An object File bundles a SymbolTable, a SectionTable and the
// RelocationTables of one translation unit. Each Section carries its code
// bytes followed by a literal/symbol pool, which holds 32-bit values that do
// not fit into the 12-bit displacement field of an instruction.
//
// Files and linked Images have a canonical little-endian binary encoding,
// see File.WriteTo, ReadFile, Image.WriteTo and ReadImage.
package object
