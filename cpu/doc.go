// Package cpu implements the SS32 processor.
//
// The processor has sixteen 32-bit general-purpose registers (r0-r15, with
// r14 as the stack pointer and r15 as the program counter), three control
// and status registers (status, handler, cause), and a flat little-endian
// 2^32 byte memory. Every instruction is a single 32-bit word.
package cpu
