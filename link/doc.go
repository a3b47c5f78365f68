// Package link combines relocatable object files into a single memory image.
//
// Sections are placed in file order. Pinned sections start at the requested
// address, and sections sharing a name are laid out back to back. Once every
// file has been added, Link resolves the exported symbols, patches the
// relocation slots and coalesces the sections into contiguous blocks.
package link
