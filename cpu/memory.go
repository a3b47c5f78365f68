package cpu

import (
	"encoding/binary"
)

const (
	PAGE_SHIFT = 16
	PAGE_SIZE  = 1 << PAGE_SHIFT
	PAGE_MASK  = PAGE_SIZE - 1
)

type page [PAGE_SIZE]byte

// Memory is a sparse 2^32 byte address space. Pages are allocated on
// first write; unwritten bytes read as zero.
type Memory struct {
	pages map[uint32]*page
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{
		pages: map[uint32]*page{},
	}
}

// Pages returns the number of allocated pages.
func (mem *Memory) Pages() int {
	return len(mem.pages)
}

func (mem *Memory) lookup(address uint32, alloc bool) *page {
	index := address >> PAGE_SHIFT
	pg, ok := mem.pages[index]
	if !ok && alloc {
		pg = &page{}
		mem.pages[index] = pg
	}
	return pg
}

// Read8 reads a byte.
func (mem *Memory) Read8(address uint32) byte {
	pg := mem.lookup(address, false)
	if pg == nil {
		return 0
	}
	return pg[address&PAGE_MASK]
}

// Write8 writes a byte.
func (mem *Memory) Write8(address uint32, value byte) {
	mem.lookup(address, true)[address&PAGE_MASK] = value
}

// Read32 reads a little-endian word. Addresses wrap at 2^32.
func (mem *Memory) Read32(address uint32) uint32 {
	offset := address & PAGE_MASK
	if offset <= PAGE_SIZE-4 {
		pg := mem.lookup(address, false)
		if pg == nil {
			return 0
		}
		return binary.LittleEndian.Uint32(pg[offset:])
	}

	var buff [4]byte
	for n := range buff {
		buff[n] = mem.Read8(address + uint32(n))
	}
	return binary.LittleEndian.Uint32(buff[:])
}

// Write32 writes a little-endian word. Addresses wrap at 2^32.
func (mem *Memory) Write32(address uint32, value uint32) {
	offset := address & PAGE_MASK
	if offset <= PAGE_SIZE-4 {
		binary.LittleEndian.PutUint32(mem.lookup(address, true)[offset:], value)
		return
	}

	var buff [4]byte
	binary.LittleEndian.PutUint32(buff[:], value)
	for n, b := range buff {
		mem.Write8(address+uint32(n), b)
	}
}

// Load copies data into memory starting at address.
func (mem *Memory) Load(address uint32, data []byte) {
	for len(data) > 0 {
		pg := mem.lookup(address, true)
		offset := address & PAGE_MASK
		count := copy(pg[offset:], data)
		data = data[count:]
		address += uint32(count)
	}
}
