package mem

import (
	"errors"
	"fmt"
)

// Size of the 6502 address space in bytes.
const Size = 0x10000

var (
	ErrBlockOverlap = errors.New("mem: block overlaps an existing block")
	ErrOutOfRange   = errors.New("mem: block does not fit in the address space")
)

// Block describes a named region of the address space.
// Blocks exist for bookkeeping and write protection only:
// every 16-bit address is readable and writable whether or
// not a block covers it.
type Block struct {
	Start    uint16
	Size     uint32
	Name     string
	ReadOnly bool
}

// Memory is a flat 64 KiB byte store. Words are little-endian.
// It is not safe for concurrent use; a Memory belongs to one CPU.
type Memory struct {
	data     [Size]uint8
	readOnly [Size]bool
	blocks   []Block
}

func New() *Memory {
	return &Memory{}
}

// AddBlock registers a region of memory, optionally marking it read-only
// and filling it with initial data. Overlapping an already registered
// block is an error.
func (m *Memory) AddBlock(start uint16, size uint32, name string, readOnly bool, data []byte) error {
	if uint32(start)+size > Size {
		return fmt.Errorf("%w: %s at %04X size %X", ErrOutOfRange, name, start, size)
	}
	end := uint32(start) + size
	for _, b := range m.blocks {
		bEnd := uint32(b.Start) + b.Size
		if uint32(start) < bEnd && end > uint32(b.Start) {
			return fmt.Errorf("%w: %s at %04X size %X", ErrBlockOverlap, name, start, size)
		}
	}
	if readOnly {
		for addr := uint32(start); addr < end; addr++ {
			m.readOnly[addr] = true
		}
	}
	if data != nil {
		m.Load(start, data)
	}
	m.blocks = append(m.blocks, Block{Start: start, Size: size, Name: name, ReadOnly: readOnly})
	return nil
}

// Blocks returns the registered blocks in registration order.
func (m *Memory) Blocks() []Block {
	return m.blocks
}

// Load places a byte image at addr, wrapping at the top of the address
// space. It is the loader surface: write protection does not apply, so a
// ROM image can be placed into its own read-only block.
func (m *Memory) Load(addr uint16, data []byte) {
	for i, b := range data {
		m.data[addr+uint16(i)] = b
	}
}

func (m *Memory) Read8(addr uint16) uint8 {
	return m.data[addr]
}

// Write8 stores one byte. Writes into a read-only block are ignored,
// the way real hardware ignores writes to ROM.
func (m *Memory) Write8(addr uint16, data uint8) {
	if m.readOnly[addr] {
		return
	}
	m.data[addr] = data
}

// Read16 reads a little-endian word. The high byte comes from addr+1
// with the address wrapping modulo 64 KiB.
func (m *Memory) Read16(addr uint16) uint16 {
	lo := uint16(m.Read8(addr))
	hi := uint16(m.Read8(addr + 1))
	return lo | hi<<8
}

// Read16ZP reads a little-endian word from the zero page, wrapping the
// high-byte address within the page: a pointer at $FF reads its high
// byte from $00. Indexed-indirect addressing needs this variant.
func (m *Memory) Read16ZP(addr uint8) uint16 {
	lo := uint16(m.Read8(uint16(addr)))
	hi := uint16(m.Read8(uint16(addr + 1)))
	return lo | hi<<8
}

func (m *Memory) Write16(addr uint16, data uint16) {
	m.Write8(addr, uint8(data&0xff))
	m.Write8(addr+1, uint8(data>>8))
}
