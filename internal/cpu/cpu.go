package cpu

import "fmt"

// ReadWriter is the CPU's view of the address space.
type ReadWriter interface {
	Read8(addr uint16) uint8
	Write8(addr uint16, data uint8)
}

const (
	stackStartAddr = uint16(0x100)

	vectorNMI   = uint16(0xfffa)
	vectorReset = uint16(0xfffc)
	vectorIRQ   = uint16(0xfffe)
)

// Status register bits.
const (
	FlagC = uint8(1 << iota) // Carry
	FlagZ                    // Zero
	FlagI                    // Interrupt Disable
	FlagD                    // Decimal Mode
	FlagB                    // Break Command
	FlagU                    // Unused, reads back as 1
	FlagV                    // Overflow
	FlagN                    // Negative
)

type addrMode uint8

const (
	addrModeIMM  addrMode = iota + 1 // Immediate
	addrModeZP                       // Zero Page
	addrModeZPX                      // Zero Page X
	addrModeZPY                      // Zero Page Y
	addrModeABS                      // Absolute
	addrModeABSX                     // Absolute X
	addrModeABSY                     // Absolute Y
	addrModeIND                      // Indirect
	addrModeINDX                     // Indirect X
	addrModeINDY                     // Indirect Y
	addrModeREL                      // Relative
	addrModeACC                      // Accumulator
	addrModeIMP                      // Implied
)

func (mode addrMode) String() string {
	switch mode {
	case addrModeIMM:
		return "IMM"
	case addrModeZP:
		return "ZP"
	case addrModeZPX:
		return "ZPX"
	case addrModeZPY:
		return "ZPY"
	case addrModeABS:
		return "ABS"
	case addrModeABSX:
		return "ABSX"
	case addrModeABSY:
		return "ABSY"
	case addrModeIND:
		return "IND"
	case addrModeINDX:
		return "INDX"
	case addrModeINDY:
		return "INDY"
	case addrModeREL:
		return "REL"
	case addrModeACC:
		return "ACC"
	case addrModeIMP:
		return "IMP"
	}
	return "???"
}

// operandWidth is the number of instruction bytes the mode consumes
// after the opcode.
func (mode addrMode) operandWidth() uint16 {
	switch mode {
	case addrModeABS, addrModeABSX, addrModeABSY, addrModeIND:
		return 2
	case addrModeACC, addrModeIMP:
		return 0
	}
	return 1
}

type instr struct {
	name   string
	mode   addrMode
	fn     func()
	cycles uint8
}

// OpcodeError reports an opcode byte with no decode-table entry.
type OpcodeError struct {
	PC     uint16
	Opcode uint8
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("cpu: unimplemented opcode %02X at %04X", e.Opcode, e.PC)
}

// StackError reports a stack pointer wrap in strict mode. Overflow means
// a push wrapped below $0100, otherwise a pull wrapped above $01FF.
type StackError struct {
	PC       uint16
	Overflow bool
}

func (e *StackError) Error() string {
	if e.Overflow {
		return fmt.Sprintf("cpu: stack overflow at %04X", e.PC)
	}
	return fmt.Sprintf("cpu: stack underflow at %04X", e.PC)
}

// CPU is a MOS 6502 core. It owns its register file and drives one
// ReadWriter. A CPU must not be used from more than one goroutine.
type CPU struct {
	a            uint8
	x            uint8
	y            uint8
	p            uint8
	sp           uint8
	pc           uint16
	mem          ReadWriter
	instrs       [0x100]instr
	cycles       uint8 // cycles charged to the instruction in flight
	totalCycles  uint64
	opPC         uint16 // address of the opcode being executed
	addrMode     addrMode
	operandAddr  uint16
	operandValue uint8
	pageCrossed  bool
	halted       bool
	stackFault   *StackError

	// IllegalNOPs makes an unknown opcode byte execute as a one-byte
	// two-cycle NOP instead of faulting.
	IllegalNOPs bool

	// StrictStack makes Step report stack pointer wraparound. The wrap
	// still happens, as on hardware.
	StrictStack bool
}

func isSameSign(a, b uint8) bool {
	return (a^b)&0x80 == 0
}

func isDiffPage(a, b uint16) bool {
	return a&0xff00 != b&0xff00
}

// NewCPU creates a core attached to mem. Call Reset before stepping.
func NewCPU(mem ReadWriter) *CPU {
	c := &CPU{
		mem: mem,
	}
	c.initInstructions()
	return c
}

func (c *CPU) read8(addr uint16) uint8 {
	return c.mem.Read8(addr)
}

func (c *CPU) read16(addr uint16) uint16 {
	return uint16(c.read8(addr)) | uint16(c.read8(addr+1))<<8
}

func (c *CPU) write8(addr uint16, data uint8) {
	c.mem.Write8(addr, data)
}

func (c *CPU) getFlag(flag uint8) bool {
	return c.p&flag > 0
}

func (c *CPU) setFlag(flag uint8, v bool) {
	if v {
		c.p |= flag
		return
	}
	c.p &= ^flag
}

func (c *CPU) setFlagsZN(value uint8) {
	c.setFlag(FlagZ, value == 0)
	c.setFlag(FlagN, value&FlagN > 0)
}

func (c *CPU) stackPush8(data uint8) {
	if c.StrictStack && c.sp == 0x00 && c.stackFault == nil {
		c.stackFault = &StackError{PC: c.opPC, Overflow: true}
	}
	c.write8(stackStartAddr|uint16(c.sp), data)
	c.sp--
}

func (c *CPU) stackPush16(data uint16) {
	lo := uint8(data & 0xff)
	hi := uint8(data >> 8)
	c.stackPush8(hi)
	c.stackPush8(lo)
}

func (c *CPU) stackPop8() uint8 {
	if c.StrictStack && c.sp == 0xff && c.stackFault == nil {
		c.stackFault = &StackError{PC: c.opPC, Overflow: false}
	}
	c.sp++
	return c.read8(stackStartAddr | uint16(c.sp))
}

func (c *CPU) stackPop16() uint16 {
	lo := uint16(c.stackPop8())
	hi := uint16(c.stackPop8())
	return lo | hi<<8
}

// Reset re-initializes the register file and loads PC from the reset
// vector at $FFFC. Registers come up zeroed for determinism, the
// interrupt-disable flag set, SP at $FD. The sequence costs 7 cycles.
func (c *CPU) Reset() {
	c.a = 0
	c.x = 0
	c.y = 0
	c.p = 0x00 | FlagU | FlagI
	c.sp = 0xfd
	c.pc = c.read16(vectorReset)
	c.totalCycles = 7
	c.halted = false
	c.stackFault = nil
}

// IRQ services a maskable interrupt request. Masked while the
// interrupt-disable flag is set.
func (c *CPU) IRQ() {
	if c.getFlag(FlagI) {
		return
	}
	c.stackPush16(c.pc)
	c.stackPush8((c.p | FlagU) & ^FlagB)
	c.setFlag(FlagI, true)
	c.pc = c.read16(vectorIRQ)
	c.totalCycles += 7
}

// NMI services a non-maskable interrupt request.
func (c *CPU) NMI() {
	c.stackPush16(c.pc)
	c.stackPush8((c.p | FlagU) & ^FlagB)
	c.setFlag(FlagI, true)
	c.pc = c.read16(vectorNMI)
	c.totalCycles += 7
}

// Step fetches, decodes and executes exactly one instruction and returns
// the cycles it consumed. A nil error with zero cycles means the core is
// halted. Faults are returned with the state they describe left intact:
// an unknown opcode halts the core with PC still at the offending byte,
// a strict-mode stack fault leaves the wrapped pointer in place.
func (c *CPU) Step() (uint8, error) {
	if c.halted {
		return 0, nil
	}

	c.opPC = c.pc
	opcode := c.read8(c.pc)
	c.pc++
	in := c.instrs[opcode]
	if in.fn == nil {
		if c.IllegalNOPs {
			c.cycles = 2
			c.totalCycles += 2
			return 2, nil
		}
		c.pc = c.opPC
		c.halted = true
		return 0, &OpcodeError{PC: c.opPC, Opcode: opcode}
	}

	c.cycles = in.cycles
	c.fetch(in.mode)
	in.fn()
	n := c.cycles
	c.totalCycles += uint64(n)

	c.addrMode = 0
	c.operandAddr = 0
	c.operandValue = 0
	c.pageCrossed = false

	if c.stackFault != nil {
		err := c.stackFault
		c.stackFault = nil
		return n, err
	}
	return n, nil
}

// fetch resolves the addressing mode: it consumes the operand bytes,
// computes the effective address and reads the operand value.
func (c *CPU) fetch(addrMode addrMode) {
	c.addrMode = addrMode
	c.pageCrossed = false
	c.operandAddr = 0
	c.operandValue = 0

	switch addrMode {
	case addrModeIMM:
		c.operandAddr = c.pc
		c.pc++
		c.operandValue = c.read8(c.operandAddr)

	case addrModeZP:
		c.operandAddr = uint16(c.read8(c.pc))
		c.pc++
		c.operandValue = c.read8(c.operandAddr)

	case addrModeZPX:
		c.operandAddr = uint16(c.read8(c.pc) + c.x)
		c.pc++
		c.operandValue = c.read8(c.operandAddr)

	case addrModeZPY:
		c.operandAddr = uint16(c.read8(c.pc) + c.y)
		c.pc++
		c.operandValue = c.read8(c.operandAddr)

	case addrModeABS:
		c.operandAddr = c.read16(c.pc)
		c.pc += 2
		c.operandValue = c.read8(c.operandAddr)

	case addrModeABSX:
		baseAddr := c.read16(c.pc)
		c.pc += 2
		c.operandAddr = baseAddr + uint16(c.x)
		c.operandValue = c.read8(c.operandAddr)
		c.pageCrossed = isDiffPage(baseAddr, c.operandAddr)

	case addrModeABSY:
		baseAddr := c.read16(c.pc)
		c.pc += 2
		c.operandAddr = baseAddr + uint16(c.y)
		c.operandValue = c.read8(c.operandAddr)
		c.pageCrossed = isDiffPage(baseAddr, c.operandAddr)

	case addrModeIND:
		addr := c.read16(c.pc)
		c.pc += 2

		lo := addr
		hi := addr + 1
		if lo&0xff == 0xff { // the pointer does not carry across a page
			hi = lo & 0xff00
		}
		c.operandAddr = uint16(c.read8(lo)) | uint16(c.read8(hi))<<8
		c.operandValue = c.read8(c.operandAddr)

	case addrModeINDX:
		addr := uint16(c.read8(c.pc) + c.x)
		c.pc++
		lo := uint16(c.read8(addr & 0x00ff))
		hi := uint16(c.read8((addr + 1) & 0x00ff))
		c.operandAddr = lo | hi<<8
		c.operandValue = c.read8(c.operandAddr)

	case addrModeINDY:
		addr := uint16(c.read8(c.pc))
		c.pc++
		lo := uint16(c.read8(addr))
		hi := uint16(c.read8((addr + 1) & 0x00ff))
		addr = lo | hi<<8
		c.operandAddr = addr + uint16(c.y)
		c.operandValue = c.read8(c.operandAddr)
		c.pageCrossed = isDiffPage(addr, c.operandAddr)

	case addrModeREL:
		c.operandAddr = uint16(c.read8(c.pc))
		c.pc++
		if c.operandAddr&0x80 > 0 {
			c.operandAddr |= 0xff00 // sign extend
		}

	case addrModeACC:
		c.operandValue = c.a

	case addrModeIMP:
	}
}

// A returns the accumulator.
func (c *CPU) A() uint8 { return c.a }

// X returns the X index register.
func (c *CPU) X() uint8 { return c.x }

// Y returns the Y index register.
func (c *CPU) Y() uint8 { return c.y }

// SP returns the stack pointer relative to page one.
func (c *CPU) SP() uint8 { return c.sp }

// PC returns the program counter.
func (c *CPU) PC() uint16 { return c.pc }

// Status returns the raw status register.
func (c *CPU) Status() uint8 { return c.p }

// Flag reports whether every bit of mask is set in the status register.
func (c *CPU) Flag(mask uint8) bool { return c.p&mask == mask }

// Cycles returns the cycles accumulated since the last Reset.
func (c *CPU) Cycles() uint64 { return c.totalCycles }

// Halted reports whether the core stopped on a terminal self-jump or an
// unrecovered fault. Reset clears it.
func (c *CPU) Halted() bool { return c.halted }

// StatusString renders the flags as NV-BDIZC, lowercase when clear.
func (c *CPU) StatusString() string {
	names := "CZIDB-VN"
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		ch := names[7-i]
		if ch != '-' && c.p&(1<<(7-i)) == 0 {
			ch += 'a' - 'A'
		}
		out[i] = ch
	}
	return string(out)
}
