package cpu

import "fmt"

// Disassemble decodes the whole address space into address -> text,
// for debugger display. Bytes with no table entry show as "???".
func (c *CPU) Disassemble() map[uint16]string {
	disasm := make(map[uint16]string, 0x10000)

	addr := uint32(0)
	for addr <= 0xffff {
		pc := uint16(addr)
		opcode := c.read8(pc)
		in := c.instrs[opcode]
		if in.fn == nil {
			disasm[pc] = fmt.Sprintf("$%04X: ???", pc)
			addr++
			continue
		}

		var text string
		switch in.mode {
		case addrModeIMM:
			text = fmt.Sprintf("%s #$%02X", in.name, c.read8(pc+1))
		case addrModeZP:
			text = fmt.Sprintf("%s $%02X", in.name, c.read8(pc+1))
		case addrModeZPX:
			text = fmt.Sprintf("%s $%02X,X", in.name, c.read8(pc+1))
		case addrModeZPY:
			text = fmt.Sprintf("%s $%02X,Y", in.name, c.read8(pc+1))
		case addrModeABS:
			text = fmt.Sprintf("%s $%04X", in.name, c.read16(pc+1))
		case addrModeABSX:
			text = fmt.Sprintf("%s $%04X,X", in.name, c.read16(pc+1))
		case addrModeABSY:
			text = fmt.Sprintf("%s $%04X,Y", in.name, c.read16(pc+1))
		case addrModeIND:
			text = fmt.Sprintf("%s ($%04X)", in.name, c.read16(pc+1))
		case addrModeINDX:
			text = fmt.Sprintf("%s ($%02X,X)", in.name, c.read8(pc+1))
		case addrModeINDY:
			text = fmt.Sprintf("%s ($%02X),Y", in.name, c.read8(pc+1))
		case addrModeREL:
			offset := uint16(c.read8(pc + 1))
			if offset&0x80 > 0 {
				offset |= 0xff00 // sign extend
			}
			text = fmt.Sprintf("%s $%04X", in.name, pc+2+offset)
		case addrModeACC:
			text = fmt.Sprintf("%s A", in.name)
		case addrModeIMP:
			text = in.name
		}

		disasm[pc] = fmt.Sprintf("$%04X: %s {%s}", pc, text, in.mode)
		addr += 1 + uint32(in.mode.operandWidth())
	}

	return disasm
}
