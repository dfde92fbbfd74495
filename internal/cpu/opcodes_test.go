package cpu

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ADC(t *testing.T) {
	type testArgs struct {
		initA        uint8
		initP        uint8
		operandValue uint8
		expectedA    uint8
		expectedP    uint8
		pageCrossed  bool
		expectedCyc  uint8
	}

	testDo := func(t *testing.T, args testArgs) {
		c := NewCPU(nil)
		c.a = args.initA
		c.p = args.initP
		c.operandValue = args.operandValue
		c.pageCrossed = args.pageCrossed

		c.adc()

		assert.Equal(t, args.expectedA, c.a, "A register")
		assert.Equal(t, args.expectedP, c.p, "P register")
		assert.Equal(t, args.expectedCyc, c.cycles, "cycles")
	}

	t.Run("simple add", func(t *testing.T) {
		testDo(t, testArgs{
			initA:        0x10,
			operandValue: 0x20,
			expectedA:    0x30,
		})
	})

	t.Run("add with carry in", func(t *testing.T) {
		testDo(t, testArgs{
			initA:        0x10,
			initP:        FlagC,
			operandValue: 0x20,
			expectedA:    0x31,
		})
	})

	t.Run("carry out", func(t *testing.T) {
		testDo(t, testArgs{
			initA:        0xff,
			operandValue: 0x01,
			expectedA:    0x00,
			expectedP:    FlagC | FlagZ,
		})
	})

	t.Run("signed overflow positive", func(t *testing.T) {
		testDo(t, testArgs{
			initA:        0x7f,
			operandValue: 0x01,
			expectedA:    0x80,
			expectedP:    FlagV | FlagN,
		})
	})

	t.Run("signed overflow negative", func(t *testing.T) {
		testDo(t, testArgs{
			initA:        0x80,
			operandValue: 0xff,
			expectedA:    0x7f,
			expectedP:    FlagC | FlagV,
		})
	})

	t.Run("page cross costs a cycle", func(t *testing.T) {
		testDo(t, testArgs{
			initA:        0x01,
			operandValue: 0x01,
			expectedA:    0x02,
			pageCrossed:  true,
			expectedCyc:  1,
		})
	})
}

func Test_SBC(t *testing.T) {
	type testArgs struct {
		initA        uint8
		initP        uint8
		operandValue uint8
		expectedA    uint8
		expectedP    uint8
	}

	testDo := func(t *testing.T, args testArgs) {
		c := NewCPU(nil)
		c.a = args.initA
		c.p = args.initP
		c.operandValue = args.operandValue

		c.sbc()

		assert.Equal(t, args.expectedA, c.a, "A register")
		assert.Equal(t, args.expectedP, c.p, "P register")
	}

	t.Run("simple subtract", func(t *testing.T) {
		testDo(t, testArgs{
			initA:        0x30,
			initP:        FlagC,
			operandValue: 0x10,
			expectedA:    0x20,
			expectedP:    FlagC,
		})
	})

	t.Run("borrow in", func(t *testing.T) {
		testDo(t, testArgs{
			initA:        0x30,
			operandValue: 0x10,
			expectedA:    0x1f,
			expectedP:    FlagC,
		})
	})

	t.Run("borrow out", func(t *testing.T) {
		testDo(t, testArgs{
			initA:        0x10,
			initP:        FlagC,
			operandValue: 0x20,
			expectedA:    0xf0,
			expectedP:    FlagN,
		})
	})

	t.Run("signed overflow", func(t *testing.T) {
		testDo(t, testArgs{
			initA:        0x80,
			initP:        FlagC,
			operandValue: 0x01,
			expectedA:    0x7f,
			expectedP:    FlagC | FlagV,
		})
	})

	t.Run("zero result", func(t *testing.T) {
		testDo(t, testArgs{
			initA:        0x42,
			initP:        FlagC,
			operandValue: 0x42,
			expectedA:    0x00,
			expectedP:    FlagC | FlagZ,
		})
	})
}

// The carry and overflow flags must agree with widened arithmetic for
// every combination of sign quadrants and carry input.
func Test_ADC_SBC_FlagsMatchWidenedArithmetic(t *testing.T) {
	operands := []uint8{0x00, 0x01, 0x3f, 0x40, 0x7f, 0x80, 0x81, 0xc0, 0xff}

	for _, a := range operands {
		for _, m := range operands {
			for _, carry := range []uint8{0, 1} {
				name := fmt.Sprintf("a=%02X m=%02X c=%d", a, m, carry)

				t.Run("ADC "+name, func(t *testing.T) {
					c := NewCPU(nil)
					c.a = a
					c.setFlag(FlagC, carry == 1)
					c.operandValue = m

					c.adc()

					unsigned := uint16(a) + uint16(m) + uint16(carry)
					signed := int16(int8(a)) + int16(int8(m)) + int16(carry)

					assert.Equal(t, uint8(unsigned), c.a, "result")
					assert.Equal(t, unsigned > 0xff, c.Flag(FlagC), "carry")
					assert.Equal(t, signed < -128 || signed > 127, c.Flag(FlagV), "overflow")
				})

				t.Run("SBC "+name, func(t *testing.T) {
					c := NewCPU(nil)
					c.a = a
					c.setFlag(FlagC, carry == 1)
					c.operandValue = m

					c.sbc()

					borrow := uint16(1 - carry)
					unsigned := uint16(a) - uint16(m) - borrow
					signed := int16(int8(a)) - int16(int8(m)) - int16(borrow)

					assert.Equal(t, uint8(unsigned), c.a, "result")
					assert.Equal(t, uint16(a) >= uint16(m)+borrow, c.Flag(FlagC), "carry")
					assert.Equal(t, signed < -128 || signed > 127, c.Flag(FlagV), "overflow")
				})
			}
		}
	}
}

func Test_ADC_Decimal(t *testing.T) {
	type testArgs struct {
		initA         uint8
		carryIn       bool
		operandValue  uint8
		expectedA     uint8
		expectedCarry bool
	}

	testDo := func(t *testing.T, args testArgs) {
		c := NewCPU(nil)
		c.a = args.initA
		c.p = FlagD
		c.setFlag(FlagC, args.carryIn)
		c.operandValue = args.operandValue

		c.adc()

		assert.Equal(t, args.expectedA, c.a, "A register")
		assert.Equal(t, args.expectedCarry, c.Flag(FlagC), "carry")
	}

	t.Run("19 + 27 = 46", func(t *testing.T) {
		testDo(t, testArgs{initA: 0x19, operandValue: 0x27, expectedA: 0x46})
	})

	t.Run("58 + 46 + 1 = 105 wraps to 05 with carry", func(t *testing.T) {
		testDo(t, testArgs{
			initA: 0x58, carryIn: true, operandValue: 0x46,
			expectedA: 0x05, expectedCarry: true,
		})
	})

	t.Run("99 + 01 = 100 wraps to 00 with carry", func(t *testing.T) {
		testDo(t, testArgs{
			initA: 0x99, operandValue: 0x01,
			expectedA: 0x00, expectedCarry: true,
		})
	})
}

func Test_SBC_Decimal(t *testing.T) {
	type testArgs struct {
		initA         uint8
		carryIn       bool
		operandValue  uint8
		expectedA     uint8
		expectedCarry bool
	}

	testDo := func(t *testing.T, args testArgs) {
		c := NewCPU(nil)
		c.a = args.initA
		c.p = FlagD
		c.setFlag(FlagC, args.carryIn)
		c.operandValue = args.operandValue

		c.sbc()

		assert.Equal(t, args.expectedA, c.a, "A register")
		assert.Equal(t, args.expectedCarry, c.Flag(FlagC), "carry")
	}

	t.Run("46 - 12 = 34", func(t *testing.T) {
		testDo(t, testArgs{
			initA: 0x46, carryIn: true, operandValue: 0x12,
			expectedA: 0x34, expectedCarry: true,
		})
	})

	t.Run("12 - 21 borrows and wraps to 91", func(t *testing.T) {
		testDo(t, testArgs{
			initA: 0x12, carryIn: true, operandValue: 0x21,
			expectedA: 0x91, expectedCarry: false,
		})
	})

	t.Run("extra borrow in", func(t *testing.T) {
		testDo(t, testArgs{
			initA: 0x46, carryIn: false, operandValue: 0x12,
			expectedA: 0x33, expectedCarry: true,
		})
	})
}

// ROL followed by ROR restores both the byte and the carry flag for
// every value and carry input.
func Test_ROL_ROR_Inverse(t *testing.T) {
	for v := 0; v < 0x100; v++ {
		for _, carry := range []bool{false, true} {
			c, m := newTestCPU(0x8000,
				0x26, 0x10, // ROL $10
				0x66, 0x10, // ROR $10
			)
			m.data[0x0010] = uint8(v)
			c.setFlag(FlagC, carry)

			_, err := c.Step()
			assert.NoError(t, err)
			_, err = c.Step()
			assert.NoError(t, err)

			assert.Equal(t, uint8(v), m.data[0x0010], "value v=%02X carry=%v", v, carry)
			assert.Equal(t, carry, c.Flag(FlagC), "carry v=%02X carry=%v", v, carry)
		}
	}
}

func Test_ASL_LSR(t *testing.T) {
	t.Run("ASL accumulator", func(t *testing.T) {
		c := NewCPU(nil)
		c.a = 0x81
		c.operandValue = c.a
		c.addrMode = addrModeACC

		c.asl()

		assert.Equal(t, uint8(0x02), c.a)
		assert.True(t, c.Flag(FlagC))
		assert.False(t, c.Flag(FlagN))
	})

	t.Run("LSR accumulator", func(t *testing.T) {
		c := NewCPU(nil)
		c.a = 0x01
		c.operandValue = c.a
		c.addrMode = addrModeACC

		c.lsr()

		assert.Equal(t, uint8(0x00), c.a)
		assert.True(t, c.Flag(FlagC))
		assert.True(t, c.Flag(FlagZ))
	})
}

func Test_Branch_Cycles(t *testing.T) {
	type branch struct {
		opcode   uint8
		flag     uint8
		takenSet bool
	}

	branches := map[string]branch{
		"BCC": {opcode: 0x90, flag: FlagC, takenSet: false},
		"BCS": {opcode: 0xb0, flag: FlagC, takenSet: true},
		"BNE": {opcode: 0xd0, flag: FlagZ, takenSet: false},
		"BEQ": {opcode: 0xf0, flag: FlagZ, takenSet: true},
		"BPL": {opcode: 0x10, flag: FlagN, takenSet: false},
		"BMI": {opcode: 0x30, flag: FlagN, takenSet: true},
		"BVC": {opcode: 0x50, flag: FlagV, takenSet: false},
		"BVS": {opcode: 0x70, flag: FlagV, takenSet: true},
	}

	for name, b := range branches {
		t.Run(name+" not taken", func(t *testing.T) {
			c, _ := newTestCPU(0x8000, b.opcode, 0x10)
			c.setFlag(b.flag, !b.takenSet)

			n, err := c.Step()
			assert.NoError(t, err)
			assert.Equal(t, uint8(2), n)
			assert.Equal(t, uint16(0x8002), c.PC())
		})

		t.Run(name+" taken same page", func(t *testing.T) {
			c, _ := newTestCPU(0x8000, b.opcode, 0x10)
			c.setFlag(b.flag, b.takenSet)

			n, err := c.Step()
			assert.NoError(t, err)
			assert.Equal(t, uint8(3), n)
			assert.Equal(t, uint16(0x8012), c.PC())
		})

		t.Run(name+" taken across a page", func(t *testing.T) {
			c, _ := newTestCPU(0x80fa, b.opcode, 0x10)
			c.setFlag(b.flag, b.takenSet)

			n, err := c.Step()
			assert.NoError(t, err)
			assert.Equal(t, uint8(4), n)
			assert.Equal(t, uint16(0x810c), c.PC())
		})
	}
}

func Test_Compare(t *testing.T) {
	type testArgs struct {
		register     uint8
		operandValue uint8
		expectedP    uint8
	}

	tests := map[string]testArgs{
		"equal":   {register: 0x42, operandValue: 0x42, expectedP: FlagC | FlagZ},
		"greater": {register: 0x50, operandValue: 0x42, expectedP: FlagC},
		"less":    {register: 0x20, operandValue: 0x42, expectedP: FlagN},
	}

	for name, args := range tests {
		t.Run("CMP "+name, func(t *testing.T) {
			c := NewCPU(nil)
			c.a = args.register
			c.operandValue = args.operandValue

			c.cmp()

			assert.Equal(t, args.expectedP, c.p, "P register")
		})

		t.Run("CPX "+name, func(t *testing.T) {
			c := NewCPU(nil)
			c.x = args.register
			c.operandValue = args.operandValue

			c.cpx()

			assert.Equal(t, args.expectedP, c.p, "P register")
		})

		t.Run("CPY "+name, func(t *testing.T) {
			c := NewCPU(nil)
			c.y = args.register
			c.operandValue = args.operandValue

			c.cpy()

			assert.Equal(t, args.expectedP, c.p, "P register")
		})
	}
}

func Test_BIT(t *testing.T) {
	c := NewCPU(nil)
	c.a = 0x01
	c.operandValue = 0xc0

	c.bit()

	assert.True(t, c.Flag(FlagZ))
	assert.True(t, c.Flag(FlagN))
	assert.True(t, c.Flag(FlagV))
}

func Test_Loads_SetFlags(t *testing.T) {
	t.Run("zero", func(t *testing.T) {
		c := NewCPU(nil)
		c.operandValue = 0x00

		c.lda()

		assert.Equal(t, uint8(0), c.a)
		assert.True(t, c.Flag(FlagZ))
		assert.False(t, c.Flag(FlagN))
	})

	t.Run("negative", func(t *testing.T) {
		c := NewCPU(nil)
		c.operandValue = 0x80

		c.ldx()

		assert.Equal(t, uint8(0x80), c.x)
		assert.False(t, c.Flag(FlagZ))
		assert.True(t, c.Flag(FlagN))
	})
}

func Test_IncDecRegisters(t *testing.T) {
	c := NewCPU(nil)
	c.x = 0xff

	c.inx()
	assert.Equal(t, uint8(0x00), c.x)
	assert.True(t, c.Flag(FlagZ))

	c.y = 0x00
	c.dey()
	assert.Equal(t, uint8(0xff), c.y)
	assert.True(t, c.Flag(FlagN))
}

func Test_Transfers(t *testing.T) {
	c := NewCPU(nil)
	c.a = 0x80

	c.tax()
	assert.Equal(t, uint8(0x80), c.x)
	assert.True(t, c.Flag(FlagN))

	c.x = 0x42
	c.txs()
	assert.Equal(t, uint8(0x42), c.sp)

	c.tsx()
	assert.Equal(t, uint8(0x42), c.x)
	assert.False(t, c.Flag(FlagN))
}

func Test_InstructionTableShape(t *testing.T) {
	c := NewCPU(nil)

	documented := 0
	for op := 0; op < 0x100; op++ {
		in := c.instrs[op]
		if in.fn == nil {
			continue
		}
		documented++
		assert.NotEmpty(t, in.name, "opcode %02X has no mnemonic", op)
		assert.NotZero(t, in.cycles, "opcode %02X has no base cycle cost", op)
	}
	assert.Equal(t, 151, documented)
}
