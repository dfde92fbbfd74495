package emu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevisdale/mos6502/internal/cpu"
)

// divideProgram divides the 16-bit word at $10/$11 by ten with the
// classic 16-round rotate-and-subtract loop, leaving the quotient at
// $00/$01 and the remainder at $02/$03, then parks on a terminal jump.
//
//	$8000  LDA $10      $8011  ROL $00      $8029  DEX
//	       STA $00             ROL $01             BNE $8011
//	       LDA $11             ROL $02             ROL $00
//	       STA $01             ROL $03             ROL $01
//	       LDA #$00            SEC           $8030 JMP $8030
//	       STA $02             LDA $02
//	       STA $03             SBC #$0A
//	       CLC                 TAY
//	       LDX #$10            LDA $03
//	                           SBC #$00
//	                           BCC $8029
//	                           STY $02
//	                           STA $03
var divideProgram = []byte{
	0xa5, 0x10, 0x85, 0x00, 0xa5, 0x11, 0x85, 0x01,
	0xa9, 0x00, 0x85, 0x02, 0x85, 0x03, 0x18, 0xa2,
	0x10, 0x26, 0x00, 0x26, 0x01, 0x26, 0x02, 0x26,
	0x03, 0x38, 0xa5, 0x02, 0xe9, 0x0a, 0xa8, 0xa5,
	0x03, 0xe9, 0x00, 0x90, 0x04, 0x84, 0x02, 0x85,
	0x03, 0xca, 0xd0, 0xe5, 0x26, 0x00, 0x26, 0x01,
	0x4c, 0x30, 0x80,
}

func newDivideMachine(t *testing.T) *Machine {
	t.Helper()
	m := New()
	require.NoError(t, m.Mem().AddBlock(0x8000, uint32(len(divideProgram)), "ROM", true, divideProgram))
	m.SetResetVector(0x8000)
	return m
}

func Test_DivideByTen(t *testing.T) {
	type testArgs struct {
		dividend uint16
		quotient uint16
		rem      uint16
	}

	tests := map[string]testArgs{
		"16320": {dividend: 16320, quotient: 1632, rem: 0},
		"1234":  {dividend: 1234, quotient: 123, rem: 4},
		"9":     {dividend: 9, quotient: 0, rem: 9},
		"10":    {dividend: 10, quotient: 1, rem: 0},
		"zero":  {dividend: 0, quotient: 0, rem: 0},
		"max":   {dividend: 65535, quotient: 6553, rem: 5},
	}

	m := newDivideMachine(t)

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			m.Load(0x0010, []byte{uint8(args.dividend), uint8(args.dividend >> 8)})
			m.Reset()

			steps, err := m.Run(10_000)
			require.NoError(t, err)
			assert.Less(t, steps, uint64(10_000), "program should park before the budget runs out")
			assert.True(t, m.CPU().Halted())

			assert.Equal(t, args.quotient, m.Mem().Read16(0x0000), "quotient")
			assert.Equal(t, args.rem, m.Mem().Read16(0x0002), "remainder")
		})
	}
}

func Test_Run_StopsAtBudget(t *testing.T) {
	m := New()
	m.Load(0x8000, []byte{
		0xe8,             // INX
		0x4c, 0x00, 0x80, // JMP $8000
	})
	m.SetResetVector(0x8000)
	m.Reset()

	steps, err := m.Run(5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), steps)
	assert.False(t, m.CPU().Halted())
}

func Test_Run_ReportsFault(t *testing.T) {
	m := New()
	m.Load(0x8000, []byte{0x02})
	m.SetResetVector(0x8000)
	m.Reset()

	steps, err := m.Run(100)
	assert.Equal(t, uint64(0), steps)

	var opErr *cpu.OpcodeError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, uint16(0x8000), opErr.PC)
}

func Test_SubroutineRoundTrip(t *testing.T) {
	m := New()
	m.Load(0x8000, []byte{
		0x20, 0x00, 0x90, // JSR $9000
		0x4c, 0x03, 0x80, // JMP $8003
	})
	m.Load(0x9000, []byte{
		0xa9, 0x42, // LDA #$42
		0x60, // RTS
	})
	m.SetResetVector(0x8000)
	m.Reset()

	steps, err := m.Run(100)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), steps)
	assert.True(t, m.CPU().Halted())
	assert.Equal(t, uint8(0x42), m.CPU().A())
	assert.Equal(t, uint8(0xfd), m.CPU().SP())
}

func Test_LoadROMFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xa9, 0x42, 0x4c, 0x02, 0x80}, 0o644))

	m := New()
	require.NoError(t, m.LoadROMFile(path, 0x8000))
	m.SetResetVector(0x8000)
	m.Reset()

	_, err := m.Run(100)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x42), m.CPU().A())

	// the image is mapped read-only
	m.Mem().Write8(0x8000, 0x00)
	assert.Equal(t, uint8(0xa9), m.Mem().Read8(0x8000))
}

func Test_LoadROMFile_Missing(t *testing.T) {
	m := New()
	err := m.LoadROMFile(filepath.Join(t.TempDir(), "nope.bin"), 0x8000)
	assert.Error(t, err)
}

func Test_StepControl(t *testing.T) {
	m := New()
	m.Load(0x8000, []byte{0xe8, 0xe8, 0xe8}) // INX x3
	m.SetResetVector(0x8000)
	m.Reset()

	m.TogglePause()
	assert.True(t, m.Paused())
	require.NoError(t, m.RunCycles(100))
	assert.Equal(t, uint8(0), m.CPU().X(), "paused machine must not execute")

	m.OneStepAndStop()
	require.NoError(t, m.RunCycles(100))
	assert.Equal(t, uint8(1), m.CPU().X(), "single step executes exactly one instruction")

	m.TogglePause()
	assert.False(t, m.Paused())
}
