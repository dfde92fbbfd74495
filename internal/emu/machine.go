package emu

import (
	"fmt"
	"os"

	"github.com/nevisdale/mos6502/internal/cpu"
	"github.com/nevisdale/mos6502/internal/mem"
)

// Machine wires one CPU core to one address space and owns the run
// loop. It is the single owner of both: callers needing concurrent
// access must serialize outside.
type Machine struct {
	cpu *cpu.CPU
	mem *mem.Memory

	paused   bool
	stepOnce bool
}

func New() *Machine {
	m := &Machine{}
	m.mem = mem.New()
	m.cpu = cpu.NewCPU(m.mem)
	return m
}

func (m *Machine) CPU() *cpu.CPU { return m.cpu }

func (m *Machine) Mem() *mem.Memory { return m.mem }

// LoadROMFile registers the file's contents as a read-only block at
// origin. The reset vector is part of the image when the ROM covers
// $FFFC, otherwise set it with SetResetVector before Reset.
func (m *Machine) LoadROMFile(path string, origin uint16) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rom: %w", err)
	}
	if err := m.mem.AddBlock(origin, uint32(len(data)), "ROM", true, data); err != nil {
		return fmt.Errorf("map rom: %w", err)
	}
	return nil
}

// Load places bytes into the address space, ignoring write protection.
func (m *Machine) Load(addr uint16, data []byte) {
	m.mem.Load(addr, data)
}

// SetResetVector points the reset vector at addr.
func (m *Machine) SetResetVector(addr uint16) {
	m.mem.Load(0xfffc, []byte{uint8(addr & 0xff), uint8(addr >> 8)})
}

func (m *Machine) Reset() {
	m.cpu.Reset()
}

// Step executes one instruction.
func (m *Machine) Step() (uint8, error) {
	return m.cpu.Step()
}

// Run executes instructions until the core halts, a fault is reported,
// or maxSteps instructions have run. The budget is checked between
// steps, never inside one. It returns the number of steps executed.
func (m *Machine) Run(maxSteps uint64) (uint64, error) {
	var steps uint64
	for steps < maxSteps && !m.cpu.Halted() {
		if _, err := m.cpu.Step(); err != nil {
			return steps, err
		}
		steps++
	}
	return steps, nil
}

// RunCycles executes whole instructions until at least budget cycles
// have elapsed. Pause and single-step requests from the front end are
// honored between instructions.
func (m *Machine) RunCycles(budget uint64) error {
	if m.paused && !m.stepOnce {
		return nil
	}
	if m.stepOnce {
		m.stepOnce = false
		m.paused = true
		_, err := m.cpu.Step()
		return err
	}
	var elapsed uint64
	for elapsed < budget && !m.cpu.Halted() {
		n, err := m.cpu.Step()
		if err != nil {
			return err
		}
		elapsed += uint64(n)
	}
	return nil
}

func (m *Machine) TogglePause() {
	m.paused = !m.paused
}

func (m *Machine) Paused() bool {
	return m.paused
}

// OneStepAndStop runs a single instruction on the next frame and
// leaves the machine paused.
func (m *Machine) OneStepAndStop() {
	m.stepOnce = true
}
