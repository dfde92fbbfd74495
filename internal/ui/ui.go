package ui

import (
	"fmt"
	"image/color"
	"math/rand"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/nevisdale/mos6502/internal/emu"
)

// P - pause
// R - one step and stop

// Memory map of the front end: a 32x32 pixel display reads from
// $0200-$05FF, one palette index per byte. The last typed character
// lands at $FF and a fresh random byte at $FE each frame.
const (
	frameBufferAddr = uint16(0x0200)
	lastKeyAddr     = uint16(0x00ff)
	randomAddr      = uint16(0x00fe)

	displaySize  = 32
	displayScale = 8

	debugScreenWidth  = 280
	debugScreenHeight = displaySize * displayScale

	clockHz = 1_000_000
	tps     = 60
)

// The 16-entry palette shared by small 6502 training programs,
// C64-flavored colors.
var palette = [16]color.RGBA{
	{0x00, 0x00, 0x00, 0xff}, // black
	{0xff, 0xff, 0xff, 0xff}, // white
	{0x88, 0x00, 0x00, 0xff}, // red
	{0xaa, 0xff, 0xee, 0xff}, // cyan
	{0xcc, 0x44, 0xcc, 0xff}, // purple
	{0x00, 0xcc, 0x55, 0xff}, // green
	{0x00, 0x00, 0xaa, 0xff}, // blue
	{0xee, 0xee, 0x77, 0xff}, // yellow
	{0xdd, 0x88, 0x55, 0xff}, // orange
	{0x66, 0x44, 0x00, 0xff}, // brown
	{0xff, 0x77, 0x77, 0xff}, // light red
	{0x33, 0x33, 0x33, 0xff}, // dark grey
	{0x77, 0x77, 0x77, 0xff}, // grey
	{0xaa, 0xff, 0x66, 0xff}, // light green
	{0x00, 0x88, 0xff, 0xff}, // light blue
	{0xbb, 0xbb, 0xbb, 0xff}, // light grey
}

type UI struct {
	machine *emu.Machine
	disasm  map[uint16]string
	fb      *ebiten.Image
	lastErr error
}

func New(machine *emu.Machine) *UI {
	return &UI{
		machine: machine,
		disasm:  machine.CPU().Disassemble(),
		fb:      ebiten.NewImage(displaySize, displaySize),
	}
}

func (ui *UI) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		ui.machine.TogglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		ui.machine.OneStepAndStop()
	}

	for _, ch := range ebiten.AppendInputChars(nil) {
		if ch < 0x80 {
			ui.machine.Mem().Write8(lastKeyAddr, uint8(ch))
		}
	}
	ui.machine.Mem().Write8(randomAddr, uint8(rand.Intn(0x100)))

	if err := ui.machine.RunCycles(clockHz / tps); err != nil {
		ui.lastErr = err
		ui.machine.TogglePause()
	}
	return nil
}

func (ui *UI) Draw(screen *ebiten.Image) {
	for y := 0; y < displaySize; y++ {
		for x := 0; x < displaySize; x++ {
			idx := ui.machine.Mem().Read8(frameBufferAddr + uint16(y*displaySize+x))
			ui.fb.Set(x, y, palette[idx&0x0f])
		}
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(displayScale, displayScale)
	screen.DrawImage(ui.fb, op)

	c := ui.machine.CPU()
	var info strings.Builder
	fmt.Fprintf(&info, " FPS: %0.0f\n", ebiten.ActualFPS())
	fmt.Fprintf(&info, " STATUS: %s\n", c.StatusString())
	fmt.Fprintf(&info, " PC: %04X  CYC: %d\n", c.PC(), c.Cycles())
	fmt.Fprintf(&info, " A: $%02X [%03d]", c.A(), c.A())
	fmt.Fprintf(&info, " X: $%02X [%03d]", c.X(), c.X())
	fmt.Fprintf(&info, " Y: $%02X [%03d]\n", c.Y(), c.Y())
	fmt.Fprintf(&info, " SP: $%02X\n", c.SP())
	if c.Halted() {
		info.WriteString(" HALTED\n")
	}
	if ui.machine.Paused() {
		info.WriteString(" PAUSED\n")
	}
	if ui.lastErr != nil {
		fmt.Fprintf(&info, " FAULT: %s\n", ui.lastErr)
	}

	pc := c.PC()
	for i := max(0, int(pc)-7); i < int(pc); i++ {
		if line, ok := ui.disasm[uint16(i)]; ok {
			info.WriteString(" " + line + "\n")
		}
	}
	info.WriteString("*" + ui.disasm[pc] + "\n")
	for i := int(pc) + 1; i < min(0xffff, int(pc)+7); i++ {
		if line, ok := ui.disasm[uint16(i)]; ok {
			info.WriteString(" " + line + "\n")
		}
	}

	debugOffsetX := float32(displaySize * displayScale)
	vector.DrawFilledRect(screen, debugOffsetX, 0, debugScreenWidth, debugScreenHeight, color.RGBA{50, 50, 50, 255}, false)
	ebitenutil.DebugPrintAt(screen, info.String(), int(debugOffsetX), 0)
}

func (ui *UI) Layout(_, _ int) (int, int) {
	return displaySize*displayScale + debugScreenWidth, displaySize * displayScale
}

func RunUI(ui *UI) error {
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(2*(displaySize*displayScale+debugScreenWidth), 2*displaySize*displayScale)
	ebiten.SetTPS(tps)
	return ebiten.RunGame(ui)
}
