package main

import (
	"flag"
	"log"

	"github.com/pkg/profile"

	"github.com/nevisdale/mos6502/internal/emu"
	"github.com/nevisdale/mos6502/internal/ui"
)

func main() {
	romPath := flag.String("rom", "", "flat ROM image to load")
	org := flag.Uint("org", 0x8000, "load address of the ROM image")
	resetVec := flag.Int("reset", -1, "reset vector override; default is whatever the image maps at $FFFC")
	headless := flag.Bool("headless", false, "run without a window until halt, fault or budget")
	steps := flag.Uint64("steps", 10_000_000, "instruction budget in headless mode")
	illegalNOPs := flag.Bool("illegal-nops", false, "execute unknown opcodes as one-byte NOPs instead of faulting")
	profileMode := flag.String("profile", "", "write a cpu or mem profile")
	flag.Parse()

	switch *profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	}

	if *romPath == "" {
		log.Fatal("no rom image: use -rom")
	}

	machine := emu.New()
	if err := machine.LoadROMFile(*romPath, uint16(*org)); err != nil {
		log.Fatalf("couldn't load rom: %s", err)
	}
	if *resetVec >= 0 {
		machine.SetResetVector(uint16(*resetVec))
	}
	machine.CPU().IllegalNOPs = *illegalNOPs
	machine.Reset()

	if *headless {
		ran, err := machine.Run(*steps)
		if err != nil {
			log.Fatalf("fault after %d steps: %s", ran, err)
		}
		c := machine.CPU()
		log.Printf("PC: %04X A: %02X X: %02X Y: %02X SP: %02X %s CYC: %d halted: %v",
			c.PC(), c.A(), c.X(), c.Y(), c.SP(), c.StatusString(), c.Cycles(), c.Halted())
		return
	}

	if err := ui.RunUI(ui.New(machine)); err != nil {
		log.Fatalf("ui: %s", err)
	}
}
