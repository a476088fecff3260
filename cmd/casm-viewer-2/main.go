// Command casm-viewer-2 is the graphical visualizer. Memory, registers
// and storage are drawn as cell columns; memory, storage and PC events
// slide the memory or storage column to the touched cell with an
// ease-in-out blend and flash it, register events only flash the register.
package main

import (
	"fmt"
	"image/color"
	"log"
	"os"
	"strings"

	"github.com/hajimehoshi/bitmapfont/v3"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"go.creack.net/casm/assets"
	"go.creack.net/casm/cli"
	"go.creack.net/casm/op"
	"go.creack.net/casm/vm"
)

var fontFace = text.NewGoXFace(bitmapfont.Face)

const (
	initialScreenWidth  = 1024
	initialScreenHeight = 768

	xPadding   = 40
	headerGap  = 40
	cellWidth  = 280
	cellHeight = 28
	cellGap    = 6

	slideInTime = 0.5 // Seconds.
	stepDelay   = 20  // Ticks between steps while running.
)

var (
	backgroundColor = color.RGBA{R: 0x18, G: 0x18, B: 0x18, A: 0xff}
	cellColor       = color.RGBA{R: 0x2a, G: 0x2c, B: 0x3e, A: 0xff}
	flashColor      = color.RGBA{R: 0x7a, G: 0x9c, B: 0xf5, A: 0xff}
	fontColor       = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	pointerColor    = color.RGBA{R: 0x4a, G: 0x9c, B: 0xff, A: 0xff}
)

// parametricBlend is the ease-in-out curve used for every slide.
func parametricBlend(t float64) float64 {
	sqr := t * t
	return sqr / (2*(sqr-t) + 1)
}

// seek animates a scalar from start to end over a fixed duration.
type seek struct {
	percent  float64
	duration float64
	start    float64
	end      float64
}

func (s *seek) update(dt float64) {
	s.percent = min(s.percent+dt/s.duration, 1)
}

func (s *seek) value() float64 {
	return s.start + (s.end-s.start)*parametricBlend(s.percent)
}

func (s *seek) done() bool { return s.percent >= 1 }

// column is one vertical strip of cells with its own scroll state.
type column struct {
	title   string
	x       float64
	height  float64 // y of cell 0.
	scroll  *seek
	focused int
	flash   float64 // 1 -> 0 fade on the focused cell.
}

// seekTo slides the column so the cell ends up mid-screen.
func (c *column) seekTo(index int) {
	c.focused = index
	c.flash = 1
	c.scroll = &seek{
		duration: slideInTime,
		start:    c.height,
		end:      -float64(index)*(cellHeight+cellGap) + initialScreenHeight/2 - cellHeight/2,
	}
}

func (c *column) update(dt float64) {
	if c.scroll != nil {
		c.scroll.update(dt)
		c.height = c.scroll.value()
		if c.scroll.done() {
			c.scroll = nil
		}
	}
	if c.flash > 0 {
		c.flash = max(c.flash-dt/slideInTime, 0)
	}
}

func (c *column) animating() bool { return c.scroll != nil }

type Game struct {
	m *vm.Machine

	memory    column
	registers column
	storage   column

	running   bool
	done      bool
	stepTimer int
}

func NewGame(m *vm.Machine) *Game {
	g := &Game{
		m: m,

		memory:    column{title: "Memory", x: xPadding, height: headerGap, focused: -1},
		registers: column{title: "Registers", x: initialScreenWidth/2 - cellWidth/2, height: headerGap, focused: -1},
		storage:   column{title: "Storage", x: initialScreenWidth - xPadding - cellWidth, height: headerGap, focused: -1},
	}
	m.Subscribe(func(ev vm.Event) {
		switch ev.Type {
		case vm.EventMemory:
			g.memory.seekTo(ev.Index)
		case vm.EventStorage:
			g.storage.seekTo(ev.Index)
		case vm.EventRegister:
			// Ten registers always fit on screen, flash without sliding.
			g.registers.focused = ev.Index
			g.registers.flash = 1
		case vm.EventPC:
			// Keep the next instruction in view.
			g.memory.seekTo(g.m.Snapshot().PC)
		}
	})
	return g
}

func (g *Game) animating() bool {
	return g.memory.animating() || g.registers.animating() || g.storage.animating()
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.running = !g.running
	}
	step := inpututil.IsKeyJustPressed(ebiten.KeyN)

	dt := 1 / float64(ebiten.TPS())
	g.memory.update(dt)
	g.registers.update(dt)
	g.storage.update(dt)

	// Pending slides run to completion before the next instruction.
	if g.animating() || g.done {
		return nil
	}
	g.stepTimer++
	if step || (g.running && g.stepTimer >= stepDelay) {
		g.stepTimer = 0
		if !g.m.Step() {
			g.done = true
			g.running = false
		}
	}
	return nil
}

func drawLabel(screen *ebiten.Image, x, y float64, clr color.Color, s string) {
	textOp := &text.DrawOptions{}
	textOp.GeoM.Translate(x, y)
	textOp.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, fontFace, textOp)
}

func mixColor(a, b color.RGBA, t float64) color.RGBA {
	blend := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.RGBA{
		R: blend(a.R, b.R),
		G: blend(a.G, b.G),
		B: blend(a.B, b.B),
		A: 0xff,
	}
}

func (g *Game) drawColumn(screen *ebiten.Image, c *column, cells []string, pc int) {
	drawLabel(screen, c.x, cellGap, fontColor, c.title)
	for i, content := range cells {
		y := c.height + float64(i)*(cellHeight+cellGap)
		if y < -cellHeight || y > initialScreenHeight {
			continue
		}
		clr := cellColor
		if i == c.focused && c.flash > 0 {
			clr = mixColor(cellColor, flashColor, parametricBlend(c.flash))
		}
		vector.DrawFilledRect(screen, float32(c.x), float32(y), cellWidth, cellHeight, clr, false)
		drawLabel(screen, c.x+4, y+(cellHeight-fontFace.Metrics().HAscent)/2, fontColor, content)
		if i == pc {
			vector.StrokeRect(screen, float32(c.x)-2, float32(y)-2, cellWidth+4, cellHeight+4, 2, pointerColor, false)
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	snap := g.m.Snapshot()

	ramCells := func(r vm.Ram) []string {
		out := make([]string, len(r))
		for i, elem := range r {
			content := ""
			if elem.Valid {
				content = strings.TrimSpace(elem.Value)
			}
			out[i] = fmt.Sprintf("%3d: %s", i*op.WordSize, content)
		}
		return out
	}

	regCells := make([]string, len(snap.Registers))
	regCells[0] = fmt.Sprintf("PC: %d", snap.PC)
	for i := 1; i < len(snap.Registers); i++ {
		regCells[i] = fmt.Sprintf("R%d: %d", i, snap.Registers[i])
	}

	g.drawColumn(screen, &g.memory, ramCells(snap.Memory), snap.PC)
	g.drawColumn(screen, &g.registers, regCells, -1)
	g.drawColumn(screen, &g.storage, ramCells(snap.Storage), -1)

	status := "running (space to pause, n to step)"
	if g.done {
		status = "done"
		if err := g.m.Err(); err != nil {
			status = g.m.ErrorReport()
		}
	} else if !g.running {
		status = "paused (space to run, n to step)"
	}
	drawLabel(screen, xPadding, initialScreenHeight-2*cellHeight, fontColor, status)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return initialScreenWidth, initialScreenHeight
}

func main() {
	ebiten.SetWindowTitle("casm")
	ebiten.SetWindowSize(initialScreenWidth, initialScreenHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	cfg, prog := vm.DefaultConfig(), &cli.Program{PathName: "countdown.casm", Lines: assets.Countdown()}
	if len(os.Args) > 1 {
		var err error
		if cfg, prog, err = cli.ParseConfig(); err != nil {
			log.Fatalf("Failed to parse cli config: %s.", err)
		}
	}

	m := vm.New(cfg)
	g := NewGame(m)
	if err := m.Load(prog.Lines); err != nil {
		log.Fatalf("Failed to load %q: %s.", prog.PathName, err)
	}
	if err := prog.Apply(m); err != nil {
		log.Fatalf("Failed to apply seeds: %s.", err)
	}

	if err := ebiten.RunGameWithOptions(g, &ebiten.RunGameOptions{
		InitUnfocused: true,
	}); err != nil {
		log.Fatal(err)
	}
}
