// Command casm-viewer is the terminal visualizer: registers, memory and
// storage panes plus an event log, stepping through the program while
// highlighting every state change.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"go.creack.net/casm/assets"
	"go.creack.net/casm/cli"
	"go.creack.net/casm/op"
	"go.creack.net/casm/vm"
)

const stepInterval = 400 * time.Millisecond

type Viewer struct {
	app *tview.Application

	registersView *tview.Table
	memoryView    *tview.Table
	storageView   *tview.Table
	logsView      *tview.TextView

	m      *vm.Machine
	events chan vm.Event

	// Cells touched by the last step, cleared before each new one.
	touched   map[vm.EventType]map[int]bool
	touchedMu sync.Mutex

	paused   bool
	pausedMu sync.Mutex

	nextStep   bool
	nextStepMu sync.Mutex

	done   bool
	ctx    context.Context
	cancel context.CancelFunc
}

func NewViewer(ctx context.Context, m *vm.Machine) *Viewer {
	app := tview.NewApplication().EnableMouse(true)

	registersView := tview.NewTable().SetBorders(false)
	registersView.SetTitle("Registers").SetBorder(true)

	memoryView := tview.NewTable().SetBorders(false)
	memoryView.SetTitle("Memory").SetBorder(true)

	storageView := tview.NewTable().SetBorders(false)
	storageView.SetTitle("Storage").SetBorder(true)

	logsView := tview.NewTextView().SetDynamicColors(true)
	logsView.SetTitle("Events").SetBorder(true)
	logsView.ScrollToEnd()

	top := tview.NewFlex().
		AddItem(registersView, 0, 1, false).
		AddItem(memoryView, 0, 2, true).
		AddItem(storageView, 0, 2, false)

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(top, 0, 3, true).
		AddItem(logsView, 0, 1, false)

	app.SetRoot(flex, true)

	ctx, cancel := context.WithCancel(ctx)

	v := &Viewer{
		app: app,

		registersView: registersView,
		memoryView:    memoryView,
		storageView:   storageView,
		logsView:      logsView,

		m:      m,
		events: make(chan vm.Event, 64),

		touched: map[vm.EventType]map[int]bool{},

		paused: true,

		ctx:    ctx,
		cancel: cancel,
	}
	m.Subscribe(func(ev vm.Event) { v.events <- ev })
	return v
}

func (v *Viewer) Stop() {
	v.app.Stop()
	v.cancel()
}

func (v *Viewer) Init() {
	v.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyEscape:
			v.Stop()
			return nil
		}
		switch event.Rune() {
		case 'n':
			v.nextStepMu.Lock()
			v.nextStep = true
			v.nextStepMu.Unlock()
			return nil
		case ' ':
			v.pausedMu.Lock()
			v.paused = !v.paused
			v.pausedMu.Unlock()
			return nil
		case 'q':
			v.Stop()
			return nil
		}
		return event
	})

	// Drain the event bus into the log pane and the highlight set.
	go func() {
		for {
			select {
			case ev := <-v.events:
				v.touch(ev)
				v.app.QueueUpdateDraw(func() {
					fmt.Fprintf(v.logsView, "%s\n", formatEvent(ev))
				})
			case <-v.ctx.Done():
				return
			}
		}
	}()
}

func (v *Viewer) touch(ev vm.Event) {
	v.touchedMu.Lock()
	defer v.touchedMu.Unlock()
	if ev.Type == vm.EventRegister || ev.Type == vm.EventMemory || ev.Type == vm.EventStorage {
		set := v.touched[ev.Type]
		if set == nil {
			set = map[int]bool{}
			v.touched[ev.Type] = set
		}
		set[ev.Index] = true
	}
}

func (v *Viewer) clearTouched() {
	v.touchedMu.Lock()
	defer v.touchedMu.Unlock()
	v.touched = map[vm.EventType]map[int]bool{}
}

func (v *Viewer) isTouched(et vm.EventType, index int) bool {
	v.touchedMu.Lock()
	defer v.touchedMu.Unlock()
	return v.touched[et][index]
}

func formatEvent(ev vm.Event) string {
	switch ev.Type {
	case vm.EventRegister:
		return fmt.Sprintf("[green]R%d[-] %s -> %s", ev.Index, ev.Old, ev.New)
	case vm.EventMemory:
		return fmt.Sprintf("[yellow]Mem[%d][-] %q -> %q", ev.Index*op.WordSize, ev.Old, ev.New)
	case vm.EventStorage:
		return fmt.Sprintf("[orange]Sto[%d][-] %q -> %q", ev.Index*op.WordSize, ev.Old, ev.New)
	case vm.EventPC:
		return fmt.Sprintf("[blue]PC[-] %s -> %s", ev.Old, ev.New)
	case vm.EventHalt:
		return "[red]Halted[-]"
	case vm.EventError:
		return fmt.Sprintf("[red]Error:[-] %s", strings.TrimSpace(ev.Message))
	default:
		return ev.Type.String()
	}
}

func (v *Viewer) drawRegisters() {
	snap := v.m.Snapshot()
	v.registersView.Clear()

	cell := tview.NewTableCell(fmt.Sprintf("PC: %d", snap.PC)).
		SetAttributes(tcell.AttrBold).
		SetTextColor(tcell.ColorBlue)
	v.registersView.SetCell(0, 0, cell)

	for i := 1; i < len(snap.Registers); i++ {
		cell := tview.NewTableCell(fmt.Sprintf("R%d: %d", i, snap.Registers[i]))
		if v.isTouched(vm.EventRegister, i) {
			cell.SetAttributes(tcell.AttrBold).SetTextColor(tcell.ColorGreen)
		}
		v.registersView.SetCell(i, 0, cell)
	}
}

func (v *Viewer) drawRam(view *tview.Table, et vm.EventType, ram vm.Ram, pc int) {
	view.Clear()
	for i, elem := range ram {
		content := ""
		if elem.Valid {
			content = strings.TrimSpace(elem.Value)
		}
		cell := tview.NewTableCell(fmt.Sprintf("%3d: %s", i*op.WordSize, content))
		if !elem.Valid {
			cell.SetTextColor(tcell.ColorDimGray).SetAttributes(tcell.AttrDim)
		}
		if v.isTouched(et, i) {
			cell.SetAttributes(tcell.AttrBold).SetTextColor(tcell.ColorYellow)
		}
		if pc == i {
			cell.SetAttributes(tcell.AttrReverse)
		}
		view.SetCell(i, 0, cell)
	}
}

func (v *Viewer) Draw() {
	snap := v.m.Snapshot()
	v.drawRegisters()
	v.drawRam(v.memoryView, vm.EventMemory, snap.Memory, snap.PC)
	v.drawRam(v.storageView, vm.EventStorage, snap.Storage, -1)
}

// loop advances the machine on a timer while unpaused, or one step per
// 'n' keypress.
func (v *Viewer) loop() {
	isPaused := func() bool {
		v.pausedMu.Lock()
		defer v.pausedMu.Unlock()
		return v.paused
	}
	forceNextStep := func() bool {
		v.nextStepMu.Lock()
		defer v.nextStepMu.Unlock()
		if v.nextStep {
			v.nextStep = false
			return true
		}
		return false
	}

	ticker := time.NewTicker(stepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if v.done || (!forceNextStep() && isPaused()) {
				continue
			}
			v.clearTouched()
			if !v.m.Step() {
				v.done = true
			}
			v.app.QueueUpdateDraw(v.Draw)
		case <-v.ctx.Done():
			return
		}
	}
}

func main() {
	cfg, prog := vm.DefaultConfig(), &cli.Program{PathName: "countdown.casm", Lines: assets.Countdown()}
	if len(os.Args) > 1 {
		var err error
		if cfg, prog, err = cli.ParseConfig(); err != nil {
			log.Fatalf("Failed to parse cli config: %s.", err)
		}
	}

	m := vm.New(cfg)

	v := NewViewer(context.Background(), m)
	v.Init()

	if err := m.Load(prog.Lines); err != nil {
		log.Fatalf("Failed to load %q: %s.", prog.PathName, err)
	}
	if err := prog.Apply(m); err != nil {
		log.Fatalf("Failed to apply seeds: %s.", err)
	}

	go v.loop()

	v.Draw() // Initial state, before the event loop starts.
	if err := v.app.Run(); err != nil {
		log.Fatal(err)
	}
}
