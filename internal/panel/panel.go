// Package panel is the terminal menu of molehill-mcp: run automation,
// manage saved selections and browse statistics.
package panel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"molehill-mcp/internal/automation"
	"molehill-mcp/internal/bridge"
	"molehill-mcp/internal/selection"
	"molehill-mcp/internal/stats"
)

const (
	pageMenu       = "menu"
	pageSelections = "selections"
	pageAdd        = "add"
	pageStats      = "stats"
	pageModal      = "modal"
)

// Page reports whether the game page is connected.
type Page interface {
	Connected() bool
}

type Panel struct {
	runner     *automation.Runner
	selections *selection.Store
	stats      *stats.Tracker
	page       Page

	app    *tview.Application
	pages  *tview.Pages
	status *tview.TextView

	selList  *tview.List
	statView *tview.TextView
	addForm  *addForm

	mu         sync.Mutex
	ctx        context.Context
	picker     selection.Picker
	picking    bool
	current    string
	statusText string

	log *slog.Logger
}

func New(runner *automation.Runner, selections *selection.Store, tracker *stats.Tracker, page Page) *Panel {
	p := &Panel{
		runner:     runner,
		selections: selections,
		stats:      tracker,
		page:       page,
		ctx:        context.Background(),
		log:        slog.With("component", "panel"),
	}
	p.app = tview.NewApplication()
	p.pages = tview.NewPages()
	p.status = tview.NewTextView().SetDynamicColors(true)

	p.buildMenu()
	p.buildSelections()
	p.buildAddForm()
	p.buildStats()
	p.switchTo(pageMenu)
	return p
}

// Run shows the panel until the user quits or ctx is done.
func (p *Panel) Run(ctx context.Context) error {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(p.pages, 0, 1, true).
		AddItem(p.status, 1, 0, false)

	p.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape && p.currentPage() != pageMenu {
			p.cancelPicking()
			p.switchTo(pageMenu)
			return nil
		}
		return event
	})

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				p.app.Stop()
				return
			case <-ticker.C:
				p.app.QueueUpdateDraw(p.refresh)
			}
		}
	}()

	p.setStatus("Ready.")
	return p.app.SetRoot(root, true).Run()
}

func (p *Panel) runContext() context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctx
}

func (p *Panel) currentPage() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Panel) switchTo(name string) {
	p.mu.Lock()
	p.current = name
	p.mu.Unlock()

	switch name {
	case pageSelections:
		p.fillSelections()
	case pageStats:
		p.fillStats()
	}
	p.pages.SwitchToPage(name)
}

// refresh redraws the live parts of the visible page.
func (p *Panel) refresh() {
	if p.currentPage() == pageStats {
		p.fillStats()
	}
	p.drawStatus()
}

func (p *Panel) setStatus(msg string) {
	p.mu.Lock()
	p.statusText = msg
	p.mu.Unlock()
	p.drawStatus()
}

func (p *Panel) drawStatus() {
	p.mu.Lock()
	msg := p.statusText
	p.mu.Unlock()

	conn := "[red]page offline[-]"
	if p.page.Connected() {
		conn = "[green]page connected[-]"
	}
	busy := ""
	if p.runner.Busy() {
		busy = " [yellow]running[-]"
	}
	p.status.SetText(fmt.Sprintf(" %s%s | %s", conn, busy, tview.Escape(msg)))
}

func (p *Panel) buildMenu() {
	header := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true).
		SetText(`[yellow]molehill-mcp[white]
garden automation`)

	menu := tview.NewList().
		AddItem("Plant all selections", "harvest, plant and water every saved selection", 'p', func() {
			p.startRun("automation run", p.runner.PlantAllSelections)
		}).
		AddItem("Check & harvest", "harvest and replant when something is ready", 'c', func() {
			p.startRun("check", p.runner.CheckAndHarvest)
		}).
		AddItem("Selections", "saved garden regions", 's', func() {
			p.switchTo(pageSelections)
		}).
		AddItem("Statistics", "lifetime and session statistics", 't', func() {
			p.switchTo(pageStats)
		}).
		AddItem("Quit", "", 'q', func() {
			p.app.Stop()
		})
	menu.SetBorder(true).SetTitle(" Menu ")

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewBox(), 0, 1, false).
		AddItem(header, 3, 0, false).
		AddItem(menu, 13, 0, true).
		AddItem(tview.NewBox(), 0, 1, false)

	p.pages.AddPage(pageMenu, center(flex, 60), true, true)
}

// startRun performs an automation operation in the background and reports
// its outcome on the status line.
func (p *Panel) startRun(name string, run func(context.Context) (automation.Report, error)) {
	if p.runner.Busy() {
		p.showError(automation.ErrBusy.Error())
		return
	}
	p.setStatus(fmt.Sprintf("Starting %s...", name))
	ctx := p.runContext()
	go func() {
		rep, err := run(ctx)
		p.app.QueueUpdateDraw(func() {
			if err != nil {
				p.setStatus(rep.Status)
				p.showError(err.Error())
				return
			}
			p.setStatus(rep.Status)
			p.refresh()
		})
	}()
}

func (p *Panel) showError(msg string) {
	modal := tview.NewModal().
		SetText(msg).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) {
			p.pages.RemovePage(pageModal)
		})
	p.pages.AddPage(pageModal, modal, true, true)
}

func (p *Panel) confirm(msg string, yes func()) {
	modal := tview.NewModal().
		SetText(msg).
		AddButtons([]string{"Yes", "No"}).
		SetDoneFunc(func(index int, _ string) {
			p.pages.RemovePage(pageModal)
			if index == 0 {
				yes()
			}
		})
	p.pages.AddPage(pageModal, modal, true, true)
}

// TileEvent feeds tile clicks and hovers from the game page into the corner
// picker of the add form.
func (p *Panel) TileEvent(ev bridge.Event) {
	p.mu.Lock()
	if !p.picking {
		p.mu.Unlock()
		return
	}
	done := false
	switch ev.Name {
	case bridge.EventTileClick:
		done = p.picker.Click(ev.Tile)
	case bridge.EventTileHover:
		p.picker.Hover(ev.Tile)
	}
	msg := pickStatus(&p.picker)
	rect, complete := p.picker.Selected()
	if done {
		p.picking = false
		p.picker.Reset()
	}
	p.mu.Unlock()

	p.app.QueueUpdateDraw(func() {
		p.setStatus(msg)
		if done && complete {
			p.addForm.setCorners(rect.Point1, rect.Point2)
		}
	})
}

func (p *Panel) startPicking() {
	p.mu.Lock()
	p.picker.Reset()
	p.picking = true
	p.mu.Unlock()
	p.setStatus("Click the first corner in the garden.")
}

func (p *Panel) cancelPicking() {
	p.mu.Lock()
	p.picking = false
	p.picker.Reset()
	p.mu.Unlock()
}

func pickStatus(pk *selection.Picker) string {
	if r, ok := pk.Selected(); ok {
		return fmt.Sprintf("Picked %s (%d tiles).", r, r.Area())
	}
	if r, ok := pk.Preview(); ok {
		return fmt.Sprintf("Selecting %s (%d tiles), click the opposite corner.", r, r.Area())
	}
	return "Click the first corner in the garden."
}

func center(p tview.Primitive, width int) tview.Primitive {
	return tview.NewFlex().
		AddItem(tview.NewBox(), 0, 1, false).
		AddItem(p, width, 0, true).
		AddItem(tview.NewBox(), 0, 1, false)
}
