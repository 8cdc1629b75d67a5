package panel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"molehill-mcp/internal/garden"
	"molehill-mcp/internal/selection"
)

// cropColor is the terminal colour of a crop, taken from its border colour.
func cropColor(seed garden.SeedType) tcell.Color {
	return tcell.GetColor(garden.Crop(seed).Border)
}

func colorTag(c tcell.Color) string {
	return fmt.Sprintf("[#%06x]", c.Hex())
}

func selectionLabel(i int, s selection.Selection) string {
	return fmt.Sprintf("%s■[-] %d. %s: %s (%d tiles)",
		colorTag(cropColor(s.SeedType)), i+1,
		tview.Escape(garden.CropName(s.SeedType)), s.Rect(), s.Rect().Area())
}

func (p *Panel) buildSelections() {
	p.selList = tview.NewList().ShowSecondaryText(false)
	p.selList.SetBorder(true).SetTitle(" Saved selections ")
	p.selList.SetChangedFunc(func(index int, _, _ string, _ rune) {
		sels := p.selections.List()
		if index >= 0 && index < len(sels) {
			p.selList.SetSelectedBackgroundColor(cropColor(sels[index].SeedType))
		}
	})

	buttons := tview.NewForm().
		AddButton("Add", func() {
			p.addForm.reset()
			p.switchTo(pageAdd)
		}).
		AddButton("Delete", p.deleteSelected).
		AddButton("Clear", p.clearSelections).
		AddButton("Back", func() {
			p.switchTo(pageMenu)
		})

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(p.selList, 0, 1, true).
		AddItem(buttons, 3, 0, false)
	flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyTab {
			if p.selList.HasFocus() {
				p.app.SetFocus(buttons)
			} else {
				p.app.SetFocus(p.selList)
			}
			return nil
		}
		return event
	})

	p.pages.AddPage(pageSelections, center(flex, 70), true, false)
}

func (p *Panel) fillSelections() {
	p.selList.Clear()
	sels := p.selections.List()
	if len(sels) == 0 {
		p.selList.AddItem("No saved selections.", "", 0, nil)
		return
	}
	for i, s := range sels {
		p.selList.AddItem(selectionLabel(i, s), "", 0, nil)
	}
	p.selList.SetSelectedBackgroundColor(cropColor(sels[0].SeedType))
}

func (p *Panel) deleteSelected() {
	sels := p.selections.List()
	index := p.selList.GetCurrentItem()
	if index < 0 || index >= len(sels) {
		return
	}
	p.confirm(fmt.Sprintf("Delete selection %s?", sels[index]), func() {
		if err := p.selections.Delete(index); err != nil {
			p.showError(err.Error())
			return
		}
		p.setStatus("Selection deleted.")
		p.fillSelections()
		p.app.SetFocus(p.selList)
	})
}

func (p *Panel) clearSelections() {
	n := p.selections.Len()
	if n == 0 {
		return
	}
	p.confirm(fmt.Sprintf("Delete all %d selections?", n), func() {
		if err := p.selections.Clear(); err != nil {
			p.showError(err.Error())
			return
		}
		p.setStatus("Selections cleared.")
		p.fillSelections()
		p.app.SetFocus(p.selList)
	})
}

// addForm is the form for a new selection: two corners and a seed.
type addForm struct {
	form   *tview.Form
	fields [4]*tview.InputField // x1 y1 x2 y2
	seed   *tview.DropDown
	seeds  []garden.SeedType
}

var labels = [4]string{"Corner 1 x", "Corner 1 y", "Corner 2 x", "Corner 2 y"}

func (p *Panel) buildAddForm() {
	f := &addForm{form: tview.NewForm(), seeds: garden.KnownSeeds()}
	for i, label := range labels {
		f.fields[i] = tview.NewInputField().
			SetLabel(label).
			SetFieldWidth(4).
			SetAcceptanceFunc(tview.InputFieldInteger)
		f.form.AddFormItem(f.fields[i])
	}
	options := make([]string, len(f.seeds))
	for i, s := range f.seeds {
		options[i] = fmt.Sprintf("%s (%d)", garden.CropName(s), s)
	}
	f.seed = tview.NewDropDown().SetLabel("Seed").SetOptions(options, nil)
	f.form.AddFormItem(f.seed)

	f.form.
		AddButton("Save", func() {
			a, b, seed, err := f.values()
			if err != nil {
				p.showError(err.Error())
				return
			}
			sel, err := p.selections.Add(a, b, seed)
			if err != nil {
				p.showError(err.Error())
				return
			}
			p.setStatus(fmt.Sprintf("Saved %s.", sel))
			p.switchTo(pageSelections)
		}).
		AddButton("Pick in garden", p.startPicking).
		AddButton("Cancel", func() {
			p.cancelPicking()
			p.switchTo(pageSelections)
		})
	f.form.SetBorder(true).SetTitle(" New selection ")

	p.addForm = f
	p.pages.AddPage(pageAdd, center(f.form, 50), true, false)
}

func (f *addForm) reset() {
	for _, field := range f.fields {
		field.SetText("")
	}
	f.seed.SetCurrentOption(0)
}

func (f *addForm) setCorners(a, b garden.Vector) {
	f.fields[0].SetText(strconv.Itoa(a.X))
	f.fields[1].SetText(strconv.Itoa(a.Y))
	f.fields[2].SetText(strconv.Itoa(b.X))
	f.fields[3].SetText(strconv.Itoa(b.Y))
}

func (f *addForm) values() (a, b garden.Vector, seed garden.SeedType, err error) {
	var texts [4]string
	for i, field := range f.fields {
		texts[i] = field.GetText()
	}
	a, b, err = parseCorners(texts)
	if err != nil {
		return a, b, 0, err
	}
	index, _ := f.seed.GetCurrentOption()
	if index < 0 || index >= len(f.seeds) {
		return a, b, 0, errors.New("choose a seed")
	}
	return a, b, f.seeds[index], nil
}

// parseCorners reads x1, y1, x2, y2 form values.
func parseCorners(texts [4]string) (a, b garden.Vector, err error) {
	var n [4]int
	for i, text := range texts {
		n[i], err = strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return a, b, fmt.Errorf("%s: enter a number", labels[i])
		}
	}
	return garden.V(n[0], n[1]), garden.V(n[2], n[3]), nil
}
