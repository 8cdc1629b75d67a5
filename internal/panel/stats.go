package panel

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"

	"molehill-mcp/internal/stats"
)

func (p *Panel) buildStats() {
	p.statView = tview.NewTextView().SetDynamicColors(true)
	p.statView.SetBorder(true).SetTitle(" Statistics ")

	buttons := tview.NewForm().
		AddButton("Reset", func() {
			p.confirm("Reset all statistics?", func() {
				p.stats.Reset()
				p.setStatus("Statistics reset.")
				p.fillStats()
			})
		}).
		AddButton("Export", func() {
			p.pathPrompt("Export statistics to", defaultExportName(time.Now()), func(path string) {
				if err := p.stats.ExportFile(path); err != nil {
					p.showError(err.Error())
					return
				}
				p.log.Info("statistics exported", "path", path)
				p.setStatus("Statistics exported to " + path + ".")
			})
		}).
		AddButton("Import", func() {
			p.pathPrompt("Import statistics from", "", func(path string) {
				if err := p.stats.ImportFile(path); err != nil {
					p.showError(err.Error())
					return
				}
				p.log.Info("statistics imported", "path", path)
				p.setStatus("Statistics imported.")
				p.fillStats()
			})
		}).
		AddButton("Back", func() {
			p.switchTo(pageMenu)
		})

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(p.statView, 0, 1, false).
		AddItem(buttons, 3, 0, true)
	p.pages.AddPage(pageStats, center(flex, 70), true, false)
}

func (p *Panel) fillStats() {
	p.statView.SetText(statsText(p.stats.Formatted()))
}

// pathPrompt asks for a file path and calls done with it.
func (p *Panel) pathPrompt(title, initial string, done func(path string)) {
	const page = "path"
	input := tview.NewInputField().SetLabel("File ").SetText(initial)
	form := tview.NewForm().AddFormItem(input)
	form.AddButton("OK", func() {
		path := strings.TrimSpace(input.GetText())
		p.pages.RemovePage(page)
		if path != "" {
			done(path)
		}
	}).AddButton("Cancel", func() {
		p.pages.RemovePage(page)
	})
	form.SetBorder(true).SetTitle(" " + title + " ")

	modal := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewBox(), 0, 1, false).
		AddItem(form, 7, 0, true).
		AddItem(tview.NewBox(), 0, 1, false)
	p.pages.AddPage(page, center(modal, 60), true, true)
}

func defaultExportName(now time.Time) string {
	return fmt.Sprintf("molehill-stats-%s.json", now.Format("2006-01-02"))
}

func statsText(v stats.View) string {
	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "  %-24s %s\n", label, value)
	}

	b.WriteString("[yellow]Lifetime[-]\n")
	row("Checks", v.Lifetime.TotalChecks)
	row("Harvested", v.Lifetime.TotalHarvested)
	row("Planted", v.Lifetime.TotalPlanted)
	row("Watered", v.Lifetime.TotalWatered)
	row("Automation runs", v.Lifetime.TotalAutomationRuns)
	row("Errors", v.Lifetime.AutomationErrors)
	row("Actions per run", v.Lifetime.AverageActionsPerRun)
	row("Sessions", v.Lifetime.TotalSessions)
	row("Longest session", v.Lifetime.LongestSession)
	row("Last run", v.Lifetime.LastAutomationTime)

	b.WriteString("\n[yellow]This session[-]\n")
	row("Uptime", v.Session.Uptime)
	row("Checks", v.Session.TotalChecks)
	row("Harvested", v.Session.TotalHarvested)
	row("Planted", v.Session.TotalPlanted)
	row("Watered", v.Session.TotalWatered)
	row("Automation runs", v.Session.TotalAutomationRuns)
	row("Errors", v.Session.AutomationErrors)

	b.WriteString("\n[yellow]Top crops[-]\n")
	if len(v.Crops) == 0 {
		b.WriteString("  No crops yet.\n")
	}
	for _, c := range v.Crops {
		fmt.Fprintf(&b, "  %s■[-] %-14s %6d harvested %6d planted\n",
			colorTag(cropColor(c.CropType)), tview.Escape(c.Name), c.Harvested, c.Planted)
	}
	return b.String()
}
