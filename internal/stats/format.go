package stats

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// LifetimeView is the lifetime record prepared for display.
type LifetimeView struct {
	TotalChecks          string `json:"totalChecks"`
	TotalHarvested       string `json:"totalHarvested"`
	TotalPlanted         string `json:"totalPlanted"`
	TotalWatered         string `json:"totalWatered"`
	TotalAutomationRuns  string `json:"totalAutomationRuns"`
	AutomationErrors     string `json:"automationErrors"`
	AverageActionsPerRun string `json:"averageActionsPerRun"`
	LongestSession       string `json:"longestSession"`
	TotalSessions        string `json:"totalSessions"`
	LastAutomationTime   string `json:"lastAutomationTime"`
}

// SessionView is the current session prepared for display.
type SessionView struct {
	TotalChecks         string `json:"totalChecks"`
	TotalHarvested      string `json:"totalHarvested"`
	TotalPlanted        string `json:"totalPlanted"`
	TotalWatered        string `json:"totalWatered"`
	TotalAutomationRuns string `json:"totalAutomationRuns"`
	AutomationErrors    string `json:"automationErrors"`
	Uptime              string `json:"uptime"`
}

type View struct {
	Lifetime LifetimeView `json:"lifetime"`
	Session  SessionView  `json:"session"`
	Crops    []CropTotal  `json:"crops"`
}

// Formatted refreshes the session time and renders both records.
func (t *Tracker) Formatted() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updateSessionTime()

	s, cur := t.stats, t.session
	last := "Never"
	if s.LastAutomationTime != nil {
		last = time.UnixMilli(*s.LastAutomationTime).Format("2006-01-02 15:04:05")
	}
	return View{
		Lifetime: LifetimeView{
			TotalChecks:          comma(s.TotalChecks),
			TotalHarvested:       comma(s.TotalHarvested),
			TotalPlanted:         comma(s.TotalPlanted),
			TotalWatered:         comma(s.TotalWatered),
			TotalAutomationRuns:  comma(s.TotalAutomationRuns),
			AutomationErrors:     comma(s.AutomationErrors),
			AverageActionsPerRun: fmt.Sprintf("%.1f", s.AverageActionsPerRun),
			LongestSession:       FormatDuration(s.LongestSession),
			TotalSessions:        comma(s.TotalSessions),
			LastAutomationTime:   last,
		},
		Session: SessionView{
			TotalChecks:         comma(cur.TotalChecks),
			TotalHarvested:      comma(cur.TotalHarvested),
			TotalPlanted:        comma(cur.TotalPlanted),
			TotalWatered:        comma(cur.TotalWatered),
			TotalAutomationRuns: comma(cur.TotalAutomationRuns),
			AutomationErrors:    comma(cur.AutomationErrors),
			Uptime:              FormatDuration(cur.Uptime),
		},
		Crops: topCrops(s.CropStats, DefaultTopCrops),
	}
}

func comma(n int) string {
	return humanize.Comma(int64(n))
}

// FormatDuration renders milliseconds with the two most significant units,
// e.g. "3d 4h", "2h 5m", "1m 30s", "12s".
func FormatDuration(ms int64) string {
	if ms <= 0 {
		return "0s"
	}
	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours%24)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
