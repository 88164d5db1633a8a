package analytics

import (
	"context"
	"fmt"
	"math"

	"panel-backend/internal/model"
)

// HighUsageThreshold is the percentage above which usage is reported as high.
const HighUsageThreshold = 75

// Advisory is a short human readable observation about a server's usage.
type Advisory struct {
	Type   string `json:"type"` // warning, success or info
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Report is the analytics view of a single server.
type Report struct {
	Samples    []model.AnalyticsData `json:"samples"`
	Latest     *model.AnalyticsData  `json:"latest"`
	Advisories []Advisory            `json:"advisories"`
}

// Report loads the retained samples for a server and summarises them.
func (s *Service) Report(ctx context.Context, serverID int64) (Report, error) {
	samples, err := s.store.RecentAnalytics(ctx, serverID, s.cfg.MaxEntries)
	if err != nil {
		return Report{}, err
	}
	return BuildReport(samples), nil
}

// BuildReport summarises samples ordered oldest first.
func BuildReport(samples []model.AnalyticsData) Report {
	report := Report{Samples: samples, Advisories: []Advisory{}}
	if len(samples) == 0 {
		return report
	}

	latest := samples[len(samples)-1]
	report.Latest = &latest

	if latest.Memory >= HighUsageThreshold {
		report.Advisories = append(report.Advisories, Advisory{
			Type:   "warning",
			Title:  "Your RAM usage is very high.",
			Detail: "Consider adding more RAM to your server.",
		})
	}
	if latest.CPU >= HighUsageThreshold {
		report.Advisories = append(report.Advisories, Advisory{
			Type:   "warning",
			Title:  "Your CPU usage is very high.",
			Detail: "Consider adding more CPU to your server.",
		})
	}
	if latest.Disk >= HighUsageThreshold {
		report.Advisories = append(report.Advisories, Advisory{
			Type:   "warning",
			Title:  "Your disk usage is very high.",
			Detail: "Consider removing unused files or adding more disk space.",
		})
	}

	if trend, ok := cpuTrend(samples); ok {
		report.Advisories = append(report.Advisories, trend)
	}
	return report
}

// cpuTrend compares the mean CPU of the older half of the window with the
// newer half.
func cpuTrend(samples []model.AnalyticsData) (Advisory, bool) {
	if len(samples) < 2 {
		return Advisory{}, false
	}

	mid := len(samples) / 2
	older := meanCPU(samples[:mid])
	newer := meanCPU(samples[mid:])
	if older <= 0 {
		return Advisory{}, false
	}

	change := (newer - older) / older * 100
	pct := math.Round(math.Abs(change))
	if pct < 1 {
		return Advisory{}, false
	}

	window := fmt.Sprintf("over the last %d samples", len(samples))
	if change < 0 {
		return Advisory{
			Type:   "success",
			Title:  "Your CPU usage has decreased.",
			Detail: fmt.Sprintf("Down %.0f%% on average %s.", pct, window),
		}, true
	}
	return Advisory{
		Type:   "info",
		Title:  "Your CPU usage has increased.",
		Detail: fmt.Sprintf("Up %.0f%% on average %s.", pct, window),
	}, true
}

func meanCPU(samples []model.AnalyticsData) float64 {
	var sum float64
	for _, s := range samples {
		sum += s.CPU
	}
	return sum / float64(len(samples))
}
