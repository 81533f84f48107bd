package notifier

import (
	"fmt"
	"strings"
	"time"

	"PositionSentinel/internal/model"
)

func severityEmoji(severity string) string {
	switch severity {
	case model.SeverityCritical:
		return "🚨"
	case model.SeverityWarning:
		return "⚠️"
	case model.SeverityProfit:
		return "💰"
	case model.SeverityNeutral:
		return "⚪"
	default:
		return "ℹ️"
	}
}

// FormatAlert formats one admitted alert for delivery.
func FormatAlert(cand model.SignalCandidate) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>%s</b> | %s/%s\n", severityEmoji(cand.Severity), cand.Symbol, cand.Type, cand.Subtype))
	b.WriteString(cand.Message + "\n")

	b.WriteString(fmt.Sprintf("价格: $%.2f", cand.Price))
	if cand.Pivot > 0 {
		b.WriteString(fmt.Sprintf(" | 枢轴: $%.2f (%+.1f%%)", cand.Pivot, cand.DistancePct))
	}
	if cand.EntryPrice > 0 {
		b.WriteString(fmt.Sprintf(" | 盈亏: %+.1f%%", cand.PnLPct))
	}
	if cand.VolumeRatio > 0 {
		b.WriteString(fmt.Sprintf(" | 量比: %.1fx", cand.VolumeRatio))
	}
	b.WriteString("\n")

	if cand.Action != "" {
		b.WriteString(fmt.Sprintf("👉 <b>%s</b>\n", cand.Action))
	}
	return b.String()
}

// EODRow is one position's line in the end-of-day summary.
type EODRow struct {
	Symbol         string
	State          int
	Price          float64
	PnLPct         float64
	HealthScore    int
	Rating         model.HealthRating
	PrimaryWarning string
}

func stateLabel(state int) string {
	switch state {
	case model.StateWatchlist:
		return "观察"
	case model.StateEntry:
		return "初始仓"
	case model.StatePyramid1:
		return "加仓1"
	case model.StatePyramid2:
		return "加仓2"
	case model.StateFull:
		return "满仓"
	case model.StateReducing:
		return "减仓中"
	case model.StateExiting:
		return "清仓中"
	default:
		return "已平仓"
	}
}

// FormatEODSummary formats the end-of-day position review.
func FormatEODSummary(rows []EODRow, regime string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>PositionSentinel 收盘总结</b> | %s\n", time.Now().Format("2006-01-02")))
	if regime != "" {
		b.WriteString(fmt.Sprintf("市场状态: %s\n", regime))
	}
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString("无持仓或观察标的\n")
		return b.String()
	}

	for _, r := range rows {
		if r.State >= model.StateEntry {
			b.WriteString(fmt.Sprintf("%s [%s] $%.2f %+.1f%% | 健康: %d (%s)",
				r.Symbol, stateLabel(r.State), r.Price, r.PnLPct, r.HealthScore, r.Rating))
			if r.PrimaryWarning != "" {
				b.WriteString(" ⚠ " + r.PrimaryWarning)
			}
		} else {
			b.WriteString(fmt.Sprintf("%s [%s] $%.2f", r.Symbol, stateLabel(r.State), r.Price))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatHealthReport formats a full health assessment for one position,
// used by the on-demand status command.
func FormatHealthReport(symbol string, assessment model.HealthAssessment) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🩺 <b>%s 健康检查</b>\n", symbol))
	b.WriteString(fmt.Sprintf("评分: %d (%s) | 建议: %s\n", assessment.Score, assessment.Rating, assessment.Action))
	if assessment.PrimaryWarning != "" {
		b.WriteString(fmt.Sprintf("主要警告: %s\n", assessment.PrimaryWarning))
	}
	for _, w := range assessment.Warnings {
		b.WriteString(fmt.Sprintf("  • [%d] %s\n", w.Weight, w.Description))
	}
	if len(assessment.Warnings) == 0 {
		b.WriteString("无警告 ✅\n")
	}
	return b.String()
}
