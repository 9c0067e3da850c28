package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"qacurator/pipeline"
	"qacurator/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	colorPrimary = "#7D56F4"
	colorSuccess = "#04B575"
	colorWarn    = "#FFB000"
	colorInfo    = "#626262"
	colorBorder  = "#874BFD"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary)).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary)).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarn))
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorInfo))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(colorBorder))).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// renderReport formats a run summary for the terminal.
func renderReport(res *pipeline.Result) string {
	s := res.Summary
	var b strings.Builder

	b.WriteString(titleStyle.Render("Curation run " + res.RunID))
	b.WriteString("\n")

	overview := newTable("Metric", "Value").Rows(
		[]string{"Total input", strconv.Itoa(s.TotalInput)},
		[]string{"Removed by quality", strconv.Itoa(s.RemovedByQuality)},
		[]string{"Removed by dedup", strconv.Itoa(s.RemovedByDedup)},
		[]string{"Total output", strconv.Itoa(s.TotalOutput)},
		[]string{"Average score", fmt.Sprintf("%.2f", s.Quality.Average)},
		[]string{"Median score", fmt.Sprintf("%.2f", s.Quality.Median)},
		[]string{"Above threshold", fmt.Sprintf("%d (%.1f%%)", s.Quality.AboveThreshold, s.Quality.ThresholdPercentage)},
		[]string{"Duration", fmt.Sprintf("%dms", s.DurationMS)},
	)
	b.WriteString(overview.String())
	b.WriteString("\n")

	tiers := newTable("Tier", "Count")
	for _, tier := range types.Tiers {
		tiers.Row(string(tier), strconv.Itoa(s.TierDistribution[tier]))
	}
	b.WriteString(tiers.String())
	b.WriteString("\n")

	switch {
	case s.DedupSkipped && s.DedupError != "":
		b.WriteString(warnStyle.Render("Deduplication skipped: " + s.DedupError))
	case s.DedupSkipped:
		b.WriteString(infoStyle.Render("Deduplication disabled"))
	default:
		sizes := make([]int, 0, len(s.GroupSizeDistribution))
		for size := range s.GroupSizeDistribution {
			sizes = append(sizes, size)
		}
		sort.Ints(sizes)

		groups := newTable("Group size", "Groups")
		for _, size := range sizes {
			groups.Row(strconv.Itoa(size), strconv.Itoa(s.GroupSizeDistribution[size]))
		}
		if len(sizes) == 0 {
			b.WriteString(okStyle.Render("No duplicates found"))
		} else {
			b.WriteString(groups.String())
		}
	}
	b.WriteString("\n")
	return b.String()
}
