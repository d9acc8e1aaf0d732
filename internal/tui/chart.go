package tui

import (
	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
)

var barColors = []lipgloss.Color{"205", "42", "39", "214", "141", "203"}

// buildChart redraws today's hours per category.
func (m *Model) buildChart() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if m.height > 30 {
		chartHeight = 14
	}
	m.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for i, e := range m.focus.Entries {
		label := e.Category.Name
		if r := []rune(label); len(r) > 10 {
			label = string(r[:10])
		}
		style := lipgloss.NewStyle().Foreground(barColors[i%len(barColors)])
		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  e.Category.Name,
				Value: e.Hours,
				Style: style,
			}},
		})
	}
	if len(bars) == 0 {
		bars = []barchart.BarData{{
			Label:  "none",
			Values: []barchart.BarValue{{Name: "", Value: 0, Style: mutedStyle}},
		}}
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}
