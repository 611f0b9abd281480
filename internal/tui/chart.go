package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
)

// chartHeight is the bar area height of the rate chart.
const chartHeight = 6

// renderRateChart draws lines ingested per tick, newest on the right.
func (m *Model) renderRateChart(width int) string {
	chartWidth := max(width-4, 10)

	peak := 0
	for _, n := range m.rates {
		peak = max(peak, n)
	}
	leftTitle := "Lines per tick"
	rightStats := fmt.Sprintf("Rate: %.1f/s | Max: %d", m.rate(), peak)
	spacer := chartWidth - len(leftTitle) - len(rightStats)
	header := leftTitle
	if spacer > 0 {
		header = leftTitle + strings.Repeat(" ", spacer) + rightStats
	}

	bc := barchart.New(chartWidth, chartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)

	maxBars := chartWidth / 2
	data := m.rates
	if len(data) > maxBars {
		data = data[len(data)-maxBars:]
	}
	for i := len(data); i < maxBars; i++ {
		bc.Push(barchart.BarData{
			Values: []barchart.BarValue{{Name: "EMPTY", Value: 0, Style: barStyle}},
		})
	}
	for _, n := range data {
		bc.Push(barchart.BarData{
			Values: []barchart.BarValue{{Name: "lines", Value: float64(n), Style: barStyle}},
		})
	}
	bc.Draw()

	return sectionStyle.Width(width - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(header), bc.View()),
	)
}

func (m *Model) rate() float64 {
	if m.session == nil {
		return 0
	}
	return m.session.Scheduler().Rate()
}
