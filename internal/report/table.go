package report

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"stakeout/internal/analysis/accum"
	"stakeout/internal/store"
)

// ZonesTable 把扫描结果渲染成终端表格，单次扫描模式下直接打印。
func ZonesTable(e store.Entry) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s @ %s  detected=%v  score=%.3f", e.Symbol, e.TradeDate, e.Detected, e.CompositeScore))
	t.AppendHeader(table.Row{"#", "start", "end", "days", "weeks", "score", "mult", "net Δ%", "anticorr"})
	for i, z := range e.Zones {
		t.AppendRow(table.Row{
			i + 1,
			z.StartDate.Format("2006-01-02"),
			z.EndDate.Format("2006-01-02"),
			z.Len(),
			z.Weeks,
			fmt.Sprintf("%.3f", z.Score),
			fmt.Sprintf("%.2f", z.DurationMultiplier),
			fmt.Sprintf("%.2f", z.Metrics[accum.MetricRawNetDeltaPct]),
			fmt.Sprintf("%.2f", z.Metrics[accum.MetricRawCorrelation]),
		})
	}
	if len(e.Zones) == 0 {
		t.AppendRow(table.Row{"-", "-", "-", "-", "-", "-", "-", "-", "-"})
	}
	return t.Render()
}
