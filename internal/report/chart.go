package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"stakeout/internal/store"
)

// RenderChart 把日线与检出区域画成 K 线图，区域用 markArea 高亮，
// 输出独立 HTML，可直接打开或交给无头浏览器截图。
func RenderChart(w io.Writer, e store.Entry) error {
	if len(e.Daily) == 0 {
		return fmt.Errorf("没有可绘制的日线数据")
	}
	x := make([]string, 0, len(e.Daily))
	y := make([]opts.KlineData, 0, len(e.Daily))
	for _, d := range e.Daily {
		x = append(x, d.DateKey())
		y = append(y, opts.KlineData{Value: [4]float64{d.Open, d.Close, d.Low, d.High}})
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: e.Symbol + " accumulation zones",
			Width:     "1180px",
			Height:    "560px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    e.Symbol,
			Subtitle: fmt.Sprintf("trade date %s · score %.3f · zones %d", e.TradeDate, e.CompositeScore, len(e.Zones)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	marks := make([]charts.SeriesOpts, 0, len(e.Zones))
	for _, z := range e.Zones {
		marks = append(marks, charts.WithMarkAreaNameCoordItemOpts(opts.MarkAreaNameCoordItem{
			Name:        fmt.Sprintf("%.2f", z.Score),
			Coordinate0: []interface{}{z.StartDate.Format("2006-01-02")},
			Coordinate1: []interface{}{z.EndDate.Format("2006-01-02")},
			ItemStyle:   &opts.ItemStyle{Color: "rgba(64, 158, 255, 0.22)"},
		}))
	}

	kline.SetXAxis(x).AddSeries("daily", y, marks...)
	return kline.Render(w)
}
