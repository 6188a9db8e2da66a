package report

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"stakeout/internal/store"
)

// SnapshotPNG 先把图表落成临时 HTML，再用无头浏览器整页截图。
// 依赖本机可用的 Chrome/Chromium，调用方通过配置开关控制启用。
func SnapshotPNG(ctx context.Context, e store.Entry) ([]byte, error) {
	dir, err := os.MkdirTemp("", "stakeout-chart-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	htmlPath := filepath.Join(dir, "chart.html")
	f, err := os.Create(htmlPath)
	if err != nil {
		return nil, err
	}
	if err := RenderChart(f, e); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	cctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var buf []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(1280, 640),
		chromedp.Navigate("file://" + htmlPath),
		// echarts 渲染是异步的，等一拍再截。
		chromedp.Sleep(1200 * time.Millisecond),
		chromedp.FullScreenshot(&buf, 92),
	}
	if err := chromedp.Run(cctx, tasks); err != nil {
		return nil, err
	}
	return buf, nil
}
