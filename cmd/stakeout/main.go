package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"stakeout/internal/config"
	"stakeout/internal/gateway/binance"
	"stakeout/internal/gateway/database"
	"stakeout/internal/logger"
	"stakeout/internal/report"
	"stakeout/internal/service"
	transport "stakeout/internal/transport/http"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "TOML 配置路径，留空用默认值")
		oneShot  = flag.String("symbol", "", "单次扫描指定 symbol 后退出")
		refresh  = flag.Bool("refresh", false, "单次扫描时强制刷新缓存")
		chartOut = flag.String("chart", "", "单次扫描时把图表写到该 HTML 路径")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		logger.Errorf("时区解析失败 %q: %v", cfg.Timezone, err)
		os.Exit(1)
	}

	source := binance.New(binance.Config{
		RESTBaseURL: cfg.Source.RESTBaseURL,
		HTTPTimeout: cfg.SourceTimeout(),
	})
	defer source.Close()

	var journal *database.DetectionJournal
	if cfg.Journal.Enabled {
		journal, err = database.OpenDetectionJournal(cfg.Journal.Path)
		if err != nil {
			logger.Errorf("打开检测流水失败: %v", err)
			os.Exit(1)
		}
		defer journal.Close()
	}

	svc := service.New(service.Params{
		Config:  cfg,
		Source:  source,
		Journal: journal,
		Loc:     loc,
	})

	if *oneShot != "" {
		runOnce(svc, *oneShot, *refresh, *chartOut)
		return
	}

	server, err := transport.NewServer(transport.ServerConfig{
		Addr:    cfg.Server.Addr,
		Svc:     svc,
		Journal: journal,
		Cfg:     cfg,
	})
	if err != nil {
		logger.Errorf("初始化 HTTP 服务失败: %v", err)
		os.Exit(1)
	}
	logger.Infof("stakeout 监听 %s，symbols=%v", cfg.Server.Addr, cfg.Symbols)
	if err := server.Run(); err != nil {
		logger.Errorf("HTTP 服务退出: %v", err)
		os.Exit(1)
	}
}

func runOnce(svc *service.Service, symbol string, refresh bool, chartOut string) {
	entry, err := svc.Scan(context.Background(), symbol, refresh)
	if err != nil {
		logger.Errorf("扫描失败 %s: %v", symbol, err)
		os.Exit(1)
	}
	fmt.Println(report.ZonesTable(entry))
	if chartOut != "" {
		f, err := os.Create(chartOut)
		if err != nil {
			logger.Errorf("写图表失败: %v", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := report.RenderChart(f, entry); err != nil {
			logger.Errorf("渲染图表失败: %v", err)
			os.Exit(1)
		}
		logger.Infof("图表已写入 %s", chartOut)
	}
}
