package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"stakeout/internal/config"
	"stakeout/internal/gateway/database"
	"stakeout/internal/report"
	"stakeout/internal/service"
)

// Server 提供 Gin 接口，供图表前端拉取扫描结果与调试明细。
type Server struct {
	addr    string
	svc     *service.Service
	journal *database.DetectionJournal
	cfg     *config.Config
	router  *gin.Engine
}

type ServerConfig struct {
	Addr    string
	Svc     *service.Service
	Journal *database.DetectionJournal
	Cfg     *config.Config
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Svc == nil {
		return nil, errors.New("service 不能为空")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8087"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:    cfg.Addr,
		svc:     cfg.Svc,
		journal: cfg.Journal,
		cfg:     cfg.Cfg,
		router:  router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	api := s.router.Group("/api")
	api.GET("/scan/:symbol", s.handleScan)
	api.GET("/scan/:symbol/daily", s.handleDaily)
	api.GET("/scan/:symbol/chart", s.handleChart)
	api.GET("/scan/:symbol/chart.png", s.handleChartPNG)
	api.GET("/journal/:symbol", s.handleJournal)
}

func (s *Server) Run() error {
	return s.router.Run(s.addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) scanFromRequest(c *gin.Context) (symbol string, force bool) {
	symbol = strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	force = c.Query("refresh") == "1"
	return
}

func (s *Server) handleScan(c *gin.Context) {
	symbol, force := s.scanFromRequest(c)
	entry, err := s.svc.Scan(c.Request.Context(), symbol, force)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	// 面向叠加层的精简视图 + 完整明细。
	zones := make([]gin.H, 0, len(entry.Zones))
	for _, z := range entry.Zones {
		zones = append(zones, gin.H{
			"start_date": z.StartDate.Format("2006-01-02"),
			"end_date":   z.EndDate.Format("2006-01-02"),
			"score":      z.Score,
			"metrics":    z.Metrics,
		})
	}
	c.JSON(http.StatusOK, gin.H{"overlay": zones, "entry": entry})
}

func (s *Server) handleDaily(c *gin.Context) {
	symbol, force := s.scanFromRequest(c)
	entry, err := s.svc.Scan(c.Request.Context(), symbol, force)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"daily": entry.Daily, "weekly": entry.Weekly})
}

func (s *Server) handleChart(c *gin.Context) {
	symbol, force := s.scanFromRequest(c)
	entry, err := s.svc.Scan(c.Request.Context(), symbol, force)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderChart(c.Writer, entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) handleChartPNG(c *gin.Context) {
	if s.cfg == nil || !s.cfg.Report.SnapshotEnabled {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "截图功能未启用"})
		return
	}
	symbol, force := s.scanFromRequest(c)
	entry, err := s.svc.Scan(c.Request.Context(), symbol, force)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	png, err := report.SnapshotPNG(c.Request.Context(), entry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) handleJournal(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "journal 未启用"})
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	recs, err := s.journal.Recent(c.Request.Context(), symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs})
}
