package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// ============================================================================
// ChartServer 以 JSON 提供图表描述，供外部渲染器使用
// ============================================================================

type ChartServer struct {
	config Config
	store  *IntradayStore
	engine *gin.Engine
}

// NewChartServer 创建 HTTP 服务并注册路由
func NewChartServer(config Config, store *IntradayStore) *ChartServer {
	if config.Server.Mode != gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &ChartServer{
		config: config,
		store:  store,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *ChartServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/dates/:code", s.handleDates)
	api.GET("/intraday/:code/:date/chart", s.handleChart)
}

// Handler 返回底层 http.Handler（测试使用）
func (s *ChartServer) Handler() http.Handler {
	return s.engine
}

// Run 启动服务，ctx 取消时优雅退出
func (s *ChartServer) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logInfo("log.server.start", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown http server")
	}
}

// ============================================================================
// Handlers
// ============================================================================

func (s *ChartServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *ChartServer) handleDates(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	if !validStockCode(code) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stock code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":  code,
		"dates": s.store.Dates(code),
	})
}

// handleChart 返回图表描述
// 404: 没有数据文件；422: 昨收非法；空数据返回 200 且 empty=true
func (s *ChartServer) handleChart(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	date := c.Param("date")
	lang := s.requestLanguage(c)

	if err := validateChartKey(code, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logDebug("log.server.request", code, date)

	_, desc, err := loadChart(s.store, s.config, lang, code, date)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, desc)
	case errors.Is(err, ErrNoIntradayData):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidReference):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// validateChartKey 代码与日期会拼进文件路径，只接受 YYYYMMDD 日期和不含路径成分的代码
func validateChartKey(code, date string) error {
	if !validStockCode(code) {
		return errors.Errorf("invalid stock code %q", code)
	}
	if _, err := time.Parse(dateLayout, date); err != nil || len(date) != 8 {
		return errors.Errorf("invalid date %q (expected YYYYMMDD)", date)
	}
	return nil
}

// validStockCode 字母、数字和点，且不能是 "." 或 ".."
func validStockCode(code string) bool {
	if code == "" || strings.Contains(code, "..") || code == "." {
		return false
	}
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
		default:
			return false
		}
	}
	return true
}

// requestLanguage ?lang=zh|en，缺省使用配置
func (s *ChartServer) requestLanguage(c *gin.Context) Language {
	switch Language(c.Query("lang")) {
	case Chinese:
		return Chinese
	case English:
		return English
	}
	return Language(s.config.System.Language)
}
