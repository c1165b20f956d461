// Package web serves the dashboard API: current price, the full series for
// charting, and daily reports for any date.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"PriceSentinel/internal/aggregator"
	"PriceSentinel/internal/logger"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/notifier"
)

// Source is the read side of the ingestion pipeline.
type Source interface {
	Series() (model.Series, int, error)
	Report(date time.Time) (model.DayOutcome, string, error)
}

// Server exposes the dashboard endpoints.
type Server struct {
	source    Source
	loc       *time.Location
	precision int32
	symbol    string
	now       func() time.Time
	router    *gin.Engine
	srv       *http.Server
}

// NewServer builds the router.
func NewServer(source Source, loc *time.Location, precision int32, symbol string) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		source:    source,
		loc:       loc,
		precision: precision,
		symbol:    symbol,
		now:       time.Now,
		router:    gin.New(),
	}
	s.router.Use(gin.Recovery(), requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	api.GET("/price", s.getPrice)
	api.GET("/series", s.getSeries)
	api.GET("/bars", s.getBars)
	api.GET("/report", s.getReport)
}

// Router returns the underlying engine, mainly for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.ListenAndServe() }()
	logger.WithComponent("web").WithField("addr", addr).Info("dashboard listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

type observationJSON struct {
	Timestamp time.Time `json:"timestamp"`
	Price     string    `json:"price"`
}

type barJSON struct {
	Date       string `json:"date"`
	Open       string `json:"open"`
	Close      string `json:"close"`
	High       string `json:"high"`
	Low        string `json:"low"`
	Change     string `json:"change"`
	Volatility string `json:"volatility"`
	Samples    int    `json:"samples"`
}

func (s *Server) toBarJSON(b *model.DailyBar) barJSON {
	return barJSON{
		Date:       b.Date.Format("2006-01-02"),
		Open:       b.Open.StringFixed(s.precision),
		Close:      b.Close.StringFixed(s.precision),
		High:       b.High.StringFixed(s.precision),
		Low:        b.Low.StringFixed(s.precision),
		Change:     b.Change.StringFixed(s.precision),
		Volatility: b.Volatility.StringFixed(s.precision),
		Samples:    b.Samples,
	}
}

func (s *Server) getPrice(c *gin.Context) {
	series, _, err := s.source.Series()
	if err != nil {
		unavailable(c, err)
		return
	}
	obs, ok := aggregator.Latest(series)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no price observed yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":    s.symbol,
		"price":     obs.Price.StringFixed(s.precision),
		"timestamp": obs.Timestamp,
		"text":      notifier.FormatCurrentPrice(s.symbol, obs, s.precision, s.loc),
	})
}

func (s *Server) getSeries(c *gin.Context) {
	series, skipped, err := s.source.Series()
	if err != nil {
		unavailable(c, err)
		return
	}
	points := make([]observationJSON, 0, len(series))
	for _, o := range series {
		points = append(points, observationJSON{Timestamp: o.Timestamp, Price: o.Price.String()})
	}
	c.JSON(http.StatusOK, gin.H{"symbol": s.symbol, "observations": points, "skipped": skipped})
}

func (s *Server) getBars(c *gin.Context) {
	series, _, err := s.source.Series()
	if err != nil {
		unavailable(c, err)
		return
	}
	bars := aggregator.DailyBars(series, s.loc)
	out := make([]barJSON, 0, len(bars))
	for i := range bars {
		out = append(out, s.toBarJSON(&bars[i]))
	}
	c.JSON(http.StatusOK, gin.H{"bars": out})
}

func (s *Server) getReport(c *gin.Context) {
	date := s.now().In(s.loc)
	if v := c.Query("date"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, s.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = d
	}
	out, text, err := s.source.Report(date)
	if err != nil {
		unavailable(c, err)
		return
	}
	resp := gin.H{"date": out.Date.Format("2006-01-02"), "has_data": out.HasData(), "text": text}
	if out.HasData() {
		resp["bar"] = s.toBarJSON(out.Bar)
	}
	c.JSON(http.StatusOK, resp)
}

func unavailable(c *gin.Context, err error) {
	logger.WithComponent("web").WithError(err).Error("read series")
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "price history unavailable"})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithComponent("web").WithFields(logger.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("request")
	}
}
