package handlers

import (
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ui "crawldash/app/frontend"
	"crawldash/internal/metrics"
	"crawldash/internal/middleware"
)

// RouterOptions wires the web host.
type RouterOptions struct {
	Dashboard   *DashboardHandlers
	Hub         *middleware.Hub
	Metrics     *metrics.Collectors
	RateLimiter *middleware.RateLimiter
	Logger      *slog.Logger
	TLS         bool
}

// NewRouter builds the gin engine serving the dashboard.
func NewRouter(opts RouterOptions) (*gin.Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	// Crawl ids are path-escaped, so match on the raw path.
	r.UseRawPath = true
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}
	r.Use(middleware.SecurityHeaders(opts.TLS))

	tmpl, err := template.ParseFS(ui.Assets, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(ui.Assets, "static")
	if err != nil {
		return nil, err
	}
	r.StaticFS("/static", http.FS(static))

	d := opts.Dashboard
	r.GET("/", d.DashboardGET)
	r.GET("/healthz", d.HealthzGET)
	r.GET("/version", d.VersionGET)
	r.GET("/crawl/:id", d.CrawlDetailGET)
	if opts.Hub != nil {
		r.GET("/ws", opts.Hub.HandleWebSocket())
	}
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	actions := r.Group("/actions")
	actions.Use(middleware.CORS())
	if opts.RateLimiter != nil {
		actions.Use(opts.RateLimiter.Middleware())
	}
	{
		actions.OPTIONS("/*any", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		actions.POST("/crawls", d.NewCrawlPOST)
		actions.POST("/crawls/:id/stop", d.StopCrawlPOST)
		actions.POST("/time-range", d.TimeRangePOST)
	}

	return r, nil
}
