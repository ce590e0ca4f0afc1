package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kochabx/yogaclub/log"
	"github.com/kochabx/yogaclub/transport"
	"github.com/kochabx/yogaclub/transport/http/metrics"
)

var _ transport.Server = (*Server)(nil)

const (
	defaultName = "http"
	defaultAddr = ":8080"

	defaultReadHeaderTimeout = 10 * time.Second
)

// Meta is the metadata of the server.
type Meta struct {
	Name string
}

type Server struct {
	meta    Meta
	options Options
	prom    *metrics.Prometheus
	server  *http.Server
}

type Option func(*Server)

func WithMeta(meta Meta) Option {
	return func(s *Server) {
		s.meta = meta
	}
}

// WithSwagOptions 挂载 swagger UI，文档由 docs 包通过 swag.Register 注册
func WithSwagOptions(swag SwagOption) Option {
	return func(s *Server) {
		swag.init()
		s.options.Swag = swag
	}
}

func WithMetricsOptions(m MetricsOption) Option {
	return func(s *Server) {
		m.init()
		s.options.Metrics = m
	}
}

func WithHealthOptions(h HealthOption) Option {
	return func(s *Server) {
		h.init()
		s.options.Health = h
	}
}

// WithPrometheus 指定指标注册表，默认 metrics.Prom
func WithPrometheus(p *metrics.Prometheus) Option {
	return func(s *Server) {
		if p != nil {
			s.prom = p
		}
	}
}

func NewServer(addr string, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		prom: metrics.Prom,
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	additionalHandlers(s)

	return s
}

func (s *Server) Run() error {
	ln, err := s.listen()
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve 在已有监听器上提供服务，正常关闭时返回 nil
func (s *Server) Serve(ln net.Listener) error {
	if s.meta.Name == "" {
		s.meta.Name = defaultName
	}
	log.Info().Msgf("%s server listening on %s", s.meta.Name, ln.Addr())

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr 返回配置的监听地址
func (s *Server) Addr() string {
	return s.server.Addr
}

func (s *Server) listen() (net.Listener, error) {
	if ok := transport.ValidateAddress(s.server.Addr); !ok {
		log.Warn().Msgf("invalid address %s, using default address: %s", s.server.Addr, defaultAddr)
		s.server.Addr = defaultAddr
	}
	return net.Listen("tcp", s.server.Addr)
}

func additionalHandlers(s *Server) {
	if r, ok := s.server.Handler.(*gin.Engine); ok {
		handleSwag(s, r)
		handleMetrics(s, r)
		handleHealth(s, r)
	}
}

func handleSwag(s *Server, r *gin.Engine) {
	if s.options.Swag.Enabled {
		r.GET(s.options.Swag.Path, ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}

func handleMetrics(s *Server, r *gin.Engine) {
	if s.options.Metrics.Enabled {
		if s.options.Metrics.EnabledGoCollector {
			s.prom.WithGoCollectorRuntimeMetrics()
		}
		if s.options.Metrics.EnabledBuildInfoCollector {
			s.prom.WithBuildInfoCollector()
		}
		r.GET(s.options.Metrics.Path, gin.WrapH(s.prom.Handler()))
	}
}

func handleHealth(s *Server, r *gin.Engine) {
	if s.options.Health.Enabled {
		r.GET(s.options.Health.Path, func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}
}
