package main

import (
	"context"
	"flag"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kochabx/yogaclub/api"
	"github.com/kochabx/yogaclub/app"
	"github.com/kochabx/yogaclub/config"
	"github.com/kochabx/yogaclub/core/event"
	nethttp "github.com/kochabx/yogaclub/core/net/http"
	"github.com/kochabx/yogaclub/core/session"
	_ "github.com/kochabx/yogaclub/docs"
	"github.com/kochabx/yogaclub/log"
	"github.com/kochabx/yogaclub/member"
	"github.com/kochabx/yogaclub/store/db"
	"github.com/kochabx/yogaclub/store/kafka"
	"github.com/kochabx/yogaclub/store/redis"
	"github.com/kochabx/yogaclub/transport/http"
	"github.com/kochabx/yogaclub/transport/http/metrics"
	"github.com/kochabx/yogaclub/transport/http/middleware"
	"github.com/kochabx/yogaclub/transport/websocket"
)

const closeTimeout = 10 * time.Second

// @title			yogaclub API
// @version		1.0
// @description	Session and realtime API of the yogaclub service.
// @BasePath		/
func main() {
	configFile := flag.String("config", "config.yaml", "config file name, searched in . and ./configs")
	flag.Parse()

	if err := run(*configFile); err != nil {
		log.Fatal().Err(err).Msg("yogaclub exited")
	}
}

func run(configFile string) error {
	cfg, c, err := config.Load(config.WithFile(configFile, ".", "./configs"))
	if err != nil {
		return err
	}

	logger, err := log.NewFromConfig(cfg.Log)
	if err != nil {
		return err
	}
	log.SetGlobalLogger(logger)
	if logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	prom := metrics.Prom
	reg := prom.Registry()

	opts := []app.Option{
		app.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		app.WithClose("logger", func(context.Context) error { return logger.Close() }, closeTimeout),
	}

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	opts = append(opts, app.WithClose("session-store", closeStore, closeTimeout))

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	opts = append(opts, app.WithClose("event-publisher", func(context.Context) error { return publisher.Close() }, closeTimeout))

	svc := session.NewService(store,
		session.WithPublisher(publisher),
		session.WithRoleTTL(session.RoleCustomer, cfg.Session.DefaultTTL),
		session.WithRoleTTL(session.RoleAdmin, cfg.Session.AdminTTL),
		session.WithServiceLogger(log.With("session")),
		session.WithRegisterer(reg),
	)

	driver, err := cfg.Database.Selected()
	if err != nil {
		return err
	}
	database, err := db.New(driver, db.WithLogger(log.With("db")), db.WithAutoMigrate(&member.Member{}))
	if err != nil {
		return err
	}
	opts = append(opts, app.WithClose("database", func(context.Context) error { return database.Close() }, closeTimeout))
	members := member.NewGormRepository(database.DB())

	gateway := websocket.New(newToucher(cfg, svc),
		websocket.WithConfig(cfg.Realtime.Config),
		websocket.WithCheckOrigin(middleware.CheckOrigin(cfg.HTTP.Cors.AllowOrigins...)),
		websocket.WithExpirer(svc),
		websocket.WithLogger(log.With("realtime")),
		websocket.WithRegisterer(reg),
	)
	// 网关先于存储关闭
	opts = append(opts, app.WithClose("realtime-gateway", gateway.Shutdown, closeTimeout))

	engine := gin.New()
	engine.Use(
		middleware.Recovery(middleware.RecoveryConfig{StackTrace: true}),
		middleware.Logger(middleware.LoggerConfig{Logger: log.With("http")}),
		middleware.Cors(cfg.HTTP.Cors.AllowOrigins...),
		middleware.Metrics(metrics.NewHTTP(reg), cfg.Metrics.Path),
	)

	handler := api.New(svc, members,
		api.WithGateway(gateway),
		api.WithAdminCredentials(cfg.Admin.Email, cfg.Admin.Password),
		api.WithCookieSecure(cfg.HTTP.Cookie.Secure),
		api.WithInternalSecret(cfg.Realtime.InternalSecret),
		api.WithLogger(log.With("api")),
	)
	handler.Register(engine)

	// 仅后台账号、Cookie Secure 与内部密钥支持热更新，其余配置需重启生效
	c.Subscribe(func() {
		c.Read(func() {
			handler.Reload(api.Settings{
				AdminEmail:     cfg.Admin.Email,
				AdminPassword:  cfg.Admin.Password,
				CookieSecure:   cfg.HTTP.Cookie.Secure,
				InternalSecret: cfg.Realtime.InternalSecret,
			})
		})
	})
	if err := c.Watch(); err != nil {
		log.Warn().Err(err).Msg("config watch disabled")
	}

	server := http.NewServer(cfg.Server.Addr, engine,
		http.WithMeta(http.Meta{Name: "yogaclub"}),
		http.WithPrometheus(prom),
		http.WithMetricsOptions(http.MetricsOption{
			Enabled:                   cfg.Metrics.Enabled,
			Path:                      cfg.Metrics.Path,
			EnabledGoCollector:        true,
			EnabledBuildInfoCollector: true,
		}),
		http.WithHealthOptions(http.HealthOption{Enabled: true}),
		http.WithSwagOptions(http.SwagOption{Enabled: cfg.Swagger.Enabled, Path: cfg.Swagger.Path}),
	)
	opts = append(opts, app.WithServer(server))

	if cfg.Session.Sweep.Enabled {
		opts = append(opts, app.WithServer(session.NewSweeper(store, cfg.Session.Sweep.Spec, log.With("sweeper"))))
	}

	log.Info().
		Str("addr", cfg.Server.Addr).
		Str("session_backend", cfg.Session.Backend).
		Str("database", cfg.Database.Driver.String()).
		Bool("kafka", cfg.Event.Kafka.Enabled).
		Msg("yogaclub starting")

	return app.New(opts...).Start()
}

// newStore 按 session.backend 创建会话存储，返回对应的关闭函数
func newStore(ctx context.Context, cfg *config.App) (session.Store, func(context.Context) error, error) {
	switch cfg.Session.Backend {
	case config.BackendRedis:
		client, err := redis.New(ctx, &cfg.Redis, redis.WithLogger(log.With("redis")))
		if err != nil {
			return nil, nil, err
		}
		store := session.NewRedisStore(client, session.WithRedisDefaultTTL(cfg.Session.DefaultTTL))
		return store, func(context.Context) error { return client.Close() }, nil
	default:
		store := session.NewMemoryStore(
			session.WithShards(cfg.Session.Shards),
			session.WithDefaultTTL(cfg.Session.DefaultTTL),
		)
		return store, func(context.Context) error { return nil }, nil
	}
}

// newPublisher 事件始终写日志，开启 Kafka 时同时写入 Kafka
func newPublisher(cfg *config.App) (event.Publisher, error) {
	logPublisher := event.NewLogPublisher(log.With("event"))
	if !cfg.Event.Kafka.Enabled {
		return logPublisher, nil
	}

	client, err := kafka.New(&cfg.Event.Kafka.Config, kafka.WithLogger(log.With("kafka")), kafka.WithAsync())
	if err != nil {
		return nil, err
	}
	kafkaPublisher, err := event.NewKafkaPublisher(client, cfg.Event.Kafka.Topic)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return event.Multi(logPublisher, kafkaPublisher), nil
}

// newToucher 配置 touch_url 时经内部接口续期，否则直接使用进程内会话服务
func newToucher(cfg *config.App, svc *session.Service) websocket.Toucher {
	if cfg.Realtime.TouchURL == "" {
		return svc
	}
	client := nethttp.New(nethttp.WithTimeout(cfg.Realtime.TouchTimeout))
	return websocket.NewHTTPToucher(cfg.Realtime.TouchURL, cfg.Realtime.InternalSecret, client)
}
