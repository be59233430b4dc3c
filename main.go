package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/dashcache/dashcache/internal/config"
	"github.com/dashcache/dashcache/internal/logging"
	"github.com/dashcache/dashcache/internal/metrics"
	"github.com/dashcache/dashcache/internal/proxy"
	"github.com/dashcache/dashcache/internal/server"
	"github.com/dashcache/dashcache/internal/server/routes"
	"github.com/dashcache/dashcache/internal/storage"
	"github.com/dashcache/dashcache/internal/upstream"
	"github.com/dashcache/dashcache/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	envPath     string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	if err := config.LoadDotEnv(envPaths(opts)...); err != nil {
		fmt.Fprintf(stdErr, "加载 .env 失败: %v\n", err)
		return 1
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["datasets"] = len(cfg.Datasets)
		fields["auth_modes"] = config.AuthModes(cfg.Datasets)
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	svc, err := buildService(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化服务失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["datasets"] = len(cfg.Datasets)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["auth_modes"] = config.AuthModes(cfg.Datasets)
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Global.WarmOnStart {
		go svc.registry.WarmAll(ctx)
	}

	if err := startHTTPServer(ctx, cfg, svc, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		_ = svc.registry.Close()
		return 1
	}
	if err := svc.registry.Close(); err != nil {
		logger.WithError(err).Warn("关闭数据集缓存失败")
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("dashcache", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		envFlag    string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 DASHCACHE_CONFIG 覆盖）")
	fs.StringVar(&envFlag, "env-file", "", "额外加载的 .env 文件，默认只加载 ./.env")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv(config.EnvPrefix + "_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		envPath:     envFlag,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

// envPaths 返回需要加载的 .env 文件，显式指定的文件优先于 ./.env。
func envPaths(opts cliOptions) []string {
	if opts.envPath != "" {
		return []string{opts.envPath, ".env"}
	}
	return []string{".env"}
}

// service 聚合启动期构建的共享组件。
type service struct {
	app      *fiber.App
	registry *server.DatasetRegistry
}

// buildService 遵循 “快照存储 → 指标 → 回源 → 数据集缓存 → Fiber app” 顺序装配，
// 所有数据集共享同一个回源限速器与快照目录。
func buildService(cfg *config.Config, logger *logrus.Logger) (*service, error) {
	store, err := storage.NewFileStore(cfg.Global.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("初始化快照目录失败: %w", err)
	}

	// 缓存统计的 collector 在注册表建好之后才有数据源，这里先用闭包占位。
	var registry *server.DatasetRegistry
	reg, upstreamMetrics := metrics.NewRegistry(metrics.StatsSourceFunc(func() []metrics.DatasetStats {
		return registry.CacheStats()
	}))

	fetcher := upstream.NewFetcher(upstream.Options{
		Client:         upstream.NewClient(cfg.Global.UpstreamTimeout.DurationValue()),
		MaxRetries:     cfg.Global.MaxRetries,
		InitialBackoff: cfg.Global.InitialBackoff.DurationValue(),
		RPS:            cfg.Global.UpstreamRPS,
		Burst:          cfg.Global.UpstreamBurst,
		Metrics:        upstreamMetrics,
		Logger:         logger,
		UserAgent:      "dashcache/" + version.Version,
	})

	registry, err = server.NewDatasetRegistry(cfg, server.RegistryOptions{
		Store:   store,
		Fetcher: fetcher,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("构建数据集注册表失败: %w", err)
	}

	app, err := server.NewApp(server.AppOptions{
		Logger:   logger,
		Registry: registry,
		Proxy:    proxy.NewHandler(logger),
	})
	if err != nil {
		_ = registry.Close()
		return nil, err
	}
	routes.RegisterModuleRoutes(app, registry)
	routes.RegisterCacheRoutes(app, registry, logger)
	routes.RegisterBatchRoutes(app, registry, logger)
	routes.RegisterSystemRoutes(app, reg)

	return &service{app: app, registry: registry}, nil
}

// startHTTPServer 阻塞监听，ctx 结束（SIGINT/SIGTERM）时优雅关闭。
func startHTTPServer(ctx context.Context, cfg *config.Config, svc *service, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort

	go func() {
		<-ctx.Done()
		logger.WithField("action", "shutdown").Info("收到退出信号，停止接收新请求")
		if err := svc.app.Shutdown(); err != nil {
			logger.WithError(err).Warn("Fiber 关闭失败")
		}
	}()

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return svc.app.Listen(fmt.Sprintf(":%d", port))
}
