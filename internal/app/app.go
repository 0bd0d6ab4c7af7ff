package app

import (
	"context"
	"kwizzy_backend/internal/config"
	"kwizzy_backend/internal/controller"
	"kwizzy_backend/internal/repository"
	"kwizzy_backend/internal/service"
	"kwizzy_backend/internal/util"
	"kwizzy_backend/pkg/cache"
	"kwizzy_backend/pkg/clock"
	"kwizzy_backend/pkg/configwatcher"
	"kwizzy_backend/pkg/database"
	"kwizzy_backend/pkg/logger"
	"kwizzy_backend/pkg/monitoring"
	"kwizzy_backend/pkg/security"
	"kwizzy_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigPath      string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Clock           clock.Clock
	Cache           cache.Cache
	services        *services
	limiter         *security.IPRateLimiter
	scheduler       *service.Scheduler
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user      *repository.UserRepository
	subject   *repository.SubjectRepository
	chapter   *repository.ChapterRepository
	quiz      *repository.QuizRepository
	result    *repository.QuizResultRepository
	perf      *repository.PerformanceRepository
	exportJob *repository.ExportJobRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	subject     *service.SubjectService
	chapter     *service.ChapterService
	quiz        *service.QuizService
	submission  *service.SubmissionService
	result      *service.QuizResultService
	performance *service.PerformanceService
	export      *service.ExportService
}

type controllers struct {
	auth        *controller.AuthController
	subject     *controller.SubjectController
	chapter     *controller.ChapterController
	quiz        *controller.QuizController
	result      *controller.QuizResultController
	performance *controller.PerformanceController
	export      *controller.ExportController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		subject:   repository.NewSubjectRepository(db),
		chapter:   repository.NewChapterRepository(db),
		quiz:      repository.NewQuizRepository(db),
		result:    repository.NewQuizResultRepository(db),
		perf:      repository.NewPerformanceRepository(db),
		exportJob: repository.NewExportJobRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, c cache.Cache) *services {
	ttl := cfg.Cache.TTL()
	s := &services{}

	s.storage = service.NewStorageService(&cfg.Storage)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.subject = service.NewSubjectService(repos.subject, c)
	s.chapter = service.NewChapterService(repos.chapter, repos.subject, c)
	s.quiz = service.NewQuizService(repos.quiz, repos.chapter, c, ttl)
	s.submission = service.NewSubmissionService(repos.quiz, repos.result, a.Clock, c)
	s.result = service.NewQuizResultService(repos.result, repos.quiz, a.Clock, c, ttl)
	s.performance = service.NewPerformanceService(repos.perf, repos.user, a.Clock, c, ttl)
	s.export = service.NewExportService(
		repos.exportJob,
		repos.result,
		s.storage,
		a.Clock,
		cfg.Export.Dir,
		cfg.Quiz.PassMark,
		cfg.Export.RetentionDays,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		subject:     controller.NewSubjectController(s.subject),
		chapter:     controller.NewChapterController(s.chapter),
		quiz:        controller.NewQuizController(s.quiz),
		result:      controller.NewQuizResultController(s.submission, s.result, a.Clock),
		performance: controller.NewPerformanceController(s.performance),
		export:      controller.NewExportController(s.export),
		health:      controller.NewHealthController(db, a.Cache, a.Clock),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// initCache Redis 未启用或连接失败时退回进程内缓存
func initCache(cfg *config.Config) (cache.Cache, *redis.Client) {
	if !cfg.Redis.Enabled {
		logger.Log.Info("Redis disabled, using in-memory cache")
		return cache.NewMemoryCache(), nil
	}
	rdb, err := database.InitRedis(context.Background(), &cfg.Redis)
	if err != nil {
		logger.Log.Warn("Failed to initialize redis, using in-memory cache", zap.Error(err))
		return cache.NewMemoryCache(), nil
	}
	return cache.NewRedisCache(rdb, "kwizzy:"), rdb
}

func rateWindow(cfg *config.Config) time.Duration {
	return time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config:     cfg,
		ConfigPath: filepath.Join("configs", "config.yaml"),
		DB:         db,
	}
	if cfg.MigrateOnly {
		return app
	}

	clk, err := clock.New(cfg.Quiz.Timezone)
	if err != nil {
		logger.Log.Fatal("Failed to load quiz timezone", zap.Error(err))
	}
	app.Clock = clk

	c, rdb := initCache(cfg)
	app.Redis = rdb
	app.Cache = c

	util.RegisterValidators()

	repos := app.initRepositories(db)
	svc := app.initServices(repos, cfg, c)
	app.services = svc
	controllers := app.initControllers(svc, db)

	if err := svc.auth.EnsureAdmin(context.Background(), cfg.Admin); err != nil {
		logger.Log.Fatal("Failed to ensure admin account", zap.Error(err))
	}

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("kwizzy", cfg.Tracing.CollectorEndpoint, cfg.Server.Mode)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.limiter = security.NewIPRateLimiter(cfg.RateLimit.MaxRequests, rateWindow(cfg))

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Scheduler.Enabled {
		scheduler, err := service.NewScheduler(clk.Location(), cfg.Scheduler.ExportCleanup, svc.export)
		if err != nil {
			logger.Log.Fatal("Failed to create scheduler", zap.Error(err))
		}
		app.scheduler = scheduler
	}

	// 热更新：日志级别和限流参数
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetMode(newCfg.Server.Mode)
	})
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		app.limiter.Update(newCfg.RateLimit.MaxRequests, rateWindow(newCfg))
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		err := configwatcher.WatchConfig(watchCtx, a.ConfigPath, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config watcher stopped", zap.Error(err))
		}
	}()

	if a.scheduler != nil {
		a.scheduler.Start()
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.shutdown(ctx)
	logger.Log.Info("Server exiting")
}

// shutdown 停止定时任务并等待后台导出完成
func (a *App) shutdown(ctx context.Context) {
	if a.scheduler != nil {
		<-a.scheduler.Stop().Done()
	}
	if a.services != nil {
		a.services.export.Wait()
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	_ = logger.Log.Sync()
}
