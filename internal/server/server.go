package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/api/http"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/api/middleware"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/api/ws"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/action"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/control"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/forward"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/render"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/sse"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/supervisor"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/domain/turn"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/infrastructure/config"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/infrastructure/logging"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/infrastructure/monitoring"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/providers/helper"
	"github.com/wgabrys88/windows-ai-agent-toolset-v39.2-Avoidance-HEATMAP/internal/shared/paths"
)

const shutdownSlack = 5 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	config     *config.Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *logging.Logger
	metrics    *monitoring.Metrics
	hub        *sse.Hub
	agent      *supervisor.Supervisor
	runDir     string

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	runDir, err := paths.NewRunDir(cfg.Run.LogBase, time.Now())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg, runDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing operator console",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("upstream", cfg.Upstream.URL),
		zap.String("run_dir", runDir),
	)

	pauser := control.NewPauseController(cfg.Run.LogBase, logger.Named("pause"))
	if cfg.Run.AutoPause {
		if err := pauser.MarkPaused(runDir, "Auto-paused at startup"); err != nil {
			logger.Warn("Failed to auto-pause run", zap.Error(err))
		}
	}

	metrics := monitoring.NewMetrics()
	hub := sse.NewHub(cfg.Store.SSEQueueSize, logger.Named("sse"))
	rendezvous := render.New(render.Config{
		Timeout:      cfg.Render.Timeout.D(),
		AttachWindow: cfg.Render.AttachWindow.D(),
		Width:        cfg.Render.Width,
		Height:       cfg.Render.Height,
	}, logger.Named("render"))
	forwarder := forward.New(forward.Config{
		URL:     cfg.Upstream.URL,
		Timeout: cfg.Upstream.Timeout.D(),
	}, logger.Named("forward"))

	previewer := helper.NewPreviewer(helper.NewRunner("preview", helper.Config{
		Command: cfg.Helpers.PreviewCmd,
		Args:    cfg.Helpers.PreviewArgs,
		Dir:     cfg.Agent.Dir,
		Timeout: cfg.Helpers.PreviewTimeout.D(),
	}, logger.Logger), cfg.Helpers.PreviewWidth)
	executor := helper.NewExecutor(helper.NewRunner("execute", helper.Config{
		Command: cfg.Helpers.ExecuteCmd,
		Args:    cfg.Helpers.ExecuteArgs,
		Dir:     cfg.Agent.Dir,
		Timeout: cfg.Helpers.ExecuteTimeout.D(),
	}, logger.Logger))

	var agent *supervisor.Supervisor
	var agentStatus apihttp.AgentStatus
	if cfg.Agent.Enabled {
		agent = supervisor.New(supervisor.Config{
			Command:      cfg.Agent.Command,
			Args:         cfg.Agent.Args,
			Dir:          cfg.Agent.Dir,
			RunDir:       runDir,
			RunDirEnv:    cfg.Agent.RunDirEnv,
			InitialDelay: cfg.Agent.InitialDelay.D(),
			RestartDelay: cfg.Agent.RestartDelay.D(),
			StopTimeout:  cfg.Agent.StopTimeout.D(),
			KillWait:     cfg.Agent.KillWait.D(),
		}, logger.Named("agent"))
		agentStatus = agent
	}

	registerGauges(metrics, hub, rendezvous, agent)

	handlers := apihttp.NewHandlers(apihttp.Deps{
		Logger:    logger.Logger,
		Metrics:   metrics,
		Counter:   &turn.Counter{},
		Store:     turn.NewStore(cfg.Store.TurnCapacity),
		Journal:   turn.NewJournal(runDir),
		Hub:       hub,
		Render:    rendezvous,
		Memory:    action.NewMemory(),
		Forwarder: forwarder,
		Pauser:    pauser,
		Settings:  control.NewSettings(runDir),
		Previewer: previewer,
		Executor:  executor,
		Agent:     agentStatus,

		RunDir:        runDir,
		DashboardFile: cfg.Run.DashboardFile,
		CanvasFile:    cfg.Run.CanvasFile,
		ScreenW:       cfg.Screen.Width,
		ScreenH:       cfg.Screen.Height,
		Keepalive:     cfg.Store.SSEKeepalive.D(),
	})
	wsHandler := ws.NewHandler(rendezvous, logger.Named("renderer"))

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	registerRoutes(router, cfg, logger.Logger, handlers, wsHandler, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	logger.Info("Server initialized successfully")

	return &Server{
		config: cfg,
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:  logger,
		metrics: metrics,
		hub:     hub,
		agent:   agent,
		runDir:  runDir,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

func newLogger(cfg *config.Config, runDir string) (*logging.Logger, error) {
	lc := logging.DefaultConfig()
	if cfg.Logging.Development {
		lc = logging.DevelopmentConfig()
	} else if cfg.Logging.Level != "" {
		lc.Level = cfg.Logging.Level
	}
	if cfg.Logging.FileEnabled {
		lc.File = logging.FileConfig{Path: paths.In(runDir, paths.LogFile)}
	}
	return logging.New(lc)
}

func registerRoutes(
	router *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	h *apihttp.Handlers,
	wsHandler *ws.Handler,
	metrics *monitoring.Metrics,
) {
	router.NoRoute(h.NotFound)

	// Agent traffic
	router.POST(cfg.Server.InferencePath, h.Inference)

	// Dashboard
	router.GET("/", h.Dashboard)
	router.GET("/index.html", h.Dashboard)
	router.GET("/canvas", h.Canvas)
	router.GET("/events", h.Events)
	router.GET("/health", h.Health)
	router.GET("/turn/:n/screenshot", h.Screenshot)
	router.GET("/stats", h.Stats)
	router.GET("/turns/export", h.Export)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Renderer
	router.GET("/render_job", h.RenderJob)
	router.POST("/annotated", h.Annotated)
	router.GET("/render/ws", wsHandler.HandleConnection)

	// Operator controls
	controls := router.Group("")
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		controls.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	controls.GET("/preview", h.Preview)
	controls.GET("/crop", h.GetCrop)
	controls.POST("/crop", h.SetCrop)
	controls.GET("/allowed_tools", h.GetAllowedTools)
	controls.POST("/allowed_tools", h.SetAllowedTools)
	controls.POST("/pause", h.Pause)
	controls.POST("/unpause", h.Unpause)
	controls.POST("/debug/execute", h.DebugExecute)
}

func registerGauges(m *monitoring.Metrics, hub *sse.Hub, r *render.Rendezvous, agent *supervisor.Supervisor) {
	m.Gauge("sse_clients", "Connected dashboard streams", func() float64 {
		return float64(hub.Count())
	})
	m.Gauge("sse_dropped", "Dashboard messages dropped to make room", func() float64 {
		return float64(hub.Dropped())
	})
	m.Gauge("renderers_attached", "Renderers connected over WebSocket", func() float64 {
		return float64(r.Attached())
	})
	m.Gauge("render_seq", "Last render job sequence number", func() float64 {
		return float64(r.Seq())
	})
	if agent == nil {
		return
	}
	m.Gauge("agent_running", "Whether the supervised agent is alive", func() float64 {
		if agent.Running() {
			return 1
		}
		return 0
	})
	m.Gauge("agent_restarts", "Agent restarts since startup", func() float64 {
		return float64(agent.Restarts())
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// RunDir returns this run's directory.
func (s *Server) RunDir() string {
	return s.runDir
}

// Run starts the agent supervisor and the HTTP server. It returns nil
// after Close.
func (s *Server) Run() error {
	if s.agent != nil {
		go func() {
			if err := s.agent.Run(s.ctx); err != nil {
				s.logger.Error("Agent supervisor failed", zap.Error(err))
			}
		}()
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.shutdown()
	})
	return s.closeErr
}

func (s *Server) shutdown() error {
	s.logger.Info("Shutting down server...")

	budget := s.config.Agent.StopTimeout.D() + s.config.Agent.KillWait.D() + shutdownSlack
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	var errs []error
	if s.agent != nil {
		if err := s.agent.Stop(ctx); err != nil {
			s.logger.Error("Failed to stop agent", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop agent: %w", err))
		} else {
			s.logger.Info("Agent stopped")
		}
	}
	s.cancel()

	// Event streams never end on their own.
	s.hub.Close()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
		errs = append(errs, fmt.Errorf("shutdown http: %w", err))
	}

	s.logger.Info("Shutdown complete")
	_ = s.logger.Close()

	return errors.Join(errs...)
}
