package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/dm-backend/internal/config"
	"github.com/shinyyama/dm-backend/internal/handler"
	"github.com/shinyyama/dm-backend/internal/hub"
	appmw "github.com/shinyyama/dm-backend/internal/middleware"
	"github.com/shinyyama/dm-backend/internal/repository"
	"github.com/shinyyama/dm-backend/internal/service"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Hub       *hub.Hub
	Events    service.EventPublisher
	Log       logrus.FieldLogger
	SHA       string
	BuildTime string
}

type Server struct {
	e           *echo.Echo
	messageRepo repository.MessageRepository
	sha         string
	build       string
}

func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.Config == nil {
		d.Config = &config.Config{}
	}
	cfg := d.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(appmw.RequestLogger(d.Log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			return cfg.OriginAllowed(origin), nil
		},
	}))

	messageRepo := repository.NewMessageRepository(d.DB, repository.NewUserMapper())
	var notifier service.MessageNotifier
	if d.Hub != nil {
		notifier = d.Hub
	}
	messageSvc := service.NewMessageService(messageRepo, notifier, d.Events, d.Log)
	messageHandler := handler.NewMessageHandler(messageSvc)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    d.SHA,
			"build_time": d.BuildTime,
		})
	})

	api := e.Group("/api")
	api.GET("/messages/paginate", messageHandler.GetAll)
	api.GET("/messages/sender/:id", messageHandler.GetBySender)
	api.GET("/messages/recipient/:id", messageHandler.GetByRecipient)
	api.GET("/messages/:id", messageHandler.Get)
	api.POST("/messages", messageHandler.Create)
	api.PUT("/messages/:id", messageHandler.Update)
	api.DELETE("/messages/:id", messageHandler.Delete)

	if d.Hub != nil {
		e.GET("/hubs/chat", handler.NewHubHandler(d.Hub, cfg.OriginAllowed).Serve)
	}

	return &Server{e: e, messageRepo: messageRepo, sha: d.SHA, build: d.BuildTime}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// ServeHTTP exposes the router for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// SetDB injects the connection once it is established; until then store
// calls answer 503.
func (s *Server) SetDB(db *gorm.DB) {
	if s.messageRepo != nil {
		s.messageRepo.SetDB(db)
	}
}
