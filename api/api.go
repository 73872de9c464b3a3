package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/blnkfinance/bulkdelete/api/middleware"
	"github.com/blnkfinance/bulkdelete/config"
	"github.com/blnkfinance/bulkdelete/model"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// EventRouter resolves a snap-in function name to its entry point.
type EventRouter interface {
	Handler(functionName string) (func(context.Context, model.Event), bool)
}

type Api struct {
	service  EventRouter
	router   *gin.Engine
	secure   bool
	secret   string
	inflight sync.WaitGroup
}

func (a *Api) Router() *gin.Engine {
	router := a.router

	handle := router.Group("/handle")
	if a.secure {
		handle.Use(middleware.SecretKeyAuthMiddleware(a.secret))
	}
	handle.POST("/sync", a.HandleSync)
	handle.POST("/async", a.HandleAsync)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return a.router
}

func NewAPI(service EventRouter) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(otelgin.Middleware(conf.ProjectName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RateLimitMiddleware(conf))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": conf.Runtime.Mode})
	})

	return &Api{service: service, router: r, secure: conf.Server.Secure, secret: conf.Server.SecretKey}
}

// Wait blocks until every asynchronously accepted batch has been handled.
func (a *Api) Wait() {
	a.inflight.Wait()
}
