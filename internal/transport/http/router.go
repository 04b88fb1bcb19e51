package httptransport

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"quill-server-go/internal/platform/config"
	"quill-server-go/internal/platform/logging"
	"quill-server-go/internal/platform/storage"
)

// Options configures the HTTP router builder.
type Options struct {
	Config  *config.Config
	Logger  *logging.Logger
	Guards  *Guards
	Auth    *AuthHandler
	Content *ContentHandler
	Admin   *AdminHandler

	// EventStream, when set, is mounted at /api/admin/events behind the
	// admin guard.
	EventStream gin.HandlerFunc
}

// Router bundles the gin engine and its route groups.
type Router struct {
	Engine *gin.Engine
	API    *gin.RouterGroup
}

// Build constructs a gin engine with recovery, request logging, CORS and
// static file serving, then mounts the API surface.
func Build(opts Options) (*Router, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("http router requires config")
	}
	if opts.Guards == nil || opts.Auth == nil {
		return nil, fmt.Errorf("http router requires guards and auth handlers")
	}

	if opts.Config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggingMiddleware(opts.Logger))

	engine.SetTrustedProxies(nil)

	origins := opts.Config.Server.CORSOrigin
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if dir := opts.Config.Server.StaticDir; dir != "" {
		engine.Use(static.Serve("/", static.LocalFile(dir, true)))
	}

	api := engine.Group("/api")
	mountRoutes(api, opts)

	return &Router{Engine: engine, API: api}, nil
}

func mountRoutes(api *gin.RouterGroup, opts Options) {
	guards := opts.Guards

	registerLimit := opts.Config.Auth.RegisterLimit
	registerWindow := opts.Config.Auth.RegisterLimitWindow

	auth := api.Group("/auth")
	{
		auth.POST("/register", RateLimit(registerLimit, registerWindow), opts.Auth.Register)
		auth.POST("/login", opts.Auth.Login)
		auth.POST("/refresh", guards.RequireRefresh(), opts.Auth.Refresh)
		auth.POST("/logout", guards.RequireAccess(), opts.Auth.Logout)
		auth.POST("/logout-all", guards.RequireAccess(), opts.Auth.LogoutAll)
		auth.GET("/profile", guards.RequireAccess(), opts.Auth.Profile)
		auth.GET("/me", guards.RequireAccess(), opts.Auth.Me)
		auth.POST("/admin/clean-expired-tokens",
			guards.RequireAccess(), guards.RequireRole(storage.RoleAdmin), opts.Auth.CleanExpired)
	}

	if opts.Content != nil {
		posts := api.Group("/posts")
		{
			posts.GET("", opts.Content.ListPosts)
			posts.GET("/:id", opts.Content.GetPost)
			posts.POST("", guards.RequireAccess(), opts.Content.CreatePost)
			posts.PUT("/:id", guards.RequireAccess(), opts.Content.UpdatePost)
			posts.DELETE("/:id", guards.RequireAccess(), opts.Content.DeletePost)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", opts.Content.ListCategories)
			categories.POST("", guards.RequireAccess(), guards.RequireRole(storage.RoleAdmin), opts.Content.CreateCategory)
			categories.DELETE("/:id", guards.RequireAccess(), guards.RequireRole(storage.RoleAdmin), opts.Content.DeleteCategory)
		}
	}

	if opts.Admin != nil || opts.EventStream != nil {
		admin := api.Group("/admin", guards.RequireAccess(), guards.RequireRole(storage.RoleAdmin))
		if opts.Admin != nil {
			admin.GET("/system", opts.Admin.System)
		}
		if opts.EventStream != nil {
			admin.GET("/events", opts.EventStream)
		}
	}
}

func loggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		if logger != nil {
			logger.Info(
				"[HTTP] %s %s -> %d (%s)",
				c.Request.Method,
				c.Request.URL.Path,
				c.Writer.Status(),
				duration,
			)
		}
	}
}
