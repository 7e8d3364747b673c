// Package httpapi exposes the NorseBooks services as a JSON API over fiber.
// It owns request parsing, form validation, sessions carried in a header or
// cookie, rate limiting and HTTP metrics; business rules stay in the
// services.
package httpapi

import (
	"context"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/config"
	"github.com/norsebooks/norsebooks/internal/server/images"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Services are the collaborators the handlers call into.
type Services struct {
	Credentials *services.CredentialService
	Books       *services.BookService
	Moderation  *services.ModerationService
	Profiles    *services.ProfileService
	Catalog     *services.CatalogService
	Meta        *services.MetaService
	Admin       *services.AdminService
	Images      images.Store
}

type Server struct {
	address string
	app     *fiber.App
	svc     Services
	limiter *RateLimiter
	prom    *fiberprometheus.FiberPrometheus
	logger  logging.Logger

	emailSuffix    string
	sessionTimeout time.Duration
	secureCookies  bool
	allowedOrigins string
}

// New builds the fiber app with all routes. rdb may be nil, in which case
// rate limits are not enforced. HTTP metrics are registered with reg.
func New(cfg *config.Config, svc Services, rdb *redis.Client, reg prometheus.Registerer, logger logging.Logger) *Server {
	s := &Server{
		address:        cfg.HTTPAddr,
		svc:            svc,
		logger:         logger.With("module", "http_server"),
		emailSuffix:    cfg.EmailSuffix,
		sessionTimeout: cfg.SessionTimeout,
		secureCookies:  cfg.Env == "production",
		allowedOrigins: cfg.AllowedOrigins,
	}
	s.limiter = NewRateLimiter(rdb, s.logger)
	s.prom = fiberprometheus.NewWithRegistry(reg, "norsebooks", "http", "", nil)

	s.app = fiber.New(fiber.Config{
		AppName:      "NorseBooks",
		ErrorHandler: s.handleError,
		BodyLimit:    8 * 1024 * 1024,
	})
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) setupMiddleware() {
	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(s.requestContext)
	s.app.Use(s.prom.Middleware)
	s.app.Use(s.accessLog)
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.allowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, " + sessionHeader,
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	s.app.Use(s.session)
}

func (s *Server) setupRoutes() {
	s.prom.RegisterAt(s.app, "/metrics")

	api := s.app.Group("/api")

	api.Post("/register", s.limiter.Limit("register", 5, 10*time.Minute), s.register)
	api.Post("/login", s.limiter.Limit("login", 10, 5*time.Minute), s.login)
	api.Post("/logout", s.logout)
	api.Get("/verify/:token", s.verify)
	api.Post("/password-reset", s.limiter.Limit("password_reset", 3, 10*time.Minute), s.requestPasswordReset)
	api.Get("/password-reset/:token", s.checkPasswordReset)
	api.Post("/password-reset/:token", s.limiter.Limit("password_reset_confirm", 10, 10*time.Minute), s.resetPassword)

	api.Get("/alert", s.alert)
	api.Get("/catalog", s.catalog)
	api.Get("/terms", s.terms)
	api.Get("/version", s.version)

	books := api.Group("/books")
	books.Get("/", s.searchBooks)
	books.Post("/", s.authRequired, s.createBook)
	books.Post("/:bookId/sold", s.authRequired, s.markSold)
	books.Post("/:bookId/report", s.authRequired, s.reportBook)
	books.Delete("/:bookId/report", s.authRequired, s.unreportBook)
	books.Get("/:bookId", s.getBook)
	books.Put("/:bookId", s.authRequired, s.editBook)
	books.Delete("/:bookId", s.authRequired, s.deleteBook)

	api.Post("/images", s.authRequired, s.limiter.Limit("upload", 20, 10*time.Minute), s.uploadImage)

	profile := api.Group("/profile", s.authRequired)
	profile.Get("/", s.profile)
	profile.Post("/password", s.changePassword)
	profile.Post("/name", s.setName)
	profile.Post("/contact", s.setContact)
	profile.Post("/image", s.limiter.Limit("upload", 20, 10*time.Minute), s.setProfileImage)

	api.Get("/feedback", s.authRequired, s.canSendFeedback)
	api.Post("/feedback", s.authRequired, s.sendFeedback)

	admin := api.Group("/admin", s.authRequired, s.adminRequired)
	admin.Get("/stats", s.adminStats)
	admin.Get("/settings", s.adminSettings)
	admin.Post("/version", s.adminSetVersion)
	admin.Post("/max-books", s.adminSetMeta(models.MetaMaxBooks))
	admin.Post("/max-reports", s.adminSetMeta(models.MetaMaxReports))
	admin.Post("/books-per-query", s.adminSetMeta(models.MetaBooksPerQuery))
	admin.Get("/terms", s.terms)
	admin.Post("/terms", s.adminSetTerms)
	admin.Get("/alert", s.adminAlert)
	admin.Post("/alert", s.adminSetAlert)
	admin.Delete("/alert", s.adminRemoveAlert)
	admin.Get("/reports", s.adminReports)
	admin.Delete("/books/:bookId", s.adminRemoveBook)
	admin.Get("/users", s.adminUsers)
	admin.Get("/rows", s.adminRowCounts)
	admin.Get("/tables", s.adminTables)
	admin.Get("/tables/:table/columns", s.adminColumns)
	admin.Post("/query", s.adminQuery)
}

// Run serves until ctx is cancelled, then shuts the listener down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errc <- s.app.Listen(s.address)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(shutdownCtx)
}
