package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/models"
)

const (
	sessionHeader = "X-Session-Token"
	sessionCookie = "session"

	localUser = "user"
)

// requestContext carries the request id into the context the services log
// with.
func (s *Server) requestContext(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if rid, ok := c.Locals("requestid").(string); ok {
		ctx = logging.WithRequestID(ctx, rid)
	}
	c.SetUserContext(ctx)
	return c.Next()
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			status = statusFor(err)
		}
	}
	s.logger.Debug(c.UserContext(), "request",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"duration", time.Since(start),
	)
	return err
}

func sessionToken(c *fiber.Ctx) string {
	if t := c.Get(sessionHeader); t != "" {
		return t
	}
	return c.Cookies(sessionCookie)
}

// session resolves the session token, if any, to the signed-in user. An
// unknown token leaves the request anonymous.
func (s *Server) session(c *fiber.Ctx) error {
	token := sessionToken(c)
	if token == "" {
		return c.Next()
	}

	user, err := s.svc.Credentials.Authenticate(c.UserContext(), token)
	if errors.Is(err, common.ErrorUnauthorized) {
		return c.Next()
	}
	if err != nil {
		return err
	}

	c.Locals(localUser, user)
	c.SetUserContext(logging.WithUserID(c.UserContext(), user.ID))
	return c.Next()
}

// currentUser returns the signed-in user, or nil for anonymous requests.
func currentUser(c *fiber.Ctx) *models.NavUser {
	u, _ := c.Locals(localUser).(*models.NavUser)
	return u
}

func viewerID(c *fiber.Ctx) int64 {
	if u := currentUser(c); u != nil {
		return u.ID
	}
	return 0
}

func (s *Server) authRequired(c *fiber.Ctx) error {
	if currentUser(c) == nil {
		return common.ErrorUnauthorized
	}
	return c.Next()
}

func (s *Server) adminRequired(c *fiber.Ctx) error {
	if u := currentUser(c); u == nil || !u.Admin {
		return common.ErrorForbidden
	}
	return c.Next()
}
