package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/norsebooks/norsebooks/internal/server/validation"
)

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Firstname       string `json:"firstname"`
	Lastname        string `json:"lastname"`
}

func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("malformed request")
	}

	email := validation.NormalizeEmail(req.Email, s.emailSuffix)
	if r := validation.Email(email); !r.OK {
		return invalid(c, r)
	}
	if r := validation.Password(req.Password, req.PasswordConfirm); !r.OK {
		return invalid(c, r)
	}
	first, last := validation.Trim(req.Firstname), validation.Trim(req.Lastname)
	if r := validation.Name(first, last); !r.OK {
		return invalid(c, r)
	}

	if _, err := s.svc.Credentials.Register(c.UserContext(), email, req.Password, first, last); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(okResponse{OK: true})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionToken string `json:"sessionToken"`
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("malformed request")
	}

	email := validation.NormalizeEmail(req.Email, s.emailSuffix)
	valid, token, err := s.svc.Credentials.Login(c.UserContext(), email, req.Password)
	if err != nil {
		return err
	}
	if !valid {
		return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{Error: "Invalid login"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.sessionTimeout),
		HTTPOnly: true,
		Secure:   s.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(loginResponse{SessionToken: token})
}

func (s *Server) logout(c *fiber.Ctx) error {
	if token := sessionToken(c); token != "" {
		if err := s.svc.Credentials.Logout(c.UserContext(), token); err != nil {
			return err
		}
	}
	c.ClearCookie(sessionCookie)
	return ok(c)
}

type verifyResponse struct {
	Verified bool `json:"verified"`
}

func (s *Server) verify(c *fiber.Ctx) error {
	verified, err := s.svc.Credentials.Verify(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(verifyResponse{Verified: verified})
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// requestPasswordReset answers the same way whether or not a mail was sent.
func (s *Server) requestPasswordReset(c *fiber.Ctx) error {
	var req passwordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("malformed request")
	}
	email := validation.NormalizeEmail(req.Email, s.emailSuffix)
	if r := validation.Email(email); r.OK {
		if err := s.svc.Credentials.RequestPasswordReset(c.UserContext(), email); err != nil {
			return err
		}
	}
	return c.Status(fiber.StatusAccepted).JSON(okResponse{OK: true})
}

type validResponse struct {
	Valid bool `json:"valid"`
}

func (s *Server) checkPasswordReset(c *fiber.Ctx) error {
	valid, err := s.svc.Credentials.CheckPasswordReset(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(validResponse{Valid: valid})
}

type newPasswordRequest struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

func (s *Server) resetPassword(c *fiber.Ctx) error {
	var req newPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("malformed request")
	}
	if r := validation.Password(req.NewPassword, req.ConfirmNewPassword); !r.OK {
		return invalid(c, r)
	}

	done, err := s.svc.Credentials.ResetPassword(c.UserContext(), c.Params("token"), req.NewPassword)
	if err != nil {
		return err
	}
	if !done {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "This password reset link is invalid or has expired"})
	}
	return ok(c)
}
