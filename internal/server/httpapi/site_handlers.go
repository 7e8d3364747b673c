package httpapi

import (
	"github.com/gofiber/fiber/v2"
)

type alertResponse struct {
	AlertValue string `json:"alertValue,omitempty"`
}

// alert returns the live banner, or an empty object when there is none.
func (s *Server) alert(c *fiber.Ctx) error {
	a, err := s.svc.Meta.Alert(c.UserContext())
	if err != nil {
		return err
	}
	var resp alertResponse
	if a != nil {
		resp.AlertValue = a.Text
	}
	return c.JSON(resp)
}

func (s *Server) catalog(c *fiber.Ctx) error {
	cat, err := s.svc.Catalog.All(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(cat)
}

type termsResponse struct {
	Terms string `json:"terms"`
}

func (s *Server) terms(c *fiber.Ctx) error {
	t, err := s.svc.Meta.Terms(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(termsResponse{Terms: t})
}

type versionResponse struct {
	Version string `json:"version"`
}

func (s *Server) version(c *fiber.Ctx) error {
	v, err := s.svc.Meta.Version(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(versionResponse{Version: v})
}
