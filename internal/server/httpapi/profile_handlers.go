package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/norsebooks/norsebooks/internal/server/validation"
)

func (s *Server) profile(c *fiber.Ctx) error {
	p, err := s.svc.Profiles.Get(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (s *Server) changePassword(c *fiber.Ctx) error {
	var req newPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("malformed request")
	}
	if r := validation.Password(req.NewPassword, req.ConfirmNewPassword); !r.OK {
		return invalid(c, r)
	}

	changed, err := s.svc.Credentials.ChangePassword(c.UserContext(), currentUser(c).ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}
	if !changed {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Incorrect password"})
	}
	return ok(c)
}

type nameRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

func (s *Server) setName(c *fiber.Ctx) error {
	var req nameRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("malformed request")
	}
	first, last := validation.Trim(req.Firstname), validation.Trim(req.Lastname)
	if r := validation.Name(first, last); !r.OK {
		return invalid(c, r)
	}
	if err := s.svc.Profiles.SetName(c.UserContext(), currentUser(c).ID, first, last); err != nil {
		return err
	}
	return ok(c)
}

type contactRequest struct {
	Platform int    `json:"contactPlatform"`
	Info     string `json:"contactInfo"`
}

func (s *Server) setContact(c *fiber.Ctx) error {
	var req contactRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("malformed request")
	}
	info := validation.Trim(req.Info)
	if r := validation.ContactInfo(info); !r.OK {
		return invalid(c, r)
	}

	known, err := s.svc.Profiles.SetContact(c.UserContext(), currentUser(c).ID, req.Platform, info)
	if err != nil {
		return err
	}
	if !known {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Please select a valid contact platform"})
	}
	return ok(c)
}

func (s *Server) setProfileImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return badRequest("Please choose an image to upload")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	url, err := s.svc.Profiles.SetImage(c.UserContext(), currentUser(c).ID, f)
	if err != nil {
		return err
	}
	return c.JSON(imageResponse{ImageURL: url})
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

type canSendResponse struct {
	CanSend bool `json:"canSend"`
}

func (s *Server) canSendFeedback(c *fiber.Ctx) error {
	can, err := s.svc.Profiles.CanSendFeedback(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(canSendResponse{CanSend: can})
}

func (s *Server) sendFeedback(c *fiber.Ctx) error {
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("malformed request")
	}
	text := validation.Trim(req.Feedback)
	if r := validation.Feedback(text); !r.OK {
		return invalid(c, r)
	}
	if err := s.svc.Profiles.SendFeedback(c.UserContext(), currentUser(c).ID, text); err != nil {
		return err
	}
	return ok(c)
}
