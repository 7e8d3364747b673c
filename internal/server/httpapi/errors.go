package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/server/images"
	"github.com/norsebooks/norsebooks/internal/server/repositories/admin"
	"github.com/norsebooks/norsebooks/internal/server/validation"
)

type errorResponse struct {
	Error string `json:"error"`
}

var knownErrors = []struct {
	err     error
	status  int
	message string
}{
	{common.ErrorNotFound, fiber.StatusNotFound, "Not found"},
	{common.ErrorUnauthorized, fiber.StatusUnauthorized, "Please log in"},
	{common.ErrorForbidden, fiber.StatusForbidden, "Not allowed"},
	{common.ErrAnchorNotFound, fiber.StatusNotFound, "Last book does not exist"},
	{common.ErrAlreadyReported, fiber.StatusConflict, "You have already reported this book"},
	{common.ErrReportedRecently, fiber.StatusTooManyRequests, "You have reported a book recently. Please try again later."},
	{common.ErrTooManyBooks, fiber.StatusConflict, "You have reached the maximum number of books listed"},
	{common.ErrNoContactInfo, fiber.StatusConflict, "Please add contact information to your profile before listing a book"},
	{common.ErrFeedbackTooSoon, fiber.StatusTooManyRequests, "You have already provided feedback recently"},
	{common.ErrEmailTaken, fiber.StatusConflict, "That email address has already been registered"},
	{images.ErrNotAnImage, fiber.StatusBadRequest, "Error uploading image. Please try a different image."},
	{admin.ErrInvalidQuery, fiber.StatusBadRequest, "Invalid query"},
	{common.ErrUnsupported, fiber.StatusNotImplemented, "Not supported by this deployment"},
}

func statusFor(err error) int {
	for _, k := range knownErrors {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return fiber.StatusInternalServerError
}

// handleError maps service errors to responses. Unknown errors are logged
// and answered with a bare 500.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(errorResponse{Error: fe.Message})
	}
	for _, k := range knownErrors {
		if errors.Is(err, k.err) {
			return c.Status(k.status).JSON(errorResponse{Error: k.message})
		}
	}
	s.logger.Error(c.UserContext(), "request failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "Internal server error"})
}

// invalid answers a rejected form.
func invalid(c *fiber.Ctx, r validation.Result) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: r.Message})
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

type okResponse struct {
	OK bool `json:"ok"`
}

func ok(c *fiber.Ctx) error {
	return c.JSON(okResponse{OK: true})
}
