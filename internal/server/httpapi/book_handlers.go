package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/validation"
)

type booksResponse struct {
	Books []models.BookRow `json:"books"`
}

func (s *Server) searchBooks(c *fiber.Ctx) error {
	var form validation.SearchForm
	if err := c.QueryParser(&form); err != nil {
		return badRequest("malformed query")
	}

	ctx := c.UserContext()
	crit, sortID, err := validation.SearchCriteria(ctx, s.svc.Catalog, form)
	if err != nil {
		return err
	}
	rows, err := s.svc.Books.Search(ctx, crit, sortID, validation.Trim(form.LastBook))
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []models.BookRow{}
	}
	return c.JSON(booksResponse{Books: rows})
}

func (s *Server) getBook(c *fiber.Ctx) error {
	v, err := s.svc.Books.Get(c.UserContext(), c.Params("bookId"), viewerID(c))
	if err != nil {
		return err
	}
	return c.JSON(v)
}

// parseBook validates the listing form in the request body. A nil input
// with a nil error means the response has been written.
func (s *Server) parseBook(c *fiber.Ctx) (*models.BookInput, error) {
	var form validation.BookForm
	if err := c.BodyParser(&form); err != nil {
		return nil, badRequest("malformed request")
	}
	in, r, err := validation.Book(c.UserContext(), s.svc.Catalog, form)
	if err != nil {
		return nil, err
	}
	if !r.OK {
		return nil, invalid(c, r)
	}
	return &in, nil
}

type bookCreatedResponse struct {
	BookID string `json:"bookId"`
}

func (s *Server) createBook(c *fiber.Ctx) error {
	in, err := s.parseBook(c)
	if in == nil {
		return err
	}
	b, err := s.svc.Books.List(c.UserContext(), currentUser(c).ID, *in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(bookCreatedResponse{BookID: b.BookID})
}

func (s *Server) editBook(c *fiber.Ctx) error {
	in, err := s.parseBook(c)
	if in == nil {
		return err
	}
	if err := s.svc.Books.Edit(c.UserContext(), currentUser(c).ID, c.Params("bookId"), *in); err != nil {
		return err
	}
	return ok(c)
}

func (s *Server) deleteBook(c *fiber.Ctx) error {
	if err := s.svc.Books.Delete(c.UserContext(), currentUser(c).ID, c.Params("bookId")); err != nil {
		return err
	}
	return ok(c)
}

func (s *Server) markSold(c *fiber.Ctx) error {
	if err := s.svc.Books.MarkSold(c.UserContext(), currentUser(c).ID, c.Params("bookId")); err != nil {
		return err
	}
	return ok(c)
}

type reportResponse struct {
	Removed bool `json:"removed"`
}

func (s *Server) reportBook(c *fiber.Ctx) error {
	removed, err := s.svc.Moderation.Report(c.UserContext(), currentUser(c).ID, c.Params("bookId"))
	if err != nil {
		return err
	}
	return c.JSON(reportResponse{Removed: removed})
}

func (s *Server) unreportBook(c *fiber.Ctx) error {
	if err := s.svc.Moderation.Unreport(c.UserContext(), currentUser(c).ID, c.Params("bookId")); err != nil {
		return err
	}
	return ok(c)
}

type imageResponse struct {
	ImageURL string `json:"imageUrl"`
}

// uploadImage stores the "image" file of a multipart form and returns its
// URL for use in a listing form.
func (s *Server) uploadImage(c *fiber.Ctx) error {
	if s.svc.Images == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Image uploads are not available")
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return badRequest("Please choose an image to upload")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	url, err := s.svc.Images.Upload(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(imageResponse{ImageURL: url})
}
