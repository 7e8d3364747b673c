package httpapi

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/validation"
)

func (s *Server) adminStats(c *fiber.Ctx) error {
	st, err := s.svc.Admin.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(st)
}

type settingsResponse struct {
	MaxBooks      int    `json:"maxBooks"`
	MaxReports    int    `json:"maxReports"`
	BooksPerQuery int    `json:"booksPerQuery"`
	Version       string `json:"version"`
}

func (s *Server) adminSettings(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var resp settingsResponse
	var err error
	if resp.MaxBooks, err = s.svc.Meta.Int(ctx, models.MetaMaxBooks); err != nil {
		return err
	}
	if resp.MaxReports, err = s.svc.Meta.Int(ctx, models.MetaMaxReports); err != nil {
		return err
	}
	if resp.BooksPerQuery, err = s.svc.Meta.Int(ctx, models.MetaBooksPerQuery); err != nil {
		return err
	}
	if resp.Version, err = s.svc.Meta.Version(ctx); err != nil {
		return err
	}
	return c.JSON(resp)
}

func (s *Server) adminSetVersion(c *fiber.Ctx) error {
	var req versionResponse
	if err := c.BodyParser(&req); err != nil {
		return badRequest("malformed request")
	}
	v := validation.Trim(req.Version)
	if v == "" {
		return badRequest("Please enter a version")
	}
	if err := s.svc.Meta.Set(c.UserContext(), models.MetaVersion, v); err != nil {
		return err
	}
	return ok(c)
}

type intSettingRequest struct {
	Value int `json:"value"`
}

// adminSetMeta stores a positive integer setting under key.
func (s *Server) adminSetMeta(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req intSettingRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest("malformed request")
		}
		if req.Value < 1 {
			return badRequest(key + " must be a positive integer")
		}
		if err := s.svc.Meta.SetInt(c.UserContext(), key, req.Value); err != nil {
			return err
		}
		s.logger.Info(c.UserContext(), "setting changed", "key", key, "value", req.Value)
		return ok(c)
	}
}

func (s *Server) adminSetTerms(c *fiber.Ctx) error {
	var req termsResponse
	if err := c.BodyParser(&req); err != nil {
		return badRequest("malformed request")
	}
	if err := s.svc.Meta.Set(c.UserContext(), models.MetaTerms, req.Terms); err != nil {
		return err
	}
	return ok(c)
}

type storedAlertResponse struct {
	AlertValue string `json:"alertValue,omitempty"`
	Expires    int64  `json:"alertTimeout,omitempty"`
	Remaining  int64  `json:"remainingSeconds"`
}

// adminAlert shows the stored banner with the seconds it has left.
func (s *Server) adminAlert(c *fiber.Ctx) error {
	a, err := s.svc.Meta.StoredAlert(c.UserContext())
	if err != nil {
		return err
	}
	var resp storedAlertResponse
	if a != nil {
		if left := int64(time.Until(a.Expires).Seconds()); left > 0 {
			resp = storedAlertResponse{AlertValue: a.Text, Expires: a.Expires.Unix(), Remaining: left}
		}
	}
	return c.JSON(resp)
}

type setAlertRequest struct {
	AlertValue string `json:"alertValue"`
	Days       string `json:"days"`
	Hours      string `json:"hours"`
	Minutes    string `json:"minutes"`
	Seconds    string `json:"seconds"`
}

// alertDuration checks the banner lifetime fields.
func alertDuration(req setAlertRequest) (time.Duration, string) {
	var parts [4]int
	for i, raw := range []string{req.Days, req.Hours, req.Minutes, req.Seconds} {
		n, err := strconv.Atoi(validation.Trim(raw))
		if err != nil {
			return 0, "Days, hours, minutes, and seconds must all be integers"
		}
		parts[i] = n
	}
	days, hours, minutes, seconds := parts[0], parts[1], parts[2], parts[3]
	switch {
	case days < 0:
		return 0, "Days must not be negative"
	case hours < 0 || hours >= 24:
		return 0, "Hours must be between 0 and 23"
	case minutes < 0 || minutes >= 60:
		return 0, "Minutes must be between 0 and 59"
	case seconds < 0 || seconds >= 60:
		return 0, "Seconds must be between 0 and 59"
	}
	d := time.Duration(days)*24*time.Hour + time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	if d <= 0 {
		return 0, "The alert must last at least one second"
	}
	return d, ""
}

func (s *Server) adminSetAlert(c *fiber.Ctx) error {
	var req setAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("malformed request")
	}
	text := validation.Trim(req.AlertValue)
	if text == "" {
		return badRequest("Please enter the alert text")
	}
	d, problem := alertDuration(req)
	if problem != "" {
		return badRequest(problem)
	}
	if err := s.svc.Meta.SetAlert(c.UserContext(), text, d); err != nil {
		return err
	}
	return ok(c)
}

func (s *Server) adminRemoveAlert(c *fiber.Ctx) error {
	if err := s.svc.Meta.RemoveAlert(c.UserContext()); err != nil {
		return err
	}
	return ok(c)
}

func (s *Server) adminReports(c *fiber.Ctx) error {
	reports, err := s.svc.Moderation.Reports(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(reports)
}

func (s *Server) adminRemoveBook(c *fiber.Ctx) error {
	bookID := c.Params("bookId")
	if err := s.svc.Moderation.RemoveBook(c.UserContext(), bookID); err != nil {
		return err
	}
	s.logger.Info(c.UserContext(), "book removed by moderator", "book_id", bookID)
	return ok(c)
}

func (s *Server) adminUsers(c *fiber.Ctx) error {
	orderBy := c.Query("orderBy", "joinedAt")
	descending := c.Query("orderDirection") == "DESC"
	users, err := s.svc.Admin.Users(c.UserContext(), orderBy, descending)
	if err != nil {
		return err
	}
	if users == nil {
		users = []models.AdminUserRow{}
	}
	return c.JSON(users)
}

func (s *Server) adminRowCounts(c *fiber.Ctx) error {
	counts, err := s.svc.Admin.RowCounts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(counts)
}

func (s *Server) adminTables(c *fiber.Ctx) error {
	tables, err := s.svc.Admin.Tables(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(tables)
}

func (s *Server) adminColumns(c *fiber.Ctx) error {
	cols, err := s.svc.Admin.Columns(c.UserContext(), c.Params("table"))
	if err != nil {
		return err
	}
	return c.JSON(cols)
}

func (s *Server) adminQuery(c *fiber.Ctx) error {
	var q models.SelectQuery
	if err := c.BodyParser(&q); err != nil {
		return badRequest("malformed request")
	}
	res, err := s.svc.Admin.Select(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(res)
}
