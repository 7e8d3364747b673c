// Package seed fills a development database with fake accounts and
// listings. It is intended for local development and tests only.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/repomanager"
	"github.com/norsebooks/norsebooks/internal/server/services"
	"github.com/norsebooks/norsebooks/internal/server/tokens"
	"golang.org/x/crypto/bcrypt"
)

// Options configures a seeding run.
type Options struct {
	Users        int
	BooksPerUser int
	// Password is shared by every seeded account.
	Password string
	// Seed makes the fake data reproducible. Zero picks a random seed.
	Seed int64
}

// Result counts what a run created.
type Result struct {
	Users int
	Books int
}

// Seeder creates verified users with contact details and lists books for
// them through the book service, so listing limits apply as usual.
type Seeder struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	books       *services.BookService
	gen         *tokens.Generator
	logger      logging.Logger
	cost        int
}

func NewSeeder(db *sql.DB, m repomanager.RepositoryManager, books *services.BookService, gen *tokens.Generator,
	bcryptCost int, logger logging.Logger) *Seeder {
	return &Seeder{db: db, repomanager: m, books: books, gen: gen, cost: bcryptCost, logger: logger.With("module", "seed")}
}

func (s *Seeder) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result
	f := gofakeit.New(opts.Seed)

	ref := s.repomanager.Reference(s.db)
	depts, err := ref.Departments(ctx)
	if err != nil {
		return res, err
	}
	conds, err := ref.Conditions(ctx)
	if err != nil {
		return res, err
	}
	platforms, err := ref.Platforms(ctx)
	if err != nil {
		return res, err
	}
	if len(depts) == 0 || len(conds) == 0 || len(platforms) == 0 {
		return res, fmt.Errorf("reference tables are empty, run migrations first")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), s.cost)
	if err != nil {
		return res, err
	}

	for i := 0; i < opts.Users; i++ {
		u, err := s.user(ctx, f, string(hash), platforms)
		if err != nil {
			return res, fmt.Errorf("seed user: %w", err)
		}
		res.Users++

		for j := 0; j < opts.BooksPerUser; j++ {
			in := fakeBook(f, depts, conds)
			if _, err := s.books.List(ctx, u.ID, in); err != nil {
				return res, fmt.Errorf("seed book: %w", err)
			}
			res.Books++
		}
	}
	s.logger.Info(ctx, "seeding finished", "users", res.Users, "books", res.Books)
	return res, nil
}

func (s *Seeder) user(ctx context.Context, f *gofakeit.Faker, hash string, platforms []models.Platform) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	publicID, err := s.gen.NewBase64(ctx, tokens.UserIDLength, repo.PublicIDExists)
	if err != nil {
		return nil, err
	}

	first, last := f.FirstName(), f.LastName()
	email := strings.ToLower(fmt.Sprintf("%s%s%d", first[:1], last, f.Number(10, 99)))
	for {
		taken, err := repo.EmailExists(ctx, email)
		if err != nil {
			return nil, err
		}
		if !taken {
			break
		}
		email += fmt.Sprint(f.Number(0, 9))
	}

	u, err := repo.Create(ctx, &models.User{
		PublicID:     publicID,
		Firstname:    first,
		Lastname:     last,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}
	if _, err := repo.SetVerified(ctx, email); err != nil {
		return nil, err
	}

	p := platforms[f.Number(0, len(platforms)-1)]
	info := f.Phone()
	if strings.Contains(strings.ToLower(p.Name), "mail") {
		info = f.Email()
	}
	if err := repo.SetContact(ctx, u.ID, p.ID, info); err != nil {
		return nil, err
	}
	return u, nil
}

func fakeBook(f *gofakeit.Faker, depts []models.Department, conds []models.Condition) models.BookInput {
	in := models.BookInput{
		Title:        f.BookTitle(),
		Author:       f.BookAuthor(),
		DepartmentID: depts[f.Number(0, len(depts)-1)].ID,
		ConditionID:  conds[f.Number(0, len(conds)-1)].ID,
		Description:  f.Sentence(f.Number(5, 20)),
		Price:        math.Round(f.Price(1, 150)*100) / 100,
	}
	if in.DepartmentID != models.DepartmentOther {
		n := f.Number(100, 499)
		in.CourseNumber = &n
	}
	if f.Bool() {
		in.ISBN13 = "978" + f.DigitN(10)
	}
	return in
}
