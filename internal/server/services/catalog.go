package services

import (
	"context"
	"database/sql"

	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/repomanager"
)

// Catalog bundles the reference tables a client needs to build its forms.
type Catalog struct {
	Departments []models.Department `json:"departments"`
	Conditions  []models.Condition  `json:"conditions"`
	Platforms   []models.Platform   `json:"platforms"`
	SearchSorts []models.SearchSort `json:"sortOptions"`
}

// CatalogService reads the reference tables. It satisfies
// validation.Catalog.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager) *CatalogService {
	return &CatalogService{db: db, repomanager: m}
}

// Departments lists the stored departments by name, followed by Other.
func (s *CatalogService) Departments(ctx context.Context) ([]models.Department, error) {
	d, err := s.repomanager.Reference(s.db).Departments(ctx)
	if err != nil {
		return nil, err
	}
	return append(d, models.Department{ID: models.DepartmentOther, Name: "Other"}), nil
}

func (s *CatalogService) All(ctx context.Context) (*Catalog, error) {
	repo := s.repomanager.Reference(s.db)

	var c Catalog
	var err error
	if c.Departments, err = s.Departments(ctx); err != nil {
		return nil, err
	}
	if c.Conditions, err = repo.Conditions(ctx); err != nil {
		return nil, err
	}
	if c.Platforms, err = repo.Platforms(ctx); err != nil {
		return nil, err
	}
	if c.SearchSorts, err = repo.SearchSorts(ctx); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CatalogService) DepartmentExists(ctx context.Context, id int) (bool, error) {
	return s.repomanager.Reference(s.db).DepartmentExists(ctx, id)
}

func (s *CatalogService) ConditionExists(ctx context.Context, id int) (bool, error) {
	return s.repomanager.Reference(s.db).ConditionExists(ctx, id)
}
