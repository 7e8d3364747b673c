// Package reference reads the static lookup tables: departments, book
// conditions, contact platforms and search sorts.
package reference

import (
	"context"

	"github.com/norsebooks/norsebooks/internal/server/models"
)

type Repository interface {
	Departments(ctx context.Context) ([]models.Department, error)
	Conditions(ctx context.Context) ([]models.Condition, error)
	Platforms(ctx context.Context) ([]models.Platform, error)
	SearchSorts(ctx context.Context) ([]models.SearchSort, error)

	// SearchSort returns the sort with id, or common.ErrorNotFound.
	SearchSort(ctx context.Context, id int) (*models.SearchSort, error)

	DepartmentExists(ctx context.Context, id int) (bool, error)
	ConditionExists(ctx context.Context, id int) (bool, error)
	PlatformExists(ctx context.Context, id int) (bool, error)
}
