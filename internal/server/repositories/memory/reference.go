package memory

import (
	"context"
	"sort"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/server/models"
)

type referenceRepo Store

func (r *referenceRepo) Departments(context.Context) ([]models.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]models.Department(nil), r.departments...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *referenceRepo) Conditions(context.Context) ([]models.Condition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Condition(nil), r.conditions...), nil
}

func (r *referenceRepo) Platforms(context.Context) ([]models.Platform, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Platform(nil), r.platforms...), nil
}

func (r *referenceRepo) SearchSorts(context.Context) ([]models.SearchSort, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.SearchSort(nil), r.sorts...), nil
}

func (r *referenceRepo) SearchSort(_ context.Context, id int) (*models.SearchSort, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sorts {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *referenceRepo) DepartmentExists(_ context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.departments {
		if d.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *referenceRepo) ConditionExists(_ context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conditions {
		if c.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *referenceRepo) PlatformExists(_ context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.platforms {
		if p.ID == id {
			return true, nil
		}
	}
	return false, nil
}
