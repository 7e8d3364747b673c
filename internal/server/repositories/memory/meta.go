package memory

import (
	"context"

	"github.com/norsebooks/norsebooks/internal/common"
)

type metaRepo Store

func (r *metaRepo) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.meta[key]
	if !ok {
		return "", common.ErrorNotFound
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (r *metaRepo) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meta[key] = &value
	return nil
}
