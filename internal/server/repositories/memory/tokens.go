package memory

import (
	"context"
	"strconv"
	"time"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/tokens"
)

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

type tokensRepo Store

func (r *tokensRepo) table(kind models.TokenKind) (map[string]models.Token, error) {
	t, ok := r.tokens[kind]
	if !ok {
		return nil, tokens.ErrUnknownKind
	}
	return t, nil
}

func (r *tokensRepo) Insert(_ context.Context, kind models.TokenKind, token, subject string, createdAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.table(kind)
	if err != nil {
		return err
	}
	if _, dup := t[token]; dup {
		return common.ErrorInternal
	}
	t[token] = models.Token{Kind: kind, Value: token, Subject: subject, CreatedAt: createdAt}
	return nil
}

func (r *tokensRepo) Exists(_ context.Context, kind models.TokenKind, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.table(kind)
	if err != nil {
		return false, err
	}
	_, ok := t[token]
	return ok, nil
}

func (r *tokensRepo) Subject(_ context.Context, kind models.TokenKind, token string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.table(kind)
	if err != nil {
		return "", err
	}
	tok, ok := t[token]
	if !ok {
		return "", common.ErrorNotFound
	}
	return tok.Subject, nil
}

func (r *tokensRepo) SubjectHasToken(_ context.Context, kind models.TokenKind, subject string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.table(kind)
	if err != nil {
		return false, err
	}
	for _, tok := range t {
		if tok.Subject == subject {
			return true, nil
		}
	}
	return false, nil
}

func (r *tokensRepo) Delete(_ context.Context, kind models.TokenKind, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.table(kind)
	if err != nil {
		return false, err
	}
	_, ok := t[token]
	delete(t, token)
	return ok, nil
}

func (r *tokensRepo) DeleteBySubject(_ context.Context, kind models.TokenKind, subject string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.table(kind)
	if err != nil {
		return err
	}
	for v, tok := range t {
		if tok.Subject == subject {
			delete(t, v)
		}
	}
	return nil
}

func (r *tokensRepo) List(_ context.Context, kind models.TokenKind) ([]models.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.table(kind)
	if err != nil {
		return nil, err
	}
	out := make([]models.Token, 0, len(t))
	for _, tok := range t {
		out = append(out, tok)
	}
	return out, nil
}
