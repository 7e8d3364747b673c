package memory

import (
	"context"
	"time"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/server/models"
)

type usersRepo Store

func (r *usersRepo) byEmail(email string) *models.User {
	for _, u := range r.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (r *usersRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byEmail(user.Email) != nil {
		return nil, common.ErrorInternal
	}
	r.nextUser++
	user.ID = r.nextUser
	user.JoinedAt = time.Now()
	cp := *user
	r.users[cp.ID] = &cp
	return user, nil
}

func (r *usersRepo) PublicIDExists(_ context.Context, publicID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PublicID == publicID {
			return true, nil
		}
	}
	return false, nil
}

func (r *usersRepo) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail(email) != nil, nil
}

func (r *usersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *usersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byEmail(email)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *usersRepo) GetVerifiedByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !u.Verified {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (r *usersRepo) GetNavBySession(_ context.Context, sessionToken string) (*models.NavUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tok, ok := r.tokens[models.TokenSession][sessionToken]
	if !ok {
		return nil, common.ErrorNotFound
	}
	for _, u := range r.users {
		if formatID(u.ID) == tok.Subject {
			return &models.NavUser{ID: u.ID, PublicID: u.PublicID, Firstname: u.Firstname, Admin: u.Admin}, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *usersRepo) update(id int64, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		fn(u)
	}
	return nil
}

func (r *usersRepo) SetVerified(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byEmail(email)
	if u == nil {
		return false, nil
	}
	u.Verified = true
	return true, nil
}

func (r *usersRepo) DeleteUnverified(_ context.Context, email string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byEmail(email)
	if u == nil || u.Verified {
		return 0, nil
	}
	(*Store)(r).deleteUserLocked(u.ID)
	return 1, nil
}

func (r *usersRepo) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(u *models.User) { u.LastLogin = &at })
}

func (r *usersRepo) SetPassword(_ context.Context, id int64, hash string) error {
	return r.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (r *usersRepo) SetName(_ context.Context, id int64, firstname, lastname string) error {
	return r.update(id, func(u *models.User) { u.Firstname, u.Lastname = firstname, lastname })
}

func (r *usersRepo) SetContact(_ context.Context, id int64, platformID int, info string) error {
	return r.update(id, func(u *models.User) { u.ContactPlatformID, u.ContactInfo = &platformID, &info })
}

func (r *usersRepo) SetImage(_ context.Context, id int64, url string) error {
	return r.update(id, func(u *models.User) { u.ImageURL = url })
}

func (r *usersRepo) SetAdmin(_ context.Context, email string, admin bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byEmail(email)
	if u == nil {
		return false, nil
	}
	u.Admin = admin
	return true, nil
}

func (r *usersRepo) IncrementListed(_ context.Context, id int64) error {
	return r.update(id, func(u *models.User) { u.ItemsListed++ })
}

func (r *usersRepo) RecordSale(_ context.Context, id int64, amount float64) error {
	return r.update(id, func(u *models.User) {
		u.ItemsSold++
		u.MoneyMade += amount
	})
}

func (r *usersRepo) TouchFeedback(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(u *models.User) { u.LastFeedbackAt = &at })
}

// deleteUserLocked removes a user with the rows that reference it, like the
// ON DELETE CASCADE foreign keys do.
func (s *Store) deleteUserLocked(id int64) {
	delete(s.users, id)
	for tok, t := range s.tokens[models.TokenSession] {
		if t.Subject == formatID(id) {
			delete(s.tokens[models.TokenSession], tok)
		}
	}
	for bid, b := range s.books {
		if b.UserID == id {
			s.deleteBookLocked(bid)
		}
	}
	kept := s.reports[:0]
	for _, rep := range s.reports {
		if rep.UserID != id {
			kept = append(kept, rep)
		}
	}
	s.reports = kept
}
