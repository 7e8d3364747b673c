package memory

import (
	"context"
	"sort"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/admin"
)

type statsRepo Store

func (r *statsRepo) Snapshot(context.Context) (*models.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &models.Stats{Books: int64(len(r.books)), Reports: int64(len(r.reports))}
	for _, u := range r.users {
		if u.Verified {
			s.Users++
		}
		s.Sold += int64(u.ItemsSold)
		s.Listed += int64(u.ItemsListed)
		s.MoneyMade += u.MoneyMade
	}
	counts := (*Store)(r).rowCountsLocked()
	s.Tables = int64(len(counts))
	for _, c := range counts {
		s.Rows += c.Rows
	}
	return s, nil
}

func (s *Store) rowCountsLocked() []models.TableRowCount {
	return []models.TableRowCount{
		{Table: "books", Rows: int64(len(s.books))},
		{Table: "conditions", Rows: int64(len(s.conditions))},
		{Table: "departments", Rows: int64(len(s.departments))},
		{Table: "meta", Rows: int64(len(s.meta))},
		{Table: "password_resets", Rows: int64(len(s.tokens[models.TokenPasswordReset]))},
		{Table: "platforms", Rows: int64(len(s.platforms))},
		{Table: "reports", Rows: int64(len(s.reports))},
		{Table: "search_sorts", Rows: int64(len(s.sorts))},
		{Table: "sessions", Rows: int64(len(s.tokens[models.TokenSession]))},
		{Table: "users", Rows: int64(len(s.users))},
		{Table: "verify_tokens", Rows: int64(len(s.tokens[models.TokenVerify]))},
	}
}

type adminRepo Store

func (r *adminRepo) Tables(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range (*Store)(r).rowCountsLocked() {
		out = append(out, c.Table)
	}
	return out, nil
}

func (r *adminRepo) Columns(context.Context, string) ([]string, error) {
	return []string{}, nil
}

func (r *adminRepo) RowCounts(context.Context) ([]models.TableRowCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (*Store)(r).rowCountsLocked(), nil
}

func (r *adminRepo) Users(_ context.Context, orderBy string, descending bool) ([]models.AdminUserRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.AdminUserRow
	for _, u := range r.users {
		if !u.Verified {
			continue
		}
		out = append(out, models.AdminUserRow{
			Firstname: u.Firstname, Lastname: u.Lastname, Email: u.Email, JoinedAt: u.JoinedAt,
			ItemsListed: u.ItemsListed, ItemsSold: u.ItemsSold, MoneyMade: u.MoneyMade,
		})
	}
	if _, ok := admin.UserOrderColumns[orderBy]; !ok {
		orderBy = "joinedAt"
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if descending {
			a, b = b, a
		}
		var lt bool
		switch orderBy {
		case "firstname":
			lt = a.Firstname < b.Firstname
		case "lastname":
			lt = a.Lastname < b.Lastname
		case "email":
			lt = a.Email < b.Email
		case "itemsListed":
			lt = a.ItemsListed < b.ItemsListed
		case "itemsSold":
			lt = a.ItemsSold < b.ItemsSold
		case "moneyMade":
			lt = a.MoneyMade < b.MoneyMade
		default:
			lt = a.JoinedAt.Before(b.JoinedAt)
		}
		return lt
	})
	return out, nil
}

func (r *adminRepo) Select(context.Context, models.SelectQuery) (*models.QueryResult, error) {
	return nil, common.ErrUnsupported
}
