package memory

import (
	"context"
	"sort"
	"time"

	"github.com/norsebooks/norsebooks/internal/server/models"
)

type reportsRepo Store

func (r *reportsRepo) Create(_ context.Context, bookID, userID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextReport++
	r.reports = append(r.reports, models.Report{ID: r.nextReport, BookID: bookID, UserID: userID, ReportedAt: at})
	return nil
}

func (r *reportsRepo) Delete(_ context.Context, bookID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.reports[:0]
	for _, rep := range r.reports {
		if rep.BookID != bookID || rep.UserID != userID {
			kept = append(kept, rep)
		}
	}
	r.reports = kept
	return nil
}

func (r *reportsRepo) CountForBook(_ context.Context, bookID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rep := range r.reports {
		if rep.BookID == bookID {
			n++
		}
	}
	return n, nil
}

func (r *reportsRepo) Exists(_ context.Context, bookID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reports {
		if rep.BookID == bookID && rep.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *reportsRepo) ReportedSince(_ context.Context, userID int64, since time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rep := range r.reports {
		if rep.UserID == userID && rep.ReportedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *reportsRepo) List(_ context.Context) ([]models.ReportView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := append([]models.Report(nil), r.reports...)
	sort.Slice(list, func(i, j int) bool {
		if list[i].BookID != list[j].BookID {
			return list[i].BookID < list[j].BookID
		}
		return list[i].ReportedAt.Before(list[j].ReportedAt)
	})

	out := []models.ReportView{}
	for _, rep := range list {
		u, b := r.users[rep.UserID], r.books[rep.BookID]
		if u == nil || b == nil {
			continue
		}
		out = append(out, models.ReportView{
			Firstname: u.Firstname, Lastname: u.Lastname, BookID: b.BookID, Title: b.Title, ReportedAt: rep.ReportedAt,
		})
	}
	return out, nil
}
