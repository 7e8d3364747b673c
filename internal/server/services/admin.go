package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/norsebooks/norsebooks/internal/common"
	"github.com/norsebooks/norsebooks/internal/logging"
	"github.com/norsebooks/norsebooks/internal/server/models"
	"github.com/norsebooks/norsebooks/internal/server/repositories/repomanager"
)

// AdminService backs the moderator dashboard: site statistics, the user
// listing and read-only database inspection.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *AdminService {
	return &AdminService{db: db, repomanager: m, logger: logger.With("module", "admin")}
}

func (s *AdminService) Stats(ctx context.Context) (*models.Stats, error) {
	return s.repomanager.Stats(s.db).Snapshot(ctx)
}

// Users lists verified accounts. Unknown order columns fall back to join
// time.
func (s *AdminService) Users(ctx context.Context, orderBy string, descending bool) ([]models.AdminUserRow, error) {
	return s.repomanager.Admin(s.db).Users(ctx, orderBy, descending)
}

func (s *AdminService) Tables(ctx context.Context) ([]string, error) {
	return s.repomanager.Admin(s.db).Tables(ctx)
}

func (s *AdminService) Columns(ctx context.Context, table string) ([]string, error) {
	return s.repomanager.Admin(s.db).Columns(ctx, table)
}

func (s *AdminService) RowCounts(ctx context.Context) ([]models.TableRowCount, error) {
	return s.repomanager.Admin(s.db).RowCounts(ctx)
}

// Select runs a moderator's ad-hoc read. The statement is logged without
// its bound value.
func (s *AdminService) Select(ctx context.Context, q models.SelectQuery) (*models.QueryResult, error) {
	s.logger.Info(ctx, "admin select", "table", q.Table, "columns", q.Columns, "where", q.Where, "operator", q.Operator)
	return s.repomanager.Admin(s.db).Select(ctx, q)
}

// SetAdmin grants or revokes moderator rights for the account at email.
func (s *AdminService) SetAdmin(ctx context.Context, email string, admin bool) error {
	ok, err := s.repomanager.Users(s.db).SetAdmin(ctx, email, admin)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("account %q: %w", email, common.ErrorNotFound)
	}
	s.logger.Info(ctx, "admin rights changed", "admin", admin)
	return nil
}
