package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dhoini/coach-billing/internal/domain"
	"github.com/Dhoini/coach-billing/internal/repository"
	"github.com/Dhoini/coach-billing/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository пишет журнал аудита в PostgreSQL
type AuditRepository struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

var _ repository.AuditRepository = (*AuditRepository)(nil)

// NewAuditRepository создает новый репозиторий журнала аудита
func NewAuditRepository(db *pgxpool.Pool, log *logger.Logger) *AuditRepository {
	return &AuditRepository{
		db:  db,
		log: log,
	}
}

// Append добавляет запись в журнал
func (r *AuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (id, user_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.Exec(ctx, query, entry.ID, entry.UserID, string(entry.Action), details, entry.CreatedAt); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}
