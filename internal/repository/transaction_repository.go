package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"expense-bot/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

func createTransactionQuery(tx *models.Transaction) (squirrel.InsertBuilder, error) {
	var metadata any
	if tx.Metadata != nil {
		b, err := json.Marshal(tx.Metadata)
		if err != nil {
			return squirrel.InsertBuilder{}, fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = string(b)
	}

	return squirrel.Insert("transactions").
		Columns("id", "tenant_id", "user_id", "amount", "merchant", "status", "image_url", "category", "metadata", "created_at").
		Values(tx.ID, tx.TenantID, tx.UserID, tx.Amount, tx.Merchant, tx.Status, tx.ImageURL, tx.Category, metadata, tx.CreatedAt).
		PlaceholderFormat(squirrel.Dollar), nil
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query, err := createTransactionQuery(tx)
	if err != nil {
		return err
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
