package repository

import (
	"context"
	"errors"
	"fmt"

	"expense-bot/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrUserNotFound is returned when a phone number does not resolve to exactly one user.
var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

func findByPhoneQuery(phone string) squirrel.SelectBuilder {
	return squirrel.Select(
		"u.id",
		"u.tenant_id",
		"COALESCE(u.name, '')",
		"u.phone_number",
		"COALESCE(t.subscription_status, '')",
	).
		From("users u").
		LeftJoin("tenants t ON t.id = u.tenant_id").
		Where(squirrel.Eq{"u.phone_number": phone}).
		Limit(2).
		PlaceholderFormat(squirrel.Dollar)
}

// FindByPhone loads the user registered with phone together with the
// subscription status of their tenant.
func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	sql, args, err := findByPhoneQuery(phone).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID, &user.TenantID, &user.Name, &user.PhoneNumber, &user.Tenant.SubscriptionStatus,
		); err != nil {
			return nil, err
		}
		user.Tenant.ID = user.TenantID
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(users) != 1 {
		return nil, fmt.Errorf("phone matched %d users: %w", len(users), ErrUserNotFound)
	}
	return users[0], nil
}
