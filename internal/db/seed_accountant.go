package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sehyun-dev/taxlink/internal/config"
	"github.com/sehyun-dev/taxlink/internal/domain/mandate"
	"github.com/sehyun-dev/taxlink/internal/domain/user"
	"github.com/sehyun-dev/taxlink/internal/security"
)

// EnsureTaxAccountant seeds the servicing tax accountant account on
// startup. The workflow assumes a single accountant side, so without
// this row the mandate list has nobody to look at it.
func EnsureTaxAccountant(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AccountantEmail == "" || cfg.AccountantPassword == "" {
		return nil
	}

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.AccountantEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AccountantPassword)

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:            uuid.NewString(),
		Username:      cfg.AccountantUsername,
		Email:         cfg.AccountantEmail,
		PasswordHash:  hash,
		Name:          cfg.AccountantName,
		Role:          user.RoleTaxAccountant,
		PaymentStatus: user.PaymentUnpaid,
		MandateStatus: mandate.StatusNone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, name, role, payment_status, mandate_status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Name, u.Role, u.PaymentStatus, u.MandateStatus, u.CreatedAt, u.UpdatedAt,
	)

	return err
}
