package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sehyun-dev/taxlink/internal/domain/mandate"
	"github.com/sehyun-dev/taxlink/internal/domain/user"
	"github.com/sehyun-dev/taxlink/internal/observability"
)

const userColumns = `id, username, email, password_hash, name,
	resident_number, phone_number, postal_code, address, address_detail,
	user_type, business_number, corporate_number,
	role, payment_status, last_payment_date, mandate_status,
	created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.ResidentNumber,
		&u.PhoneNumber,
		&u.PostalCode,
		&u.Address,
		&u.AddressDetail,
		&u.UserType,
		&u.BusinessNumber,
		&u.CorporateNumber,
		&u.Role,
		&u.PaymentStatus,
		&u.LastPaymentDate,
		&u.MandateStatus,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		return user.User{}, err
	}

	u.MandateStatus = mandate.Normalize(u.MandateStatus)

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, name,
			resident_number, phone_number, postal_code, address, address_detail,
			user_type, business_number, corporate_number,
			role, payment_status, last_payment_date, mandate_status,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		`,
			u.ID, u.Username, u.Email, u.PasswordHash, u.Name,
			u.ResidentNumber, u.PhoneNumber, u.PostalCode, u.Address, u.AddressDetail,
			u.UserType, u.BusinessNumber, u.CorporateNumber,
			u.Role, u.PaymentStatus, u.LastPaymentDate, u.MandateStatus,
			u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case "users_username_key":
				return user.User{}, user.ErrUsernameTaken
			case "users_email_key":
				return user.User{}, user.ErrEmailTaken
			}
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	var err error

	obsErr := r.observe("users.get_by_id", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})

	if obsErr != nil {
		if errors.Is(obsErr, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, obsErr
	}

	return u, nil
}

func (r *UsersRepo) GetByUsernameOrEmail(ctx context.Context, q string) (user.User, error) {
	var u user.User
	var err error

	obsErr := r.observe("users.get_by_username_or_email", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, q))
		return err
	})

	if obsErr != nil {
		if errors.Is(obsErr, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, obsErr
	}

	return u, nil
}

// UpdateProfile applies a partial patch under a row lock so concurrent
// patches never clobber fields they did not carry.
func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, patch user.ProfilePatch) (updated user.User, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var u user.User

	err = r.observe("users.update_profile.lock", func() error {
		var scanErr error
		u, scanErr = scanUser(tx.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = user.ErrNotFound
		}
		return
	}

	patch.Apply(&u)
	u.UpdatedAt = time.Now().UTC()

	err = r.observe("users.update_profile.write", func() error {
		_, execErr := tx.Exec(ctx, `
		UPDATE users
		SET name = $2, email = $3, phone_number = $4, postal_code = $5,
			address = $6, address_detail = $7, updated_at = $8
		WHERE id = $1
		`, u.ID, u.Name, u.Email, u.PhoneNumber, u.PostalCode, u.Address, u.AddressDetail, u.UpdatedAt)
		return execErr
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			err = user.ErrEmailTaken
		}
		return
	}

	err = tx.Commit(ctx)

	if err != nil {
		return
	}

	updated = u
	return
}

// UpdateMandateStatus moves a client's mandate status under a row lock.
// The guard runs while the row is locked, so a concurrent duplicate
// trigger observes the already-updated status and is rejected there.
func (r *UsersRepo) UpdateMandateStatus(ctx context.Context, id string, to mandate.Status, guard func(user.User) error) (updated user.User, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var u user.User

	err = r.observe("users.mandate_transition.lock", func() error {
		var scanErr error
		u, scanErr = scanUser(tx.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = user.ErrNotFound
		}
		return
	}

	if guard != nil {
		if err = guard(u); err != nil {
			return
		}
	}

	u.MandateStatus = to
	u.UpdatedAt = time.Now().UTC()

	err = r.observe("users.mandate_transition.write", func() error {
		_, execErr := tx.Exec(ctx,
			`UPDATE users SET mandate_status = $2, updated_at = $3 WHERE id = $1`,
			u.ID, u.MandateStatus, u.UpdatedAt)
		return execErr
	})

	if err != nil {
		return
	}

	err = tx.Commit(ctx)

	if err != nil {
		return
	}

	updated = u
	return
}

func (r *UsersRepo) SetPayment(ctx context.Context, id string, status string, lastPaymentDate *time.Time) (user.User, error) {
	now := time.Now().UTC()

	var u user.User
	var err error

	obsErr := r.observe("users.set_payment", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET payment_status = $2, last_payment_date = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+userColumns, id, status, lastPaymentDate, now))
		return err
	})

	if obsErr != nil {
		if errors.Is(obsErr, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, obsErr
	}

	return u, nil
}

func (r *UsersRepo) ListTaxAccountants(ctx context.Context) ([]user.User, error) {
	return r.list(ctx, "users.list_tax_accountants",
		`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at ASC`,
		user.RoleTaxAccountant)
}

// ListMandateClients is the accountant's materialized view: every
// client whose mandate moved past NONE, most recently updated first.
func (r *UsersRepo) ListMandateClients(ctx context.Context) ([]user.User, error) {
	return r.list(ctx, "users.list_mandate_clients",
		`SELECT `+userColumns+` FROM users
		WHERE role = $1 AND mandate_status IN ($2, $3, $4)
		ORDER BY updated_at DESC, id ASC`,
		user.RoleClient, mandate.StatusRequested, mandate.StatusSent, mandate.StatusCompleted)
}

func (r *UsersRepo) list(ctx context.Context, op, query string, args ...any) (users []user.User, err error) {
	var rows pgx.Rows

	err = r.observe(op, func() error {
		rows, err = r.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	users = make([]user.User, 0)

	for rows.Next() {
		u, scanErr := scanUser(rows)

		if scanErr != nil {
			err = scanErr
			return
		}

		users = append(users, u)
	}

	err = rows.Err()
	return
}
