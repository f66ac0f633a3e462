package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"userapi/internal/metrics"
	"userapi/internal/model"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already taken")
)

// UserStore is what the services need from user persistence.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id int) (*model.User, error)
}

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, name, email, password_hash, age, is_active, created_at, updated_at"

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.Age, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts a new user inside a transaction. Both timestamps come
// from the same now() so created_at equals updated_at on a fresh row.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("insert", "users", time.Since(start)) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO users (name, email, password_hash, age, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, TRUE, now(), now())
        RETURNING id, is_active, created_at, updated_at
    `
	err = tx.QueryRow(ctx, query, u.Name, u.Email, u.PasswordHash, u.Age).
		Scan(&u.ID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}

	return tx.Commit(ctx)
}

// GetByID returns one user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "users", time.Since(start)) }()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail returns one user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "users", time.Since(start)) }()

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// List returns all users ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "users", time.Since(start)) }()

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		err := rows.Scan(
			&u.ID, &u.Name, &u.Email, &u.PasswordHash,
			&u.Age, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update rewrites the mutable columns and refreshes updated_at, in a
// transaction. The caller passes the already-merged row.
func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("update", "users", time.Since(start)) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
        UPDATE users
        SET name = $1, email = $2, age = $3, is_active = $4, updated_at = now()
        WHERE id = $5
        RETURNING updated_at
    `
	err = tx.QueryRow(ctx, query, u.Name, u.Email, u.Age, u.IsActive, u.ID).
		Scan(&u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}

	return tx.Commit(ctx)
}

// Delete removes a user and returns the deleted row's snapshot.
func (r *UserRepository) Delete(ctx context.Context, id int) (*model.User, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("delete", "users", time.Since(start)) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns
	u, err := scanUser(tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return u, nil
}
