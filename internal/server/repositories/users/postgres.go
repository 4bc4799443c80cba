package users

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repoerr"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (name, email, hashed_password, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	created := *user
	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.HashedPassword, user.Role).Scan(&created.ID, &created.CreatedAt)

	if err != nil {
		return nil, translatePgError("users.create", err)
	}

	return &created, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, name, email, hashed_password, role, created_at FROM users
		 WHERE email = $1
		 `

	user, err := r.scanOne(ctx, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translatePgError("users.find_by_email", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repoerr.New(repoerr.QueryFailure, "users.find_by_id", err)
	}

	query :=
		`SELECT id, name, email, hashed_password, role, created_at FROM users
		 WHERE id = $1
		 `

	user, err := r.scanOne(ctx, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repoerr.New(repoerr.EntityNotFound, "users.find_by_id", nil)
		}
		return nil, translatePgError("users.find_by_id", err)
	}

	return user, nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Name, &user.Email, &user.HashedPassword, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func translatePgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return repoerr.New(repoerr.DuplicateEntry, op, err)
		case pgerrcode.IsConnectionException(pgErr.Code):
			return repoerr.New(repoerr.ConnectionFailure, op, err)
		}
		return repoerr.New(repoerr.QueryFailure, op, err)
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr) {
		return repoerr.New(repoerr.ConnectionFailure, op, err)
	}

	return repoerr.New(repoerr.QueryFailure, op, err)
}
