package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/storage"
)

// userColumns — порядок колонок для scanUser.
const userColumns = `user_id, username, display_name, email`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email); err != nil {
		return nil, err
	}

	return &u, nil
}

// User возвращает пользователя по идентификатору.
// Ошибки: storage.ErrNotFound, если профиля нет.
func (s *UsersStorage) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage/postgres/users/User"

	q := `SELECT ` + userColumns + ` FROM profiles WHERE user_id = $1`

	u, err := scanUser(s.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}
