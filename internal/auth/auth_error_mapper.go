package auth

import (
	"errors"

	autherrors "github.com/Abhinav7558/employee-management-system/internal/auth/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return autherrors.ErrUserNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22P02":
			return autherrors.ErrUserNotFound
		case "23505":
			switch pgErr.ConstraintName {
			case "uq_users_username":
				return autherrors.ErrUsernameTaken
			case "uq_users_email":
				return autherrors.ErrEmailTaken
			}
		}
	}

	return err
}
