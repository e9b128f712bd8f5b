package formtemplate

import (
	"errors"

	formtemplateerrors "github.com/Abhinav7558/employee-management-system/internal/formtemplate/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return formtemplateerrors.ErrFormTemplateNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22P02":
			return formtemplateerrors.ErrFormTemplateNotFound
		case "23503":
			if pgErr.ConstraintName == "form_templates_created_by_fkey" {
				return formtemplateerrors.ErrUnknownCreator
			}
		}
	}

	return err
}
