package employee

import (
	"errors"

	employeeerrors "github.com/Abhinav7558/employee-management-system/internal/employee/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22P02":
			return employeeerrors.ErrEmployeeNotFound
		case "23505":
			if pgErr.ConstraintName == "uq_employee_field_value" {
				return employeeerrors.ErrDuplicateFieldValue
			}
		case "23503":
			if pgErr.ConstraintName == "employee_field_values_form_field_id_fkey" {
				return employeeerrors.ErrStaleField
			}
		}
	}

	return err
}
