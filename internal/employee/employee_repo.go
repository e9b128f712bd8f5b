package employee

import (
	"context"
	"database/sql"

	"github.com/Abhinav7558/employee-management-system/internal/shared/scope"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, empl *Employee) error
	CreateValues(ctx context.Context, values []EmployeeFieldValue) error
	FindByID(ctx context.Context, id string) (*Employee, error)
	List(ctx context.Context, filter ListEmployeesFilter) ([]Employee, int64, error)
	ListByTemplate(ctx context.Context, formTemplateID string) ([]Employee, error)
	Update(ctx context.Context, empl *Employee) error
	DeleteValues(ctx context.Context, employeeID string) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository whose statements run on tx.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	if tx == nil {
		return r
	}
	db := r.db.Session(&gorm.Session{NewDB: true, Context: context.Background()})
	db.Statement.ConnPool = tx
	return &repository{db: db}
}

func withValues(db *gorm.DB) *gorm.DB {
	return db.Preload("FieldValues").Preload("FieldValues.FormField")
}

func valueMatches(term string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" {
			return db
		}
		return db.Where(
			"EXISTS (SELECT 1 FROM employee_field_values v WHERE v.employee_id = employees.id AND v.field_value ILIKE ?)",
			"%"+scope.EscapeLike(term)+"%",
		)
	}
}

func byTemplate(formTemplateID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if formTemplateID == "" {
			return db
		}
		return db.Where("employees.form_template_id = ?", formTemplateID)
	}
}

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(empl).Error
}

func (r *repository) CreateValues(ctx context.Context, values []EmployeeFieldValue) error {
	if len(values) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&values).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).
		Scopes(withValues).
		First(&empl, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &empl, nil
}

func (r *repository) List(ctx context.Context, filter ListEmployeesFilter) ([]Employee, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&Employee{}).
		Scopes(
			byTemplate(filter.FormTemplateID),
			scope.Active("employees", filter.IsActive),
			valueMatches(filter.Search),
		)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []Employee{}, 0, nil
	}

	var empls []Employee
	err := base.Session(&gorm.Session{}).
		Scopes(withValues, scope.Paginate(filter.Page, filter.PageSize)).
		Order("employees.created_at DESC").
		Find(&empls).Error
	return empls, total, err
}

func (r *repository) ListByTemplate(ctx context.Context, formTemplateID string) ([]Employee, error) {
	var empls []Employee
	err := r.db.WithContext(ctx).
		Preload("FieldValues").
		Where("form_template_id = ?", formTemplateID).
		Order("created_at ASC").
		Find(&empls).Error
	return empls, err
}

func (r *repository) Update(ctx context.Context, empl *Employee) error {
	return r.db.WithContext(ctx).
		Model(&Employee{ID: empl.ID}).
		Select("form_template_id", "is_active", "updated_at").
		Updates(empl).Error
}

func (r *repository) DeleteValues(ctx context.Context, employeeID string) error {
	return r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Delete(&EmployeeFieldValue{}).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&Employee{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
