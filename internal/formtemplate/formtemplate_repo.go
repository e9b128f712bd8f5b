package formtemplate

import (
	"context"
	"database/sql"

	"github.com/Abhinav7558/employee-management-system/internal/shared/scope"

	"gorm.io/gorm"
)

//go:generate mockgen -source=formtemplate_repo.go -destination=mock/formtemplate_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, tpl *FormTemplate) error
	CreateFields(ctx context.Context, fields []FormField) error
	FindByID(ctx context.Context, id string) (*FormTemplate, error)
	List(ctx context.Context, filter ListFormTemplatesFilter) ([]FormTemplate, int64, error)
	Update(ctx context.Context, tpl *FormTemplate) error
	DeleteFields(ctx context.Context, templateID string) error
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

func orderedFields(db *gorm.DB) *gorm.DB {
	return db.Order("field_order ASC, position ASC")
}

func (r *repository) Create(ctx context.Context, tpl *FormTemplate) error {
	return r.db.WithContext(ctx).Omit("Fields").Create(tpl).Error
}

func (r *repository) CreateFields(ctx context.Context, fields []FormField) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&fields).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*FormTemplate, error) {
	var tpl FormTemplate
	err := r.db.WithContext(ctx).
		Preload("Fields", orderedFields).
		First(&tpl, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *repository) List(ctx context.Context, filter ListFormTemplatesFilter) ([]FormTemplate, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&FormTemplate{}).
		Scopes(
			scope.Contains("name", filter.Search),
			scope.Active("", filter.IsActive),
		)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []FormTemplate{}, 0, nil
	}

	var tpls []FormTemplate
	err := base.Session(&gorm.Session{}).
		Preload("Fields", orderedFields).
		Scopes(scope.Paginate(filter.Page, filter.PageSize)).
		Order("created_at DESC").
		Find(&tpls).Error
	return tpls, total, err
}

func (r *repository) Update(ctx context.Context, tpl *FormTemplate) error {
	return r.db.WithContext(ctx).
		Model(&FormTemplate{ID: tpl.ID}).
		Select("name", "description", "is_active", "updated_at").
		Updates(tpl).Error
}

func (r *repository) DeleteFields(ctx context.Context, templateID string) error {
	return r.db.WithContext(ctx).
		Where("form_template_id = ?", templateID).
		Delete(&FormField{}).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&FormTemplate{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
