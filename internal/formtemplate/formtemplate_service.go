package formtemplate

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Abhinav7558/employee-management-system/internal/events"
	"github.com/Abhinav7558/employee-management-system/internal/fieldtype"
	formtemplateerrors "github.com/Abhinav7558/employee-management-system/internal/formtemplate/errors"
	"github.com/Abhinav7558/employee-management-system/internal/messaging/kafka"
	"github.com/Abhinav7558/employee-management-system/internal/metrics"
	"github.com/Abhinav7558/employee-management-system/internal/shared/apperror"
	"github.com/Abhinav7558/employee-management-system/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
)

const (
	DetailCacheKeyPrefix = "forms:detail:"
	DefaultCacheTTL      = 10 * time.Minute
	copySuffix           = " (Copy)"
)

func GetDetailCacheKey(id string) string {
	return DetailCacheKeyPrefix + id
}

//go:generate mockgen -source=formtemplate_service.go -destination=mock/formtemplate_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, createdBy string, req CreateFormTemplateRequest) (FormTemplateResponse, error)
	Update(ctx context.Context, id string, req UpdateFormTemplateRequest) (FormTemplateResponse, error)
	Duplicate(ctx context.Context, id, requestedBy string) (FormTemplateResponse, error)
	GetByID(ctx context.Context, id string) (FormTemplateResponse, error)
	Definition(ctx context.Context, id string) (*FormTemplate, error)
	List(ctx context.Context, filter ListFormTemplatesFilter) ([]FormTemplateResponse, int64, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	db       *sql.DB
	repo     Repository
	registry *fieldtype.Registry
	outbox   kafka.OutboxRepository
	rdb      *redis.Client
	cacheTTL time.Duration
	sf       *singleflight.Group
	policy   *bluemonday.Policy
	logger   *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	registry *fieldtype.Registry,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	cacheTTL time.Duration,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("formtemplate.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("formtemplate.service")
	}
	if registry == nil {
		registry = fieldtype.Default()
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &service{
		db:       db,
		repo:     repo,
		registry: registry,
		outbox:   outboxRepo,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		sf:       &singleflight.Group{},
		policy:   bluemonday.StrictPolicy(),
		logger:   l,
	}
}

func (s *service) Create(
	ctx context.Context,
	createdBy string,
	req CreateFormTemplateRequest,
) (FormTemplateResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create form template requested",
		zap.String("request_id", rid),
		zap.String("created_by", createdBy),
		zap.Int("fields", len(req.Fields)),
	)

	creator, err := uuid.Parse(createdBy)
	if err != nil {
		return FormTemplateResponse{}, apperror.ErrUnauthorized
	}

	tpl := &FormTemplate{
		ID:          uuid.New(),
		Name:        s.clean(req.Name),
		Description: s.clean(req.Description),
		IsActive:    req.IsActive == nil || *req.IsActive,
		CreatedBy:   creator,
	}

	violations := checkName(tpl.Name)
	fields, fieldViolations := s.buildFields(tpl.ID, req.Fields)
	violations = append(violations, fieldViolations...)
	if len(violations) > 0 {
		s.logger.Warn("create form template rejected",
			zap.String("request_id", rid),
			zap.Int("violations", len(violations)),
		)
		return FormTemplateResponse{}, validationError(violations)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create form template begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return FormTemplateResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, tpl); err != nil {
		s.logger.Error("create form template persist failed", zap.Error(err))
		return FormTemplateResponse{}, mapRepositoryError(err)
	}
	if err := qtx.CreateFields(ctx, fields); err != nil {
		s.logger.Error("create form fields persist failed",
			zap.String("form_template_id", tpl.ID.String()),
			zap.Error(err),
		)
		return FormTemplateResponse{}, mapRepositoryError(err)
	}

	if err := s.enqueue(ctx, tx, events.FormTemplateCreated, tpl.ID.String(), ""); err != nil {
		s.logger.Error("create form template outbox persist failed",
			zap.String("form_template_id", tpl.ID.String()),
			zap.Error(err),
		)
		return FormTemplateResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create form template commit failed", zap.String("request_id", rid), zap.Error(err))
		return FormTemplateResponse{}, err
	}

	metrics.TemplateWrites.WithLabelValues("create").Inc()
	s.logger.Info("create form template success",
		zap.String("request_id", rid),
		zap.String("form_template_id", tpl.ID.String()),
	)

	tpl.Fields = fields
	SortFields(tpl.Fields)
	return ToResponse(*tpl), nil
}

func (s *service) Update(
	ctx context.Context,
	id string,
	req UpdateFormTemplateRequest,
) (FormTemplateResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update form template requested",
		zap.String("request_id", rid),
		zap.String("form_template_id", id),
		zap.Int("fields", len(req.Fields)),
	)

	if _, err := uuid.Parse(id); err != nil {
		return FormTemplateResponse{}, formtemplateerrors.ErrFormTemplateNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update form template begin tx failed", zap.Error(err))
		return FormTemplateResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	tpl, err := qtx.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("update form template lookup failed", zap.String("form_template_id", id), zap.Error(err))
		return FormTemplateResponse{}, mapRepositoryError(err)
	}

	if req.Name != nil {
		tpl.Name = s.clean(*req.Name)
	}
	if req.Description != nil {
		tpl.Description = s.clean(*req.Description)
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}

	violations := checkName(tpl.Name)
	fields, fieldViolations := s.buildFields(tpl.ID, req.Fields)
	violations = append(violations, fieldViolations...)
	if len(violations) > 0 {
		s.logger.Warn("update form template rejected",
			zap.String("form_template_id", id),
			zap.Int("violations", len(violations)),
		)
		return FormTemplateResponse{}, validationError(violations)
	}

	tpl.UpdatedAt = time.Now().UTC()
	if err := qtx.Update(ctx, tpl); err != nil {
		s.logger.Error("update form template persist failed", zap.Error(err))
		return FormTemplateResponse{}, mapRepositoryError(err)
	}
	if err := qtx.DeleteFields(ctx, id); err != nil {
		s.logger.Error("update form template clear fields failed", zap.Error(err))
		return FormTemplateResponse{}, mapRepositoryError(err)
	}
	if err := qtx.CreateFields(ctx, fields); err != nil {
		s.logger.Error("update form template insert fields failed", zap.Error(err))
		return FormTemplateResponse{}, mapRepositoryError(err)
	}

	if err := s.enqueue(ctx, tx, events.FormTemplateUpdated, id, ""); err != nil {
		s.logger.Error("update form template outbox persist failed", zap.Error(err))
		return FormTemplateResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update form template commit failed", zap.Error(err))
		return FormTemplateResponse{}, err
	}

	s.invalidate(ctx, id)
	metrics.TemplateWrites.WithLabelValues("update").Inc()
	s.logger.Info("update form template success", zap.String("form_template_id", id))

	tpl.Fields = fields
	SortFields(tpl.Fields)
	return ToResponse(*tpl), nil
}

// Duplicate copies a template and its fields under new ids. Any failure after
// the source lookup is reported as an operation failure carrying the cause.
func (s *service) Duplicate(
	ctx context.Context,
	id, requestedBy string,
) (FormTemplateResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("duplicate form template requested",
		zap.String("request_id", rid),
		zap.String("form_template_id", id),
		zap.String("requested_by", requestedBy),
	)

	if _, err := uuid.Parse(id); err != nil {
		return FormTemplateResponse{}, formtemplateerrors.ErrFormTemplateNotFound
	}
	requester, err := uuid.Parse(requestedBy)
	if err != nil {
		return FormTemplateResponse{}, apperror.ErrUnauthorized
	}

	src, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("duplicate form template lookup failed", zap.String("form_template_id", id), zap.Error(err))
		return FormTemplateResponse{}, mapRepositoryError(err)
	}

	dup := &FormTemplate{
		ID:          uuid.New(),
		Name:        src.Name + copySuffix,
		Description: src.Description,
		IsActive:    src.IsActive,
		CreatedBy:   requester,
	}
	fields := copyFields(dup.ID, src.Fields)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("duplicate form template begin tx failed", zap.Error(err))
		return FormTemplateResponse{}, apperror.OperationFailed(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, dup); err != nil {
		s.logger.Error("duplicate form template persist failed", zap.Error(err))
		return FormTemplateResponse{}, apperror.OperationFailed(err)
	}
	if err := qtx.CreateFields(ctx, fields); err != nil {
		s.logger.Error("duplicate form fields persist failed", zap.Error(err))
		return FormTemplateResponse{}, apperror.OperationFailed(err)
	}
	if err := s.enqueue(ctx, tx, events.FormTemplateDuplicated, dup.ID.String(), id); err != nil {
		s.logger.Error("duplicate form template outbox persist failed", zap.Error(err))
		return FormTemplateResponse{}, apperror.OperationFailed(err)
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("duplicate form template commit failed", zap.Error(err))
		return FormTemplateResponse{}, apperror.OperationFailed(err)
	}

	metrics.TemplateWrites.WithLabelValues("duplicate").Inc()
	s.logger.Info("duplicate form template success",
		zap.String("source_id", id),
		zap.String("form_template_id", dup.ID.String()),
	)

	dup.Fields = fields
	return ToResponse(*dup), nil
}

func (s *service) GetByID(ctx context.Context, id string) (FormTemplateResponse, error) {
	s.logger.Debug("get form template by id requested", zap.String("form_template_id", id))

	if _, err := uuid.Parse(id); err != nil {
		return FormTemplateResponse{}, formtemplateerrors.ErrFormTemplateNotFound
	}

	cacheKey := GetDetailCacheKey(id)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp FormTemplateResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				metrics.TemplateCacheLookups.WithLabelValues("hit").Inc()
				return resp, nil
			}
		}
		metrics.TemplateCacheLookups.WithLabelValues("miss").Inc()
	}

	// The shared load outlives any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		tpl, err := s.repo.FindByID(loadCtx, id)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := ToResponse(*tpl)
		if s.rdb != nil {
			if data, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(loadCtx, cacheKey, data, s.cacheTTL).Err(); err != nil {
					s.logger.Warn("cache form template failed", zap.String("key", cacheKey), zap.Error(err))
				}
			}
		}
		return resp, nil
	})
	if err != nil {
		s.logger.Warn("get form template by id failed", zap.String("form_template_id", id), zap.Error(err))
		return FormTemplateResponse{}, err
	}

	return v.(FormTemplateResponse), nil
}

// Definition resolves a template with its ordered fields for record
// validation.
func (s *service) Definition(ctx context.Context, id string) (*FormTemplate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, formtemplateerrors.ErrFormTemplateNotFound
	}
	tpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return tpl, nil
}

func (s *service) List(
	ctx context.Context,
	filter ListFormTemplatesFilter,
) ([]FormTemplateResponse, int64, error) {
	s.logger.Debug("list form templates requested",
		zap.String("search", filter.Search),
		zap.Int("page", filter.Page),
		zap.Int("page_size", filter.PageSize),
	)

	tpls, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list form templates failed", zap.Error(err))
		return nil, 0, mapRepositoryError(err)
	}

	out := make([]FormTemplateResponse, 0, len(tpls))
	for _, t := range tpls {
		out = append(out, ToResponse(t))
	}
	return out, total, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("delete form template requested",
		zap.String("request_id", rid),
		zap.String("form_template_id", id),
	)

	if _, err := uuid.Parse(id); err != nil {
		return formtemplateerrors.ErrFormTemplateNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete form template begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
		s.logger.Warn("delete form template failed", zap.String("form_template_id", id), zap.Error(err))
		return mapRepositoryError(err)
	}
	if err := s.enqueue(ctx, tx, events.FormTemplateDeleted, id, ""); err != nil {
		s.logger.Error("delete form template outbox persist failed", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delete form template commit failed", zap.Error(err))
		return err
	}

	s.invalidate(ctx, id)
	metrics.TemplateWrites.WithLabelValues("delete").Inc()
	s.logger.Info("delete form template success", zap.String("form_template_id", id))
	return nil
}

func (s *service) enqueue(ctx context.Context, tx *sql.Tx, eventType, id, sourceID string) error {
	if s.outbox == nil {
		return nil
	}
	ev, err := kafka.NewLifecycleEvent(events.LifecycleEvent{
		EventType:      eventType,
		RequestID:      contextutil.GetRequestID(ctx),
		AggregateType:  events.AggregateFormTemplate,
		AggregateID:    id,
		FormTemplateID: id,
		SourceID:       sourceID,
		ActorID:        contextutil.GetUserID(ctx),
	})
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, ev)
}

func (s *service) invalidate(ctx context.Context, id string) {
	if s.rdb == nil {
		return
	}
	cacheKey := GetDetailCacheKey(id)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate form template cache",
			zap.Error(err),
			zap.String("key", cacheKey),
		)
	}
}

// clean strips markup from free text and trims it.
func (s *service) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

func (s *service) buildFields(templateID uuid.UUID, reqs []FieldRequest) ([]FormField, []fieldtype.Violation) {
	fields := make([]FormField, 0, len(reqs))
	var violations []fieldtype.Violation

	for i, req := range reqs {
		ftype, ok := fieldtype.Parse(req.FieldType)
		if !ok {
			ftype = fieldtype.Type(strings.TrimSpace(req.FieldType))
		}
		f := FormField{
			ID:              uuid.New(),
			FormTemplateID:  templateID,
			FieldName:       strings.TrimSpace(req.FieldName),
			FieldLabel:      s.clean(req.FieldLabel),
			FieldType:       ftype,
			IsRequired:      req.IsRequired,
			FieldOrder:      req.FieldOrder,
			Position:        i,
			FieldOptions:    jsonColumn(req.FieldOptions),
			ValidationRules: jsonColumn(req.ValidationRules),
		}

		for _, v := range s.registry.CheckDefinition(f.Spec()) {
			v.Field = fmt.Sprintf("fields[%d].%s", i, v.Field)
			v.FieldID = ""
			violations = append(violations, v)
		}
		fields = append(fields, f)
	}

	return fields, violations
}

func copyFields(templateID uuid.UUID, src []FormField) []FormField {
	out := make([]FormField, 0, len(src))
	for i, f := range src {
		out = append(out, FormField{
			ID:              uuid.New(),
			FormTemplateID:  templateID,
			FieldName:       f.FieldName,
			FieldLabel:      f.FieldLabel,
			FieldType:       f.FieldType,
			IsRequired:      f.IsRequired,
			FieldOrder:      f.FieldOrder,
			Position:        i,
			FieldOptions:    cloneJSON(f.FieldOptions),
			ValidationRules: cloneJSON(f.ValidationRules),
		})
	}
	return out
}

func checkName(name string) []fieldtype.Violation {
	if name == "" {
		return []fieldtype.Violation{{
			Field:   "name",
			Rule:    fieldtype.RuleRequired,
			Message: "name is required",
		}}
	}
	return nil
}

func validationError(vs []fieldtype.Violation) error {
	if len(vs) == 1 {
		return apperror.Validation(vs[0].Message, vs)
	}
	return apperror.Validation(formtemplateerrors.ErrInvalidFormTemplate.Message, vs)
}

func jsonColumn(raw json.RawMessage) datatypes.JSON {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	return datatypes.JSON(trimmed)
}

func cloneJSON(j datatypes.JSON) datatypes.JSON {
	if j == nil {
		return nil
	}
	out := make(datatypes.JSON, len(j))
	copy(out, j)
	return out
}

func ToResponse(t FormTemplate) FormTemplateResponse {
	fields := make([]FieldResponse, 0, len(t.Fields))
	for _, f := range t.Fields {
		fields = append(fields, FieldResponse{
			ID:              f.ID.String(),
			FieldName:       f.FieldName,
			FieldLabel:      f.FieldLabel,
			FieldType:       string(f.FieldType),
			IsRequired:      f.IsRequired,
			FieldOrder:      f.FieldOrder,
			FieldOptions:    rawJSON(f.FieldOptions),
			ValidationRules: rawJSON(f.ValidationRules),
			CreatedAt:       f.CreatedAt,
			UpdatedAt:       f.UpdatedAt,
		})
	}
	return FormTemplateResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		IsActive:    t.IsActive,
		CreatedBy:   t.CreatedBy.String(),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Fields:      fields,
	}
}

func rawJSON(j datatypes.JSON) json.RawMessage {
	if len(j) == 0 {
		return nil
	}
	return json.RawMessage(j)
}
