package employee

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	employeeerrors "github.com/Abhinav7558/employee-management-system/internal/employee/errors"
	"github.com/Abhinav7558/employee-management-system/internal/events"
	"github.com/Abhinav7558/employee-management-system/internal/fieldtype"
	"github.com/Abhinav7558/employee-management-system/internal/formtemplate"
	formtemplateerrors "github.com/Abhinav7558/employee-management-system/internal/formtemplate/errors"
	"github.com/Abhinav7558/employee-management-system/internal/messaging/kafka"
	"github.com/Abhinav7558/employee-management-system/internal/metrics"
	"github.com/Abhinav7558/employee-management-system/internal/shared/apperror"
	"github.com/Abhinav7558/employee-management-system/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TemplateResolver loads a form template with its ordered fields.
//
//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type TemplateResolver interface {
	Definition(ctx context.Context, id string) (*formtemplate.FormTemplate, error)
}

type Service interface {
	Create(ctx context.Context, createdBy string, req CreateEmployeeRequest) (EmployeeResponse, error)
	Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	List(ctx context.Context, filter ListEmployeesFilter) ([]EmployeeResponse, int64, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, formTemplateID string) (*bytes.Buffer, string, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	templates TemplateResolver
	registry  *fieldtype.Registry
	outbox    kafka.OutboxRepository
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	templates TemplateResolver,
	registry *fieldtype.Registry,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	if registry == nil {
		registry = fieldtype.Default()
	}
	return &service{
		db:        db,
		repo:      repo,
		templates: templates,
		registry:  registry,
		outbox:    outboxRepo,
		logger:    l,
	}
}

func (s *service) Create(
	ctx context.Context,
	createdBy string,
	req CreateEmployeeRequest,
) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("created_by", createdBy),
		zap.String("form_template_id", req.FormTemplateID),
		zap.Int("field_values", len(req.FieldValues)),
	)

	creator, err := uuid.Parse(createdBy)
	if err != nil {
		return EmployeeResponse{}, apperror.ErrUnauthorized
	}

	tpl, err := s.resolveTemplate(ctx, req.FormTemplateID)
	if err != nil {
		s.logger.Warn("create employee template lookup failed",
			zap.String("form_template_id", req.FormTemplateID),
			zap.Error(err),
		)
		return EmployeeResponse{}, err
	}

	empl := &Employee{
		ID:             uuid.New(),
		FormTemplateID: tpl.ID,
		CreatedBy:      &creator,
		IsActive:       req.IsActive == nil || *req.IsActive,
	}

	values, violations := s.buildValues(empl.ID, tpl, req.FieldValues)
	if len(violations) > 0 {
		s.logger.Warn("create employee rejected",
			zap.String("request_id", rid),
			zap.Int("violations", len(violations)),
		)
		return EmployeeResponse{}, validationError(violations)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, empl); err != nil {
		s.logger.Error("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	if err := qtx.CreateValues(ctx, values); err != nil {
		s.logger.Error("create employee values persist failed",
			zap.String("employee_id", empl.ID.String()),
			zap.Error(err),
		)
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := s.enqueue(ctx, tx, events.EmployeeCreated, empl); err != nil {
		s.logger.Error("create employee outbox persist failed",
			zap.String("employee_id", empl.ID.String()),
			zap.Error(err),
		)
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create employee commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	metrics.RecordWrites.WithLabelValues("create").Inc()
	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", empl.ID.String()),
	)

	empl.FieldValues = values
	sortValues(empl.FieldValues)
	return ToResponse(*empl), nil
}

func (s *service) Update(
	ctx context.Context,
	id string,
	req UpdateEmployeeRequest,
) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update employee requested",
		zap.String("request_id", rid),
		zap.String("employee_id", id),
		zap.Int("field_values", len(req.FieldValues)),
	)

	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	empl, err := qtx.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("update employee lookup failed", zap.String("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	templateID := empl.FormTemplateID.String()
	if req.FormTemplateID != nil {
		templateID = strings.TrimSpace(*req.FormTemplateID)
	}
	templateChanged := templateID != empl.FormTemplateID.String()
	if req.IsActive != nil {
		empl.IsActive = *req.IsActive
	}

	tpl, err := s.resolveTemplate(ctx, templateID)
	if err != nil {
		s.logger.Warn("update employee template lookup failed",
			zap.String("form_template_id", templateID),
			zap.Error(err),
		)
		return EmployeeResponse{}, err
	}

	values, violations := s.buildValues(empl.ID, tpl, req.FieldValues)
	if len(violations) > 0 {
		s.logger.Warn("update employee rejected",
			zap.String("employee_id", id),
			zap.Int("violations", len(violations)),
		)
		return EmployeeResponse{}, validationError(violations)
	}
	empl.FormTemplateID = tpl.ID

	empl.UpdatedAt = time.Now().UTC()
	if err := qtx.Update(ctx, empl); err != nil {
		s.logger.Error("update employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	if err := qtx.DeleteValues(ctx, id); err != nil {
		s.logger.Error("update employee clear values failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	if err := qtx.CreateValues(ctx, values); err != nil {
		s.logger.Error("update employee insert values failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	empl.FieldValues = values

	if err := s.enqueue(ctx, tx, events.EmployeeUpdated, empl); err != nil {
		s.logger.Error("update employee outbox persist failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	metrics.RecordWrites.WithLabelValues("update").Inc()
	s.logger.Info("update employee success",
		zap.String("employee_id", id),
		zap.Bool("template_changed", templateChanged),
	)

	sortValues(empl.FieldValues)
	return ToResponse(*empl), nil
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	s.logger.Debug("get employee by id requested", zap.String("employee_id", id))

	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
	}

	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("get employee by id failed", zap.String("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	sortValues(empl.FieldValues)
	return ToResponse(*empl), nil
}

func (s *service) List(
	ctx context.Context,
	filter ListEmployeesFilter,
) ([]EmployeeResponse, int64, error) {
	s.logger.Debug("list employees requested",
		zap.String("form_template_id", filter.FormTemplateID),
		zap.String("search", filter.Search),
		zap.Int("page", filter.Page),
		zap.Int("page_size", filter.PageSize),
	)

	if filter.FormTemplateID != "" {
		if _, err := uuid.Parse(filter.FormTemplateID); err != nil {
			return nil, 0, apperror.InvalidField("form_template")
		}
	}

	empls, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list employees failed", zap.Error(err))
		return nil, 0, mapRepositoryError(err)
	}

	out := make([]EmployeeResponse, 0, len(empls))
	for _, e := range empls {
		sortValues(e.FieldValues)
		out = append(out, ToResponse(e))
	}
	return out, total, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("delete employee requested",
		zap.String("request_id", rid),
		zap.String("employee_id", id),
	)

	if _, err := uuid.Parse(id); err != nil {
		return employeeerrors.ErrEmployeeNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete employee begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	empl, err := qtx.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("delete employee lookup failed", zap.String("employee_id", id), zap.Error(err))
		return mapRepositoryError(err)
	}
	if err := qtx.Delete(ctx, id); err != nil {
		s.logger.Warn("delete employee failed", zap.String("employee_id", id), zap.Error(err))
		return mapRepositoryError(err)
	}
	if err := s.enqueue(ctx, tx, events.EmployeeDeleted, empl); err != nil {
		s.logger.Error("delete employee outbox persist failed", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delete employee commit failed", zap.Error(err))
		return err
	}

	metrics.RecordWrites.WithLabelValues("delete").Inc()
	s.logger.Info("delete employee success", zap.String("employee_id", id))
	return nil
}

// resolveTemplate maps an unknown template onto a violation of
// form_template_id.
func (s *service) resolveTemplate(ctx context.Context, id string) (*formtemplate.FormTemplate, error) {
	if strings.TrimSpace(id) == "" {
		return nil, validationError([]fieldtype.Violation{{
			Field:   "form_template_id",
			Rule:    fieldtype.RuleRequired,
			Message: "form_template_id is required",
		}})
	}

	tpl, err := s.templates.Definition(ctx, id)
	if errors.Is(err, formtemplateerrors.ErrFormTemplateNotFound) {
		return nil, validationError([]fieldtype.Violation{{
			Field:   "form_template_id",
			Rule:    fieldtype.RuleNotFound,
			Message: fmt.Sprintf("form template %s does not exist", id),
		}})
	}
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func (s *service) enqueue(ctx context.Context, tx *sql.Tx, eventType string, empl *Employee) error {
	if s.outbox == nil {
		return nil
	}
	ev, err := kafka.NewLifecycleEvent(events.LifecycleEvent{
		EventType:      eventType,
		RequestID:      contextutil.GetRequestID(ctx),
		AggregateType:  events.AggregateEmployee,
		AggregateID:    empl.ID.String(),
		FormTemplateID: empl.FormTemplateID.String(),
		ActorID:        contextutil.GetUserID(ctx),
	})
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, ev)
}

// buildValues checks a submission against tpl. Every submitted field must
// belong to tpl, at most once, and every required field of tpl must be
// present. All problems are collected.
func (s *service) buildValues(
	employeeID uuid.UUID,
	tpl *formtemplate.FormTemplate,
	reqs []FieldValueRequest,
) ([]EmployeeFieldValue, []fieldtype.Violation) {
	fields := tpl.FieldByID()
	seen := make(map[uuid.UUID]bool, len(reqs))
	values := make([]EmployeeFieldValue, 0, len(reqs))
	var violations []fieldtype.Violation

	for i, req := range reqs {
		ref := strings.TrimSpace(req.FormFieldID)
		fieldID, err := uuid.Parse(ref)
		f, ok := fields[fieldID]
		if err != nil || !ok {
			violations = append(violations, fieldtype.Violation{
				Field:   fmt.Sprintf("field_values[%d].form_field_id", i),
				FieldID: ref,
				Rule:    fieldtype.RuleUnknownField,
				Message: fmt.Sprintf("form field %s does not belong to form template %s", ref, tpl.ID),
			})
			continue
		}
		if seen[fieldID] {
			violations = append(violations, fieldtype.Violation{
				Field:   f.FieldName,
				FieldID: ref,
				Rule:    fieldtype.RuleDuplicateField,
				Message: fmt.Sprintf("%s was submitted more than once", f.FieldLabel),
			})
			continue
		}
		seen[fieldID] = true

		raw := normalizeValue(req.FieldValue)
		for _, v := range s.registry.Validate(f.Spec(), raw) {
			metrics.FieldViolations.WithLabelValues(string(f.FieldType), v.Rule).Inc()
			violations = append(violations, v)
		}

		field := f
		values = append(values, EmployeeFieldValue{
			ID:          uuid.New(),
			EmployeeID:  employeeID,
			FormFieldID: fieldID,
			FieldValue:  raw,
			FormField:   &field,
		})
	}

	for _, f := range tpl.Fields {
		if f.IsRequired && !seen[f.ID] {
			metrics.FieldViolations.WithLabelValues(string(f.FieldType), fieldtype.RuleRequired).Inc()
			violations = append(violations, fieldtype.Violation{
				Field:   f.FieldName,
				FieldID: f.ID.String(),
				Rule:    fieldtype.RuleRequired,
				Message: f.FieldLabel + " is required",
			})
		}
	}

	return values, violations
}

// normalizeValue stores JSON strings unquoted and any other JSON value as its
// literal text. null and absent values become empty.
func normalizeValue(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return s
		}
	}
	return trimmed
}

func validationError(vs []fieldtype.Violation) error {
	if len(vs) == 1 {
		return apperror.Validation(vs[0].Message, vs)
	}
	return apperror.Validation(employeeerrors.ErrInvalidEmployee.Message, vs)
}

func ToResponse(e Employee) EmployeeResponse {
	values := make([]FieldValueResponse, 0, len(e.FieldValues))
	for _, v := range e.FieldValues {
		item := FieldValueResponse{
			ID:          v.ID.String(),
			FormFieldID: v.FormFieldID.String(),
			FieldValue:  v.FieldValue,
		}
		if v.FormField != nil {
			item.FieldName = v.FormField.FieldName
			item.FieldLabel = v.FormField.FieldLabel
			item.FieldType = string(v.FormField.FieldType)
		}
		values = append(values, item)
	}

	var createdBy *string
	if e.CreatedBy != nil {
		s := e.CreatedBy.String()
		createdBy = &s
	}

	return EmployeeResponse{
		ID:             e.ID.String(),
		FormTemplateID: e.FormTemplateID.String(),
		CreatedBy:      createdBy,
		IsActive:       e.IsActive,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
		FieldValues:    values,
	}
}
