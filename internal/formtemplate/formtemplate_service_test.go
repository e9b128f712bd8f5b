package formtemplate_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Abhinav7558/employee-management-system/internal/fieldtype"
	"github.com/Abhinav7558/employee-management-system/internal/formtemplate"
	formtemplateerrors "github.com/Abhinav7558/employee-management-system/internal/formtemplate/errors"
	formtemplateMock "github.com/Abhinav7558/employee-management-system/internal/formtemplate/mock"
	"github.com/Abhinav7558/employee-management-system/internal/messaging/kafka"
	kafkaMock "github.com/Abhinav7558/employee-management-system/internal/messaging/kafka/mock"
	"github.com/Abhinav7558/employee-management-system/internal/shared/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const cacheTTL = time.Minute

type serviceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   formtemplate.Service
	repo      *formtemplateMock.MockRepository
	outbox    *kafkaMock.MockOutboxRepository
	redismock redismock.ClientMock
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	dbRedis, redisMock := redismock.NewClientMock()
	repo := formtemplateMock.NewMockRepository(ctrl)
	outboxRepo := kafkaMock.NewMockOutboxRepository(ctrl)

	svc := formtemplate.NewService(db, repo, fieldtype.Default(), outboxRepo, dbRedis, cacheTTL, zap.NewNop())

	return &serviceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   svc,
		repo:      repo,
		outbox:    outboxRepo,
		redismock: redisMock,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func (d *serviceDeps) expectOutbox(eventType string) {
	d.outbox.EXPECT().WithTx(gomock.Any()).Return(d.outbox)
	d.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev kafka.OutboxEvent) error {
			if ev.EventType != eventType {
				return errors.New("unexpected event " + ev.EventType)
			}
			return nil
		})
}

func sampleTemplate(fields ...formtemplate.FormField) *formtemplate.FormTemplate {
	id := uuid.New()
	for i := range fields {
		fields[i].FormTemplateID = id
		fields[i].Position = i
		if fields[i].ID == uuid.Nil {
			fields[i].ID = uuid.New()
		}
	}
	return &formtemplate.FormTemplate{
		ID:          id,
		Name:        "Onboarding",
		Description: "New hire details",
		IsActive:    true,
		CreatedBy:   uuid.New(),
		CreatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Fields:      fields,
	}
}

func textField(name string, order int) formtemplate.FormField {
	return formtemplate.FormField{
		FieldName:  name,
		FieldLabel: name,
		FieldType:  fieldtype.Text,
		IsRequired: true,
		FieldOrder: order,
	}
}

func fieldNames(fields []formtemplate.FieldResponse) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.FieldName)
	}
	return out
}

func TestFormTemplateService_Create(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	ctx := context.Background()
	userID := uuid.NewString()

	t.Run("success - fields ordered by field_order then position", func(t *testing.T) {
		req := formtemplate.CreateFormTemplateRequest{
			Name:        "  <b>Onboarding</b> ",
			Description: "R&D hires",
			Fields: []formtemplate.FieldRequest{
				{FieldName: "c", FieldLabel: "C", FieldType: "text", FieldOrder: 2},
				{FieldName: "a", FieldLabel: "A", FieldType: "NUMBER", FieldOrder: 1, ValidationRules: json.RawMessage(`{"min":0}`)},
				{FieldName: "b", FieldLabel: "B", FieldType: "select", FieldOrder: 1, FieldOptions: json.RawMessage(`["x","y"]`)},
			},
		}

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tpl *formtemplate.FormTemplate) error {
				assert.Equal(t, "Onboarding", tpl.Name)
				assert.Equal(t, "R&D hires", tpl.Description)
				assert.True(t, tpl.IsActive)
				assert.Equal(t, userID, tpl.CreatedBy.String())
				return nil
			})
		deps.repo.EXPECT().CreateFields(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields []formtemplate.FormField) error {
				require.Len(t, fields, 3)
				for i, f := range fields {
					assert.Equal(t, i, f.Position)
				}
				assert.Equal(t, fieldtype.Select, fields[2].FieldType)
				return nil
			})
		deps.expectOutbox("form_template_created")

		resp, err := deps.service.Create(ctx, userID, req)

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, fieldNames(resp.Fields))
		assert.JSONEq(t, `["x","y"]`, string(resp.Fields[1].FieldOptions))
		assert.Nil(t, resp.Fields[2].FieldOptions)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("collects every violation", func(t *testing.T) {
		req := formtemplate.CreateFormTemplateRequest{
			Name: "   ",
			Fields: []formtemplate.FieldRequest{
				{FieldName: "color", FieldLabel: "Color", FieldType: "COLOR"},
				{FieldName: "dept", FieldLabel: "Dept", FieldType: "SELECT"},
			},
		}

		_, err := deps.service.Create(ctx, userID, req)

		require.Error(t, err)
		httpErr := apperror.ToHTTP(err)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
		assert.Equal(t, apperror.CodeInvalidInput, httpErr.Code)

		details, ok := httpErr.Details.([]fieldtype.Violation)
		require.True(t, ok)
		var attrs []string
		for _, v := range details {
			attrs = append(attrs, v.Field)
		}
		assert.Equal(t, []string{"name", "fields[0].field_type", "fields[1].field_options"}, attrs)
	})

	t.Run("invalid creator", func(t *testing.T) {
		_, err := deps.service.Create(ctx, "not-a-user", formtemplate.CreateFormTemplateRequest{Name: "x"})
		assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("persist error rolls back", func(t *testing.T) {
		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db error"))

		_, err := deps.service.Create(ctx, userID, formtemplate.CreateFormTemplateRequest{Name: "x"})

		assert.EqualError(t, err, "db error")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestFormTemplateService_Update(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	ctx := context.Background()

	t.Run("success - replaces fields with new ids", func(t *testing.T) {
		existing := sampleTemplate(textField("fullname", 1))
		oldFieldID := existing.Fields[0].ID
		id := existing.ID.String()
		inactive := false

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(existing, nil)
		deps.repo.EXPECT().Update(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tpl *formtemplate.FormTemplate) error {
				assert.Equal(t, "Onboarding", tpl.Name)
				assert.False(t, tpl.IsActive)
				return nil
			})
		deps.repo.EXPECT().DeleteFields(gomock.Any(), id).Return(nil)
		deps.repo.EXPECT().CreateFields(gomock.Any(), gomock.Any()).Return(nil)
		deps.expectOutbox("form_template_updated")
		deps.redismock.ExpectDel(formtemplate.GetDetailCacheKey(id)).SetVal(1)

		resp, err := deps.service.Update(ctx, id, formtemplate.UpdateFormTemplateRequest{
			IsActive: &inactive,
			Fields: []formtemplate.FieldRequest{
				{FieldName: "fullname", FieldLabel: "fullname", FieldType: "TEXT", IsRequired: true, FieldOrder: 1},
			},
		})

		require.NoError(t, err)
		require.Len(t, resp.Fields, 1)
		assert.NotEqual(t, oldFieldID.String(), resp.Fields[0].ID)
		assert.False(t, resp.IsActive)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("absent fields clear the list", func(t *testing.T) {
		existing := sampleTemplate(textField("fullname", 1))
		id := existing.ID.String()
		name := "Renamed"

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(existing, nil)
		deps.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		deps.repo.EXPECT().DeleteFields(gomock.Any(), id).Return(nil)
		deps.repo.EXPECT().CreateFields(gomock.Any(), gomock.Len(0)).Return(nil)
		deps.expectOutbox("form_template_updated")
		deps.redismock.ExpectDel(formtemplate.GetDetailCacheKey(id)).SetVal(1)

		resp, err := deps.service.Update(ctx, id, formtemplate.UpdateFormTemplateRequest{Name: &name})

		require.NoError(t, err)
		assert.Equal(t, "Renamed", resp.Name)
		assert.Empty(t, resp.Fields)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Update(ctx, id, formtemplate.UpdateFormTemplateRequest{})

		assert.ErrorIs(t, err, formtemplateerrors.ErrFormTemplateNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := deps.service.Update(ctx, "42", formtemplate.UpdateFormTemplateRequest{})
		assert.ErrorIs(t, err, formtemplateerrors.ErrFormTemplateNotFound)
	})
}

func TestFormTemplateService_Duplicate(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	ctx := context.Background()
	userID := uuid.NewString()

	t.Run("success - deep copy under new ids", func(t *testing.T) {
		dept := textField("dept", 2)
		dept.FieldType = fieldtype.Select
		dept.FieldOptions = datatypes.JSON(`["it","hr"]`)
		src := sampleTemplate(textField("fullname", 1), dept)
		srcFields := append([]formtemplate.FormField(nil), src.Fields...)

		var copied []formtemplate.FormField
		deps.repo.EXPECT().FindByID(gomock.Any(), src.ID.String()).Return(src, nil)
		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tpl *formtemplate.FormTemplate) error {
				assert.Equal(t, "Onboarding (Copy)", tpl.Name)
				assert.Equal(t, src.Description, tpl.Description)
				assert.Equal(t, userID, tpl.CreatedBy.String())
				assert.NotEqual(t, src.ID, tpl.ID)
				return nil
			})
		deps.repo.EXPECT().CreateFields(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields []formtemplate.FormField) error {
				copied = fields
				return nil
			})
		deps.expectOutbox("form_template_duplicated")

		resp, err := deps.service.Duplicate(ctx, src.ID.String(), userID)

		require.NoError(t, err)
		assert.Equal(t, "Onboarding (Copy)", resp.Name)
		assert.Equal(t, "Onboarding", src.Name)

		ignoreIDs := cmpopts.IgnoreFields(formtemplate.FormField{}, "ID", "FormTemplateID", "CreatedAt", "UpdatedAt")
		if diff := cmp.Diff(srcFields, copied, ignoreIDs); diff != "" {
			t.Errorf("copied fields mismatch (-src +copy):\n%s", diff)
		}
		for i := range copied {
			assert.NotEqual(t, srcFields[i].ID, copied[i].ID)
			assert.Equal(t, resp.ID, copied[i].FormTemplateID.String())
		}
		assert.Equal(t, srcFields, src.Fields)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Duplicate(ctx, id, userID)

		assert.ErrorIs(t, err, formtemplateerrors.ErrFormTemplateNotFound)
	})

	t.Run("copy failure is reported as operation failed", func(t *testing.T) {
		src := sampleTemplate(textField("fullname", 1))

		deps.repo.EXPECT().FindByID(gomock.Any(), src.ID.String()).Return(src, nil)
		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		deps.repo.EXPECT().CreateFields(gomock.Any(), gomock.Any()).Return(errors.New("insert form_fields failed"))

		_, err := deps.service.Duplicate(ctx, src.ID.String(), userID)

		httpErr := apperror.ToHTTP(err)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
		assert.Equal(t, apperror.CodeOperationFailed, httpErr.Code)
		assert.Equal(t, "insert form_fields failed", httpErr.Message)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestFormTemplateService_GetByID(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	ctx := context.Background()

	t.Run("cache hit", func(t *testing.T) {
		tpl := sampleTemplate(textField("fullname", 1))
		cached, _ := json.Marshal(formtemplate.ToResponse(*tpl))
		deps.redismock.ExpectGet(formtemplate.GetDetailCacheKey(tpl.ID.String())).SetVal(string(cached))

		resp, err := deps.service.GetByID(ctx, tpl.ID.String())

		require.NoError(t, err)
		assert.Equal(t, tpl.ID.String(), resp.ID)
		assert.Equal(t, []string{"fullname"}, fieldNames(resp.Fields))
	})

	t.Run("cache miss loads and stores", func(t *testing.T) {
		tpl := sampleTemplate(textField("fullname", 1))
		key := formtemplate.GetDetailCacheKey(tpl.ID.String())
		expected, _ := json.Marshal(formtemplate.ToResponse(*tpl))

		deps.redismock.ExpectGet(key).RedisNil()
		deps.repo.EXPECT().FindByID(gomock.Any(), tpl.ID.String()).Return(tpl, nil)
		deps.redismock.ExpectSet(key, expected, cacheTTL).SetVal("OK")

		resp, err := deps.service.GetByID(ctx, tpl.ID.String())

		require.NoError(t, err)
		assert.Equal(t, "Onboarding", resp.Name)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("shared load ignores the caller's cancellation", func(t *testing.T) {
		tpl := sampleTemplate(textField("fullname", 1))
		key := formtemplate.GetDetailCacheKey(tpl.ID.String())
		expected, _ := json.Marshal(formtemplate.ToResponse(*tpl))

		callerCtx, cancel := context.WithCancel(ctx)
		cancel()

		deps.redismock.ExpectGet(key).RedisNil()
		deps.repo.EXPECT().FindByID(gomock.Any(), tpl.ID.String()).
			DoAndReturn(func(loadCtx context.Context, _ string) (*formtemplate.FormTemplate, error) {
				assert.NoError(t, loadCtx.Err())
				return tpl, nil
			})
		deps.redismock.ExpectSet(key, expected, cacheTTL).SetVal("OK")

		resp, err := deps.service.GetByID(callerCtx, tpl.ID.String())

		require.NoError(t, err)
		assert.Equal(t, tpl.ID.String(), resp.ID)
		assert.NoError(t, deps.redismock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		deps.redismock.ExpectGet(formtemplate.GetDetailCacheKey(id)).RedisNil()
		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.GetByID(ctx, id)

		assert.ErrorIs(t, err, formtemplateerrors.ErrFormTemplateNotFound)
	})
}

func TestFormTemplateService_List(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	active := true
	filter := formtemplate.ListFormTemplatesFilter{Search: "onb", IsActive: &active, Page: 1, PageSize: 10}
	deps.repo.EXPECT().List(gomock.Any(), filter).
		Return([]formtemplate.FormTemplate{*sampleTemplate(), *sampleTemplate()}, int64(12), nil)

	items, total, err := deps.service.List(context.Background(), filter)

	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int64(12), total)
}

func TestFormTemplateService_Delete(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Delete(gomock.Any(), id).Return(nil)
		deps.expectOutbox("form_template_deleted")
		deps.redismock.ExpectDel(formtemplate.GetDetailCacheKey(id)).SetVal(1)

		require.NoError(t, deps.service.Delete(ctx, id))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().Delete(gomock.Any(), id).Return(gorm.ErrRecordNotFound)

		err := deps.service.Delete(ctx, id)

		assert.ErrorIs(t, err, formtemplateerrors.ErrFormTemplateNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestFormTemplateService_Definition(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	tpl := sampleTemplate(textField("fullname", 1))
	deps.repo.EXPECT().FindByID(gomock.Any(), tpl.ID.String()).Return(tpl, nil)

	got, err := deps.service.Definition(context.Background(), tpl.ID.String())
	require.NoError(t, err)
	assert.Same(t, tpl, got)

	_, err = deps.service.Definition(context.Background(), "nope")
	assert.ErrorIs(t, err, formtemplateerrors.ErrFormTemplateNotFound)
}
