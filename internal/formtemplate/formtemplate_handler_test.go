package formtemplate_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Abhinav7558/employee-management-system/internal/formtemplate"
	formtemplateerrors "github.com/Abhinav7558/employee-management-system/internal/formtemplate/errors"
	"github.com/Abhinav7558/employee-management-system/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFormTemplateService struct {
	CreateFn     func(ctx context.Context, createdBy string, req formtemplate.CreateFormTemplateRequest) (formtemplate.FormTemplateResponse, error)
	UpdateFn     func(ctx context.Context, id string, req formtemplate.UpdateFormTemplateRequest) (formtemplate.FormTemplateResponse, error)
	DuplicateFn  func(ctx context.Context, id, requestedBy string) (formtemplate.FormTemplateResponse, error)
	GetByIDFn    func(ctx context.Context, id string) (formtemplate.FormTemplateResponse, error)
	DefinitionFn func(ctx context.Context, id string) (*formtemplate.FormTemplate, error)
	ListFn       func(ctx context.Context, filter formtemplate.ListFormTemplatesFilter) ([]formtemplate.FormTemplateResponse, int64, error)
	DeleteFn     func(ctx context.Context, id string) error
}

func (f *fakeFormTemplateService) Create(ctx context.Context, createdBy string, req formtemplate.CreateFormTemplateRequest) (formtemplate.FormTemplateResponse, error) {
	return f.CreateFn(ctx, createdBy, req)
}
func (f *fakeFormTemplateService) Update(ctx context.Context, id string, req formtemplate.UpdateFormTemplateRequest) (formtemplate.FormTemplateResponse, error) {
	return f.UpdateFn(ctx, id, req)
}
func (f *fakeFormTemplateService) Duplicate(ctx context.Context, id, requestedBy string) (formtemplate.FormTemplateResponse, error) {
	return f.DuplicateFn(ctx, id, requestedBy)
}
func (f *fakeFormTemplateService) GetByID(ctx context.Context, id string) (formtemplate.FormTemplateResponse, error) {
	return f.GetByIDFn(ctx, id)
}
func (f *fakeFormTemplateService) Definition(ctx context.Context, id string) (*formtemplate.FormTemplate, error) {
	return f.DefinitionFn(ctx, id)
}
func (f *fakeFormTemplateService) List(ctx context.Context, filter formtemplate.ListFormTemplatesFilter) ([]formtemplate.FormTemplateResponse, int64, error) {
	return f.ListFn(ctx, filter)
}
func (f *fakeFormTemplateService) Delete(ctx context.Context, id string) error {
	return f.DeleteFn(ctx, id)
}

func newContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type envelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestFormTemplateHandler_Create(t *testing.T) {
	userID := uuid.NewString()

	t.Run("success", func(t *testing.T) {
		svc := &fakeFormTemplateService{
			CreateFn: func(ctx context.Context, createdBy string, req formtemplate.CreateFormTemplateRequest) (formtemplate.FormTemplateResponse, error) {
				assert.Equal(t, userID, createdBy)
				require.Len(t, req.Fields, 1)
				assert.Equal(t, "TEXT", req.Fields[0].FieldType)
				return formtemplate.FormTemplateResponse{ID: uuid.NewString(), Name: req.Name}, nil
			},
		}
		h := formtemplate.NewHandler(svc)
		body := `{"name":"Onboarding","fields":[{"field_name":"fullname","field_label":"Full name","field_type":"TEXT","is_required":true,"field_order":1}]}`
		c, w := newContext(http.MethodPost, "/api/v1/forms", body)
		c.Set("user_id", userID)

		h.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "Onboarding")
	})

	t.Run("malformed body", func(t *testing.T) {
		h := formtemplate.NewHandler(&fakeFormTemplateService{})
		c, w := newContext(http.MethodPost, "/api/v1/forms", `{"name":`)
		c.Set("user_id", userID)

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperror.CodeInvalidInput, decode(t, w).Error.Code)
	})

	t.Run("validation details are passed through", func(t *testing.T) {
		svc := &fakeFormTemplateService{
			CreateFn: func(ctx context.Context, createdBy string, req formtemplate.CreateFormTemplateRequest) (formtemplate.FormTemplateResponse, error) {
				return formtemplate.FormTemplateResponse{}, apperror.Validation("name is required", []map[string]string{{"field": "name", "rule": "required"}})
			},
		}
		h := formtemplate.NewHandler(svc)
		c, w := newContext(http.MethodPost, "/api/v1/forms", `{"name":""}`)
		c.Set("user_id", userID)

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		assert.Equal(t, "name is required", env.Error.Message)
		assert.JSONEq(t, `[{"field":"name","rule":"required"}]`, string(env.Error.Details))
	})
}

func TestFormTemplateHandler_GetAll(t *testing.T) {
	t.Run("empty result returns message", func(t *testing.T) {
		svc := &fakeFormTemplateService{
			ListFn: func(ctx context.Context, filter formtemplate.ListFormTemplatesFilter) ([]formtemplate.FormTemplateResponse, int64, error) {
				assert.Equal(t, "zzz", filter.Search)
				require.NotNil(t, filter.IsActive)
				assert.True(t, *filter.IsActive)
				return []formtemplate.FormTemplateResponse{}, 0, nil
			},
		}
		h := formtemplate.NewHandler(svc)
		c, w := newContext(http.MethodGet, "/api/v1/forms?search=zzz&is_active=true", "")

		h.GetAll(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"No forms available"}`, w.Body.String())
	})

	t.Run("paginated", func(t *testing.T) {
		svc := &fakeFormTemplateService{
			ListFn: func(ctx context.Context, filter formtemplate.ListFormTemplatesFilter) ([]formtemplate.FormTemplateResponse, int64, error) {
				assert.Equal(t, 2, filter.Page)
				assert.Equal(t, 5, filter.PageSize)
				assert.Nil(t, filter.IsActive)
				return []formtemplate.FormTemplateResponse{{Name: "A"}}, 6, nil
			},
		}
		h := formtemplate.NewHandler(svc)
		c, w := newContext(http.MethodGet, "/api/v1/forms?page=2&page_size=5", "")

		h.GetAll(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decode(t, w)
		assert.True(t, env.Ok)
		assert.EqualValues(t, 6, env.Meta["total"])
		assert.EqualValues(t, 2, env.Meta["totalPages"])
	})
}

func TestFormTemplateHandler_GetById(t *testing.T) {
	svc := &fakeFormTemplateService{
		GetByIDFn: func(ctx context.Context, id string) (formtemplate.FormTemplateResponse, error) {
			return formtemplate.FormTemplateResponse{}, formtemplateerrors.ErrFormTemplateNotFound
		},
	}
	h := formtemplate.NewHandler(svc)
	c, w := newContext(http.MethodGet, "/api/v1/forms/x", "")
	c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}}

	h.GetById(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, decode(t, w).Error.Code)
}

func TestFormTemplateHandler_Update(t *testing.T) {
	id := uuid.NewString()
	svc := &fakeFormTemplateService{
		UpdateFn: func(ctx context.Context, gotID string, req formtemplate.UpdateFormTemplateRequest) (formtemplate.FormTemplateResponse, error) {
			assert.Equal(t, id, gotID)
			assert.Nil(t, req.Name)
			require.NotNil(t, req.IsActive)
			assert.False(t, *req.IsActive)
			return formtemplate.FormTemplateResponse{ID: gotID}, nil
		},
	}
	h := formtemplate.NewHandler(svc)
	c, w := newContext(http.MethodPatch, "/api/v1/forms/"+id, `{"is_active":false}`)
	c.Params = gin.Params{{Key: "id", Value: id}}

	h.Update(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFormTemplateHandler_Duplicate(t *testing.T) {
	userID := uuid.NewString()

	t.Run("success", func(t *testing.T) {
		svc := &fakeFormTemplateService{
			DuplicateFn: func(ctx context.Context, id, requestedBy string) (formtemplate.FormTemplateResponse, error) {
				assert.Equal(t, userID, requestedBy)
				return formtemplate.FormTemplateResponse{Name: "Onboarding (Copy)"}, nil
			},
		}
		h := formtemplate.NewHandler(svc)
		c, w := newContext(http.MethodPost, "/api/v1/forms/x/duplicate", "")
		c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}}
		c.Set("user_id", userID)

		h.Duplicate(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "Onboarding (Copy)")
	})

	t.Run("operation failed", func(t *testing.T) {
		svc := &fakeFormTemplateService{
			DuplicateFn: func(ctx context.Context, id, requestedBy string) (formtemplate.FormTemplateResponse, error) {
				return formtemplate.FormTemplateResponse{}, apperror.OperationFailed(errors.New("copy failed"))
			},
		}
		h := formtemplate.NewHandler(svc)
		c, w := newContext(http.MethodPost, "/api/v1/forms/x/duplicate", "")
		c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}}
		c.Set("user_id", userID)

		h.Duplicate(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		assert.Equal(t, apperror.CodeOperationFailed, env.Error.Code)
		assert.Equal(t, "copy failed", env.Error.Message)
	})
}

func TestFormTemplateHandler_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeFormTemplateService{
			DeleteFn: func(ctx context.Context, id string) error { return nil },
		}
		h := formtemplate.NewHandler(svc)
		c, w := newContext(http.MethodDelete, "/api/v1/forms/x", "")
		c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}}

		h.Delete(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"deleted":true`)
	})

	t.Run("internal error hides cause", func(t *testing.T) {
		svc := &fakeFormTemplateService{
			DeleteFn: func(ctx context.Context, id string) error { return errors.New("pq: timeout") },
		}
		h := formtemplate.NewHandler(svc)
		c, w := newContext(http.MethodDelete, "/api/v1/forms/x", "")
		c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}}

		h.Delete(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "pq: timeout")
	})
}
