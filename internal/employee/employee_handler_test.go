package employee_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Abhinav7558/employee-management-system/internal/employee"
	employeeerrors "github.com/Abhinav7558/employee-management-system/internal/employee/errors"
	employeeMock "github.com/Abhinav7558/employee-management-system/internal/employee/mock"
	"github.com/Abhinav7558/employee-management-system/internal/fieldtype"
	"github.com/Abhinav7558/employee-management-system/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

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

func setupHandlerTest(t *testing.T) (*employee.Handler, *employeeMock.MockService) {
	apperror.Init()
	ctrl := gomock.NewController(t)
	svc := employeeMock.NewMockService(ctrl)
	return employee.NewHandler(svc, zap.NewNop()), svc
}

func TestEmployeeHandler_Create(t *testing.T) {
	handler, svc := setupHandlerTest(t)
	userID := uuid.NewString()

	t.Run("success", func(t *testing.T) {
		tplID := uuid.NewString()
		fieldID := uuid.NewString()
		c, w := newContext(http.MethodPost, "/employees",
			`{"form_template_id":"`+tplID+`","field_values":[{"form_field_id":"`+fieldID+`","field_value":"Ann"}]}`)
		c.Set("user_id", userID)

		svc.EXPECT().Create(gomock.Any(), userID, gomock.Any()).
			DoAndReturn(func(_ any, _ string, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
				assert.Equal(t, tplID, req.FormTemplateID)
				require.Len(t, req.FieldValues, 1)
				assert.JSONEq(t, `"Ann"`, string(req.FieldValues[0].FieldValue))
				return employee.EmployeeResponse{ID: "e-1", FormTemplateID: tplID}, nil
			})

		handler.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		env := decode(t, w)
		assert.True(t, env.Ok)
		assert.Contains(t, string(env.Data), `"id":"e-1"`)
	})

	t.Run("binding failure", func(t *testing.T) {
		c, w := newContext(http.MethodPost, "/employees", `{"field_values":[]}`)
		c.Set("user_id", userID)

		handler.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		assert.Equal(t, apperror.CodeInvalidInput, env.Error.Code)
		assert.Contains(t, string(env.Error.Details), "form_template_id")
	})

	t.Run("violations are returned as details", func(t *testing.T) {
		c, w := newContext(http.MethodPost, "/employees", `{"form_template_id":"`+uuid.NewString()+`"}`)
		c.Set("user_id", userID)

		vs := []fieldtype.Violation{{Field: "age", Rule: fieldtype.RuleMin, Message: "Age must be greater than or equal to 18"}}
		svc.EXPECT().Create(gomock.Any(), userID, gomock.Any()).
			Return(employee.EmployeeResponse{}, apperror.Validation(vs[0].Message, vs))

		handler.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		assert.Equal(t, vs[0].Message, env.Error.Message)

		var got []fieldtype.Violation
		require.NoError(t, json.Unmarshal(env.Error.Details, &got))
		assert.Equal(t, vs, got)
	})
}

func TestEmployeeHandler_GetAll(t *testing.T) {
	handler, svc := setupHandlerTest(t)

	t.Run("empty result uses message body", func(t *testing.T) {
		c, w := newContext(http.MethodGet, "/employees?search=zzz", "")
		svc.EXPECT().List(gomock.Any(), gomock.Any()).Return([]employee.EmployeeResponse{}, int64(0), nil)

		handler.GetAll(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"No employees available"}`, w.Body.String())
	})

	t.Run("filters are passed through", func(t *testing.T) {
		tplID := uuid.NewString()
		c, w := newContext(http.MethodGet, "/employees?form_template="+tplID+"&is_active=false&search=ann&page=2&page_size=1", "")
		svc.EXPECT().List(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, f employee.ListEmployeesFilter) ([]employee.EmployeeResponse, int64, error) {
				assert.Equal(t, tplID, f.FormTemplateID)
				require.NotNil(t, f.IsActive)
				assert.False(t, *f.IsActive)
				assert.Equal(t, "ann", f.Search)
				assert.Equal(t, 2, f.Page)
				assert.Equal(t, 1, f.PageSize)
				return []employee.EmployeeResponse{{ID: "e-2"}}, int64(3), nil
			})

		handler.GetAll(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decode(t, w)
		assert.Equal(t, float64(3), env.Meta["total"])
		assert.Equal(t, float64(3), env.Meta["totalPages"])
	})
}

func TestEmployeeHandler_GetById(t *testing.T) {
	handler, svc := setupHandlerTest(t)

	c, w := newContext(http.MethodGet, "/employees/x", "")
	c.Params = gin.Params{{Key: "id", Value: "x"}}
	svc.EXPECT().GetByID(gomock.Any(), "x").Return(employee.EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound)

	handler.GetById(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Employee not found", decode(t, w).Error.Message)
}

func TestEmployeeHandler_Update(t *testing.T) {
	handler, svc := setupHandlerTest(t)
	id := uuid.NewString()

	c, w := newContext(http.MethodPatch, "/employees/"+id, `{"is_active":false}`)
	c.Params = gin.Params{{Key: "id", Value: id}}
	svc.EXPECT().Update(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ any, _ string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
			assert.Nil(t, req.FieldValues)
			assert.Nil(t, req.FormTemplateID)
			return employee.EmployeeResponse{ID: id}, nil
		})

	handler.Update(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEmployeeHandler_Delete(t *testing.T) {
	handler, svc := setupHandlerTest(t)
	id := uuid.NewString()

	c, w := newContext(http.MethodDelete, "/employees/"+id, "")
	c.Params = gin.Params{{Key: "id", Value: id}}
	svc.EXPECT().Delete(gomock.Any(), id).Return(nil)

	handler.Delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":true}`, string(decode(t, w).Data))
}

func TestEmployeeHandler_Export(t *testing.T) {
	handler, svc := setupHandlerTest(t)

	t.Run("requires form_template", func(t *testing.T) {
		c, w := newContext(http.MethodGet, "/employees/export", "")

		handler.Export(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "form_template is required", decode(t, w).Error.Message)
	})

	t.Run("streams the workbook", func(t *testing.T) {
		id := uuid.NewString()
		c, w := newContext(http.MethodGet, "/employees/export?form_template="+id, "")
		svc.EXPECT().Export(gomock.Any(), id).Return(bytes.NewBufferString("xlsx"), "Onboarding_employees.xlsx", nil)

		handler.Export(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `attachment; filename="Onboarding_employees.xlsx"`, w.Header().Get("Content-Disposition"))
		assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
		assert.Equal(t, "xlsx", w.Body.String())
	})
}
