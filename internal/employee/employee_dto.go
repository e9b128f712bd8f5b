package employee

import (
	"encoding/json"
	"time"
)

type FieldValueRequest struct {
	FormFieldID string          `json:"form_field_id" binding:"required"`
	FieldValue  json.RawMessage `json:"field_value"`
}

type CreateEmployeeRequest struct {
	FormTemplateID string              `json:"form_template_id" binding:"required"`
	IsActive       *bool               `json:"is_active"`
	FieldValues    []FieldValueRequest `json:"field_values" binding:"dive"`
}

// UpdateEmployeeRequest keeps the current template and is_active when they
// are omitted. field_values always replaces the stored values; omitting it
// clears them.
type UpdateEmployeeRequest struct {
	FormTemplateID *string             `json:"form_template_id"`
	IsActive       *bool               `json:"is_active"`
	FieldValues    []FieldValueRequest `json:"field_values" binding:"dive"`
}

type ListEmployeesFilter struct {
	FormTemplateID string
	IsActive       *bool
	Search         string
	Page           int
	PageSize       int
}

type FieldValueResponse struct {
	ID          string `json:"id"`
	FormFieldID string `json:"form_field_id"`
	FieldName   string `json:"field_name,omitempty"`
	FieldLabel  string `json:"field_label,omitempty"`
	FieldType   string `json:"field_type,omitempty"`
	FieldValue  string `json:"field_value"`
}

type EmployeeResponse struct {
	ID             string               `json:"id"`
	FormTemplateID string               `json:"form_template_id"`
	CreatedBy      *string              `json:"created_by"`
	IsActive       bool                 `json:"is_active"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	FieldValues    []FieldValueResponse `json:"field_values"`
}
