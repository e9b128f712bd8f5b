package formtemplate

import (
	"encoding/json"
	"time"
)

type FieldRequest struct {
	FieldName       string          `json:"field_name" binding:"max=255"`
	FieldLabel      string          `json:"field_label" binding:"max=255"`
	FieldType       string          `json:"field_type"`
	IsRequired      bool            `json:"is_required"`
	FieldOrder      int             `json:"field_order"`
	FieldOptions    json.RawMessage `json:"field_options"`
	ValidationRules json.RawMessage `json:"validation_rules"`
}

type CreateFormTemplateRequest struct {
	Name        string         `json:"name" binding:"max=255"`
	Description string         `json:"description"`
	IsActive    *bool          `json:"is_active"`
	Fields      []FieldRequest `json:"fields" binding:"dive"`
}

// UpdateFormTemplateRequest patches name, description and is_active when
// present. Fields always replace the whole list; omitting them clears it.
type UpdateFormTemplateRequest struct {
	Name        *string        `json:"name" binding:"omitempty,max=255"`
	Description *string        `json:"description"`
	IsActive    *bool          `json:"is_active"`
	Fields      []FieldRequest `json:"fields" binding:"dive"`
}

type ListFormTemplatesFilter struct {
	Search   string
	IsActive *bool
	Page     int
	PageSize int
}

type FieldResponse struct {
	ID              string          `json:"id"`
	FieldName       string          `json:"field_name"`
	FieldLabel      string          `json:"field_label"`
	FieldType       string          `json:"field_type"`
	IsRequired      bool            `json:"is_required"`
	FieldOrder      int             `json:"field_order"`
	FieldOptions    json.RawMessage `json:"field_options"`
	ValidationRules json.RawMessage `json:"validation_rules"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type FormTemplateResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	IsActive    bool            `json:"is_active"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Fields      []FieldResponse `json:"fields"`
}
