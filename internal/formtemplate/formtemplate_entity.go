package formtemplate

import (
	"sort"
	"time"

	"github.com/Abhinav7558/employee-management-system/internal/fieldtype"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type FormTemplate struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name        string      `gorm:"column:name"`
	Description string      `gorm:"column:description"`
	IsActive    bool        `gorm:"column:is_active"`
	CreatedBy   uuid.UUID   `gorm:"type:uuid;column:created_by"`
	CreatedAt   time.Time   `gorm:"column:created_at"`
	UpdatedAt   time.Time   `gorm:"column:updated_at"`
	Fields      []FormField `gorm:"foreignKey:FormTemplateID"`
}

func (FormTemplate) TableName() string { return "form_templates" }

// FormField is one typed input of a template. Position records the index the
// field had in the submitted list and breaks field_order ties.
type FormField struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	FormTemplateID  uuid.UUID      `gorm:"type:uuid;column:form_template_id"`
	FieldName       string         `gorm:"column:field_name"`
	FieldLabel      string         `gorm:"column:field_label"`
	FieldType       fieldtype.Type `gorm:"column:field_type;type:varchar(20)"`
	IsRequired      bool           `gorm:"column:is_required"`
	FieldOrder      int            `gorm:"column:field_order"`
	Position        int            `gorm:"column:position"`
	FieldOptions    datatypes.JSON `gorm:"column:field_options"`
	ValidationRules datatypes.JSON `gorm:"column:validation_rules"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
}

func (FormField) TableName() string { return "form_fields" }

// Spec is the registry view of the field.
func (f FormField) Spec() fieldtype.Field {
	return fieldtype.Field{
		ID:       f.ID.String(),
		Name:     f.FieldName,
		Label:    f.FieldLabel,
		Type:     f.FieldType,
		Required: f.IsRequired,
		Options:  f.FieldOptions,
		Rules:    f.ValidationRules,
	}
}

// SortFields orders fields by field_order, then by submission position.
func SortFields(fields []FormField) {
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].FieldOrder != fields[j].FieldOrder {
			return fields[i].FieldOrder < fields[j].FieldOrder
		}
		return fields[i].Position < fields[j].Position
	})
}

// FieldByID indexes the template's fields by id.
func (t FormTemplate) FieldByID() map[uuid.UUID]FormField {
	out := make(map[uuid.UUID]FormField, len(t.Fields))
	for _, f := range t.Fields {
		out[f.ID] = f
	}
	return out
}
