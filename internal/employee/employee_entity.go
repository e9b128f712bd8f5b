package employee

import (
	"sort"
	"time"

	"github.com/Abhinav7558/employee-management-system/internal/formtemplate"

	"github.com/google/uuid"
)

// Employee is one filled-in instance of a form template.
type Employee struct {
	ID             uuid.UUID            `gorm:"type:uuid;primaryKey"`
	FormTemplateID uuid.UUID            `gorm:"type:uuid;column:form_template_id"`
	CreatedBy      *uuid.UUID           `gorm:"type:uuid;column:created_by"`
	IsActive       bool                 `gorm:"column:is_active"`
	CreatedAt      time.Time            `gorm:"column:created_at"`
	UpdatedAt      time.Time            `gorm:"column:updated_at"`
	FieldValues    []EmployeeFieldValue `gorm:"foreignKey:EmployeeID"`
}

func (Employee) TableName() string { return "employees" }

type EmployeeFieldValue struct {
	ID          uuid.UUID               `gorm:"type:uuid;primaryKey"`
	EmployeeID  uuid.UUID               `gorm:"type:uuid;column:employee_id"`
	FormFieldID uuid.UUID               `gorm:"type:uuid;column:form_field_id"`
	FieldValue  string                  `gorm:"column:field_value"`
	CreatedAt   time.Time               `gorm:"column:created_at"`
	UpdatedAt   time.Time               `gorm:"column:updated_at"`
	FormField   *formtemplate.FormField `gorm:"foreignKey:FormFieldID"`
}

func (EmployeeFieldValue) TableName() string { return "employee_field_values" }

// ValueByField indexes the employee's values by form field id.
func (e Employee) ValueByField() map[uuid.UUID]string {
	out := make(map[uuid.UUID]string, len(e.FieldValues))
	for _, v := range e.FieldValues {
		out[v.FormFieldID] = v.FieldValue
	}
	return out
}

// sortValues orders values the way their fields are ordered on the template.
// Values whose field was not loaded go last.
func sortValues(values []EmployeeFieldValue) {
	sort.SliceStable(values, func(i, j int) bool {
		a, b := values[i].FormField, values[j].FormField
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		case a.FieldOrder != b.FieldOrder:
			return a.FieldOrder < b.FieldOrder
		default:
			return a.Position < b.Position
		}
	})
}
