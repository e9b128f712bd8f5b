package scope

import (
	"strings"

	"gorm.io/gorm"
)

// Active filters on is_active when a value was supplied.
func Active(table string, isActive *bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if isActive == nil {
			return db
		}
		return db.Where(column(table, "is_active")+" = ?", *isActive)
	}
}

// Contains is a case-insensitive substring match on one column.
func Contains(col, term string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" {
			return db
		}
		return db.Where(col+" ILIKE ?", "%"+EscapeLike(term)+"%")
	}
}

// Paginate applies LIMIT/OFFSET. A non-positive size leaves the query
// unbounded.
func Paginate(page, size int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if size <= 0 {
			return db
		}
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * size).Limit(size)
	}
}

// EscapeLike escapes the LIKE wildcards so user input matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func column(table, col string) string {
	if table == "" {
		return col
	}
	return table + "." + col
}
