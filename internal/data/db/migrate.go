package db

import (
	"fmt"

	types "github.com/yungbote/classroom-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return err
	}
	return EnsureClassroomIndexes(db)
}

// EnsureClassroomIndexes adds indexes gorm tags cannot express. Both postgres
// and sqlite accept the statements as written.
func EnsureClassroomIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_course_preset_course_default", `CREATE INDEX IF NOT EXISTS idx_course_preset_course_default ON course_preset (course_id, is_default)`},
		{"idx_course_material_course_created", `CREATE INDEX IF NOT EXISTS idx_course_material_course_created ON course_material (course_id, created_at DESC)`},
		{"idx_submission_assignment_user", `CREATE INDEX IF NOT EXISTS idx_submission_assignment_user ON submission (assignment_id, user_id)`},
	}
	for _, st := range stmts {
		if err := db.Exec(st.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", st.name, err)
		}
	}
	return nil
}
