package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/domain/classroom"
	"github.com/yungbote/classroom-backend/internal/domain/user"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, role user.Role) *types.User {
	tb.Helper()
	u := &types.User{
		ID:    uuid.New(),
		Email: uuid.NewString() + "@example.com",
		Name:  role.String() + " user",
		Role:  role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, createdBy uuid.UUID, meta map[string]any) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:        uuid.New(),
		Title:     "Intro to Testing",
		Status:    types.CourseStatusDraft,
		CreatedBy: createdBy,
		Meta:      classroom.EncodeBag(meta),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID, userID uuid.UUID, isTeacher bool) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{CourseID: courseID, UserID: userID, IsTeacher: isTeacher}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedFile(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, path string, data map[string]any) *types.File {
	tb.Helper()
	f := &types.File{
		ID:       uuid.New(),
		UserID:   userID,
		Filename: "notes.txt",
		Path:     path,
		Data:     classroom.EncodeBag(data),
		Meta:     classroom.EncodeBag(map[string]any{"content_type": "text/plain"}),
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed file: %v", err)
	}
	return f
}

func SeedKnowledge(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Knowledge {
	tb.Helper()
	k := &types.Knowledge{ID: uuid.New(), UserID: userID, Name: "course kb"}
	if err := tx.WithContext(ctx).Create(k).Error; err != nil {
		tb.Fatalf("seed knowledge: %v", err)
	}
	return k
}

func SeedModel(tb testing.TB, ctx context.Context, tx *gorm.DB, id string) *types.Model {
	tb.Helper()
	m := &types.Model{ID: id, Name: id, Provider: "openai"}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed model: %v", err)
	}
	return m
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID) *types.Assignment {
	tb.Helper()
	a := &types.Assignment{ID: uuid.New(), CourseID: courseID, Title: "Homework 1"}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}

func SeedSubmission(tb testing.TB, ctx context.Context, tx *gorm.DB, assignmentID, userID uuid.UUID) *types.Submission {
	tb.Helper()
	text := "my answer"
	s := &types.Submission{ID: uuid.New(), AssignmentID: assignmentID, UserID: userID, Text: &text}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed submission: %v", err)
	}
	return s
}
