package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/data/repos/testutil"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/domain/user"
	"github.com/yungbote/classroom-backend/internal/pkg/pointers"
)

func TestFeatureFlagPrecedence(t *testing.T) {
	env := newTestEnv(t)

	ff := NewFeatureFlagService(env.log, env.settings, nil)
	if on, err := ff.ClassroomEnabled(env.ctx); err != nil || on {
		t.Fatalf("default should be disabled: on=%v err=%v", on, err)
	}
	got, err := ff.SetClassroom(env.ctx, true)
	if err != nil {
		t.Fatalf("SetClassroom: %v", err)
	}
	if !got.Enabled || !got.Persisted || got.EnvOverride != nil {
		t.Fatalf("after enabling: %+v", got)
	}
	if on, _ := ff.ClassroomEnabled(env.ctx); !on {
		t.Fatalf("persisted value should apply")
	}

	off := NewFeatureFlagService(env.log, env.settings, pointers.Bool(false))
	if on, _ := off.ClassroomEnabled(env.ctx); on {
		t.Fatalf("env override should win over the persisted value")
	}
	setting, err := off.ClassroomSetting(env.ctx)
	if err != nil {
		t.Fatalf("ClassroomSetting: %v", err)
	}
	if setting.Enabled || !setting.Persisted || setting.EnvOverride == nil || *setting.EnvOverride {
		t.Fatalf("setting under override: %+v", setting)
	}
}

func TestEnrollmentAddUpsertsAndRemove(t *testing.T) {
	env := newTestEnv(t)
	svc := NewEnrollmentService(env.log, env.enrollments, env.users)
	teacher := testutil.SeedUser(t, env.ctx, env.db, user.RoleTeacher)
	student := testutil.SeedUser(t, env.ctx, env.db, user.RoleStudent)
	course := testutil.SeedCourse(t, env.ctx, env.db, teacher.ID, nil)

	if _, err := svc.Add(env.dbc(), course.ID, uuid.New(), false); !IsValidation(err) {
		t.Fatalf("unknown user: want ValidationError, got %v", err)
	}
	if _, err := svc.Add(env.dbc(), course.ID, student.ID, false); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := svc.Add(env.dbc(), course.ID, student.ID, true); err != nil {
		t.Fatalf("Add again: %v", err)
	}
	rows, err := svc.List(env.dbc(), course.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 1 || !rows[0].IsTeacher {
		t.Fatalf("second add should flip is_teacher on the same row: %+v", rows)
	}

	if err := svc.Remove(env.dbc(), course.ID, student.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := svc.Remove(env.dbc(), course.ID, student.ID); !IsNotFound(err) {
		t.Fatalf("second remove: want NotFoundError, got %v", err)
	}
}

func TestFeedbackSubmitAndList(t *testing.T) {
	env := newTestEnv(t)
	svc := NewFeedbackService(env.log, env.feedback, env.users)
	teacher := testutil.SeedUser(t, env.ctx, env.db, user.RoleTeacher)
	student := testutil.SeedUser(t, env.ctx, env.db, user.RoleStudent)
	course := testutil.SeedCourse(t, env.ctx, env.db, teacher.ID, nil)

	_, err := svc.Submit(env.dbc(), student.Principal(), course.ID, "   ")
	wantValidation(t, err, "content is required")
	_, err = svc.Submit(env.dbc(), student.Principal(), course.ID, strings.Repeat("x", maxFeedbackLen+1))
	wantValidation(t, err, "at most")

	if _, err := svc.Submit(env.dbc(), student.Principal(), course.ID, "  Loved the labs  "); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	ghost := types.Principal{ID: uuid.New(), Role: user.RoleStudent}
	if _, err := svc.Submit(env.dbc(), ghost, course.ID, "who am i"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	entries, err := svc.List(env.dbc(), course.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}
	names := map[uuid.UUID]string{}
	for _, e := range entries {
		names[e.UserID] = e.UserName
		if e.UserID == student.ID && e.Content != "Loved the labs" {
			t.Fatalf("content not trimmed: %q", e.Content)
		}
	}
	if names[student.ID] != student.Name || names[ghost.ID] != "Unknown User" {
		t.Fatalf("names: %+v", names)
	}
}

func TestChatComplete(t *testing.T) {
	env := newTestEnv(t)
	svc := NewChatService(env.log, env.courses, env.presets)
	teacher := testutil.SeedUser(t, env.ctx, env.db, user.RoleTeacher)
	course := testutil.SeedCourse(t, env.ctx, env.db, teacher.ID, nil)
	msgs := []ChatMessage{{Role: "user", Content: "What is osmosis?"}}

	_, err := svc.Complete(env.dbc(), course.ID, []ChatMessage{{Role: "user"}})
	wantValidation(t, err, "role and content are required")

	if _, err := svc.Complete(env.dbc(), uuid.New(), msgs); !IsNotFound(err) {
		t.Fatalf("unknown course: want NotFoundError, got %v", err)
	}
	if _, err := svc.Complete(env.dbc(), course.ID, msgs); !IsAuthorization(err) {
		t.Fatalf("draft course: want AuthorizationError, got %v", err)
	}

	if err := env.courses.UpdateFields(env.ctx, nil, course.ID, map[string]interface{}{"status": types.CourseStatusActive}); err != nil {
		t.Fatalf("activate: %v", err)
	}
	_, err = svc.Complete(env.dbc(), course.ID, msgs)
	wantValidation(t, err, "preset not configured")

	if _, err := env.presets.Create(env.ctx, nil, &types.Preset{
		CourseID:    course.ID,
		Provider:    pointers.String("openai"),
		ModelID:     pointers.String("m1"),
		Temperature: pointers.Float64(0.3),
		MaxTokens:   pointers.Int(512),
	}); err != nil {
		t.Fatalf("seed preset: %v", err)
	}
	out, err := svc.Complete(env.dbc(), course.ID, msgs)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Object != "chat.completion" || len(out.Choices) != 0 {
		t.Fatalf("response shape: %+v", out)
	}
	if pointers.Deref(out.Preset.ModelID) != "m1" || pointers.Deref(out.Preset.MaxTokens) != 512 {
		t.Fatalf("preset echo: %+v", out.Preset)
	}
}

func TestCollectionNames(t *testing.T) {
	id := uuid.MustParse("2b1f7c0e-3d4a-4f5b-8c6d-7e8f9a0b1c2d")
	name := CollectionName(id)
	if name != "course-2b1f7c0e-3d4a-4f5b-8c6d-7e8f9a0b1c2d" {
		t.Fatalf("CollectionName: %q", name)
	}
	if CollectionName(id) != name {
		t.Fatalf("CollectionName is not deterministic")
	}
	if len(name) > MaxCollectionNameLen {
		t.Fatalf("name too long: %d", len(name))
	}
	long := strings.Repeat("k", 100)
	if got := KnowledgeCollectionName(long); len(got) != MaxCollectionNameLen {
		t.Fatalf("knowledge name not truncated: %d", len(got))
	}
}
