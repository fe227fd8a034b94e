package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/data/repos/testutil"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/domain/user"
)

func TestGuardCheckCapability(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.SeedUser(t, env.ctx, env.db, user.RoleTeacher)
	ta := testutil.SeedUser(t, env.ctx, env.db, user.RoleStudent)
	student := testutil.SeedUser(t, env.ctx, env.db, user.RoleStudent)
	stranger := testutil.SeedUser(t, env.ctx, env.db, user.RoleTeacher)
	admin := testutil.SeedUser(t, env.ctx, env.db, user.RoleAdmin)
	course := testutil.SeedCourse(t, env.ctx, env.db, owner.ID, nil)
	testutil.SeedEnrollment(t, env.ctx, env.db, course.ID, ta.ID, true)
	testutil.SeedEnrollment(t, env.ctx, env.db, course.ID, student.ID, false)

	cases := []struct {
		name    string
		who     types.Principal
		course  uuid.UUID
		cap     CourseCapability
		allowed bool
	}{
		{"admin enrolled", admin.Principal(), course.ID, CapEnrolled, true},
		{"admin admin", admin.Principal(), course.ID, CapAdmin, true},
		{"admin on missing course", admin.Principal(), uuid.New(), CapTeach, true},
		{"creator teaches", owner.Principal(), course.ID, CapTeach, true},
		{"creator not admin", owner.Principal(), course.ID, CapAdmin, false},
		{"teacher enrollment teaches", ta.Principal(), course.ID, CapTeach, true},
		{"student enrolled", student.Principal(), course.ID, CapEnrolled, true},
		{"student cannot teach", student.Principal(), course.ID, CapTeach, false},
		{"stranger not enrolled", stranger.Principal(), course.ID, CapEnrolled, false},
		{"missing course", student.Principal(), uuid.New(), CapEnrolled, false},
		{"anonymous", types.Principal{}, course.ID, CapEnrolled, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := env.guard.CheckCapability(env.dbc(), tc.who, tc.course, tc.cap)
			if tc.allowed {
				if err != nil {
					t.Fatalf("want allowed, got %v", err)
				}
				if got.ID != tc.who.ID {
					t.Fatalf("principal not returned unchanged")
				}
				return
			}
			if !IsAuthorization(err) {
				t.Fatalf("want AuthorizationError, got %v", err)
			}
		})
	}
}

func TestGuardMissingCourseLooksLikeMissingEnrollment(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.SeedUser(t, env.ctx, env.db, user.RoleTeacher)
	student := testutil.SeedUser(t, env.ctx, env.db, user.RoleStudent)
	course := testutil.SeedCourse(t, env.ctx, env.db, owner.ID, nil)

	_, errExisting := env.guard.CheckCapability(env.dbc(), student.Principal(), course.ID, CapEnrolled)
	_, errMissing := env.guard.CheckCapability(env.dbc(), student.Principal(), uuid.New(), CapEnrolled)
	if errExisting == nil || errMissing == nil || errExisting.Error() != errMissing.Error() {
		t.Fatalf("errors should be indistinguishable: %v vs %v", errExisting, errMissing)
	}
}

func TestGuardRequireRole(t *testing.T) {
	env := newTestEnv(t)
	for _, tc := range []struct {
		role    user.Role
		allowed bool
	}{
		{user.RoleAdmin, true},
		{user.RoleTeacher, true},
		{user.RoleStudent, false},
		{user.RoleUser, false},
		{user.RolePending, false},
	} {
		err := env.guard.RequireRole(types.Principal{ID: uuid.New(), Role: tc.role}, user.CapInstruct)
		if tc.allowed && err != nil {
			t.Fatalf("%s: want allowed, got %v", tc.role, err)
		}
		if !tc.allowed && !IsAuthorization(err) {
			t.Fatalf("%s: want AuthorizationError, got %v", tc.role, err)
		}
	}
}
