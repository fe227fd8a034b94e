package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/data/repos/testutil"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/domain/classroom"
	"github.com/yungbote/classroom-backend/internal/domain/user"
	"github.com/yungbote/classroom-backend/internal/pkg/pointers"
)

type classroomFixture struct {
	env      *testEnv
	svc      AssignmentService
	course   *types.Course
	teacher  *types.User
	alice    *types.User
	bob      *types.User
	outsider *types.User
}

func newClassroomFixture(t *testing.T) *classroomFixture {
	t.Helper()
	env := newTestEnv(t)
	f := &classroomFixture{
		env:      env,
		svc:      NewAssignmentService(env.db, env.log, env.guard, env.assignments, env.submissions),
		teacher:  testutil.SeedUser(t, env.ctx, env.db, user.RoleTeacher),
		alice:    testutil.SeedUser(t, env.ctx, env.db, user.RoleStudent),
		bob:      testutil.SeedUser(t, env.ctx, env.db, user.RoleStudent),
		outsider: testutil.SeedUser(t, env.ctx, env.db, user.RoleStudent),
	}
	f.course = testutil.SeedCourse(t, env.ctx, env.db, f.teacher.ID, nil)
	testutil.SeedEnrollment(t, env.ctx, env.db, f.course.ID, f.alice.ID, false)
	testutil.SeedEnrollment(t, env.ctx, env.db, f.course.ID, f.bob.ID, false)
	return f
}

func TestAssignmentCreateAndUpdate(t *testing.T) {
	f := newClassroomFixture(t)
	dbc := f.env.dbc()

	_, err := f.svc.Create(dbc, f.course.ID, AssignmentInput{BodyMD: pointers.String("no title")})
	wantValidation(t, err, "title is required")

	a, err := f.svc.Create(dbc, f.course.ID, AssignmentInput{
		Title:       pointers.String("Essay"),
		BodyMD:      pointers.String("Write 500 words"),
		DueAt:       pointers.Int64(1700000000),
		Attachments: map[string]any{"rubric": "r.pdf"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := f.svc.Update(dbc, f.teacher.Principal(), a.ID, AssignmentInput{DueAt: pointers.Int64(1800000000)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Essay" || pointers.Deref(updated.BodyMD) != "Write 500 words" || pointers.Deref(updated.DueAt) != 1800000000 {
		t.Fatalf("unset fields should be kept: %+v", updated)
	}
	if classroom.DecodeBag(updated.Attachments)["rubric"] != "r.pdf" {
		t.Fatalf("attachments: %s", string(updated.Attachments))
	}

	if _, err := f.svc.Update(dbc, f.alice.Principal(), a.ID, AssignmentInput{Title: pointers.String("mine")}); !IsAuthorization(err) {
		t.Fatalf("student update: want AuthorizationError, got %v", err)
	}
	if _, err := f.svc.Get(dbc, f.outsider.Principal(), a.ID); !IsAuthorization(err) {
		t.Fatalf("outsider get: want AuthorizationError, got %v", err)
	}
	if _, err := f.svc.Get(dbc, f.alice.Principal(), a.ID); err != nil {
		t.Fatalf("enrolled get: %v", err)
	}
	if _, err := f.svc.Get(dbc, f.alice.Principal(), uuid.New()); !IsNotFound(err) {
		t.Fatalf("missing assignment: want NotFoundError, got %v", err)
	}
}

func TestSubmissionVisibility(t *testing.T) {
	f := newClassroomFixture(t)
	dbc := f.env.dbc()
	a := testutil.SeedAssignment(t, f.env.ctx, f.env.db, f.course.ID)

	mine, err := f.svc.Submit(dbc, f.alice.Principal(), a.ID, SubmissionInput{Text: pointers.String("alice answer")})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if mine.Status != types.SubmissionSubmitted || mine.UserID != f.alice.ID {
		t.Fatalf("submission: %+v", mine)
	}
	if _, err := f.svc.Submit(dbc, f.bob.Principal(), a.ID, SubmissionInput{Text: pointers.String("bob answer")}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := f.svc.Submit(dbc, f.outsider.Principal(), a.ID, SubmissionInput{}); !IsAuthorization(err) {
		t.Fatalf("outsider submit: want AuthorizationError, got %v", err)
	}

	all, err := f.svc.ListSubmissions(dbc, f.teacher.Principal(), a.ID)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("teacher should see 2, got %d", len(all))
	}
	own, err := f.svc.ListSubmissions(dbc, f.alice.Principal(), a.ID)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(own) != 1 || own[0].ID != mine.ID {
		t.Fatalf("student should see only their own: %+v", own)
	}

	if _, err := f.svc.GetSubmission(dbc, f.bob.Principal(), mine.ID); !IsAuthorization(err) {
		t.Fatalf("peer get: want AuthorizationError, got %v", err)
	}
	if _, err := f.svc.GetSubmission(dbc, f.teacher.Principal(), mine.ID); err != nil {
		t.Fatalf("teacher get: %v", err)
	}
}

func TestSubmissionUpdateRules(t *testing.T) {
	f := newClassroomFixture(t)
	dbc := f.env.dbc()
	a := testutil.SeedAssignment(t, f.env.ctx, f.env.db, f.course.ID)
	sub := testutil.SeedSubmission(t, f.env.ctx, f.env.db, a.ID, f.alice.ID)

	// Students change text only; status and grade are ignored.
	got, err := f.svc.UpdateSubmission(dbc, f.alice.Principal(), sub.ID, SubmissionInput{
		Text:   pointers.String("revised"),
		Status: pointers.String("returned"),
		Grade:  map[string]any{"score": 100},
	})
	if err != nil {
		t.Fatalf("student update: %v", err)
	}
	if pointers.Deref(got.Text) != "revised" || got.Status != types.SubmissionSubmitted || len(classroom.DecodeBag(got.Grade)) != 0 {
		t.Fatalf("student update leaked teacher fields: %+v", got)
	}

	if _, err := f.svc.UpdateSubmission(dbc, f.bob.Principal(), sub.ID, SubmissionInput{Text: pointers.String("hijack")}); !IsAuthorization(err) {
		t.Fatalf("peer update: want AuthorizationError, got %v", err)
	}

	_, err = f.svc.UpdateSubmission(dbc, f.teacher.Principal(), sub.ID, SubmissionInput{Status: pointers.String("graded")})
	wantValidation(t, err, "invalid status")

	graded, err := f.svc.UpdateSubmission(dbc, f.teacher.Principal(), sub.ID, SubmissionInput{
		Status: pointers.String("returned"),
		Grade:  map[string]any{"score": float64(92)},
	})
	if err != nil {
		t.Fatalf("teacher update: %v", err)
	}
	if graded.Status != types.SubmissionReturned || classroom.DecodeBag(graded.Grade)["score"] != float64(92) {
		t.Fatalf("teacher update: %+v", graded)
	}

	if _, err := f.svc.UpdateSubmission(dbc, f.alice.Principal(), sub.ID, SubmissionInput{Text: pointers.String("late edit")}); !IsAuthorization(err) {
		t.Fatalf("edit after return: want AuthorizationError, got %v", err)
	}
}

func TestSubmissionDeleteRules(t *testing.T) {
	f := newClassroomFixture(t)
	dbc := f.env.dbc()
	a := testutil.SeedAssignment(t, f.env.ctx, f.env.db, f.course.ID)

	open := testutil.SeedSubmission(t, f.env.ctx, f.env.db, a.ID, f.alice.ID)
	returned := testutil.SeedSubmission(t, f.env.ctx, f.env.db, a.ID, f.alice.ID)
	if err := f.env.submissions.UpdateFields(f.env.ctx, nil, returned.ID, map[string]interface{}{"status": types.SubmissionReturned}); err != nil {
		t.Fatalf("mark returned: %v", err)
	}

	if err := f.svc.DeleteSubmission(dbc, f.bob.Principal(), open.ID); !IsAuthorization(err) {
		t.Fatalf("peer delete: want AuthorizationError, got %v", err)
	}
	if err := f.svc.DeleteSubmission(dbc, f.alice.Principal(), returned.ID); !IsAuthorization(err) {
		t.Fatalf("owner delete after return: want AuthorizationError, got %v", err)
	}
	if err := f.svc.DeleteSubmission(dbc, f.alice.Principal(), open.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := f.svc.DeleteSubmission(dbc, f.teacher.Principal(), returned.ID); err != nil {
		t.Fatalf("teacher delete: %v", err)
	}
	if _, err := f.svc.GetSubmission(dbc, f.teacher.Principal(), open.ID); !IsNotFound(err) {
		t.Fatalf("deleted submission: want NotFoundError, got %v", err)
	}
}

func TestAssignmentDeleteRemovesSubmissions(t *testing.T) {
	f := newClassroomFixture(t)
	dbc := f.env.dbc()
	a := testutil.SeedAssignment(t, f.env.ctx, f.env.db, f.course.ID)
	sub := testutil.SeedSubmission(t, f.env.ctx, f.env.db, a.ID, f.alice.ID)

	if err := f.svc.Delete(dbc, f.alice.Principal(), a.ID); !IsAuthorization(err) {
		t.Fatalf("student delete: want AuthorizationError, got %v", err)
	}
	if err := f.svc.Delete(dbc, f.teacher.Principal(), a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s, _ := f.env.submissions.GetByID(f.env.ctx, nil, sub.ID); s != nil {
		t.Fatalf("submission survived its assignment")
	}
	if err := f.svc.Delete(dbc, f.teacher.Principal(), a.ID); !IsNotFound(err) {
		t.Fatalf("second delete: want NotFoundError, got %v", err)
	}
}
