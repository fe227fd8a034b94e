package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/repos"
	"github.com/yungbote/classroom-backend/internal/data/repos/testutil"
	"github.com/yungbote/classroom-backend/internal/pkg/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/platform/qdrant"
)

const testVectorDim = 16

// testEnv wires real repos over a private sqlite database and an in-memory
// vector store.
type testEnv struct {
	ctx   context.Context
	db    *gorm.DB
	log   *logger.Logger
	store *qdrant.MemoryStore

	users       repos.UserRepo
	courses     repos.CourseRepo
	enrollments repos.EnrollmentRepo
	presets     repos.PresetRepo
	materials   repos.MaterialRepo
	assignments repos.AssignmentRepo
	submissions repos.SubmissionRepo
	feedback    repos.FeedbackRepo
	files       repos.FileRepo
	knowledge   repos.KnowledgeRepo
	models      repos.ModelRepo
	settings    repos.AppSettingRepo

	guard   Guard
	vectors *VectorIndex
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.FreshDB(t)
	log := testutil.Logger(t)
	store := qdrant.NewMemoryStore(testVectorDim)
	env := &testEnv{
		ctx:         context.Background(),
		db:          db,
		log:         log,
		store:       store,
		users:       repos.NewUserRepo(db, log),
		courses:     repos.NewCourseRepo(db, log),
		enrollments: repos.NewEnrollmentRepo(db, log),
		presets:     repos.NewPresetRepo(db, log),
		materials:   repos.NewMaterialRepo(db, log),
		assignments: repos.NewAssignmentRepo(db, log),
		submissions: repos.NewSubmissionRepo(db, log),
		feedback:    repos.NewFeedbackRepo(db, log),
		files:       repos.NewFileRepo(db, log),
		knowledge:   repos.NewKnowledgeRepo(db, log),
		models:      repos.NewModelRepo(db, log),
		settings:    repos.NewAppSettingRepo(db, log),
	}
	env.guard = NewGuard(log, env.courses, env.enrollments)
	env.vectors = NewVectorIndex(log, store, HashEmbedder{Dim: testVectorDim})
	return env
}

func (e *testEnv) dbc() dbctx.Context { return dbctx.Context{Ctx: e.ctx} }

func (e *testEnv) courseDeps() CourseDeps {
	return CourseDeps{
		Courses:     e.courses,
		Enrollments: e.enrollments,
		Presets:     e.presets,
		Materials:   e.materials,
		Assignments: e.assignments,
		Submissions: e.submissions,
		Feedback:    e.feedback,
		Files:       e.files,
		Knowledge:   e.knowledge,
		Models:      e.models,
	}
}

func (e *testEnv) presetManager(t *testing.T) PresetManager {
	t.Helper()
	pm, err := NewPresetManager(e.db, e.log, e.presets, e.knowledge, nil)
	if err != nil {
		t.Fatalf("NewPresetManager: %v", err)
	}
	return pm
}

// failingStore is a vector store whose drops and deletes always fail.
type failingStore struct {
	*qdrant.MemoryStore
	calls int
}

var errStoreDown = errors.New("vector store unavailable")

func (f *failingStore) DeleteCollection(ctx context.Context, name string) error {
	f.calls++
	return errStoreDown
}

func (f *failingStore) DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error {
	f.calls++
	return errStoreDown
}

func wantValidation(t *testing.T, err error, contains string) {
	t.Helper()
	if !IsValidation(err) {
		t.Fatalf("want ValidationError containing %q, got %T: %v", contains, err, err)
	}
	if !strings.Contains(err.Error(), contains) {
		t.Fatalf("want error containing %q, got %q", contains, err.Error())
	}
}
