package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/domain/classroom"
	"github.com/yungbote/classroom-backend/internal/domain/user"
	"github.com/yungbote/classroom-backend/internal/observability"
	"github.com/yungbote/classroom-backend/internal/pkg/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/ctxutil"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

const maxCourseTitleLen = 512

type CreateCourseInput struct {
	Title       string
	Description string
	Meta        map[string]any
	BaseModelID string
	FileIDs     []uuid.UUID
}

// UpdateCourseInput is a partial update; Meta is shallow-merged.
type UpdateCourseInput struct {
	Title       *string
	Description *string
	Status      *string
	Meta        map[string]any
}

type CourseService interface {
	Create(dbc dbctx.Context, p types.Principal, in CreateCourseInput) (*types.Course, error)
	List(dbc dbctx.Context, p types.Principal) ([]*types.Course, error)
	Get(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error)
	Update(dbc dbctx.Context, p types.Principal, courseID uuid.UUID, in UpdateCourseInput) (*types.Course, error)
	Activate(dbc dbctx.Context, p types.Principal, courseID uuid.UUID) (types.CourseStatus, error)
	Archive(dbc dbctx.Context, courseID uuid.UUID) (types.CourseStatus, error)
	Delete(dbc dbctx.Context, courseID uuid.UUID) error
}

type courseService struct {
	db          *gorm.DB
	log         *logger.Logger
	guard       Guard
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
	vectors     *VectorIndex
}

// CourseDeps groups the repositories the course lifecycle touches.
type CourseDeps struct {
	Courses     repos.CourseRepo
	Enrollments repos.EnrollmentRepo
	Presets     repos.PresetRepo
	Materials   repos.MaterialRepo
	Assignments repos.AssignmentRepo
	Submissions repos.SubmissionRepo
	Feedback    repos.FeedbackRepo
	Files       repos.FileRepo
	Knowledge   repos.KnowledgeRepo
	Models      repos.ModelRepo
}

func NewCourseService(db *gorm.DB, baseLog *logger.Logger, guard Guard, deps CourseDeps, vectors *VectorIndex) CourseService {
	return &courseService{
		db:          db,
		log:         baseLog.With("service", "CourseService"),
		guard:       guard,
		courses:     deps.Courses,
		enrollments: deps.Enrollments,
		presets:     deps.Presets,
		materials:   deps.Materials,
		assignments: deps.Assignments,
		submissions: deps.Submissions,
		feedback:    deps.Feedback,
		files:       deps.Files,
		knowledge:   deps.Knowledge,
		models:      deps.Models,
		vectors:     vectors,
	}
}

// =====================================
// Create / read
// =====================================

func (cs *courseService) Create(dbc dbctx.Context, p types.Principal, in CreateCourseInput) (*types.Course, error) {
	if err := cs.guard.RequireRole(p, user.CapInstruct); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	baseModelID := strings.TrimSpace(in.BaseModelID)
	if baseModelID == "" {
		return nil, invalid("base_model_id is required")
	}
	fileIDs := dedupeIDs(in.FileIDs)
	if len(fileIDs) == 0 {
		return nil, invalid("at least one file is required")
	}

	model, err := cs.models.GetByID(dbc.Ctx, dbc.Tx, baseModelID)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, invalid("unknown base_model_id %q", baseModelID)
	}
	found, err := cs.files.GetByIDs(dbc.Ctx, dbc.Tx, fileIDs)
	if err != nil {
		return nil, err
	}
	if missing := missingIDs(fileIDs, found); len(missing) > 0 {
		return nil, invalid("unknown file_id %s", missing[0])
	}

	fileIDStrings := make([]string, len(fileIDs))
	for i, id := range fileIDs {
		fileIDStrings[i] = id.String()
	}

	var out *types.Course
	err = dbc.InTx(cs.db, func(tx *gorm.DB) error {
		kb, err := cs.knowledge.Create(dbc.Ctx, tx, &types.Knowledge{
			UserID:      p.ID,
			Name:        title,
			Description: in.Description,
			Data:        classroom.EncodeBag(map[string]any{"file_ids": fileIDStrings}),
		})
		if err != nil {
			return fmt.Errorf("create knowledge: %w", err)
		}

		meta := withoutReservedMeta(in.Meta)
		meta[classroom.MetaBaseModelID] = baseModelID
		meta[classroom.MetaKnowledgeID] = kb.ID.String()
		meta[classroom.MetaFileIDs] = fileIDStrings

		created, err := cs.courses.Create(dbc.Ctx, tx, []*types.Course{{
			Title:       title,
			Description: in.Description,
			Status:      types.CourseStatusDraft,
			CreatedBy:   p.ID,
			Meta:        classroom.EncodeBag(meta),
		}})
		if err != nil {
			return fmt.Errorf("create course: %w", err)
		}
		out = created[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.log.Info("course created", "course_id", out.ID, "created_by", p.ID, "files", len(fileIDs))
	return out, nil
}

// List returns what p may see, newest first: everything for admins, otherwise
// owned, enrolled and publicly visible courses.
func (cs *courseService) List(dbc dbctx.Context, p types.Principal) ([]*types.Course, error) {
	all, err := cs.courses.ListAll(dbc.Ctx, dbc.Tx)
	if err != nil {
		return nil, err
	}
	if p.IsAdmin() {
		return all, nil
	}
	enrolled, err := cs.enrollments.ListCourseIDsByUser(dbc.Ctx, dbc.Tx, p.ID)
	if err != nil {
		return nil, err
	}
	member := make(map[uuid.UUID]bool, len(enrolled))
	for _, id := range enrolled {
		member[id] = true
	}
	out := make([]*types.Course, 0, len(all))
	for _, c := range all {
		if c.CreatedBy == p.ID || member[c.ID] || c.Visible() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (cs *courseService) Get(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error) {
	c, err := cs.courses.GetByID(dbc.Ctx, dbc.Tx, courseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, notFound("course")
	}
	return c, nil
}

// =====================================
// Update / lifecycle
// =====================================

func (cs *courseService) Update(dbc dbctx.Context, p types.Principal, courseID uuid.UUID, in UpdateCourseInput) (*types.Course, error) {
	cur, err := cs.Get(dbc, courseID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		next := types.CourseStatus(strings.ToLower(strings.TrimSpace(*in.Status)))
		if err := checkTransition(p, cur.Status, next); err != nil {
			return nil, err
		}
		if next != cur.Status {
			updates["status"] = next
		}
	}
	if in.Meta != nil {
		if err := checkReservedMeta(cur, in.Meta); err != nil {
			return nil, err
		}
		updates["meta"] = classroom.MergeBag(cur.Meta, withoutReservedMeta(in.Meta))
	}
	if len(updates) == 0 {
		return cur, nil
	}

	if err := cs.courses.UpdateFields(dbc.Ctx, dbc.Tx, courseID, updates); err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	return cs.Get(dbc, courseID)
}

// checkTransition enforces the lifecycle for direct status edits. Activation
// has its own entry point because it must validate the default preset.
func checkTransition(p types.Principal, from, to types.CourseStatus) error {
	if !to.Valid() {
		return invalid("invalid status %q: must be one of draft, active, archived", string(to))
	}
	if from == to {
		return nil
	}
	if from.IsBackward(to) {
		if !p.IsAdmin() {
			return forbidden("only administrators can move a course back to " + string(to))
		}
		return nil
	}
	if to == types.CourseStatusActive {
		return invalid("use activate to make a course active")
	}
	return nil
}

// Activate moves the course to active once exactly one default preset names a
// model and an existing knowledge base. Nothing is written on failure.
func (cs *courseService) Activate(dbc dbctx.Context, p types.Principal, courseID uuid.UUID) (types.CourseStatus, error) {
	var status types.CourseStatus
	err := dbc.InTx(cs.db, func(tx *gorm.DB) error {
		course, err := cs.courses.GetByID(dbc.Ctx, tx, courseID)
		if err != nil {
			return err
		}
		if course == nil {
			return notFound("course")
		}
		if course.Status == types.CourseStatusArchived && !p.IsAdmin() {
			return forbidden("only administrators can reactivate an archived course")
		}

		presets, err := cs.presets.ListByCourse(dbc.Ctx, tx, courseID)
		if err != nil {
			return err
		}
		if len(presets) == 0 {
			return invalid("no presets found; configure a preset before activation")
		}
		var defaults []*types.Preset
		for _, pr := range presets {
			if pr.IsDefault {
				defaults = append(defaults, pr)
			}
		}
		if len(defaults) != 1 {
			return invalid("exactly one default preset is required for activation")
		}
		preset := defaults[0]
		if !preset.Activatable() {
			return invalid("default preset must include model_id and knowledge_id")
		}
		ok, err := cs.knowledge.Exists(dbc.Ctx, tx, preset.KnowledgeIDValue())
		if err != nil {
			return err
		}
		if !ok {
			return invalid("invalid knowledge_id on preset")
		}

		if err := cs.courses.UpdateFields(dbc.Ctx, tx, courseID, map[string]interface{}{
			"status": types.CourseStatusActive,
		}); err != nil {
			return fmt.Errorf("activate course: %w", err)
		}
		status = types.CourseStatusActive
		return nil
	})
	if err != nil {
		return "", err
	}
	cs.log.Info("course activated", "course_id", courseID)
	return status, nil
}

func (cs *courseService) Archive(dbc dbctx.Context, courseID uuid.UUID) (types.CourseStatus, error) {
	cur, err := cs.Get(dbc, courseID)
	if err != nil {
		return "", err
	}
	if cur.Status == types.CourseStatusArchived {
		return cur.Status, nil
	}
	if err := cs.courses.UpdateFields(dbc.Ctx, dbc.Tx, courseID, map[string]interface{}{
		"status": types.CourseStatusArchived,
	}); err != nil {
		return "", fmt.Errorf("archive course: %w", err)
	}
	return types.CourseStatusArchived, nil
}

// =====================================
// Delete
// =====================================

// Delete removes the course and everything that hangs off it in one
// transaction, then tears down external collections best-effort.
func (cs *courseService) Delete(dbc dbctx.Context, courseID uuid.UUID) error {
	course, err := cs.Get(dbc, courseID)
	if err != nil {
		return err
	}

	err = dbc.InTx(cs.db, func(tx *gorm.DB) error {
		ctx := dbc.Ctx
		assignmentIDs, err := cs.assignments.ListIDsByCourse(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if err := cs.submissions.DeleteByAssignmentIDs(ctx, tx, assignmentIDs); err != nil {
			return fmt.Errorf("delete submissions: %w", err)
		}
		if err := cs.assignments.DeleteByCourseID(ctx, tx, courseID); err != nil {
			return fmt.Errorf("delete assignments: %w", err)
		}
		if err := cs.materials.DeleteByCourseID(ctx, tx, courseID); err != nil {
			return fmt.Errorf("delete materials: %w", err)
		}
		if err := cs.presets.DeleteByCourseID(ctx, tx, courseID); err != nil {
			return fmt.Errorf("delete presets: %w", err)
		}
		if err := cs.enrollments.DeleteByCourseID(ctx, tx, courseID); err != nil {
			return fmt.Errorf("delete enrollments: %w", err)
		}
		if err := cs.feedback.DeleteByCourseID(ctx, tx, courseID); err != nil {
			return fmt.Errorf("delete feedback: %w", err)
		}
		if err := cs.courses.Delete(ctx, tx, courseID); err != nil {
			return fmt.Errorf("delete course: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cs.teardown(dbc.Ctx, course)
	cs.log.Info("course deleted", "course_id", courseID)
	return nil
}

// teardown drops the course collection and the course's knowledge base in
// parallel. Failures are logged and counted, never returned.
func (cs *courseService) teardown(ctx context.Context, course *types.Course) {
	var g errgroup.Group
	bestEffort := func(target string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				observability.Current().IncTeardownFailure(target)
				cs.log.Warn("teardown step failed", append(ctxutil.LogFields(ctx), "course_id", course.ID, "target", target, "error", err)...)
			}
			return nil
		})
	}

	if cs.vectors != nil {
		bestEffort("course_collection", func() error {
			return cs.vectors.DropCollection(ctx, CollectionName(course.ID))
		})
	}
	if kid, ok := cs.ownedKnowledge(ctx, course); ok {
		bestEffort("knowledge", func() error {
			return cs.knowledge.Delete(ctx, nil, kid)
		})
		if cs.vectors != nil {
			bestEffort("knowledge_collection", func() error {
				return cs.vectors.DropCollection(ctx, KnowledgeCollectionName(kid.String()))
			})
		}
	}
	_ = g.Wait()
}

// ownedKnowledge resolves the course's knowledge base for teardown. Only a
// knowledge base created by the course's creator is returned; anything else
// is left alone.
func (cs *courseService) ownedKnowledge(ctx context.Context, course *types.Course) (uuid.UUID, bool) {
	raw := course.KnowledgeID()
	if raw == "" {
		return uuid.Nil, false
	}
	fields := append(ctxutil.LogFields(ctx), "course_id", course.ID, "knowledge_id", raw)
	kid, err := uuid.Parse(raw)
	if err != nil {
		cs.log.Warn("teardown skipped knowledge base: malformed id", fields...)
		return uuid.Nil, false
	}
	kb, err := cs.knowledge.GetByID(ctx, nil, kid)
	if err != nil {
		observability.Current().IncTeardownFailure("knowledge")
		cs.log.Warn("teardown step failed", append(fields, "target", "knowledge", "error", err)...)
		return uuid.Nil, false
	}
	if kb == nil {
		cs.log.Debug("teardown skipped knowledge base: not found", fields...)
		return uuid.Nil, false
	}
	if kb.UserID != course.CreatedBy {
		cs.log.Warn("teardown skipped knowledge base owned by another user", fields...)
		return uuid.Nil, false
	}
	return kid, true
}

// reservedMetaKeys are written by Create and never taken from callers.
var reservedMetaKeys = []string{classroom.MetaKnowledgeID, classroom.MetaBaseModelID, classroom.MetaFileIDs}

// checkReservedMeta rejects edits to server-managed meta keys. Echoing the
// current value back unchanged is allowed so clients can round-trip meta.
func checkReservedMeta(cur *types.Course, in map[string]any) error {
	current := cur.MetaMap()
	for _, k := range reservedMetaKeys {
		v, ok := in[k]
		if !ok {
			continue
		}
		if !sameJSON(v, current[k]) {
			return invalid("meta.%s cannot be changed", k)
		}
	}
	return nil
}

func withoutReservedMeta(in map[string]any) map[string]any {
	out := copyBag(in)
	if out == nil {
		out = map[string]any{}
	}
	for _, k := range reservedMetaKeys {
		delete(out, k)
	}
	return out
}

func sameJSON(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ra, rb)
}

func validateTitle(title string) error {
	if title == "" {
		return invalid("title is required")
	}
	if len([]rune(title)) > maxCourseTitleLen {
		return invalid("title must be at most %d characters", maxCourseTitleLen)
	}
	return nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func missingIDs(want []uuid.UUID, found []*types.File) []uuid.UUID {
	have := make(map[uuid.UUID]bool, len(found))
	for _, f := range found {
		have[f.ID] = true
	}
	var out []uuid.UUID
	for _, id := range want {
		if !have[id] {
			out = append(out, id)
		}
	}
	return out
}
