package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/classroom-backend/internal/data/repos/testutil"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/domain/user"
	pkgerrors "github.com/yungbote/classroom-backend/internal/pkg/errors"
	"github.com/yungbote/classroom-backend/internal/pkg/pointers"
	"github.com/yungbote/classroom-backend/internal/platform/redislock"
)

func TestPresetUpsertMergesOnlyProvidedFields(t *testing.T) {
	env := newTestEnv(t)
	pm := env.presetManager(t)
	teacher := testutil.SeedUser(t, env.ctx, env.db, user.RoleTeacher)
	course := testutil.SeedCourse(t, env.ctx, env.db, teacher.ID, nil)

	first, err := pm.Upsert(env.dbc(), course.ID, PresetInput{
		ModelID:     pointers.String("m1"),
		Temperature: pointers.Float64(0.7),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second, err := pm.Upsert(env.dbc(), course.ID, PresetInput{MaxTokens: pointers.Int(256)})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("merge created a new row: %s vs %s", second.ID, first.ID)
	}
	if second.ModelIDValue() != "m1" || pointers.Deref(second.Temperature) != 0.7 || pointers.Deref(second.MaxTokens) != 256 {
		t.Fatalf("fields not merged: %+v", second)
	}

	// Provided-but-empty still applies.
	third, err := pm.Upsert(env.dbc(), course.ID, PresetInput{ModelID: pointers.String("")})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if third.ModelIDValue() != "" {
		t.Fatalf("empty model_id not applied: %q", third.ModelIDValue())
	}

	rows, err := pm.ListByCourse(env.dbc(), course.ID)
	if err != nil {
		t.Fatalf("ListByCourse: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want one preset row, got %d", len(rows))
	}
}

func TestPresetDefaultRequiresModelAndKnowledge(t *testing.T) {
	env := newTestEnv(t)
	pm := env.presetManager(t)
	teacher := testutil.SeedUser(t, env.ctx, env.db, user.RoleTeacher)
	course := testutil.SeedCourse(t, env.ctx, env.db, teacher.ID, nil)
	kb := testutil.SeedKnowledge(t, env.ctx, env.db, teacher.ID)

	_, err := pm.Upsert(env.dbc(), course.ID, PresetInput{
		ModelID:   pointers.String("m1"),
		IsDefault: pointers.Bool(true),
	})
	wantValidation(t, err, reasonDefaultNeedsRefs)

	// The failed call must not have created a row.
	if got, _ := pm.GetByCourse(env.dbc(), course.ID); got != nil {
		t.Fatalf("failed upsert persisted a preset: %+v", got)
	}

	if _, err := pm.Upsert(env.dbc(), course.ID, PresetInput{ModelID: pointers.String("m1")}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	// Knowledge comes from the input, model from the existing row.
	p, err := pm.Upsert(env.dbc(), course.ID, PresetInput{
		KnowledgeID: pointers.String(kb.ID.String()),
		IsDefault:   pointers.Bool(true),
	})
	if err != nil {
		t.Fatalf("Upsert default: %v", err)
	}
	if !p.IsDefault || !p.Activatable() {
		t.Fatalf("want activatable default, got %+v", p)
	}
}

func TestPresetSetDefault(t *testing.T) {
	env := newTestEnv(t)
	pm := env.presetManager(t)
	teacher := testutil.SeedUser(t, env.ctx, env.db, user.RoleTeacher)
	course := testutil.SeedCourse(t, env.ctx, env.db, teacher.ID, nil)
	kb := testutil.SeedKnowledge(t, env.ctx, env.db, teacher.ID)

	_, err := pm.SetDefault(env.dbc(), course.ID)
	wantValidation(t, err, "preset not found")

	if _, err := pm.Upsert(env.dbc(), course.ID, PresetInput{ModelID: pointers.String("m1")}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	_, err = pm.SetDefault(env.dbc(), course.ID)
	wantValidation(t, err, reasonDefaultNeedsRefs)

	if _, err := pm.Upsert(env.dbc(), course.ID, PresetInput{KnowledgeID: pointers.String(kb.ID.String())}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	p, err := pm.SetDefault(env.dbc(), course.ID)
	if err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	if !p.IsDefault {
		t.Fatalf("SetDefault did not set the flag")
	}
}

func TestPresetUpsertValidation(t *testing.T) {
	env := newTestEnv(t)
	pm := env.presetManager(t)
	courseID := uuid.New()

	cases := []struct {
		name string
		in   PresetInput
		want string
	}{
		{"temperature too high", PresetInput{Temperature: pointers.Float64(2.5)}, "temperature"},
		{"temperature negative", PresetInput{Temperature: pointers.Float64(-0.1)}, "temperature"},
		{"max tokens zero", PresetInput{MaxTokens: pointers.Int(0)}, "max_tokens"},
		{"max tokens too high", PresetInput{MaxTokens: pointers.Int(maxMaxTokens + 1)}, "max_tokens"},
		{"unknown knowledge", PresetInput{KnowledgeID: pointers.String(uuid.NewString())}, "invalid knowledge_id"},
		{"malformed knowledge", PresetInput{KnowledgeID: pointers.String("k1")}, "invalid knowledge_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pm.Upsert(env.dbc(), courseID, tc.in)
			wantValidation(t, err, tc.want)
		})
	}
}

func TestPresetDefaultIsExclusive(t *testing.T) {
	env := newTestEnv(t)
	pm := env.presetManager(t)
	teacher := testutil.SeedUser(t, env.ctx, env.db, user.RoleTeacher)
	course := testutil.SeedCourse(t, env.ctx, env.db, teacher.ID, nil)
	kb := testutil.SeedKnowledge(t, env.ctx, env.db, teacher.ID)

	// Two defaults left behind by racing writers.
	for i := 0; i < 2; i++ {
		if _, err := env.presets.Create(env.ctx, nil, &types.Preset{CourseID: course.ID, IsDefault: true}); err != nil {
			t.Fatalf("seed preset: %v", err)
		}
	}

	p, err := pm.Upsert(env.dbc(), course.ID, PresetInput{
		ModelID:     pointers.String("m1"),
		KnowledgeID: pointers.String(kb.ID.String()),
		IsDefault:   pointers.Bool(true),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rows, err := pm.ListByCourse(env.dbc(), course.ID)
	if err != nil {
		t.Fatalf("ListByCourse: %v", err)
	}
	defaults := 0
	for _, r := range rows {
		if r.IsDefault {
			defaults++
			if r.ID != p.ID {
				t.Fatalf("default is %s, want %s", r.ID, p.ID)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("want exactly one default, got %d", defaults)
	}
}

func TestPresetConcurrentDefaultUpserts(t *testing.T) {
	env := newTestEnv(t)
	pm := env.presetManager(t)
	teacher := testutil.SeedUser(t, env.ctx, env.db, user.RoleTeacher)
	course := testutil.SeedCourse(t, env.ctx, env.db, teacher.ID, nil)
	kb := testutil.SeedKnowledge(t, env.ctx, env.db, teacher.ID)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = pm.Upsert(env.dbc(), course.ID, PresetInput{
				ModelID:     pointers.String("m1"),
				KnowledgeID: pointers.String(kb.ID.String()),
				IsDefault:   pointers.Bool(true),
			})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	rows, err := pm.ListByCourse(env.dbc(), course.ID)
	if err != nil {
		t.Fatalf("ListByCourse: %v", err)
	}
	defaults := 0
	for _, r := range rows {
		if r.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		t.Fatalf("want at most one default, got %d", defaults)
	}
}

type heldLocker struct{}

func (heldLocker) Acquire(ctx context.Context, key string) (func(), error) {
	return nil, redislock.ErrLockHeld
}

func TestPresetUpsertLockContention(t *testing.T) {
	env := newTestEnv(t)
	pm, err := NewPresetManager(env.db, env.log, env.presets, env.knowledge, heldLocker{})
	if err != nil {
		t.Fatalf("NewPresetManager: %v", err)
	}
	_, err = pm.Upsert(env.dbc(), uuid.New(), PresetInput{ModelID: pointers.String("m1")})
	if !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestPresetTemplate(t *testing.T) {
	env := newTestEnv(t)
	pm := env.presetManager(t)

	tmpl := pm.Template()
	if tmpl.Name != "Study & Learn" {
		t.Fatalf("template name: %q", tmpl.Name)
	}
	if tmpl.MaxTokens != 1024 || tmpl.Temperature != 0.4 {
		t.Fatalf("template numbers: %+v", tmpl)
	}
	if tmpl.ModelID != nil || tmpl.KnowledgeID != nil {
		t.Fatalf("template must not pin a model or knowledge base")
	}
	if tmpl.Retrieval["return_citations"] != true {
		t.Fatalf("template retrieval: %+v", tmpl.Retrieval)
	}

	tmpl.Retrieval["top_k"] = 99
	if again := pm.Template(); again.Retrieval["top_k"] == 99 {
		t.Fatalf("Template returned shared state")
	}
}

func TestPresetPreview(t *testing.T) {
	env := newTestEnv(t)
	pm := env.presetManager(t)

	def := pm.Preview(PresetInput{})
	if !def.Preview || len(def.Choices) != 1 {
		t.Fatalf("preview shape: %+v", def)
	}
	if def.Preset.Temperature != 0.4 || def.Preset.MaxTokens != 1024 {
		t.Fatalf("preview should fall back to template: %+v", def.Preset)
	}
	if def.Choices[0].Citations == nil {
		t.Fatalf("citations should default to an empty list")
	}
	if def.Choices[0].Message.Role != "assistant" || def.Choices[0].Message.Content != previewStubContent {
		t.Fatalf("preview message: %+v", def.Choices[0].Message)
	}

	draft := pm.Preview(PresetInput{
		ModelID:     pointers.String("gpt-x"),
		Temperature: pointers.Float64(1.1),
		Retrieval:   map[string]any{"return_citations": false},
	})
	if draft.Preset.Temperature != 1.1 || pointers.Deref(draft.Preset.ModelID) != "gpt-x" {
		t.Fatalf("draft values not used: %+v", draft.Preset)
	}
	if draft.Choices[0].Citations != nil {
		t.Fatalf("citations should be null when disabled")
	}
}
