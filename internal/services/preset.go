package services

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/yungbote/classroom-backend/internal/data/repos"
	types "github.com/yungbote/classroom-backend/internal/domain"
	"github.com/yungbote/classroom-backend/internal/domain/classroom"
	"github.com/yungbote/classroom-backend/internal/observability"
	pkgerrors "github.com/yungbote/classroom-backend/internal/pkg/errors"
	"github.com/yungbote/classroom-backend/internal/pkg/dbctx"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
	"github.com/yungbote/classroom-backend/internal/platform/redislock"
)

//go:embed preset_template.yaml
var presetTemplateYAML []byte

const (
	maxTemperature = 2.0
	minMaxTokens   = 1
	maxMaxTokens   = 128000

	reasonDefaultNeedsRefs = "model_id and knowledge_id required to set default"
)

// PresetInput is a partial preset. Nil fields are left unchanged by Upsert;
// non-nil fields are applied even when empty or false.
type PresetInput struct {
	Name           *string        `json:"name"`
	IsDefault      *bool          `json:"is_default"`
	Provider       *string        `json:"provider"`
	ModelID        *string        `json:"model_id"`
	Temperature    *float64       `json:"temperature"`
	MaxTokens      *int           `json:"max_tokens"`
	SystemPromptMD *string        `json:"system_prompt_md"`
	Tools          map[string]any `json:"tools_json"`
	Retrieval      map[string]any `json:"retrieval_json"`
	Safety         map[string]any `json:"safety_json"`
	KnowledgeID    *string        `json:"knowledge_id"`
}

func (in PresetInput) validate() error {
	if in.Temperature != nil && (*in.Temperature < 0 || *in.Temperature > maxTemperature) {
		return invalid("temperature must be between 0 and %g", maxTemperature)
	}
	if in.MaxTokens != nil && (*in.MaxTokens < minMaxTokens || *in.MaxTokens > maxMaxTokens) {
		return invalid("max_tokens must be between %d and %d", minMaxTokens, maxMaxTokens)
	}
	return nil
}

func (in PresetInput) knowledgeID() string {
	if in.KnowledgeID == nil {
		return ""
	}
	return strings.TrimSpace(*in.KnowledgeID)
}

func (in PresetInput) applyTo(p *types.Preset) {
	if in.Name != nil {
		p.Name = in.Name
	}
	if in.IsDefault != nil {
		p.IsDefault = *in.IsDefault
	}
	if in.Provider != nil {
		p.Provider = in.Provider
	}
	if in.ModelID != nil {
		p.ModelID = in.ModelID
	}
	if in.Temperature != nil {
		p.Temperature = in.Temperature
	}
	if in.MaxTokens != nil {
		p.MaxTokens = in.MaxTokens
	}
	if in.SystemPromptMD != nil {
		p.SystemPromptMD = in.SystemPromptMD
	}
	if in.Tools != nil {
		p.Tools = classroom.EncodeBag(in.Tools)
	}
	if in.Retrieval != nil {
		p.Retrieval = classroom.EncodeBag(in.Retrieval)
	}
	if in.Safety != nil {
		p.Safety = classroom.EncodeBag(in.Safety)
	}
	if in.KnowledgeID != nil {
		p.KnowledgeID = in.KnowledgeID
	}
}

// PresetTemplate holds the Study & Learn defaults offered to course builders.
type PresetTemplate struct {
	Name           string         `yaml:"name" json:"name"`
	IsDefault      bool           `yaml:"is_default" json:"is_default"`
	Provider       *string        `yaml:"provider" json:"provider"`
	ModelID        *string        `yaml:"model_id" json:"model_id"`
	Temperature    float64        `yaml:"temperature" json:"temperature"`
	MaxTokens      int            `yaml:"max_tokens" json:"max_tokens"`
	SystemPromptMD string         `yaml:"system_prompt_md" json:"system_prompt_md"`
	Tools          map[string]any `yaml:"tools_json" json:"tools_json"`
	Retrieval      map[string]any `yaml:"retrieval_json" json:"retrieval_json"`
	Safety         map[string]any `yaml:"safety_json" json:"safety_json"`
	KnowledgeID    *string        `yaml:"knowledge_id" json:"knowledge_id"`
}

func loadPresetTemplate(raw []byte) (PresetTemplate, error) {
	var t PresetTemplate
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return PresetTemplate{}, fmt.Errorf("parse preset template: %w", err)
	}
	if t.Name == "" || t.MaxTokens < minMaxTokens {
		return PresetTemplate{}, errors.New("parse preset template: name and max_tokens are required")
	}
	return t, nil
}

// EffectivePreset is what a preview would run with.
type EffectivePreset struct {
	Provider    *string        `json:"provider"`
	ModelID     *string        `json:"model_id"`
	Temperature float64        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens"`
	Retrieval   map[string]any `json:"retrieval_json"`
	Tools       map[string]any `json:"tools_json"`
}

type PreviewChoice struct {
	Index   int         `json:"index"`
	Message ChatMessage `json:"message"`
	// Citations is null when the draft disables them.
	Citations []any `json:"citations"`
}

type PresetPreview struct {
	Preview bool            `json:"preview"`
	Choices []PreviewChoice `json:"choices"`
	Preset  EffectivePreset `json:"preset"`
}

const previewStubContent = "[Preview] Study & Learn response would appear here."

type PresetManager interface {
	GetByCourse(dbc dbctx.Context, courseID uuid.UUID) (*types.Preset, error)
	ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Preset, error)
	Upsert(dbc dbctx.Context, courseID uuid.UUID, in PresetInput) (*types.Preset, error)
	SetDefault(dbc dbctx.Context, courseID uuid.UUID) (*types.Preset, error)
	Template() PresetTemplate
	Preview(draft PresetInput) PresetPreview
}

type presetManager struct {
	db        *gorm.DB
	log       *logger.Logger
	presets   repos.PresetRepo
	knowledge repos.KnowledgeRepo
	locker    redislock.Locker
	template  PresetTemplate
}

func NewPresetManager(
	db *gorm.DB,
	baseLog *logger.Logger,
	presets repos.PresetRepo,
	knowledge repos.KnowledgeRepo,
	locker redislock.Locker,
) (PresetManager, error) {
	tmpl, err := loadPresetTemplate(presetTemplateYAML)
	if err != nil {
		return nil, err
	}
	if locker == nil {
		locker = redislock.Noop{}
	}
	return &presetManager{
		db:        db,
		log:       baseLog.With("service", "PresetManager"),
		presets:   presets,
		knowledge: knowledge,
		locker:    locker,
		template:  tmpl,
	}, nil
}

func (m *presetManager) GetByCourse(dbc dbctx.Context, courseID uuid.UUID) (*types.Preset, error) {
	return m.presets.GetByCourse(dbc.Ctx, dbc.Tx, courseID)
}

func (m *presetManager) ListByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Preset, error) {
	return m.presets.ListByCourse(dbc.Ctx, dbc.Tx, courseID)
}

// Upsert creates the course's preset or merges in onto the existing one.
// Without a distributed lock two concurrent upserts for one course are a
// read-modify-write race: the last commit wins and at most one default survives.
func (m *presetManager) Upsert(dbc dbctx.Context, courseID uuid.UUID, in PresetInput) (*types.Preset, error) {
	return m.upsert(dbc, courseID, in, false)
}

// SetDefault marks the course's preset default, subject to the same checks as Upsert.
func (m *presetManager) SetDefault(dbc dbctx.Context, courseID uuid.UUID) (*types.Preset, error) {
	yes := true
	return m.upsert(dbc, courseID, PresetInput{IsDefault: &yes}, true)
}

func (m *presetManager) upsert(dbc dbctx.Context, courseID uuid.UUID, in PresetInput, mustExist bool) (*types.Preset, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	release, err := m.locker.Acquire(dbc.Ctx, "preset:"+courseID.String())
	if err != nil {
		if errors.Is(err, redislock.ErrLockHeld) {
			observability.Current().IncPresetLockContention()
			m.log.Warn("preset lock contended", "course_id", courseID)
			return nil, fmt.Errorf("%w: preset is being updated, retry shortly", pkgerrors.ErrConflict)
		}
		return nil, external("preset lock", err)
	}
	defer release()

	var out *types.Preset
	err = dbc.InTx(m.db, func(tx *gorm.DB) error {
		if id := in.knowledgeID(); id != "" {
			ok, err := m.knowledge.Exists(dbc.Ctx, tx, id)
			if err != nil {
				return err
			}
			if !ok {
				return invalid("invalid knowledge_id")
			}
		}

		row, err := m.presets.GetByCourse(dbc.Ctx, tx, courseID)
		if err != nil {
			return err
		}
		created := row == nil
		if created {
			if mustExist {
				return invalid("preset not found")
			}
			row = &types.Preset{CourseID: courseID}
		}

		in.applyTo(row)
		if row.IsDefault && !row.Activatable() {
			return invalid(reasonDefaultNeedsRefs)
		}

		if created {
			if _, err := m.presets.Create(dbc.Ctx, tx, row); err != nil {
				return err
			}
		} else if err := m.presets.Save(dbc.Ctx, tx, row); err != nil {
			return err
		}
		if row.IsDefault {
			if err := m.presets.ClearDefaultExcept(dbc.Ctx, tx, courseID, row.ID); err != nil {
				return err
			}
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.log.Debug("preset saved", "course_id", courseID, "preset_id", out.ID, "is_default", out.IsDefault)
	return out, nil
}

func (m *presetManager) Template() PresetTemplate {
	t := m.template
	t.Tools = copyBag(t.Tools)
	t.Retrieval = copyBag(t.Retrieval)
	t.Safety = copyBag(t.Safety)
	return t
}

// Preview is a dry run: nothing is persisted and no model is called.
func (m *presetManager) Preview(draft PresetInput) PresetPreview {
	eff := EffectivePreset{
		Provider:    draft.Provider,
		ModelID:     draft.ModelID,
		Temperature: m.template.Temperature,
		MaxTokens:   m.template.MaxTokens,
		Retrieval:   copyBag(m.template.Retrieval),
		Tools:       copyBag(m.template.Tools),
	}
	if draft.Temperature != nil {
		eff.Temperature = *draft.Temperature
	}
	if draft.MaxTokens != nil {
		eff.MaxTokens = *draft.MaxTokens
	}
	if draft.Retrieval != nil {
		eff.Retrieval = copyBag(draft.Retrieval)
	}
	if draft.Tools != nil {
		eff.Tools = copyBag(draft.Tools)
	}

	choice := PreviewChoice{
		Message: ChatMessage{Role: "assistant", Content: previewStubContent},
	}
	citations := true
	if draft.Retrieval != nil {
		if v, ok := draft.Retrieval["return_citations"].(bool); ok {
			citations = v
		}
	}
	if citations {
		choice.Citations = []any{}
	}
	return PresetPreview{Preview: true, Choices: []PreviewChoice{choice}, Preset: eff}
}

func copyBag(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
