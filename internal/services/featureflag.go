package services

import (
	"context"
	"fmt"

	"github.com/yungbote/classroom-backend/internal/data/repos"
	"github.com/yungbote/classroom-backend/internal/domain/classroom"
	"github.com/yungbote/classroom-backend/internal/platform/logger"
)

// SettingClassroomMode is both the env var and the persisted setting key.
const SettingClassroomMode = "CLASSROOM_MODE"

// ClassroomSetting reports the flag as an admin sees it.
type ClassroomSetting struct {
	// Enabled is the effective state after precedence.
	Enabled bool `json:"enabled"`
	// Persisted is the stored value, ignoring any override.
	Persisted bool `json:"persisted"`
	// EnvOverride is set when the environment pins the flag.
	EnvOverride *bool `json:"env_override"`
}

type FeatureFlagService interface {
	ClassroomEnabled(ctx context.Context) (bool, error)
	ClassroomSetting(ctx context.Context) (ClassroomSetting, error)
	SetClassroom(ctx context.Context, enabled bool) (ClassroomSetting, error)
}

type featureFlagService struct {
	log      *logger.Logger
	settings repos.AppSettingRepo
	override *bool
}

// NewFeatureFlagService takes the env override already parsed; nil means none.
func NewFeatureFlagService(baseLog *logger.Logger, settings repos.AppSettingRepo, override *bool) FeatureFlagService {
	return &featureFlagService{
		log:      baseLog.With("service", "FeatureFlagService"),
		settings: settings,
		override: override,
	}
}

// ClassroomEnabled resolves: env override, then persisted setting, then false.
func (s *featureFlagService) ClassroomEnabled(ctx context.Context) (bool, error) {
	if s.override != nil {
		return *s.override, nil
	}
	return s.persisted(ctx)
}

func (s *featureFlagService) ClassroomSetting(ctx context.Context) (ClassroomSetting, error) {
	stored, err := s.persisted(ctx)
	if err != nil {
		return ClassroomSetting{}, err
	}
	out := ClassroomSetting{Enabled: stored, Persisted: stored}
	if s.override != nil {
		v := *s.override
		out.Enabled = v
		out.EnvOverride = &v
	}
	return out, nil
}

func (s *featureFlagService) SetClassroom(ctx context.Context, enabled bool) (ClassroomSetting, error) {
	value := classroom.EncodeBag(map[string]any{"enabled": enabled})
	if err := s.settings.Put(ctx, nil, SettingClassroomMode, value); err != nil {
		return ClassroomSetting{}, fmt.Errorf("save classroom setting: %w", err)
	}
	s.log.Info("classroom mode updated", "enabled", enabled, "env_override", s.override != nil)
	return s.ClassroomSetting(ctx)
}

func (s *featureFlagService) persisted(ctx context.Context) (bool, error) {
	row, err := s.settings.Get(ctx, nil, SettingClassroomMode)
	if err != nil {
		return false, err
	}
	if row == nil {
		return false, nil
	}
	enabled, _ := classroom.DecodeBag(row.Value)["enabled"].(bool)
	return enabled, nil
}
