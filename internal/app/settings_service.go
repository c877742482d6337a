package app

import (
	"context"
	"log"
	"strings"

	"docvoice/internal/cache"
	"docvoice/internal/model"
	"docvoice/internal/repository"
)

// SettingsService exposes assistant configuration as versioned state. Admin
// saves bump the version; UI surfaces poll Changed with their last seen
// version instead of re-reading the row on every tick.
type SettingsService struct {
	repo  *repository.SettingsRepository
	cache *cache.SettingsCache

	defaultName   string
	defaultPolicy string
	defaultVoice  string
}

func NewSettingsService(repo *repository.SettingsRepository, versionCache *cache.SettingsCache, defaultName, defaultPolicy, defaultVoice string) *SettingsService {
	return &SettingsService{
		repo:          repo,
		cache:         versionCache,
		defaultName:   defaultName,
		defaultPolicy: defaultPolicy,
		defaultVoice:  defaultVoice,
	}
}

// Get returns the stored settings, or the configured defaults (version 0)
// before any admin save.
func (s *SettingsService) Get(ctx context.Context) (*model.Settings, error) {
	stored, err := s.repo.Get()
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return &model.Settings{
			AssistantName: s.defaultName,
			SystemPolicy:  s.defaultPolicy,
			VoiceName:     s.defaultVoice,
		}, nil
	}
	return stored, nil
}

type SettingsInput struct {
	AssistantName string
	SystemPolicy  string
	VoiceName     string
}

func (s *SettingsService) Save(ctx context.Context, input SettingsInput) (*model.Settings, error) {
	name := strings.TrimSpace(input.AssistantName)
	if name == "" {
		return nil, ErrInvalidInput
	}
	settings := &model.Settings{
		AssistantName: name,
		SystemPolicy:  strings.TrimSpace(input.SystemPolicy),
		VoiceName:     strings.TrimSpace(input.VoiceName),
	}
	if err := s.repo.Save(settings); err != nil {
		return nil, err
	}
	if err := s.cache.SetVersion(ctx, settings.Version); err != nil {
		log.Printf("publish settings version failed: %v", err)
	}
	return settings, nil
}

// Changed reports whether settings moved past sinceVersion, and the current
// version. The check costs one cache read, not a database query.
func (s *SettingsService) Changed(ctx context.Context, sinceVersion int64) (bool, int64, error) {
	version, err := s.cache.GetVersion(ctx)
	if err != nil {
		return false, sinceVersion, err
	}
	if version == 0 {
		// Cache cold (fresh boot); reseed from storage.
		stored, err := s.repo.Get()
		if err != nil {
			return false, sinceVersion, err
		}
		if stored == nil {
			return false, 0, nil
		}
		version = stored.Version
		if err := s.cache.SetVersion(ctx, version); err != nil {
			log.Printf("reseed settings version failed: %v", err)
		}
	}
	return version > sinceVersion, version, nil
}

// Assistant returns the current display name and policy for prompt building.
// Failures fall back to the configured defaults so a turn never blocks on
// settings.
func (s *SettingsService) Assistant(ctx context.Context) (string, string) {
	settings, err := s.Get(ctx)
	if err != nil {
		log.Printf("read settings failed, using defaults: %v", err)
		return s.defaultName, s.defaultPolicy
	}
	return settings.AssistantName, settings.SystemPolicy
}

// Voice returns the configured live-session voice.
func (s *SettingsService) Voice(ctx context.Context) string {
	settings, err := s.Get(ctx)
	if err != nil || settings.VoiceName == "" {
		return s.defaultVoice
	}
	return settings.VoiceName
}
