package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/walkgoal/apiserver/internal/progress"
	"github.com/walkgoal/apiserver/internal/store"
	"github.com/walkgoal/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// SettingsRepository defines persistence operations for the key/value settings.
type SettingsRepository interface {
	All(ctx context.Context) (map[string]string, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	SetDefault(ctx context.Context, key, value string) error
}

// SettingsDefaults seed the settings table on first start.
type SettingsDefaults struct {
	GoalMinutes   int
	StartLocation string
	EndLocation   string
	AdminPassword string
}

type SettingsService struct {
	repo SettingsRepository
	cost int
}

func NewSettingsService(repo SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo, cost: bcrypt.DefaultCost}
}

// Current returns the typed settings with defaults applied.
func (s *SettingsService) Current(ctx context.Context) (types.Settings, error) {
	values, err := s.repo.All(ctx)
	if err != nil {
		return types.Settings{}, err
	}
	return ParseSettings(values), nil
}

// ParseSettings builds typed settings from raw key/value pairs. A missing,
// malformed or non-positive goal falls back to the default.
func ParseSettings(values map[string]string) types.Settings {
	settings := types.Settings{
		GoalMinutes:       progress.DefaultGoalMinutes,
		StartLocation:     progress.DefaultStartLocation,
		EndLocation:       progress.DefaultEndLocation,
		AdminPasswordHash: values[types.SettingAdminPassword],
	}
	if goal, err := parseGoal(values[types.SettingGoalMinutes]); err == nil {
		settings.GoalMinutes = goal
	}
	if v := values[types.SettingStartLocation]; v != "" {
		settings.StartLocation = v
	}
	if v := values[types.SettingEndLocation]; v != "" {
		settings.EndLocation = v
	}
	return settings
}

// Public returns the stored settings without the admin password hash.
func (s *SettingsService) Public(ctx context.Context) (map[string]string, error) {
	values, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	delete(values, types.SettingAdminPassword)
	return values, nil
}

// Update applies a partial change. The goal is validated before anything is
// written so a bad request leaves the settings untouched.
func (s *SettingsService) Update(ctx context.Context, update types.SettingsUpdate) (map[string]string, error) {
	changes := make([][2]string, 0, 4)

	if update.GoalMinutes != nil {
		goal, err := parseGoal(*update.GoalMinutes)
		if err != nil {
			return nil, err
		}
		changes = append(changes, [2]string{types.SettingGoalMinutes, strconv.Itoa(goal)})
	}
	if update.StartLocation != nil {
		changes = append(changes, [2]string{types.SettingStartLocation, *update.StartLocation})
	}
	if update.EndLocation != nil {
		changes = append(changes, [2]string{types.SettingEndLocation, *update.EndLocation})
	}
	if update.AdminPassword != nil && strings.TrimSpace(*update.AdminPassword) != "" {
		hash, err := s.hash(*update.AdminPassword)
		if err != nil {
			return nil, err
		}
		changes = append(changes, [2]string{types.SettingAdminPassword, hash})
	}

	for _, kv := range changes {
		if err := s.repo.Set(ctx, kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	return s.Public(ctx)
}

// SetAdminPassword replaces the admin password hash.
func (s *SettingsService) SetAdminPassword(ctx context.Context, password string) error {
	if strings.TrimSpace(password) == "" {
		return errors.New("admin password must not be blank")
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, types.SettingAdminPassword, hash)
}

// EnsureDefaults stores any setting that has no value yet. Existing values
// are never overwritten.
func (s *SettingsService) EnsureDefaults(ctx context.Context, defaults SettingsDefaults) error {
	goal := defaults.GoalMinutes
	if goal <= 0 {
		goal = progress.DefaultGoalMinutes
	}
	seed := map[string]string{
		types.SettingGoalMinutes:   strconv.Itoa(goal),
		types.SettingStartLocation: defaults.StartLocation,
		types.SettingEndLocation:   defaults.EndLocation,
	}
	for key, value := range seed {
		if err := s.repo.SetDefault(ctx, key, value); err != nil {
			return err
		}
	}

	if strings.TrimSpace(defaults.AdminPassword) == "" {
		return nil
	}
	_, err := s.repo.Get(ctx, types.SettingAdminPassword)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	hash, err := s.hash(defaults.AdminPassword)
	if err != nil {
		return err
	}
	return s.repo.SetDefault(ctx, types.SettingAdminPassword, hash)
}

// VerifyAdminPassword checks password against the stored hash.
func (s *SettingsService) VerifyAdminPassword(ctx context.Context, password string) error {
	hash, err := s.repo.Get(ctx, types.SettingAdminPassword)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAdminNotConfigured
		}
		return err
	}
	if hash == "" {
		return ErrAdminNotConfigured
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

func (s *SettingsService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func parseGoal(raw string) (int, error) {
	goal, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || goal <= 0 {
		return 0, ErrInvalidGoal
	}
	return goal, nil
}
