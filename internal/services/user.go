package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/walkgoal/apiserver/internal/store"
	"github.com/walkgoal/apiserver/types"
)

const maxNameLength = 100

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context) ([]types.User, error)
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByName(ctx context.Context, name string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	DeleteCascade(ctx context.Context, id string) (types.UserDeletion, error)
}

// UserService is the registry of names allowed to log minutes.
type UserService struct {
	repo   UserRepository
	events *Events
}

func NewUserService(repo UserRepository, events *Events) *UserService {
	return &UserService{repo: repo, events: events}
}

// List returns all users sorted by name. Sorting happens here because SQL
// collation differs between backends.
func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

// ListNames returns the sorted, de-duplicated user names.
func (s *UserService) ListNames(ctx context.Context) ([]string, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(users))
	for _, user := range users {
		if n := len(names); n > 0 && names[n-1] == user.Name {
			continue
		}
		names = append(names, user.Name)
	}
	return names, nil
}

func (s *UserService) FindByName(ctx context.Context, name string) (types.User, error) {
	user, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUserNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// Resolve returns the user named name. When the user is missing it fails with
// ErrUnknownUser, unless autoCreate is set, in which case the user is created.
func (s *UserService) Resolve(ctx context.Context, name string, autoCreate bool) (types.User, error) {
	user, err := s.FindByName(ctx, name)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return types.User{}, err
	}
	if !autoCreate {
		return types.User{}, ErrUnknownUser
	}

	user, _, err = s.create(ctx, name)
	return user, err
}

// Add registers a new user. Names are trimmed and matched exactly.
func (s *UserService) Add(ctx context.Context, rawName string) (types.User, error) {
	name, err := normalizeName(rawName)
	if err != nil {
		return types.User{}, err
	}

	if _, err := s.FindByName(ctx, name); err == nil {
		return types.User{}, ErrDuplicateUser
	} else if !errors.Is(err, ErrUserNotFound) {
		return types.User{}, err
	}

	user, created, err := s.create(ctx, name)
	if err != nil {
		return types.User{}, err
	}
	if !created {
		return types.User{}, ErrDuplicateUser
	}
	return user, nil
}

// Delete removes the user and all of their entries as one unit.
func (s *UserService) Delete(ctx context.Context, id string) (types.UserDeletion, error) {
	deletion, err := s.repo.DeleteCascade(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.UserDeletion{}, ErrUserNotFound
		}
		return types.UserDeletion{}, err
	}
	s.events.Emit(ctx, EventUserDeleted, deletion)
	return deletion, nil
}

// create inserts a user and, when the insert fails, re-reads by name. If a
// concurrent writer won the race the existing user is returned with
// created=false; storage error codes are never inspected.
func (s *UserService) create(ctx context.Context, name string) (types.User, bool, error) {
	user, err := s.repo.Create(ctx, types.User{ID: uuid.NewString(), Name: name})
	if err == nil {
		return user, true, nil
	}

	existing, lookupErr := s.repo.GetByName(ctx, name)
	if lookupErr == nil {
		return existing, false, nil
	}
	return types.User{}, false, err
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrMissingName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}
