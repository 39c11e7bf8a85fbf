package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"user-service/events"
	"user-service/logger"
	"user-service/models"
	"user-service/repository"
)

// UserChanges carries the mutable fields of a user.
type UserChanges struct {
	Name  string
	Email string
	Age   int
}

// UserService owns the business rules around user mutation and translates
// store failures into service Errors. Storage outages (*repository.StorageError)
// are returned unchanged so callers can tell them apart from rule violations.
type UserService struct {
	store     repository.UserStore
	publisher events.Publisher
	log       *zap.Logger
}

func NewUserService(store repository.UserStore, publisher events.Publisher, log *zap.Logger) *UserService {
	return &UserService{store: store, publisher: publisher, log: log}
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.FindAll(ctx)
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.fetch(ctx, s.store, id)
}

// Create persists candidate and announces it with a CREATED event once the
// write has committed.
func (s *UserService) Create(ctx context.Context, candidate *models.User) (*models.User, error) {
	user := &models.User{
		Name:  candidate.Name,
		Email: candidate.Email,
		Age:   candidate.Age,
	}

	err := s.store.Transaction(ctx, func(store repository.UserStore) error {
		return store.Save(ctx, user)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, newError(KindNotCreated, err, "User with this email %s already exists", candidate.Email)
		case isStorageError(err):
			return nil, err
		default:
			return nil, newError(KindNotCreated, err, "%s", err.Error())
		}
	}

	s.emit(ctx, events.UserEvent{Email: user.Email, EventType: events.UserCreated})
	return user, nil
}

// Update overwrites name, email and age of an existing user. A missing id is
// reported as NotFound, never as NotUpdated.
func (s *UserService) Update(ctx context.Context, id uint, changes UserChanges) (*models.User, error) {
	var updated *models.User

	err := s.store.Transaction(ctx, func(store repository.UserStore) error {
		existing, err := s.fetch(ctx, store, id)
		if err != nil {
			return err
		}

		existing.Name = changes.Name
		existing.Email = changes.Email
		existing.Age = changes.Age

		if err := store.Save(ctx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		switch {
		case IsNotFound(err), isStorageError(err):
			return nil, err
		case errors.Is(err, repository.ErrNotFound):
			// The row vanished between lookup and write.
			return nil, notFound(id)
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, newError(KindNotUpdated, err, "User with this email %s already exists", changes.Email)
		default:
			return nil, newError(KindNotUpdated, err, "%s", err.Error())
		}
	}

	return updated, nil
}

// Delete removes an existing user and announces it with a DELETED event.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	var deleted *models.User

	err := s.store.Transaction(ctx, func(store repository.UserStore) error {
		user, err := s.fetch(ctx, store, id)
		if err != nil {
			return err
		}
		if err := store.Delete(ctx, user); err != nil {
			return err
		}
		deleted = user
		return nil
	})
	if err != nil {
		switch {
		case IsNotFound(err), isStorageError(err):
			return err
		case errors.Is(err, repository.ErrNotFound):
			return notFound(id)
		default:
			return newError(KindNotDeleted, err, "%s", err.Error())
		}
	}

	s.emit(ctx, events.UserEvent{Email: deleted.Email, EventType: events.UserDeleted})
	return nil
}

// fetch is the single lookup shared by GetByID, Update and Delete.
func (s *UserService) fetch(ctx context.Context, store repository.UserStore, id uint) (*models.User, error) {
	user, err := store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && user == nil) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// emit publishes once and never fails the caller: the write it announces has
// already committed.
func (s *UserService) emit(ctx context.Context, event events.UserEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.WithRequestID(ctx, s.log).Warn("failed to publish user event",
			zap.String("key", event.Email),
			zap.String("event_type", string(event.EventType)),
			zap.Error(err),
		)
	}
}

func notFound(id uint) *Error {
	return newError(KindNotFound, repository.ErrNotFound, "User with ID %d not found", id)
}

func isStorageError(err error) bool {
	var storageErr *repository.StorageError
	return errors.As(err, &storageErr)
}
