package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"user-service/models"
)

var (
	// ErrNotFound is returned by FindByID when no row matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by Save when the email unique index rejects the row.
	ErrDuplicateEmail = errors.New("email already exists")
)

const uniqueViolationCode = "23505"

// StorageError wraps a database failure that is not a data problem: lost
// connections, timeouts, failed transactions.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConstraintError is an integrity violation other than the email unique index.
type ConstraintError struct {
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return e.Err.Error()
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// UserStore is the persistence contract the user service depends on.
type UserStore interface {
	FindAll(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	// Save inserts the user when its ID is zero and overwrites name, email
	// and age otherwise. The generated ID and CreatedAt are written back.
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, user *models.User) error
	// Transaction runs fn against a store bound to a single transaction.
	// Errors returned by fn are passed back unchanged.
	Transaction(ctx context.Context, fn func(store UserStore) error) error
}

// UserRepository is the gorm implementation of UserStore.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, classify("find all users", err)
	}
	return users, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, classify("find user", err)
	}
	return &user, nil
}

func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	db := r.db.WithContext(ctx)

	if user.ID == 0 {
		if err := db.Create(user).Error; err != nil {
			return classify("create user", err)
		}
		return nil
	}

	// id and created_at are never part of the update set.
	result := db.Model(user).Select("Name", "Email", "Age").Updates(user)
	if result.Error != nil {
		return classify("update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, user.ID)
	if result.Error != nil {
		return classify("delete user", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) Transaction(ctx context.Context, fn func(store UserStore) error) error {
	var fnErr error
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&UserRepository{db: tx})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// classify maps a gorm/driver error onto the store's error vocabulary.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return &ConstraintError{Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
		}
		// SQLSTATE class 23: integrity constraint violation.
		if len(pgErr.Code) == 5 && pgErr.Code[:2] == "23" {
			return &ConstraintError{Constraint: pgErr.ConstraintName, Err: err}
		}
	}

	if isDataError(err) {
		return err
	}

	return &StorageError{Op: op, Err: err}
}

// isDataError reports gorm errors caused by the value passed in rather than
// by the database.
func isDataError(err error) bool {
	return errors.Is(err, gorm.ErrInvalidData) ||
		errors.Is(err, gorm.ErrInvalidValue) ||
		errors.Is(err, gorm.ErrPrimaryKeyRequired) ||
		errors.Is(err, gorm.ErrMissingWhereClause) ||
		errors.Is(err, gorm.ErrInvalidField)
}
