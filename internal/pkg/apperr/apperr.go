package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrValidation indicates malformed or missing caller input. Never
	// retried automatically.
	ErrValidation = errors.New("validation")
	// ErrReferential indicates the referenced user does not exist or its
	// existence could not be confirmed. The append is rejected.
	ErrReferential = errors.New("referential")
	// ErrStore indicates a durable-medium failure during append or index
	// update. Surfaced immediately; retry policy belongs to the caller.
	ErrStore = errors.New("store")
)

// Validation tags an error as caller input failure.
func Validation(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

// Validationf tags a formatted error as caller input failure.
func Validationf(format string, args ...any) error {
	return errors.Join(ErrValidation, fmt.Errorf(format, args...))
}

// Referential tags an error as a soft foreign key rejection.
func Referential(msg string) error {
	return errors.Join(ErrReferential, errors.New(strings.TrimSpace(msg)))
}

// Store wraps a durable-medium failure for the given operation.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrStore, fmt.Errorf("%s: %w", op, err))
}

// MapStore classifies infrastructure failures coming back from the
// database layer. Record absence is not a failure and is mapped to nil
// by the repos before this is ever reached; everything else that is not
// already tagged becomes a store error.
func MapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrReferential) || errors.Is(err, ErrStore) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Store(op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return errors.Join(ErrReferential, fmt.Errorf("%s: %w", op, err))
		case "23502", "23514": // not_null_violation, check_violation
			return errors.Join(ErrValidation, fmt.Errorf("%s: %w", op, err))
		}
	}
	return Store(op, err)
}
