package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "clubschedule/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// ErrTransactionAborted wraps a transaction that kept hitting transient
// errors until its deadline.
var ErrTransactionAborted = errors.New("transaction aborted")

type TransactionFunc func(ctx mongo.SessionContext) error

// TransactionManager runs writes that must observe one snapshot of slots and
// bookings, such as replacing overlapped slots.
type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type sessionTransactionManager struct {
	client  *mongo.Client
	timeout time.Duration
}

// NewTransactionManager bounds each transaction, driver retries included, by timeout.
func NewTransactionManager(client *mongo.Client, timeout time.Duration) TransactionManager {
	return &sessionTransactionManager{
		client:  client,
		timeout: timeout,
	}
}

// ExecuteTransaction runs fn in a snapshot transaction with majority writes.
// The driver re-runs fn on transient errors, so fn must be idempotent.
func (m *sessionTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	ctx, cancel := WithTimeout(ctx, m.timeout)
	defer cancel()

	session, err := m.client.StartSession(options.Session().SetDefaultReadConcern(readconcern.Snapshot()))
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	txOpts := options.Transaction().
		SetReadPreference(readpref.Primary()).
		SetWriteConcern(writeconcern.Majority()).
		SetMaxCommitTime(&m.timeout)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx)
	}, txOpts)

	switch {
	case err == nil:
		return nil
	case apperrors.IsAppError(err):
		return err
	case IsTransient(err):
		return fmt.Errorf("%w: %w", ErrTransactionAborted, err)
	default:
		return fmt.Errorf("transaction failed: %w", err)
	}
}
