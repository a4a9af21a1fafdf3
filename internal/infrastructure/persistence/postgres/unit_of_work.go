// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// One answer submission is one transaction: the completion fact, the score
// delta, the streak state and the badge grants commit together or not at all.
// ══════════════════════════════════════════════════════════════════════════════

// UnitOfWork implements learner.UnitOfWork over a pgx transaction.
type UnitOfWork struct {
	conn *Connection
}

// NewUnitOfWork creates a new UnitOfWork.
func NewUnitOfWork(conn *Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Within runs fn against transaction-bound repositories. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (u *UnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, tx learner.TxRepositories) error) error {
	return u.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		learners := NewLearnerRepositoryWithQuerier(tx)
		tasks := NewTaskRepositoryWithQuerier(tx)
		return fn(ctx, learner.TxRepositories{
			Learners:    learners,
			Progress:    learners,
			Completions: tasks,
			Tasks:       tasks,
		})
	})
}
