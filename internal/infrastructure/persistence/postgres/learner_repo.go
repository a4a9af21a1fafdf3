// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LearnerRepository implements learner.Repository, learner.ProgressRepository
// and learner.FeedbackRepository for PostgreSQL.
type LearnerRepository struct {
	q Querier
}

// NewLearnerRepository creates a new LearnerRepository backed by the pool.
func NewLearnerRepository(conn *Connection) *LearnerRepository {
	return &LearnerRepository{q: conn}
}

// NewLearnerRepositoryWithQuerier binds the repository to an open transaction.
func NewLearnerRepositoryWithQuerier(q Querier) *LearnerRepository {
	return &LearnerRepository{q: q}
}

const learnerColumns = `telegram_id, display_name, score, daily_streak, last_activity_date,
	last_daily_at, feedback_count, topics_completed, all_tasks_completed, created_at, updated_at`

// ─────────────────────────────────────────────────────────────────────────────
// CRUD
// ─────────────────────────────────────────────────────────────────────────────

// GetByTelegramID returns a learner record.
func (r *LearnerRepository) GetByTelegramID(ctx context.Context, id shared.TelegramID) (*learner.Learner, error) {
	query := "SELECT " + learnerColumns + " FROM learners WHERE telegram_id = $1"

	l, err := r.scanLearner(r.q.QueryRow(ctx, query, id.Int64()))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLearnerNotFound
		}
		return nil, fmt.Errorf("failed to get learner: %w", err)
	}

	badges, err := r.HeldBadges(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Badges = badges
	return l, nil
}

// Upsert inserts or refreshes a learner record.
func (r *LearnerRepository) Upsert(ctx context.Context, l *learner.Learner) error {
	query := `
		INSERT INTO learners (
			telegram_id, display_name, score, daily_streak, last_activity_date,
			last_daily_at, feedback_count, topics_completed, all_tasks_completed,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (telegram_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			updated_at = NOW()
	`

	_, err := r.q.Exec(ctx, query,
		l.TelegramID.Int64(),
		l.DisplayName,
		l.Score.Int(),
		l.DailyStreak,
		nullableTime(l.LastActivityDate),
		nullableTime(l.LastDailyAt),
		l.FeedbackCount,
		l.TopicsCompleted,
		l.AllTasksCompleted,
		l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert learner: %w", err)
	}
	return nil
}

// Apply executes the tagged update variants as one UPDATE statement chain.
// Callers run it inside the unit of work next to the reads it depends on.
func (r *LearnerRepository) Apply(ctx context.Context, id shared.TelegramID, updates ...learner.Update) error {
	for _, u := range updates {
		var err error
		switch v := u.(type) {
		case learner.AddScore:
			_, err = r.q.Exec(ctx, `
				UPDATE learners SET score = GREATEST(score + $2, 0), updated_at = NOW()
				WHERE telegram_id = $1
			`, id.Int64(), v.Delta)
		case learner.SetDailyStreak:
			_, err = r.q.Exec(ctx, `
				UPDATE learners SET daily_streak = $2, last_activity_date = $3, updated_at = NOW()
				WHERE telegram_id = $1
			`, id.Int64(), v.Streak, v.LastActiveDate)
		case learner.SetLastDaily:
			_, err = r.q.Exec(ctx, `
				UPDATE learners SET last_daily_at = $2, updated_at = NOW()
				WHERE telegram_id = $1
			`, id.Int64(), v.Date)
		case learner.IncrementFeedback:
			_, err = r.q.Exec(ctx, `
				UPDATE learners SET feedback_count = feedback_count + 1, updated_at = NOW()
				WHERE telegram_id = $1
			`, id.Int64())
		case learner.SetTopicsCompleted:
			_, err = r.q.Exec(ctx, `
				UPDATE learners SET topics_completed = $2, updated_at = NOW()
				WHERE telegram_id = $1
			`, id.Int64(), v.Count)
		case learner.SetAllTasksCompleted:
			_, err = r.q.Exec(ctx, `
				UPDATE learners SET all_tasks_completed = $2, updated_at = NOW()
				WHERE telegram_id = $1
			`, id.Int64(), v.Done)
		default:
			return fmt.Errorf("postgres: unknown learner update variant %T", u)
		}
		if err != nil {
			return fmt.Errorf("failed to apply learner update: %w", err)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Leaderboard
// ─────────────────────────────────────────────────────────────────────────────

// Top returns the top-N learners by score.
func (r *LearnerRepository) Top(ctx context.Context, limit int) ([]learner.LeaderboardEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT telegram_id, display_name, score
		FROM learners
		WHERE score > 0
		ORDER BY score DESC, telegram_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []learner.LeaderboardEntry
	rank := 0
	for rows.Next() {
		var (
			id    int64
			name  string
			score int
		)
		if err := rows.Scan(&id, &name, &score); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		rank++
		out = append(out, learner.LeaderboardEntry{
			Rank:        shared.Rank(rank),
			TelegramID:  shared.TelegramID(id),
			DisplayName: name,
			Score:       shared.Points(score),
		})
	}
	return out, rows.Err()
}

// RankOf returns the 1-based rank of a learner, 0 when unranked.
func (r *LearnerRepository) RankOf(ctx context.Context, id shared.TelegramID) (shared.Rank, error) {
	var score int
	err := r.q.QueryRow(ctx, `
		SELECT score FROM learners WHERE telegram_id = $1
	`, id.Int64()).Scan(&score)
	if err != nil {
		if IsNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query rank: %w", err)
	}
	if score == 0 {
		return 0, nil
	}

	var rank int
	err = r.q.QueryRow(ctx, `
		SELECT count(*) + 1 FROM learners WHERE score > $1
	`, score).Scan(&rank)
	if err != nil {
		return 0, fmt.Errorf("failed to query rank: %w", err)
	}
	return shared.Rank(rank), nil
}

// Count returns the number of registered learners.
func (r *LearnerRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, "SELECT count(*) FROM learners").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count learners: %w", err)
	}
	return n, nil
}

// StreaksAtRisk returns learners with a running streak whose last activity
// falls on the given Kyiv calendar day.
func (r *LearnerRepository) StreaksAtRisk(ctx context.Context, day time.Time) ([]learner.StreakAtRisk, error) {
	from := timeutil.StartOfDay(day)
	to := from.AddDate(0, 0, 1)

	rows, err := r.q.Query(ctx, `
		SELECT telegram_id, display_name, daily_streak
		FROM learners
		WHERE daily_streak > 0
		  AND last_activity_date >= $1 AND last_activity_date < $2
		ORDER BY daily_streak DESC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query streaks at risk: %w", err)
	}
	defer rows.Close()

	var out []learner.StreakAtRisk
	for rows.Next() {
		var (
			id     int64
			name   string
			streak int
		)
		if err := rows.Scan(&id, &name, &streak); err != nil {
			return nil, fmt.Errorf("failed to scan streak row: %w", err)
		}
		out = append(out, learner.StreakAtRisk{
			TelegramID:  shared.TelegramID(id),
			DisplayName: name,
			Streak:      streak,
		})
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Topic streaks and milestone awards
// ─────────────────────────────────────────────────────────────────────────────

// GetTopicStreak returns the streak for (user, topic), zero when absent.
func (r *LearnerRepository) GetTopicStreak(ctx context.Context, id shared.TelegramID, topic string) (learner.TopicStreak, error) {
	s := learner.TopicStreak{Topic: topic}
	err := r.q.QueryRow(ctx, `
		SELECT current FROM topic_streaks
		WHERE telegram_id = $1 AND topic = $2
	`, id.Int64(), topic).Scan(&s.Current)
	if err != nil {
		if IsNoRows(err) {
			return s, nil
		}
		return s, fmt.Errorf("failed to get topic streak: %w", err)
	}
	return s, nil
}

// SetTopicStreak upserts the streak for (user, topic).
func (r *LearnerRepository) SetTopicStreak(ctx context.Context, id shared.TelegramID, streak learner.TopicStreak) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO topic_streaks (telegram_id, topic, current, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (telegram_id, topic) DO UPDATE SET
			current = EXCLUDED.current,
			updated_at = NOW()
	`, id.Int64(), streak.Topic, streak.Current)
	if err != nil {
		return fmt.Errorf("failed to set topic streak: %w", err)
	}
	return nil
}

// HasMilestoneAward reports whether the threshold is already paid.
func (r *LearnerRepository) HasMilestoneAward(ctx context.Context, id shared.TelegramID, topic string, threshold int) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM milestone_awards
			WHERE telegram_id = $1 AND topic = $2 AND threshold = $3
		)
	`, id.Int64(), topic, threshold).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check milestone award: %w", err)
	}
	return exists, nil
}

// MarkMilestoneAward records the payout atomically; the composite primary
// key guarantees once per (user, topic, threshold).
func (r *LearnerRepository) MarkMilestoneAward(ctx context.Context, id shared.TelegramID, topic string, threshold int) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO milestone_awards (telegram_id, topic, threshold)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id, topic, threshold) DO NOTHING
	`, id.Int64(), topic, threshold)
	if err != nil {
		return false, fmt.Errorf("failed to mark milestone award: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Badges
// ─────────────────────────────────────────────────────────────────────────────

// HeldBadges returns the badge set of a user.
func (r *LearnerRepository) HeldBadges(ctx context.Context, id shared.TelegramID) (map[learner.BadgeName]struct{}, error) {
	rows, err := r.q.Query(ctx, `
		SELECT badge FROM badges WHERE telegram_id = $1
	`, id.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	held := make(map[learner.BadgeName]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan badge row: %w", err)
		}
		held[learner.BadgeName(name)] = struct{}{}
	}
	return held, rows.Err()
}

// GrantBadge records the grant atomically, once per (user, badge).
func (r *LearnerRepository) GrantBadge(ctx context.Context, id shared.TelegramID, name learner.BadgeName) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO badges (telegram_id, badge)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id, badge) DO NOTHING
	`, id.Int64(), name.String())
	if err != nil {
		return false, fmt.Errorf("failed to grant badge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Feedback
// ─────────────────────────────────────────────────────────────────────────────

// Save stores a feedback message and returns its identifier.
func (r *LearnerRepository) Save(ctx context.Context, id shared.TelegramID, text string) (string, error) {
	var fbID string
	err := r.q.QueryRow(ctx, `
		INSERT INTO feedback (telegram_id, body)
		VALUES ($1, $2)
		RETURNING id
	`, id.Int64(), text).Scan(&fbID)
	if err != nil {
		return "", fmt.Errorf("failed to save feedback: %w", err)
	}
	return fbID, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *LearnerRepository) scanLearner(row pgx.Row) (*learner.Learner, error) {
	var (
		l            learner.Learner
		id           int64
		score        int
		lastActivity *time.Time
		lastDaily    *time.Time
	)
	err := row.Scan(
		&id,
		&l.DisplayName,
		&score,
		&l.DailyStreak,
		&lastActivity,
		&lastDaily,
		&l.FeedbackCount,
		&l.TopicsCompleted,
		&l.AllTasksCompleted,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.TelegramID = shared.TelegramID(id)
	l.Score = shared.Points(score)
	if lastActivity != nil {
		l.LastActivityDate = *lastActivity
	}
	if lastDaily != nil {
		l.LastDailyAt = *lastDaily
	}
	return &l, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
