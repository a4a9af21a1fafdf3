// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// TASK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TaskRepository implements task.Repository for PostgreSQL.
type TaskRepository struct {
	q Querier
}

// NewTaskRepository creates a new TaskRepository backed by the pool.
func NewTaskRepository(conn *Connection) *TaskRepository {
	return &TaskRepository{q: conn}
}

// NewTaskRepositoryWithQuerier binds the repository to an open transaction.
func NewTaskRepositoryWithQuerier(q Querier) *TaskRepository {
	return &TaskRepository{q: q}
}

const taskColumns = `id, category, topic, level, task_type, prompt, media_ref, answers, explanation, is_daily, created_at`

// ─────────────────────────────────────────────────────────────────────────────
// Lookups
// ─────────────────────────────────────────────────────────────────────────────

// Find returns tasks matching the filter, in stable insertion order.
func (r *TaskRepository) Find(ctx context.Context, opts task.FindOptions) ([]*task.Task, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if opts.Category != "" {
		where = append(where, "category = "+arg(opts.Category))
	}
	if opts.Topic != "" {
		where = append(where, "topic = "+arg(opts.Topic))
	}
	if opts.Level != "" {
		where = append(where, "level = "+arg(string(opts.Level)))
	}
	if opts.Daily != nil {
		where = append(where, "is_daily = "+arg(*opts.Daily))
	}
	if opts.ExcludingCompletedBy.IsValid() {
		where = append(where,
			"id NOT IN (SELECT task_id FROM completions WHERE telegram_id = "+arg(opts.ExcludingCompletedBy.Int64())+")")
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var out []*task.Task
	for rows.Next() {
		t, err := r.scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByID returns a task by its identifier.
func (r *TaskRepository) GetByID(ctx context.Context, id shared.TaskID) (*task.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE id = $1"

	t, err := r.scanTask(r.q.QueryRow(ctx, query, id.String()))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListCategories returns the distinct categories of regular tasks.
func (r *TaskRepository) ListCategories(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT category FROM tasks
		WHERE NOT is_daily AND category <> ''
		ORDER BY category
	`
	return r.listStrings(ctx, query)
}

// ListTopics returns the distinct topics, optionally within a category.
func (r *TaskRepository) ListTopics(ctx context.Context, category string) ([]string, error) {
	if category == "" {
		return r.listStrings(ctx, `
			SELECT DISTINCT topic FROM tasks
			WHERE NOT is_daily AND topic <> ''
			ORDER BY topic
		`)
	}
	return r.listStrings(ctx, `
		SELECT DISTINCT topic FROM tasks
		WHERE NOT is_daily AND topic <> '' AND category = $1
		ORDER BY topic
	`, category)
}

// ListLevels returns the levels present for a topic, in canonical order.
func (r *TaskRepository) ListLevels(ctx context.Context, topic string) ([]task.Level, error) {
	names, err := r.listStrings(ctx, `
		SELECT DISTINCT level FROM tasks
		WHERE NOT is_daily AND topic = $1 AND level <> ''
	`, topic)
	if err != nil {
		return nil, err
	}

	present := make(map[task.Level]struct{}, len(names))
	for _, n := range names {
		present[task.Level(n)] = struct{}{}
	}
	var out []task.Level
	for _, l := range task.Levels() {
		if _, ok := present[l]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Completion facts
// ─────────────────────────────────────────────────────────────────────────────

// RecordCompletion inserts the completion fact if it is absent.
// The returned flag is the write idempotence boundary: only a row that was
// actually inserted pays points.
func (r *TaskRepository) RecordCompletion(ctx context.Context, user shared.TelegramID, id shared.TaskID) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO completions (telegram_id, task_id)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id, task_id) DO NOTHING
	`, user.Int64(), id.String())
	if err != nil {
		return false, fmt.Errorf("failed to record completion: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CompletedIDs returns the completed task ids of a user within a filter.
func (r *TaskRepository) CompletedIDs(ctx context.Context, user shared.TelegramID, opts task.FindOptions) (map[shared.TaskID]struct{}, error) {
	tasks, err := r.Find(ctx, opts)
	if err != nil {
		return nil, err
	}
	ids := make(map[shared.TaskID]struct{}, len(tasks))
	if len(tasks) == 0 {
		return ids, nil
	}

	rows, err := r.q.Query(ctx, `
		SELECT task_id FROM completions WHERE telegram_id = $1
	`, user.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	completed := make(map[shared.TaskID]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan completion row: %w", err)
		}
		completed[shared.TaskID(id)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range tasks {
		if _, ok := completed[t.ID]; ok {
			ids[t.ID] = struct{}{}
		}
	}
	return ids, nil
}

// TopicProgress returns the completed/total counters for one topic.
func (r *TaskRepository) TopicProgress(ctx context.Context, user shared.TelegramID, topic string) (task.TopicProgress, error) {
	p := task.TopicProgress{Topic: topic}
	err := r.q.QueryRow(ctx, `
		SELECT
			count(*),
			count(c.task_id)
		FROM tasks t
		LEFT JOIN completions c ON c.task_id = t.id AND c.telegram_id = $1
		WHERE NOT t.is_daily AND t.topic = $2
	`, user.Int64(), topic).Scan(&p.Total, &p.Completed)
	if err != nil {
		return task.TopicProgress{}, fmt.Errorf("failed to query topic progress: %w", err)
	}
	return p, nil
}

// AllTopicsProgress returns the counters for every topic.
func (r *TaskRepository) AllTopicsProgress(ctx context.Context, user shared.TelegramID) ([]task.TopicProgress, error) {
	rows, err := r.q.Query(ctx, `
		SELECT
			t.topic,
			count(*),
			count(c.task_id)
		FROM tasks t
		LEFT JOIN completions c ON c.task_id = t.id AND c.telegram_id = $1
		WHERE NOT t.is_daily AND t.topic <> ''
		GROUP BY t.topic
		ORDER BY t.topic
	`, user.Int64())
	if err != nil {
		return nil, fmt.Errorf("failed to query topics progress: %w", err)
	}
	defer rows.Close()

	var out []task.TopicProgress
	for rows.Next() {
		var p task.TopicProgress
		if err := rows.Scan(&p.Topic, &p.Total, &p.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan topic progress row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func (r *TaskRepository) scanTask(row pgx.Row) (*task.Task, error) {
	var (
		t       task.Task
		id      string
		level   string
		typ     string
		answers []string
	)
	err := row.Scan(&id, &t.Category, &t.Topic, &level, &typ, &t.Prompt, &t.MediaRef, &answers, &t.Explanation, &t.IsDaily, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.ID = shared.TaskID(id)
	t.Level = task.Level(level)
	t.Type = task.Type(typ)
	t.Answers = answers
	return &t, nil
}

func (r *TaskRepository) listStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
