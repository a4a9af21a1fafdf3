package command

import (
	"context"
	"errors"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/quiz"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

// In-memory fakes shared by the command handler tests.

// ─────────────────────────────────────────────────────────────────────────────
// Session store
// ─────────────────────────────────────────────────────────────────────────────

type memSessionStore struct {
	sessions map[shared.TelegramID]*quiz.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[shared.TelegramID]*quiz.Session)}
}

func (s *memSessionStore) Get(_ context.Context, user shared.TelegramID) (*quiz.Session, error) {
	sess, ok := s.sessions[user]
	if !ok {
		return nil, shared.ErrStaleSession
	}
	return sess, nil
}

func (s *memSessionStore) Save(_ context.Context, sess *quiz.Session) error {
	s.sessions[sess.User] = sess
	return nil
}

func (s *memSessionStore) Clear(_ context.Context, user shared.TelegramID) error {
	delete(s.sessions, user)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Task repository
// ─────────────────────────────────────────────────────────────────────────────

type memTaskRepo struct {
	tasks       []*task.Task
	completions map[shared.TelegramID]map[shared.TaskID]struct{}

	failRecordCompletion bool
}

func newMemTaskRepo(tasks ...*task.Task) *memTaskRepo {
	return &memTaskRepo{
		tasks:       tasks,
		completions: make(map[shared.TelegramID]map[shared.TaskID]struct{}),
	}
}

func (r *memTaskRepo) matches(t *task.Task, opts task.FindOptions) bool {
	if opts.Category != "" && t.Category != opts.Category {
		return false
	}
	if opts.Topic != "" && t.Topic != opts.Topic {
		return false
	}
	if opts.Level != "" && t.Level != opts.Level {
		return false
	}
	if opts.Daily != nil && t.IsDaily != *opts.Daily {
		return false
	}
	if opts.ExcludingCompletedBy.IsValid() {
		if _, ok := r.completions[opts.ExcludingCompletedBy][t.ID]; ok {
			return false
		}
	}
	return true
}

func (r *memTaskRepo) Find(_ context.Context, opts task.FindOptions) ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range r.tasks {
		if r.matches(t, opts) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memTaskRepo) GetByID(_ context.Context, id shared.TaskID) (*task.Task, error) {
	for _, t := range r.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, shared.ErrTaskNotFound
}

func (r *memTaskRepo) ListCategories(_ context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, t := range r.tasks {
		if t.IsDaily || t.Category == "" {
			continue
		}
		if _, ok := seen[t.Category]; !ok {
			seen[t.Category] = struct{}{}
			out = append(out, t.Category)
		}
	}
	return out, nil
}

func (r *memTaskRepo) ListTopics(_ context.Context, category string) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, t := range r.tasks {
		if t.IsDaily {
			continue
		}
		if category != "" && t.Category != category {
			continue
		}
		if _, ok := seen[t.Topic]; !ok {
			seen[t.Topic] = struct{}{}
			out = append(out, t.Topic)
		}
	}
	return out, nil
}

func (r *memTaskRepo) ListLevels(_ context.Context, topic string) ([]task.Level, error) {
	present := map[task.Level]struct{}{}
	for _, t := range r.tasks {
		if t.IsDaily || t.Topic != topic {
			continue
		}
		present[t.Level] = struct{}{}
	}
	var out []task.Level
	for _, l := range task.Levels() {
		if _, ok := present[l]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memTaskRepo) RecordCompletion(_ context.Context, user shared.TelegramID, id shared.TaskID) (bool, error) {
	if r.failRecordCompletion {
		return false, shared.ErrRepositoryUnavailable
	}
	if r.completions[user] == nil {
		r.completions[user] = make(map[shared.TaskID]struct{})
	}
	if _, ok := r.completions[user][id]; ok {
		return false, nil
	}
	r.completions[user][id] = struct{}{}
	return true, nil
}

func (r *memTaskRepo) CompletedIDs(_ context.Context, user shared.TelegramID, opts task.FindOptions) (map[shared.TaskID]struct{}, error) {
	out := make(map[shared.TaskID]struct{})
	for _, t := range r.tasks {
		if !r.matches(t, opts) {
			continue
		}
		if _, ok := r.completions[user][t.ID]; ok {
			out[t.ID] = struct{}{}
		}
	}
	return out, nil
}

func (r *memTaskRepo) TopicProgress(_ context.Context, user shared.TelegramID, topic string) (task.TopicProgress, error) {
	p := task.TopicProgress{Topic: topic}
	for _, t := range r.tasks {
		if t.IsDaily || t.Topic != topic {
			continue
		}
		p.Total++
		if _, ok := r.completions[user][t.ID]; ok {
			p.Completed++
		}
	}
	return p, nil
}

func (r *memTaskRepo) AllTopicsProgress(_ context.Context, user shared.TelegramID) ([]task.TopicProgress, error) {
	topics, _ := r.ListTopics(context.Background(), "")
	var out []task.TopicProgress
	for _, topic := range topics {
		p, _ := r.TopicProgress(context.Background(), user, topic)
		out = append(out, p)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Learner repository, progress and unit of work
// ─────────────────────────────────────────────────────────────────────────────

type milestoneKey struct {
	user      shared.TelegramID
	topic     string
	threshold int
}

type memLearnerState struct {
	learners   map[shared.TelegramID]*learner.Learner
	streaks    map[shared.TelegramID]map[string]learner.TopicStreak
	milestones map[milestoneKey]struct{}
	badges     map[shared.TelegramID]map[learner.BadgeName]struct{}
	feedback   []string
}

func newMemLearnerState() *memLearnerState {
	return &memLearnerState{
		learners:   make(map[shared.TelegramID]*learner.Learner),
		streaks:    make(map[shared.TelegramID]map[string]learner.TopicStreak),
		milestones: make(map[milestoneKey]struct{}),
		badges:     make(map[shared.TelegramID]map[learner.BadgeName]struct{}),
	}
}

func (s *memLearnerState) GetByTelegramID(_ context.Context, id shared.TelegramID) (*learner.Learner, error) {
	l, ok := s.learners[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return l, nil
}

func (s *memLearnerState) Upsert(_ context.Context, l *learner.Learner) error {
	s.learners[l.TelegramID] = l
	return nil
}

func (s *memLearnerState) Apply(_ context.Context, id shared.TelegramID, updates ...learner.Update) error {
	l, ok := s.learners[id]
	if !ok {
		return shared.ErrLearnerNotFound
	}
	for _, u := range updates {
		switch v := u.(type) {
		case learner.AddScore:
			l.AddScore(v.Delta)
		case learner.SetDailyStreak:
			l.DailyStreak = v.Streak
			l.LastActivityDate = v.LastActiveDate
		case learner.SetLastDaily:
			l.LastDailyAt = v.Date
		case learner.IncrementFeedback:
			l.FeedbackCount++
		case learner.SetTopicsCompleted:
			l.TopicsCompleted = v.Count
		case learner.SetAllTasksCompleted:
			l.AllTasksCompleted = v.Done
		default:
			return errors.New("unknown update variant")
		}
	}
	return nil
}

func (s *memLearnerState) Top(_ context.Context, limit int) ([]learner.LeaderboardEntry, error) {
	return nil, nil
}

func (s *memLearnerState) RankOf(_ context.Context, id shared.TelegramID) (shared.Rank, error) {
	return 0, nil
}

func (s *memLearnerState) Count(_ context.Context) (int, error) {
	return len(s.learners), nil
}

func (s *memLearnerState) GetTopicStreak(_ context.Context, id shared.TelegramID, topic string) (learner.TopicStreak, error) {
	return s.streaks[id][topic], nil
}

func (s *memLearnerState) SetTopicStreak(_ context.Context, id shared.TelegramID, streak learner.TopicStreak) error {
	if s.streaks[id] == nil {
		s.streaks[id] = make(map[string]learner.TopicStreak)
	}
	s.streaks[id][streak.Topic] = streak
	return nil
}

func (s *memLearnerState) HasMilestoneAward(_ context.Context, id shared.TelegramID, topic string, threshold int) (bool, error) {
	_, ok := s.milestones[milestoneKey{id, topic, threshold}]
	return ok, nil
}

func (s *memLearnerState) MarkMilestoneAward(_ context.Context, id shared.TelegramID, topic string, threshold int) (bool, error) {
	k := milestoneKey{id, topic, threshold}
	if _, ok := s.milestones[k]; ok {
		return false, nil
	}
	s.milestones[k] = struct{}{}
	return true, nil
}

func (s *memLearnerState) HeldBadges(_ context.Context, id shared.TelegramID) (map[learner.BadgeName]struct{}, error) {
	out := make(map[learner.BadgeName]struct{})
	for b := range s.badges[id] {
		out[b] = struct{}{}
	}
	return out, nil
}

func (s *memLearnerState) GrantBadge(_ context.Context, id shared.TelegramID, name learner.BadgeName) (bool, error) {
	if s.badges[id] == nil {
		s.badges[id] = make(map[learner.BadgeName]struct{})
	}
	if _, ok := s.badges[id][name]; ok {
		return false, nil
	}
	s.badges[id][name] = struct{}{}
	return true, nil
}

func (s *memLearnerState) Save(_ context.Context, id shared.TelegramID, text string) (string, error) {
	s.feedback = append(s.feedback, text)
	return "fb-1", nil
}

// memUnitOfWork runs the body against the same in-memory state. There is no
// rollback; tests that need failure semantics inject a failing repository
// so the body exits before any mutation.
type memUnitOfWork struct {
	state *memLearnerState
	tasks *memTaskRepo
}

func (u *memUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, tx learner.TxRepositories) error) error {
	return fn(ctx, learner.TxRepositories{
		Learners:    u.state,
		Progress:    u.state,
		Completions: u.tasks,
		Tasks:       u.tasks,
	})
}
