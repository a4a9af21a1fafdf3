// Package postgres implements the PostgreSQL persistence layer.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: TASKS AND LEARNERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create tasks and learners tables
-- Version: 001

-- Task bank. Accepted answers are kept as a text array: the evaluator
-- compares token sets, not strings.
CREATE TABLE IF NOT EXISTS tasks (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    category VARCHAR(100) NOT NULL DEFAULT '',
    topic VARCHAR(100) NOT NULL DEFAULT '',
    level VARCHAR(20) NOT NULL DEFAULT '',
    task_type VARCHAR(20) NOT NULL DEFAULT '',
    prompt TEXT NOT NULL,
    media_ref TEXT NOT NULL DEFAULT '',
    answers TEXT[] NOT NULL,
    explanation TEXT NOT NULL DEFAULT '',
    is_daily BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_level CHECK (level IN ('', 'легкий', 'середній', 'важкий')),
    CONSTRAINT has_answers CHECK (cardinality(answers) > 0)
);

CREATE INDEX IF NOT EXISTS idx_tasks_topic_level ON tasks(topic, level) WHERE NOT is_daily;
CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks(category) WHERE NOT is_daily;
CREATE INDEX IF NOT EXISTS idx_tasks_daily ON tasks(is_daily) WHERE is_daily;

-- Learner records keyed by the Telegram user id.
CREATE TABLE IF NOT EXISTS learners (
    telegram_id BIGINT PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL DEFAULT '',
    score INTEGER NOT NULL DEFAULT 0,
    daily_streak INTEGER NOT NULL DEFAULT 0,
    last_activity_date TIMESTAMP WITH TIME ZONE,
    last_daily_at TIMESTAMP WITH TIME ZONE,
    feedback_count INTEGER NOT NULL DEFAULT 0,
    topics_completed INTEGER NOT NULL DEFAULT 0,
    all_tasks_completed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_score CHECK (score >= 0),
    CONSTRAINT valid_daily_streak CHECK (daily_streak >= 0)
);

CREATE INDEX IF NOT EXISTS idx_learners_score ON learners(score DESC);

-- Completion facts. The composite primary key makes recordCompletion an
-- atomic insert-if-absent: ON CONFLICT DO NOTHING, RowsAffected tells
-- whether the fact is new.
CREATE TABLE IF NOT EXISTS completions (
    telegram_id BIGINT NOT NULL REFERENCES learners(telegram_id) ON DELETE CASCADE,
    task_id UUID NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (telegram_id, task_id)
);

CREATE INDEX IF NOT EXISTS idx_completions_task ON completions(task_id);
`

const migration001Down = `
DROP TABLE IF EXISTS completions;
DROP TABLE IF EXISTS learners;
DROP TABLE IF EXISTS tasks;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: GAMIFICATION
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create streak, milestone, badge and feedback tables
-- Version: 002

-- Per-topic correct-answer streaks.
CREATE TABLE IF NOT EXISTS topic_streaks (
    telegram_id BIGINT NOT NULL REFERENCES learners(telegram_id) ON DELETE CASCADE,
    topic VARCHAR(100) NOT NULL,
    current INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (telegram_id, topic),
    CONSTRAINT valid_current CHECK (current >= 0)
);

-- Permanent once-per-(user, topic, threshold) payout records. The mastery
-- bonus uses a reserved threshold value in the same table.
CREATE TABLE IF NOT EXISTS milestone_awards (
    telegram_id BIGINT NOT NULL REFERENCES learners(telegram_id) ON DELETE CASCADE,
    topic VARCHAR(100) NOT NULL,
    threshold INTEGER NOT NULL,
    awarded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (telegram_id, topic, threshold)
);

-- Granted badges; the primary key makes granting idempotent.
CREATE TABLE IF NOT EXISTS badges (
    telegram_id BIGINT NOT NULL REFERENCES learners(telegram_id) ON DELETE CASCADE,
    badge VARCHAR(50) NOT NULL,
    granted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (telegram_id, badge)
);

-- Feedback messages left via /feedback.
CREATE TABLE IF NOT EXISTS feedback (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    telegram_id BIGINT NOT NULL REFERENCES learners(telegram_id) ON DELETE CASCADE,
    body TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_feedback_learner ON feedback(telegram_id);
`

const migration002Down = `
DROP TABLE IF EXISTS feedback;
DROP TABLE IF EXISTS badges;
DROP TABLE IF EXISTS milestone_awards;
DROP TABLE IF EXISTS topic_streaks;
`
