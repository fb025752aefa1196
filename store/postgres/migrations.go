package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the academy store.
var Migrations = migrate.NewGroup("academy")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_academy_users",
			Version: "20250301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS academy_users (
    id                  BIGINT PRIMARY KEY,
    username            TEXT NOT NULL DEFAULT '',
    full_name           TEXT NOT NULL DEFAULT '',
    registered_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    current_course_id   BIGINT,
    subscription_active BOOLEAN NOT NULL DEFAULT FALSE,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS academy_users`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_academy_catalog",
			Version: "20250301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS academy_courses (
    id             BIGINT PRIMARY KEY,
    title          TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    price_amount   BIGINT NOT NULL CHECK (price_amount > 0),
    price_currency TEXT NOT NULL DEFAULT 'rub',
    duration_days  INT NOT NULL DEFAULT 0,
    active         BOOLEAN NOT NULL DEFAULT TRUE,
    position       INT NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS academy_lessons (
    id          BIGINT PRIMARY KEY,
    course_id   BIGINT NOT NULL REFERENCES academy_courses (id),
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    position    INT NOT NULL DEFAULT 0,
    points      INT NOT NULL DEFAULT 10 CHECK (points >= 0),
    demo        BOOLEAN NOT NULL DEFAULT FALSE,
    video_ref   TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_academy_lessons_course ON academy_lessons (course_id, position);

CREATE TABLE IF NOT EXISTS academy_tasks (
    id             BIGINT PRIMARY KEY,
    lesson_id      BIGINT NOT NULL REFERENCES academy_lessons (id),
    title          TEXT NOT NULL DEFAULT '',
    question       TEXT NOT NULL,
    type           TEXT NOT NULL DEFAULT 'quiz',
    points         INT NOT NULL DEFAULT 20 CHECK (points >= 0),
    options        JSONB NOT NULL DEFAULT '[]',
    correct_answer TEXT NOT NULL DEFAULT '',
    explanation    TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_academy_tasks_lesson ON academy_tasks (lesson_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS academy_tasks;
DROP TABLE IF EXISTS academy_lessons;
DROP TABLE IF EXISTS academy_courses;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_academy_completions",
			Version: "20250301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS academy_completions (
    id              TEXT PRIMARY KEY,
    user_id         BIGINT NOT NULL REFERENCES academy_users (id),
    target_kind     TEXT NOT NULL CHECK (target_kind IN ('lesson', 'task', 'course')),
    lesson_id       BIGINT NOT NULL DEFAULT 0,
    task_id         BIGINT NOT NULL DEFAULT 0,
    course_id       BIGINT NOT NULL DEFAULT 0,
    kind            TEXT NOT NULL,
    points          INT NOT NULL CHECK (points >= 0),
    idempotency_key TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_academy_completions_user ON academy_completions (user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_academy_completions_purchase ON academy_completions (user_id, course_id) WHERE target_kind = 'course';
CREATE UNIQUE INDEX IF NOT EXISTS idx_academy_completions_idempotency
    ON academy_completions (idempotency_key) WHERE idempotency_key != '';
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS academy_completions`)
				return err
			},
		},
	)
}
