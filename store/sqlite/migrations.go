package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the academy store (SQLite).
var Migrations = migrate.NewGroup("academy")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_academy_users",
			Version: "20250301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS academy_users (
    id                  INTEGER PRIMARY KEY,
    username            TEXT NOT NULL DEFAULT '',
    full_name           TEXT NOT NULL DEFAULT '',
    registered_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    current_course_id   INTEGER,
    subscription_active INTEGER NOT NULL DEFAULT 0,
    created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
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
    id             INTEGER PRIMARY KEY,
    title          TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    price_amount   INTEGER NOT NULL CHECK (price_amount > 0),
    price_currency TEXT NOT NULL DEFAULT 'rub',
    duration_days  INTEGER NOT NULL DEFAULT 0,
    active         INTEGER NOT NULL DEFAULT 1,
    position       INTEGER NOT NULL DEFAULT 0,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS academy_lessons (
    id          INTEGER PRIMARY KEY,
    course_id   INTEGER NOT NULL REFERENCES academy_courses (id),
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    position    INTEGER NOT NULL DEFAULT 0,
    points      INTEGER NOT NULL DEFAULT 10 CHECK (points >= 0),
    demo        INTEGER NOT NULL DEFAULT 0,
    video_ref   TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_academy_lessons_course ON academy_lessons (course_id, position);

CREATE TABLE IF NOT EXISTS academy_tasks (
    id             INTEGER PRIMARY KEY,
    lesson_id      INTEGER NOT NULL REFERENCES academy_lessons (id),
    title          TEXT NOT NULL DEFAULT '',
    question       TEXT NOT NULL,
    type           TEXT NOT NULL DEFAULT 'quiz',
    points         INTEGER NOT NULL DEFAULT 20 CHECK (points >= 0),
    options        TEXT NOT NULL DEFAULT '[]',
    correct_answer TEXT NOT NULL DEFAULT '',
    explanation    TEXT NOT NULL DEFAULT '',
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
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
    user_id         INTEGER NOT NULL,
    target_kind     TEXT NOT NULL,
    lesson_id       INTEGER NOT NULL DEFAULT 0,
    task_id         INTEGER NOT NULL DEFAULT 0,
    course_id       INTEGER NOT NULL DEFAULT 0,
    kind            TEXT NOT NULL,
    points          INTEGER NOT NULL CHECK (points >= 0),
    idempotency_key TEXT NOT NULL DEFAULT '',
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
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
