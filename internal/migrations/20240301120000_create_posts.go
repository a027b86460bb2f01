package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreatePosts, downCreatePosts)
}

func upCreatePosts(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS posts (
		id             TEXT PRIMARY KEY,
		title          TEXT NOT NULL,
		cover_image    TEXT NOT NULL DEFAULT '',
		rating         DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (rating >= 0 AND rating <= 5),
		review         TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT 'Viendo' CHECK (status IN ('Viendo', 'Finalizado', 'Abandonado')),
		tags           JSONB NOT NULL DEFAULT '[]',
		favorite_quote TEXT NOT NULL DEFAULT '',
		where_to_watch JSONB NOT NULL DEFAULT '[]',
		korean_crush   JSONB,
		song           JSONB,
		created_at     TIMESTAMP WITH TIME ZONE NOT NULL,
		updated_at     TIMESTAMP WITH TIME ZONE NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at DESC, id);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downCreatePosts(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP TABLE IF EXISTS posts;
	`)
	if err != nil {
		return err
	}
	return nil
}
