package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/diamondburned/smolpost/smolpost"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
)

var migrations = []string{`
	CREATE TABLE posts (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT, -- insertion order
		id         INTEGER NOT NULL UNIQUE,
		title      TEXT    NOT NULL,
		content    TEXT    NOT NULL,
		mediaurl   TEXT,
		attributes BLOB
	);
`}

// Database is a post store backed by SQLite.
type Database struct {
	*sqlx.DB
	Config DBConfig
}

var _ Store = (*Database)(nil)

func NewDatabase(config DBConfig) (*Database, error) {
	d, err := sqlx.Open("sqlite3", config.DatabasePath)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to open sqlite3 db")
	}

	// SQLite only allows one writer anyway. Using a single connection also
	// serializes the ID generation in MakePost.
	d.SetMaxOpenConns(1)

	db := &Database{d, config}

	v, err := db.userVersion()
	if err != nil {
		d.Close()
		return nil, errors.Wrap(err, "Failed to get user_version pragma")
	}

	// If we're already up-to-date with all the migrations, then we're done.
	if v >= len(migrations) {
		return db, nil
	}

	if err := db.migrate(v); err != nil {
		d.Close()
		return nil, err
	}

	return db, nil
}

func (d *Database) migrate(from int) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "Failed to start a transaction for migrations")
	}
	// Rollback in the end even if we've failed, just in case.
	defer tx.Rollback()

	// Handle migrations. We just pick up from the changes in the migrations
	// slice.
	for i := from; i < len(migrations); i++ {
		if _, err := tx.Exec(migrations[i]); err != nil {
			return errors.Wrapf(err, "Failed to migrate at step %d", i)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(migrations))); err != nil {
		return errors.Wrap(err, "Failed to save user_version pragma")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "Failed to save migration changes")
	}

	return nil
}

func (d *Database) userVersion() (int, error) {
	var version int
	return version, d.QueryRow("PRAGMA user_version").Scan(&version)
}

func (d *Database) Close() error {
	return d.DB.Close()
}

// TxHandler is a function called within a transaction.
type TxHandler = func(*sqlx.Tx) error

// Acquire runs fn in a transaction and commits it if fn returns no error.
func (d *Database) Acquire(ctx context.Context, fn TxHandler) error {
	t, err := d.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "Failed to begin transaction")
	}
	defer t.Rollback()

	if err := fn(t); err != nil {
		return err
	}

	return t.Commit()
}

const selectPosts = "SELECT id, title, content, mediaurl, attributes FROM posts "

func (d *Database) MakePost(ctx context.Context, p *smolpost.Post) error {
	return d.Acquire(ctx, func(tx *sqlx.Tx) error {
		var ids []int

		if err := tx.SelectContext(ctx, &ids, "SELECT id FROM posts"); err != nil {
			return errors.Wrap(err, "Failed to query post IDs")
		}

		var used = make(map[int]struct{}, len(ids))
		for _, id := range ids {
			used[id] = struct{}{}
		}

		p.ID = smallestUnused(used)

		_, err := tx.ExecContext(ctx,
			"INSERT INTO posts (id, title, content, mediaurl, attributes) VALUES (?, ?, ?, ?, ?)",
			p.ID, p.Title, p.Content, p.MediaURL, p.Attributes,
		)
		if err != nil {
			return errors.Wrap(err, "Failed to save post")
		}

		return nil
	})
}

func (d *Database) Post(ctx context.Context, id int) (*smolpost.Post, error) {
	var post smolpost.Post

	err := d.QueryRowxContext(ctx, selectPosts+"WHERE id = ? LIMIT 1", id).StructScan(&post)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, smolpost.ErrPostNotFound
		}
		return nil, errors.Wrap(err, "Failed to get post")
	}

	return &post, nil
}

func (d *Database) Page(ctx context.Context, page int) (smolpost.Page, error) {
	var result smolpost.Page

	err := d.Acquire(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &result.Total, "SELECT COUNT(*) FROM posts"); err != nil {
			return errors.Wrap(err, "Failed to count posts")
		}

		result.Count = smolpost.PageCount(result.Total)
		result.Number = PageNumber(result.Total, page)
		result.Posts = make([]smolpost.Post, 0, smolpost.PageSize)

		// Sort by the insertion order decrementally, which is latest first.
		err := tx.SelectContext(ctx, &result.Posts,
			selectPosts+"ORDER BY seq DESC LIMIT ? OFFSET ?",
			smolpost.PageSize, result.Number*smolpost.PageSize,
		)
		if err != nil {
			return errors.Wrap(err, "Failed to query for posts")
		}

		return nil
	})

	return result, err
}

func (d *Database) Clear(ctx context.Context) error {
	_, err := d.ExecContext(ctx, "DELETE FROM posts")
	return errors.Wrap(err, "Failed to clear posts")
}
