// Package postgresdb provides a PostgreSQL-based implementation of the storage
// contract for persisting users and their bookmarks.
// It supports transactional operations and batch purging of deleted bookmarks.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/bookmarkr/internal/bookmark"
	"github.com/patric-chuzhbe/bookmarkr/internal/user"
)

// PostgresDB is a PostgreSQL-backed implementation of the storage contract.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type initOptions struct {
	DBPreReset bool
}

// InitOption customizes the initialization of PostgresDB.
type InitOption func(*initOptions)

// WithDBPreReset drops the application tables before running migrations.
// Intended for tests only.
func WithDBPreReset(DBPreReset bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = DBPreReset
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil, fmt.Errorf("error while `result.resetDB()` calling: %w", err)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("error while `goose.SetDialect()` calling: %w", err)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("error while `goose.Up()` calling: %w", err)
	}

	return result, nil
}

func (db *PostgresDB) getQueryer(transaction *sql.Tx) queryer {
	if transaction == nil {
		return db.database
	}

	return transaction
}

func (db *PostgresDB) getExecutor(transaction *sql.Tx) executor {
	if transaction == nil {
		return db.database
	}

	return transaction
}

// CreateUser inserts a new user record and returns its ID.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error) {
	row := db.getQueryer(transaction).QueryRowContext(
		ctx,
		`
			INSERT INTO users (id, email, password_hash, first_name, last_name)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id
		`,
		usr.ID,
		usr.Email,
		usr.PasswordHash,
		usr.FirstName,
		usr.LastName,
	)
	var userIDFromDB string
	if err := row.Scan(&userIDFromDB); err != nil {
		return "", err
	}

	return userIDFromDB, nil
}

// GetUserByID fetches a user by its UUID, reporting whether it exists.
func (db *PostgresDB) GetUserByID(
	ctx context.Context,
	userID string,
	transaction *sql.Tx,
) (*user.User, bool, error) {
	if userID == "" {
		return nil, false, nil
	}

	return db.scanUser(db.getQueryer(transaction).QueryRowContext(
		ctx,
		`
			SELECT id, email, password_hash, first_name, last_name
				FROM users
				WHERE id = $1
		`,
		userID,
	))
}

// GetUserByEmail fetches a user by its unique email, reporting whether it exists.
func (db *PostgresDB) GetUserByEmail(
	ctx context.Context,
	email string,
	transaction *sql.Tx,
) (*user.User, bool, error) {
	return db.scanUser(db.getQueryer(transaction).QueryRowContext(
		ctx,
		`
			SELECT id, email, password_hash, first_name, last_name
				FROM users
				WHERE email = $1
		`,
		email,
	))
}

func (db *PostgresDB) scanUser(row *sql.Row) (*user.User, bool, error) {
	usr := &user.User{}
	err := row.Scan(&usr.ID, &usr.Email, &usr.PasswordHash, &usr.FirstName, &usr.LastName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return usr, true, nil
}

// UpdateUser persists the mutable profile fields of a user.
func (db *PostgresDB) UpdateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) error {
	_, err := db.getExecutor(transaction).ExecContext(
		ctx,
		`
			UPDATE users
				SET email = $2,
					first_name = $3,
					last_name = $4
				WHERE id = $1
		`,
		usr.ID,
		usr.Email,
		usr.FirstName,
		usr.LastName,
	)

	return err
}

// InsertBookmark stores a new bookmark owned by a user.
func (db *PostgresDB) InsertBookmark(
	ctx context.Context,
	bkm *bookmark.Bookmark,
	transaction *sql.Tx,
) error {
	_, err := db.getExecutor(transaction).ExecContext(
		ctx,
		`
			INSERT INTO bookmarks (id, user_id, title, link, description, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
		`,
		bkm.ID,
		bkm.UserID,
		bkm.Title,
		bkm.Link,
		bkm.Description,
		bkm.CreatedAt,
	)

	return err
}

// GetUserBookmarks returns the non-deleted bookmarks of a user in creation order.
func (db *PostgresDB) GetUserBookmarks(ctx context.Context, userID string) ([]*bookmark.Bookmark, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT id, user_id, title, link, description, created_at
				FROM bookmarks
				WHERE user_id = $1
					AND NOT is_deleted
				ORDER BY created_at, id
		`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*bookmark.Bookmark{}
	for rows.Next() {
		bkm := &bookmark.Bookmark{}
		err = rows.Scan(&bkm.ID, &bkm.UserID, &bkm.Title, &bkm.Link, &bkm.Description, &bkm.CreatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, bkm)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// GetBookmarkByID fetches a bookmark scoped to its owner,
// reporting whether it exists and is not deleted.
func (db *PostgresDB) GetBookmarkByID(
	ctx context.Context,
	userID string,
	bookmarkID string,
) (*bookmark.Bookmark, bool, error) {
	bkm := &bookmark.Bookmark{}
	err := db.database.QueryRowContext(
		ctx,
		`
			SELECT id, user_id, title, link, description, created_at
				FROM bookmarks
				WHERE id = $1
					AND user_id = $2
					AND NOT is_deleted
		`,
		bookmarkID,
		userID,
	).Scan(&bkm.ID, &bkm.UserID, &bkm.Title, &bkm.Link, &bkm.Description, &bkm.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return bkm, true, nil
}

// UpdateBookmark persists the mutable fields of a bookmark, scoped to its owner.
func (db *PostgresDB) UpdateBookmark(
	ctx context.Context,
	bkm *bookmark.Bookmark,
	transaction *sql.Tx,
) error {
	_, err := db.getExecutor(transaction).ExecContext(
		ctx,
		`
			UPDATE bookmarks
				SET title = $3,
					link = $4,
					description = $5
				WHERE id = $1
					AND user_id = $2
		`,
		bkm.ID,
		bkm.UserID,
		bkm.Title,
		bkm.Link,
		bkm.Description,
	)

	return err
}

// MarkBookmarkDeleted soft-deletes a bookmark, scoped to its owner.
func (db *PostgresDB) MarkBookmarkDeleted(ctx context.Context, userID, bookmarkID string) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			UPDATE bookmarks
				SET is_deleted = true
				WHERE id = $1
					AND user_id = $2
		`,
		bookmarkID,
		userID,
	)

	return err
}

// PurgeDeletedBookmarks physically removes a batch of soft-deleted bookmarks.
// It executes the deletions within a transaction to ensure consistency.
func (db *PostgresDB) PurgeDeletedBookmarks(
	ctx context.Context,
	usersBookmarks map[string][]string,
) error {
	transaction, err := db.database.Begin()
	if err != nil {
		return err
	}

	for userID, bookmarkIDs := range usersBookmarks {
		for _, bookmarkID := range bookmarkIDs {
			_, err := transaction.ExecContext(
				ctx,
				`
					DELETE FROM bookmarks
						WHERE id = $1
							AND user_id = $2
							AND is_deleted
				`,
				bookmarkID,
				userID,
			)
			if err != nil {
				if rollbackErr := transaction.Rollback(); rollbackErr != nil {
					return errors.Join(err, rollbackErr)
				}
				return err
			}
		}
	}

	return transaction.Commit()
}

// GetNumberOfUsers returns the total amount of registered users.
func (db *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	var count int64
	err := db.database.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)

	return count, err
}

// GetNumberOfBookmarks returns the total amount of non-deleted bookmarks.
func (db *PostgresDB) GetNumberOfBookmarks(ctx context.Context) (int64, error) {
	var count int64
	err := db.database.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM bookmarks WHERE NOT is_deleted`,
	).Scan(&count)

	return count, err
}

// BeginTransaction starts a new SQL transaction and returns it.
// The caller is responsible for committing or rolling it back.
func (db *PostgresDB) BeginTransaction() (*sql.Tx, error) {
	return db.database.Begin()
}

// CommitTransaction commits the given SQL transaction.
func (db *PostgresDB) CommitTransaction(transaction *sql.Tx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred while committing transaction: %v", r)
		}
	}()

	return transaction.Commit()
}

// RollbackTransaction rolls back the given SQL transaction.
func (db *PostgresDB) RollbackTransaction(transaction *sql.Tx) error {
	return transaction.Rollback()
}

// Ping verifies the database connection within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctx)
}

// Close closes the underlying database connection.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DROP TABLE IF EXISTS bookmarks;
			DROP TABLE IF EXISTS users;
			DROP TABLE IF EXISTS goose_db_version;
		`,
	)

	return err
}
