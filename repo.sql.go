package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var createTableStatements = map[string]string{
	SQLiteDriver: `CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		comment TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	MySQLDriver: `CREATE TABLE IF NOT EXISTS %s (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		comment TEXT NOT NULL,
		created_at VARCHAR(40) NOT NULL,
		PRIMARY KEY (id)
	)`,
}

type sqlBookStorage struct {
	logger *zap.Logger
	db     *sql.DB
	table  string
}

// GetSQLClient opens the database behind the sqlite or mysql driver
// and ensures the books table exists.
func GetSQLClient(config *Config) (*sql.DB, error) {
	stmt, ok := createTableStatements[config.Store.Driver]
	if !ok {
		return nil, fmt.Errorf("sql: unsupported driver %q", config.Store.Driver)
	}
	db, err := sql.Open(config.Store.Driver, config.Store.URL)
	if err != nil {
		return nil, fmt.Errorf("sql: could not get a connection: %w", err)
	}
	if config.Store.Driver == SQLiteDriver {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(time.Hour)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sql: could not establish a good connection: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf(stmt, config.Store.Table)); err != nil {
		db.Close()
		return nil, fmt.Errorf("sql: could not create %s table: %w", config.Store.Table, err)
	}
	return db, nil
}

// NewSQLBookStorage provides an instance of sql-based book storage.
func NewSQLBookStorage(logger *zap.Logger, db *sql.DB, table string) BookStorage {
	return &sqlBookStorage{
		logger: logger,
		db:     db,
		table:  table,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(s rowScanner) (Book, error) {
	var (
		book Book
		id   int64
	)
	if err := s.Scan(&id, &book.Title, &book.Summary, &book.Comment, &book.CreatedAt); err != nil {
		return Book{}, err
	}
	book.ID = BookID(strconv.FormatInt(id, 10))
	return book, nil
}

// Add inserts a new book record and returns it with its generated id.
func (ss *sqlBookStorage) Add(ctx context.Context, book Book) (Book, error) {
	query := fmt.Sprintf("INSERT INTO %s (title, summary, comment, created_at) VALUES (?, ?, ?, ?)", ss.table)
	res, err := ss.db.ExecContext(ctx, query, book.Title, book.Summary, book.Comment, book.CreatedAt)
	if err != nil {
		return book, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return book, err
	}
	book.ID = BookID(strconv.FormatInt(id, 10))
	return book, nil
}

// GetOne retrieves a book record based on its ID.
func (ss *sqlBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	query := fmt.Sprintf("SELECT id, title, summary, comment, created_at FROM %s WHERE id = ?", ss.table)
	book, err := scanBook(ss.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, ErrBookNotFound
	}
	return book, err
}

// Delete removes a book record based on its ID.
func (ss *sqlBookStorage) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", ss.table)
	res, err := ss.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

// Update sets the editable fields of the book matching id then reads it back.
// MySQL reports zero affected rows when values are unchanged so the existence
// is decided by the read.
func (ss *sqlBookStorage) Update(ctx context.Context, id string, in BookInput) (Book, error) {
	query := fmt.Sprintf("UPDATE %s SET title = ?, summary = ?, comment = ? WHERE id = ?", ss.table)
	if _, err := ss.db.ExecContext(ctx, query, in.Title, in.Summary, in.Comment, id); err != nil {
		return Book{}, err
	}
	return ss.GetOne(ctx, id)
}

// GetAll retrieves all books ordered by creation time.
func (ss *sqlBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	query := fmt.Sprintf("SELECT id, title, summary, comment, created_at FROM %s ORDER BY created_at ASC, id ASC", ss.table)
	rows, err := ss.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// Close closes the underlying database handle.
func (ss *sqlBookStorage) Close() error {
	return ss.db.Close()
}
