package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"PressTopics/internal/domain"
	"PressTopics/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	link TEXT NOT NULL,
	date TEXT,
	company TEXT,
	industry TEXT,
	content TEXT NOT NULL
);
`

// SQLiteRepository persists crawled articles into SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.ArticleStore = (*SQLiteRepository)(nil)

// OpenSQLite opens (creating if needed) the database at path with WAL mode
// enabled and the articles table in place.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Insert writes one article and returns its store-assigned id.
func (r *SQLiteRepository) Insert(ctx context.Context, article domain.Article) (int64, error) {
	if err := article.Validate(); err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}

	query, args, err := sq.Insert("articles").
		Columns("title", "link", "date", "company", "industry", "content").
		Values(
			article.Title,
			article.Link,
			nullable(article.PublishedAt),
			nullable(article.Company),
			nullable(article.Industry),
			article.Content,
		).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Query runs a read-only selection and maps its rows to articles in order.
// The selection must yield at least id, title, link and content columns.
func (r *SQLiteRepository) Query(ctx context.Context, selection string) ([]domain.Article, error) {
	if err := domain.ValidateSelection(selection); err != nil {
		return nil, err
	}

	query, args, err := sq.Select("*").
		From("(" + domain.NormalizeSelection(selection) + ") AS selection").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build selection: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query selection: %w", err)
	}

	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("read columns: %w", err)
	}
	index := columnIndex(columns)
	for _, required := range []string{"id", "title", "link", "content"} {
		if _, ok := index[required]; !ok {
			_ = rows.Close()
			return nil, fmt.Errorf("%w: selection must return column %q", domain.ErrInvalidSelection, required)
		}
	}

	var result []domain.Article
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan article: %w", err)
		}

		id, err := asInt64(values[index["id"]])
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan article id: %w", err)
		}

		article := domain.Article{
			ID:      id,
			Title:   asString(values[index["title"]]),
			Link:    asString(values[index["link"]]),
			Content: asString(values[index["content"]]),
		}
		if i, ok := index["date"]; ok {
			article.PublishedAt = asString(values[i])
		} else if i, ok := index["published_at"]; ok {
			article.PublishedAt = asString(values[i])
		}
		if i, ok := index["company"]; ok {
			article.Company = asString(values[i])
		}
		if i, ok := index["industry"]; ok {
			article.Industry = asString(values[i])
		}
		result = append(result, article)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

func columnIndex(columns []string) map[string]int {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		name := strings.ToLower(c)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	return index
}

func nullable(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func asInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	case []byte:
		return strconv.ParseInt(string(t), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected id type %T", v)
	}
}

// SQLiteOpener opens the repository at a fixed path for each job.
type SQLiteOpener struct {
	Path string
}

var _ ports.StoreOpener = SQLiteOpener{}

// Open implements ports.StoreOpener.
func (o SQLiteOpener) Open(ctx context.Context) (ports.ArticleStore, error) {
	return OpenSQLite(ctx, o.Path)
}
