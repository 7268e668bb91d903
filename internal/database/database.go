package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

//go:embed migrations
var migrationsFS embed.FS

type migration struct {
	version  int
	name     string
	upFile   string
	downFile string
}

var migrationFileRe = regexp.MustCompile(`^([0-9]{4})_(.+)\.(up|down)\.sql$`)

// Open 创建连接池，确认数据库可达，并执行尚未执行的迁移
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := Migrate(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// sqliteDSN 为每个连接打开外键约束并设置忙等待，PRAGMA 只对单个连接生效，所以放在 DSN 里
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "roster.db"
	}
	params := []string{"_foreign_keys=on", "_busy_timeout=5000"}
	if !strings.Contains(dsn, "mode=memory") {
		params = append(params, "_journal_mode=WAL")
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	return dsn + sep + strings.Join(params, "&")
}

func loadMigrations(driver string) (map[int]migration, error) {
	dir := path.Join("migrations", driver)
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, err
	}

	migrations := make(map[int]migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := migrationFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(m[1], "%04d", &version); err != nil {
			return nil, err
		}

		item := migrations[version]
		item.version = version
		item.name = m[2]
		if m[3] == "up" {
			item.upFile = path.Join(dir, entry.Name())
		} else {
			item.downFile = path.Join(dir, entry.Name())
		}
		migrations[version] = item
	}

	return migrations, nil
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := db.ExecContext(ctx, query)
	return err
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// Migrate 按版本号顺序执行所有未执行的 up 迁移，每个迁移在独立的事务中执行
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	migrations, err := loadMigrations(driver)
	if err != nil {
		return err
	}

	if err := ensureMigrationsTable(ctx, db); err != nil {
		return err
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	versions := make([]int, 0, len(migrations))
	for v := range migrations {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	for _, v := range versions {
		if applied[v] {
			continue
		}

		m := migrations[v]
		if m.upFile == "" {
			return fmt.Errorf("迁移 %04d 缺少 up 脚本", v)
		}
		script, err := migrationsFS.ReadFile(m.upFile)
		if err != nil {
			return err
		}

		if err := runInTx(ctx, db, string(script), `INSERT INTO schema_migrations (version) VALUES ($1)`, v); err != nil {
			return fmt.Errorf("迁移 %04d_%s 失败: %w", v, m.name, err)
		}
	}

	return nil
}

// RollbackLast 回滚最近一次执行的迁移
func RollbackLast(ctx context.Context, db *sql.DB, driver string) error {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return err
	}

	var version int
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}

	migrations, err := loadMigrations(driver)
	if err != nil {
		return err
	}
	m, ok := migrations[version]
	if !ok || m.downFile == "" {
		return fmt.Errorf("迁移 %04d 缺少 down 脚本", version)
	}
	script, err := migrationsFS.ReadFile(m.downFile)
	if err != nil {
		return err
	}

	return runInTx(ctx, db, string(script), `DELETE FROM schema_migrations WHERE version = $1`, version)
}

func runInTx(ctx context.Context, db *sql.DB, script, bookkeeping string, version int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, version); err != nil {
		return err
	}

	return tx.Commit()
}
