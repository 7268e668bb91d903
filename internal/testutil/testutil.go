package testutil

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/database"
	"golang.org/x/crypto/bcrypt"
)

// NewConfig 返回测试用配置，不依赖环境变量
func NewConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Environment = "test"
	cfg.Version = "test"
	cfg.Timezone = "UTC"
	cfg.Database.Driver = database.DriverSQLite
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 5
	cfg.InitialAdmin.Username = "admin"
	cfg.InitialAdmin.Password = "admin111"
	cfg.InitialAdmin.FullName = "Administrator"
	cfg.Session.Secret = "test-session-secret"
	cfg.Session.Expiration = 3600
	cfg.Session.CookieName = "__shift_roster_session"
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.CSRF.Enabled = false
	cfg.RabbitMQ.Queue = "email_queue"
	cfg.Redis.OperationTimeout = 1
	return cfg
}

// OpenInMemoryDB 打开一个以测试名区分的内存 SQLite 数据库并执行迁移，测试结束时自动关闭
func OpenInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(context.Background(), database.DriverSQLite, "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// 共享缓存的内存库在多个连接间会出现表锁，测试中只用一个连接
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	return db
}
