package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewGorm(Opts{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "users.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestNewGorm_UnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestGoose_UpAndDown(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, db, "sqlite", "goose", nil))
	assert.True(t, db.Migrator().HasTable("users"))
	assert.True(t, db.Migrator().HasIndex("users", "idx_users_email"))

	// 重复执行无副作用
	require.NoError(t, Goose(ctx, db, "sqlite", "up", nil))
	require.NoError(t, Goose(ctx, db, "sqlite", "status", nil))

	require.NoError(t, Goose(ctx, db, "sqlite", "down", nil))
	assert.False(t, db.Migrator().HasTable("users"))
}

func TestGoose_UnknownDriver(t *testing.T) {
	db := openSQLite(t)
	err := Goose(context.Background(), db, "memory", "up", nil)
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestMigrate_NoneSkips(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Migrate(context.Background(), db, "sqlite", "none", nil))
	assert.False(t, db.Migrator().HasTable("users"))
}

func TestNormalizeMySQLDSN(t *testing.T) {
	cases := []struct {
		name, in, user, pass, want string
	}{
		{
			name: "native dsn untouched",
			in:   "root:pw@tcp(127.0.0.1:3306)/app?parseTime=true",
			want: "root:pw@tcp(127.0.0.1:3306)/app?parseTime=true",
		},
		{
			name: "jdbc url",
			in:   "jdbc:mysql://db:3306/app?useSSL=false&characterEncoding=utf8",
			user: "svc", pass: "secret",
			want: "svc:secret@tcp(db:3306)/app?charset=utf8&parseTime=true&tls=false",
		},
		{
			name: "url credentials with defaults",
			in:   "mysql://u:p@localhost:3306/app",
			want: "u:p@tcp(localhost:3306)/app?charset=utf8mb4&parseTime=true",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeMySQLDSN(tc.in, tc.user, tc.pass))
		})
	}
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "root:****@tcp(db)/app", maskDSN("root:pw@tcp(db)/app"))
	assert.Equal(t, "file.db", maskDSN("file.db"))
}
