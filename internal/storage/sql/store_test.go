package sql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mailhub/backend/internal/domain"
	"mailhub/backend/internal/storage"
)

// newMockStore 基于 sqlmock 构建仓库，绕过真实数据库连接和迁移
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return &Store{db: db, gormDB: gormDB, driverName: "mysql"}, mock
}

func countRows(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func TestStoreUpdateAccount(t *testing.T) {
	account := &domain.Account{
		ID:        "acc-1",
		Email:     "user@example.com",
		Password:  "secret",
		IMAPHost:  "imap.example.com",
		IMAPPort:  993,
		SMTPHost:  "smtp.example.com",
		SMTPPort:  465,
		IsActive:  true,
		UpdatedAt: time.Now(),
	}

	t.Run("不存在的账号返回未找到", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT count").WillReturnRows(countRows(0))

		err := store.UpdateAccount(context.Background(), account)

		assert.ErrorIs(t, err, storage.ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("邮箱与其他账号冲突返回已存在", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT count").WillReturnRows(countRows(1))
		mock.ExpectQuery("SELECT count").WillReturnRows(countRows(1))

		err := store.UpdateAccount(context.Background(), account)

		assert.ErrorIs(t, err, storage.ErrEmailExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("字段无变化的更新不误报未找到", func(t *testing.T) {
		// MySQL 对未改变任何字段的 UPDATE 报告零受影响行
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT count").WillReturnRows(countRows(1))
		mock.ExpectQuery("SELECT count").WillReturnRows(countRows(0))
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := store.UpdateAccount(context.Background(), account)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStoreSaveAccount(t *testing.T) {
	t.Run("重复邮箱返回已存在", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT count").WillReturnRows(countRows(1))

		err := store.SaveAccount(context.Background(), &domain.Account{
			ID:    "acc-1",
			Email: "user@example.com",
		})

		assert.ErrorIs(t, err, storage.ErrEmailExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStoreGetAccount(t *testing.T) {
	t.Run("未命中记录返回未找到", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := store.GetAccount(context.Background(), "missing")

		assert.ErrorIs(t, err, storage.ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
