package ez_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"remote-medic/internal/apperr"
	"remote-medic/internal/transport/http/ez"
)

type note struct {
	ID   uint   `gorm:"primaryKey"`
	Body string `gorm:"size:100"`
}

func newActionDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&note{}))
	return db
}

func serve(t *testing.T, r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestActionAfterRunsPostCommit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newActionDB(t)
	r := gin.New()
	g := r.Group("")

	// After 里用独立会话读库：只有事务已提交才看得到写入
	var seenAfterCommit int64 = -1
	ez.Register(g, db, zap.NewNop(), ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/notes",
		Binder: ez.BindNone,
		Tx:     true,
		After: func(c *gin.Context) {
			db.Model(&note{}).Count(&seenAfterCommit)
		},
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			return gin.H{"ok": 1}, tx.Create(&note{Body: "x"}).Error
		},
	})

	w := serve(t, r, http.MethodPost, "/notes")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, seenAfterCommit)
}

func TestActionAfterSkippedOnFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newActionDB(t)
	r := gin.New()
	g := r.Group("")

	afterRan := false
	ez.Register(g, db, zap.NewNop(), ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/notes",
		Binder: ez.BindNone,
		Tx:     true,
		After:  func(c *gin.Context) { afterRan = true },
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			if err := tx.Create(&note{Body: "x"}).Error; err != nil {
				return nil, err
			}
			return nil, apperr.BadRequest("nope")
		},
	})

	w := serve(t, r, http.MethodPost, "/notes")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, afterRan) // 回滚的写不触发副作用

	var count int64
	db.Model(&note{}).Count(&count)
	assert.Zero(t, count)
}
