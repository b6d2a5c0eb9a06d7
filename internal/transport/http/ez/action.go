package ez

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"remote-medic/internal/apperr"
	resp "remote-medic/internal/transport/http/response"
)

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / c.Query 取
)

// Action 定义一个接口：I 入参，O 出参。写操作设 Tx=true 包事务，
// 失败整体回滚，不会留下半次写入。
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Tx      bool
	Status  int // 成功状态码，默认 200
	Handler func(c *gin.Context, tx *gorm.DB, in *I) (O, error)
	After   func(c *gin.Context) // 成功（事务已提交）后执行，适合缓存失效类副作用
}

// Register 挂载动作：绑定 → （可选事务）执行 → 错误映射。
func Register[I any, O any](g *gin.RouterGroup, db *gorm.DB, l *zap.Logger, a Action[I, O]) {
	h := func(c *gin.Context) {
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			c.JSON(http.StatusBadRequest, resp.Err(bindErr.Error()))
			return
		}

		run := func(tx *gorm.DB) (O, error) { return a.Handler(c, tx, &in) }
		var out O
		var err error
		if a.Tx {
			err = db.WithContext(c).Transaction(func(tx *gorm.DB) error {
				o, e := run(tx)
				out = o
				return e
			})
		} else {
			out, err = run(db.WithContext(c))
		}

		if err != nil {
			writeError(c, l, err)
			return
		}
		if a.After != nil {
			a.After(c)
		}
		status := a.Status
		if status == 0 {
			status = http.StatusOK
		}
		c.JSON(status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		g.GET(a.Path, h)
	case http.MethodPut:
		g.PUT(a.Path, h)
	case http.MethodDelete:
		g.DELETE(a.Path, h)
	default:
		g.POST(a.Path, h)
	}
}

// writeError：业务错误按分类返回；其余一律 500，细节只进日志。
func writeError(c *gin.Context, l *zap.Logger, err error) {
	if ae, ok := apperr.From(err); ok {
		if ae.Status >= http.StatusInternalServerError {
			l.Error("internal error",
				zap.String("path", c.FullPath()),
				zap.String("msg", ae.Msg),
				zap.Error(ae.Err),
			)
			c.JSON(ae.Status, resp.Err("internal server error"))
			return
		}
		c.JSON(ae.Status, resp.Err(ae.Error()))
		return
	}
	l.Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, resp.Err("internal server error"))
}

// UintParam 解析路径参数为 uint；失败返回 0,false。
func UintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}
