package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"remote-medic/internal/apperr"
	"remote-medic/internal/service"
	"remote-medic/internal/transport/http/ez"
	mdw "remote-medic/internal/transport/http/middleware"
)

type UsersModule struct {
	db *gorm.DB
	l  *zap.Logger
}

func NewUsersModule(db *gorm.DB, l *zap.Logger) *UsersModule {
	return &UsersModule{db: db, l: l}
}

func (m *UsersModule) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/users")

	// 用户管理是 admin 专属
	admin := g.Group("")
	admin.Use(mdw.RequireAdmin())

	ez.Register(admin, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			users, err := service.ListUsers(tx)
			if err != nil {
				return nil, err
			}
			return gin.H{"users": service.UserDTOs(users), "total": len(users)}, nil
		},
	})

	ez.Register(admin, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/:id/activate",
		Binder: ez.BindNone,
		Tx:     true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid user id")
			}
			u, err := service.SetUserActive(tx, mdw.UID(c), id, true)
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "user activated", "user": service.UserDTO(u)}, nil
		},
	})

	ez.Register(admin, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/:id/deactivate",
		Binder: ez.BindNone,
		Tx:     true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid user id")
			}
			u, err := service.SetUserActive(tx, mdw.UID(c), id, false)
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "user deactivated", "user": service.UserDTO(u)}, nil
		},
	})

	ez.Register(g, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid user id")
			}
			u, err := service.GetUser(tx, id)
			if err != nil {
				return nil, err
			}
			return gin.H{"user": service.UserDTO(u)}, nil
		},
	})

	ez.Register(g, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/:id/patients",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid user id")
			}
			patients, err := service.PatientsOfUser(tx, id)
			if err != nil {
				return nil, err
			}
			return gin.H{
				"user_id":        id,
				"patients":       patientDTOs(patients),
				"total_patients": len(patients),
			}, nil
		},
	})
}

