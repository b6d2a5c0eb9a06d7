package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"remote-medic/internal/apperr"
	"remote-medic/internal/core/auth"
	"remote-medic/internal/service"
	"remote-medic/internal/transport/http/ez"
	mdw "remote-medic/internal/transport/http/middleware"
)

type AuthModule struct {
	db    *gorm.DB
	l     *zap.Logger
	jwter *auth.JWTer
}

func NewAuthModule(db *gorm.DB, l *zap.Logger, jwter *auth.JWTer) *AuthModule {
	return &AuthModule{db: db, l: l, jwter: jwter}
}

func (m *AuthModule) Priority() int { return 10 }

func (m *AuthModule) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/auth")

	type registerIn struct {
		Username  string  `json:"username"`
		Email     string  `json:"email"`
		Password  string  `json:"password"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
	}
	ez.Register(g, m.db, m.l, ez.Action[registerIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: ez.BindJSON,
		Tx:     true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, tx *gorm.DB, in *registerIn) (gin.H, error) {
			var missing []string
			for _, f := range []struct{ name, value string }{
				{"username", in.Username},
				{"email", in.Email},
				{"password", in.Password},
			} {
				if f.value == "" {
					missing = append(missing, f.name)
				}
			}
			if len(missing) > 0 {
				return nil, apperr.BadRequest("required fields: " + strings.Join(missing, ", "))
			}
			u, err := service.Register(tx, service.RegisterInput{
				Username:  in.Username,
				Email:     in.Email,
				Password:  in.Password,
				FirstName: in.FirstName,
				LastName:  in.LastName,
			})
			if err != nil {
				return nil, err
			}
			tok, err := m.jwter.Issue(u.ID, u.Username, u.IsAdmin)
			if err != nil {
				return nil, apperr.Internal("issue token failed", err)
			}
			return gin.H{
				"message": "user registered",
				"user":    service.UserDTO(u),
				"token":   tok,
			}, nil
		},
	})

	type loginIn struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	ez.Register(g, m.db, m.l, ez.Action[loginIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Tx:     true, // login 更新 last_login
		Handler: func(c *gin.Context, tx *gorm.DB, in *loginIn) (gin.H, error) {
			identifier := in.Username
			if identifier == "" {
				identifier = in.Email
			}
			if identifier == "" || in.Password == "" {
				return nil, apperr.BadRequest("username/email and password are required")
			}
			u, err := service.Login(tx, identifier, in.Password)
			if err != nil {
				return nil, err
			}
			tok, err := m.jwter.Issue(u.ID, u.Username, u.IsAdmin)
			if err != nil {
				return nil, apperr.Internal("issue token failed", err)
			}
			ref, err := m.jwter.IssueRefresh(u.ID, u.Username, u.IsAdmin)
			if err != nil {
				return nil, apperr.Internal("issue token failed", err)
			}
			return gin.H{
				"message":       "login successful",
				"user":          service.UserDTO(u),
				"token":         tok,
				"refresh_token": ref,
			}, nil
		},
	})

	type refreshIn struct {
		RefreshToken string `json:"refresh_token"`
	}
	ez.Register(g, m.db, m.l, ez.Action[refreshIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/refresh",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, tx *gorm.DB, in *refreshIn) (gin.H, error) {
			claims, err := m.jwter.ParseRefresh(in.RefreshToken)
			if err != nil {
				return nil, apperr.Unauthorized("invalid or missing token")
			}
			u, err := service.GetUser(tx, claims.UID)
			if err != nil || !u.IsActive {
				return nil, apperr.Unauthorized("invalid or missing token")
			}
			tok, err := m.jwter.Issue(u.ID, u.Username, u.IsAdmin)
			if err != nil {
				return nil, apperr.Internal("issue token failed", err)
			}
			return gin.H{"token": tok}, nil
		},
	})

	ez.Register(g, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			u, err := service.GetUser(tx, mdw.UID(c))
			if err != nil {
				return nil, err
			}
			return gin.H{"user": service.UserDTO(u)}, nil
		},
	})

	ez.Register(g, m.db, m.l, ez.Action[map[string]any, gin.H]{
		Method: http.MethodPut,
		Path:   "/me",
		Binder: ez.BindJSON,
		Tx:     true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *map[string]any) (gin.H, error) {
			data := *in
			if len(data) == 0 {
				return nil, apperr.BadRequest("no data provided")
			}
			// 这些字段不允许通过 /me 修改
			for _, f := range []string{"username", "password", "is_admin", "is_active"} {
				delete(data, f)
			}
			u, err := service.UpdateProfile(tx, mdw.UID(c), data)
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "profile updated", "user": service.UserDTO(u)}, nil
		},
	})

	type changePwIn struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	ez.Register(g, m.db, m.l, ez.Action[changePwIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/change-password",
		Binder: ez.BindJSON,
		Tx:     true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *changePwIn) (gin.H, error) {
			if in.CurrentPassword == "" || in.NewPassword == "" {
				return nil, apperr.BadRequest("current and new password are required")
			}
			if err := service.ChangePassword(tx, mdw.UID(c), in.CurrentPassword, in.NewPassword); err != nil {
				return nil, err
			}
			return gin.H{"message": "password updated"}, nil
		},
	})
}
