package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"remote-medic/internal/apperr"
	"remote-medic/internal/service"
	"remote-medic/internal/transport/http/ez"
)

type CarersModule struct {
	db *gorm.DB
	l  *zap.Logger
}

func NewCarersModule(db *gorm.DB, l *zap.Logger) *CarersModule {
	return &CarersModule{db: db, l: l}
}

func (m *CarersModule) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/carers")

	ez.Register(g, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/:id/patients",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid carer id")
			}
			patients, err := service.PatientsOfUser(tx, id)
			if err != nil {
				return nil, err
			}
			return gin.H{
				"carer_id":       id,
				"patients":       patientDTOs(patients),
				"total_patients": len(patients),
			}, nil
		},
	})
}
