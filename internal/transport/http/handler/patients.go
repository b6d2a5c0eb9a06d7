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
	resp "remote-medic/internal/transport/http/response"
)

type PatientsModule struct {
	db *gorm.DB
	l  *zap.Logger
}

func NewPatientsModule(db *gorm.DB, l *zap.Logger) *PatientsModule {
	return &PatientsModule{db: db, l: l}
}

func (m *PatientsModule) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/patients")

	type listQ struct {
		Page    int `form:"page"`
		PerPage int `form:"per_page"`
	}
	ez.Register(g, m.db, m.l, ez.Action[listQ, gin.H]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, tx *gorm.DB, in *listQ) (gin.H, error) {
			// 无分页参数 → 返回全量
			if in.Page == 0 && in.PerPage == 0 {
				patients, err := service.ListPatients(tx)
				if err != nil {
					return nil, err
				}
				return gin.H{"patients": patientDTOs(patients), "total": len(patients)}, nil
			}
			page, perPage := in.Page, in.PerPage
			if page == 0 {
				page = 1
			}
			if perPage == 0 {
				perPage = 10
			}
			patients, total, err := service.PaginatePatients(tx, page, perPage)
			if err != nil {
				return nil, err
			}
			return gin.H{
				"patients":   patientDTOs(patients),
				"pagination": resp.Paginate(page, perPage, total),
			}, nil
		},
	})

	ez.Register(g, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/unassigned",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			patients, err := service.UnassignedPatients(tx)
			if err != nil {
				return nil, err
			}
			return gin.H{"patients": patientDTOs(patients), "total": len(patients)}, nil
		},
	})

	ez.Register(g, m.db, m.l, ez.Action[map[string]any, gin.H]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Tx:     true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, tx *gorm.DB, in *map[string]any) (gin.H, error) {
			p, err := service.CreatePatient(tx, *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "patient created", "patient": patientDTO(p)}, nil
		},
	})

	ez.Register(g, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid patient id")
			}
			p, err := service.GetPatient(tx, id)
			if err != nil {
				return nil, err
			}
			return gin.H{"patient": patientDTO(p)}, nil
		},
	})

	ez.Register(g, m.db, m.l, ez.Action[map[string]any, gin.H]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Tx:     true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *map[string]any) (gin.H, error) {
			id, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid patient id")
			}
			if len(*in) == 0 {
				return nil, apperr.BadRequest("no data provided")
			}
			p, err := service.UpdatePatient(tx, id, *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "patient updated", "patient": patientDTO(p)}, nil
		},
	})

	ez.Register(g, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Tx:     true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid patient id")
			}
			if err := service.DeletePatient(tx, id); err != nil {
				return nil, err
			}
			return gin.H{"message": "patient deleted"}, nil
		},
	})

	type assignIn struct {
		UserID uint   `json:"user_id"`
		Role   string `json:"role"`
	}
	ez.Register(g, m.db, m.l, ez.Action[assignIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/:id/assign",
		Binder: ez.BindJSON,
		Tx:     true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *assignIn) (gin.H, error) {
			patientID, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid patient id")
			}
			if in.UserID == 0 {
				return nil, apperr.BadRequest("user_id is required")
			}
			if err := service.AssignPatientToUser(tx, in.UserID, patientID, in.Role); err != nil {
				return nil, err
			}
			return gin.H{"message": "patient assigned"}, nil
		},
	})

	type unassignIn struct {
		UserID uint `json:"user_id"`
	}
	ez.Register(g, m.db, m.l, ez.Action[unassignIn, gin.H]{
		Method: http.MethodDelete,
		Path:   "/:id/assign",
		Binder: ez.BindJSON,
		Tx:     true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *unassignIn) (gin.H, error) {
			patientID, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid patient id")
			}
			if ok, err := service.PatientExists(tx, patientID); err != nil {
				return nil, err
			} else if !ok {
				return nil, apperr.NotFound("patient not found")
			}
			// 默认解除调用者自己的分配
			userID := in.UserID
			if userID == 0 {
				userID = mdw.UID(c)
			}
			if err := service.UnassignPatientFromUser(tx, userID, patientID); err != nil {
				return nil, err
			}
			return gin.H{"message": "assignment removed"}, nil
		},
	})

	ez.Register(g, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/:id/users",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid patient id")
			}
			users, err := service.UsersOfPatient(tx, id)
			if err != nil {
				return nil, err
			}
			return gin.H{
				"patient_id":     id,
				"assigned_users": service.UserDTOs(users),
				"total_users":    len(users),
			}, nil
		},
	})
}
