package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"remote-medic/internal/apperr"
	"remote-medic/internal/core/cache"
	"remote-medic/internal/service"
	"remote-medic/internal/transport/http/ez"
	resp "remote-medic/internal/transport/http/response"
)

const (
	searchCachePrefix = "medsearch:"
	searchCacheTTL    = 30 * time.Second
)

type MedicinesModule struct {
	db  *gorm.DB
	l   *zap.Logger
	cch *cache.Cache
}

// NewMedicinesModule wires the medicine catalogue routes. cch may be nil;
// searches then hit the database directly.
func NewMedicinesModule(db *gorm.DB, l *zap.Logger, cch *cache.Cache) *MedicinesModule {
	return &MedicinesModule{db: db, l: l, cch: cch}
}

// 药品写操作提交后让搜索缓存失效。挂在 Action.After 上：事务未提交前
// 失效会让并发搜索把旧数据重新写回缓存。
func (m *MedicinesModule) invalidateSearch(c *gin.Context) {
	if m.cch == nil {
		return
	}
	if err := m.cch.InvalidatePrefix(c, searchCachePrefix); err != nil {
		m.l.Warn("search cache invalidation failed", zap.Error(err))
	}
}

func (m *MedicinesModule) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/medicines")

	type listQ struct {
		Page       int    `form:"page"`
		PerPage    int    `form:"per_page"`
		ActiveOnly string `form:"active_only"`
		GetAll     string `form:"get_all"`
	}
	ez.Register(g, m.db, m.l, ez.Action[listQ, gin.H]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, tx *gorm.DB, in *listQ) (gin.H, error) {
			// 目录默认连停用的一起列出，active_only 由调用方显式开启
			activeOnly := boolFlag(in.ActiveOnly, false)
			if boolFlag(in.GetAll, false) {
				meds, err := service.ListMedicines(tx, activeOnly)
				if err != nil {
					return nil, err
				}
				return gin.H{"medicines": medicineDTOs(meds), "total": len(meds)}, nil
			}
			page, perPage := in.Page, in.PerPage
			if page == 0 {
				page = 1
			}
			if perPage == 0 {
				perPage = 10
			}
			meds, total, err := service.PaginateMedicines(tx, page, perPage, activeOnly)
			if err != nil {
				return nil, err
			}
			return gin.H{
				"medicines":  medicineDTOs(meds),
				"pagination": resp.Paginate(page, perPage, total),
			}, nil
		},
	})

	type searchQ struct {
		Q          string `form:"q"`
		ActiveOnly string `form:"active_only"`
	}
	ez.Register(g, m.db, m.l, ez.Action[searchQ, gin.H]{
		Method: http.MethodGet,
		Path:   "/search",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, tx *gorm.DB, in *searchQ) (gin.H, error) {
			q := strings.TrimSpace(in.Q)
			if q == "" {
				return nil, apperr.BadRequest("query parameter q is required")
			}
			activeOnly := boolFlag(in.ActiveOnly, true)
			res, err := m.searchCached(c, tx, q, activeOnly)
			if err != nil {
				return nil, err
			}
			return gin.H{"medicines": res.Medicines, "count": res.Count}, nil
		},
	})

	ez.Register(g, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid medicine id")
			}
			med, err := service.GetMedicine(tx, id)
			if err != nil {
				return nil, err
			}
			return gin.H{"medicine": medicineDTO(med)}, nil
		},
	})

	ez.Register(g, m.db, m.l, ez.Action[map[string]any, gin.H]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Tx:     true,
		Status: http.StatusCreated,
		After:  m.invalidateSearch,
		Handler: func(c *gin.Context, tx *gorm.DB, in *map[string]any) (gin.H, error) {
			med, err := service.CreateMedicine(tx, *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "medicine created", "medicine": medicineDTO(med)}, nil
		},
	})

	ez.Register(g, m.db, m.l, ez.Action[map[string]any, gin.H]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindJSON,
		Tx:     true,
		After:  m.invalidateSearch,
		Handler: func(c *gin.Context, tx *gorm.DB, in *map[string]any) (gin.H, error) {
			id, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid medicine id")
			}
			if len(*in) == 0 {
				return nil, apperr.BadRequest("no data provided")
			}
			med, err := service.UpdateMedicine(tx, id, *in)
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "medicine updated", "medicine": medicineDTO(med)}, nil
		},
	})

	ez.Register(g, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindNone,
		Tx:     true,
		After:  m.invalidateSearch,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			id, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid medicine id")
			}
			if err := service.DeleteMedicine(tx, id); err != nil {
				return nil, err
			}
			return gin.H{"message": "medicine deleted"}, nil
		},
	})

	for _, route := range []struct {
		path   string
		active bool
		msg    string
	}{
		{"/enable/:id", true, "medicine enabled"},
		{"/disable/:id", false, "medicine disabled"},
	} {
		route := route
		ez.Register(g, m.db, m.l, ez.Action[struct{}, gin.H]{
			Method: http.MethodPut,
			Path:   route.path,
			Binder: ez.BindNone,
			Tx:     true,
			After:  m.invalidateSearch,
			Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
				id, ok := ez.UintParam(c, "id")
				if !ok {
					return nil, apperr.BadRequest("invalid medicine id")
				}
				med, err := service.SetMedicineActive(tx, id, route.active)
				if err != nil {
					return nil, err
				}
				return gin.H{"message": route.msg, "medicine": medicineDTO(med)}, nil
			},
		})
	}

	// 患者↔药品分配
	p := api.Group("/patients")

	type assignIn struct {
		DosePerTake string `json:"dose_per_take"`
		Notes       string `json:"notes"`
	}
	assign := func(c *gin.Context, tx *gorm.DB, in *assignIn) (gin.H, error) {
		patientID, ok := ez.UintParam(c, "id")
		if !ok {
			return nil, apperr.BadRequest("invalid patient id")
		}
		medicineID, ok := ez.UintParam(c, "mid")
		if !ok {
			return nil, apperr.BadRequest("invalid medicine id")
		}
		a, err := service.AssignMedicine(tx, patientID, medicineID, in.DosePerTake, in.Notes)
		if err != nil {
			return nil, err
		}
		return gin.H{
			"message":       "medicine assigned",
			"medicine_id":   a.MedicineID,
			"dose_per_take": a.DosePerTake,
			"notes":         a.Notes,
		}, nil
	}
	// POST 与 PUT 等价：重复分配即刷新剂量与备注
	for _, method := range []string{http.MethodPost, http.MethodPut} {
		ez.Register(p, m.db, m.l, ez.Action[assignIn, gin.H]{
			Method:  method,
			Path:    "/:id/medicines/:mid",
			Binder:  ez.BindJSON,
			Tx:      true,
			Status:  http.StatusCreated,
			Handler: assign,
		})
	}

	ez.Register(p, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/:id/medicines/:mid",
		Binder: ez.BindNone,
		Tx:     true,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			patientID, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid patient id")
			}
			medicineID, ok := ez.UintParam(c, "mid")
			if !ok {
				return nil, apperr.BadRequest("invalid medicine id")
			}
			if err := service.UnassignMedicine(tx, patientID, medicineID); err != nil {
				return nil, err
			}
			return gin.H{"message": "medicine unassigned"}, nil
		},
	})

	type bulkIn struct {
		MedicineIDs []uint `json:"medicine_ids"`
	}
	ez.Register(p, m.db, m.l, ez.Action[bulkIn, gin.H]{
		Method: http.MethodDelete,
		Path:   "/:id/medicines/bulk-delete",
		Binder: ez.BindJSON,
		Tx:     true,
		Handler: func(c *gin.Context, tx *gorm.DB, in *bulkIn) (gin.H, error) {
			patientID, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid patient id")
			}
			removed, err := service.BulkUnassignMedicines(tx, patientID, in.MedicineIDs)
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "medicines unassigned", "removed": removed}, nil
		},
	})

	ez.Register(p, m.db, m.l, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/:id/medicines",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, tx *gorm.DB, _ *struct{}) (gin.H, error) {
			patientID, ok := ez.UintParam(c, "id")
			if !ok {
				return nil, apperr.BadRequest("invalid patient id")
			}
			rows, err := service.PatientMedicines(tx, patientID)
			if err != nil {
				return nil, err
			}
			return gin.H{"medicines": medicineWithDoseDTOs(rows)}, nil
		},
	})
}

type searchResult struct {
	Medicines []map[string]any `json:"medicines"`
	Count     int64            `json:"count"`
}

func (m *MedicinesModule) searchCached(c *gin.Context, tx *gorm.DB, q string, activeOnly bool) (*searchResult, error) {
	load := func(context.Context) (*searchResult, error) {
		meds, total, err := service.SearchMedicines(tx, q, activeOnly)
		if err != nil {
			return nil, err
		}
		return &searchResult{Medicines: medicineDTOs(meds), Count: total}, nil
	}
	if m.cch == nil {
		return load(c)
	}
	key := searchCachePrefix + strings.ToLower(q) + ":" + strconv.FormatBool(activeOnly)
	res, err := cache.GetOrLoadJSON(m.cch, c, key, searchCacheTTL, load)
	if err != nil {
		// 缓存故障时回退直查
		m.l.Warn("search cache unavailable", zap.Error(err))
		return load(c)
	}
	if res == nil {
		return &searchResult{Medicines: []map[string]any{}}, nil
	}
	return res, nil
}

// boolFlag parses query-string booleans ("true"/"1"/"false"/"0"), falling
// back to def when absent or unrecognized.
func boolFlag(s string, def bool) bool {
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}
