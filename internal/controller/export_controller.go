package controller

import (
	"io"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/service"
	"kwizzy_backend/internal/util"
	"path"

	"github.com/gin-gonic/gin"
)

type ExportController struct {
	ExportService *service.ExportService
}

func NewExportController(exportService *service.ExportService) *ExportController {
	return &ExportController{ExportService: exportService}
}

// StartExport godoc
// @Summary 导出我的成绩
// @Description 异步生成 CSV，通过任务ID查询进度
// @Tags 导出
// @Produce json
// @Security ApiKeyAuth
// @Success 202 {object} util.Response{data=model.ExportJob}
// @Router /api/exports [post]
func (c *ExportController) StartExport(ctx *gin.Context) {
	c.start(ctx, model.ExportScopeUser)
}

// StartFullExport godoc
// @Summary 导出全部成绩（管理端）
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Success 202 {object} util.Response{data=model.ExportJob}
// @Router /api/admin/exports [post]
func (c *ExportController) StartFullExport(ctx *gin.Context) {
	c.start(ctx, model.ExportScopeAll)
}

func (c *ExportController) start(ctx *gin.Context, scope model.ExportScope) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	job, err := c.ExportService.StartExport(ctx.Request.Context(), claims.UserID, scope)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Accepted(ctx, job)
}

// ListExports godoc
// @Summary 我的导出任务
// @Tags 导出
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.ExportJob}
// @Router /api/exports [get]
func (c *ExportController) ListExports(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	jobs, err := c.ExportService.ListExports(ctx.Request.Context(), claims.UserID)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, jobs)
}

// GetExport godoc
// @Summary 导出任务状态
// @Tags 导出
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Success 200 {object} util.Response{data=model.ExportJob}
// @Failure 404 {object} util.Response
// @Router /api/exports/{id} [get]
func (c *ExportController) GetExport(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	job, err := c.ExportService.GetExport(ctx.Request.Context(), ctx.Param("id"), claims.UserID, claims.IsAdmin())
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, job)
}

// DownloadExport godoc
// @Summary 下载导出文件
// @Tags 导出
// @Produce text/csv
// @Security ApiKeyAuth
// @Param id path string true "任务ID"
// @Success 200 {file} file
// @Failure 409 {object} util.Response "任务未完成"
// @Router /api/exports/{id}/download [get]
func (c *ExportController) DownloadExport(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	job, rc, err := c.ExportService.OpenExport(ctx.Request.Context(), ctx.Param("id"), claims.UserID, claims.IsAdmin())
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	defer rc.Close()

	ctx.Header("Content-Disposition", `attachment; filename="`+path.Base(job.FileName)+`"`)
	ctx.Header("Content-Type", util.MimeCSV)
	if _, err := io.Copy(ctx.Writer, rc); err != nil {
		_ = ctx.Error(err)
	}
}
