package controller

import (
	"kwizzy_backend/internal/service"
	"kwizzy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PerformanceController struct {
	PerformanceService *service.PerformanceService
}

func NewPerformanceController(performanceService *service.PerformanceService) *PerformanceController {
	return &PerformanceController{PerformanceService: performanceService}
}

// GetMyPerformance godoc
// @Summary 我的学习表现
// @Description 作答次数、总体得分率、最近作答和各科目平均分
// @Tags 成绩
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.PerformanceSummary}
// @Router /api/performance [get]
func (c *PerformanceController) GetMyPerformance(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	summary, err := c.PerformanceService.Summary(ctx.Request.Context(), claims.UserID)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, summary)
}

// GetStudentPerformance godoc
// @Summary 学生学习表现（管理端）
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "学生ID"
// @Success 200 {object} util.Response{data=service.PerformanceSummary}
// @Failure 404 {object} util.Response "学生不存在"
// @Router /api/admin/students/{id}/performance [get]
func (c *PerformanceController) GetStudentPerformance(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	summary, err := c.PerformanceService.StudentSummary(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, summary)
}
