package controller

import (
	"kwizzy_backend/internal/repository"
	"kwizzy_backend/internal/service"
	"kwizzy_backend/internal/util"
	"kwizzy_backend/pkg/clock"

	"github.com/gin-gonic/gin"
)

type QuizResultController struct {
	SubmissionService *service.SubmissionService
	ResultService     *service.QuizResultService
	Clock             clock.Clock
}

func NewQuizResultController(submissionService *service.SubmissionService, resultService *service.QuizResultService, clk clock.Clock) *QuizResultController {
	return &QuizResultController{
		SubmissionService: submissionService,
		ResultService:     resultService,
		Clock:             clk,
	}
}

// SubmitQuiz godoc
// @Summary 提交测验
// @Description 评分并保存成绩，返回逐题报告
// @Tags 成绩
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.SubmitRequest true "作答"
// @Success 201 {object} util.Response{data=service.SubmissionReport}
// @Failure 400 {object} util.Response "题目不属于该测验或重复作答"
// @Failure 403 {object} util.Response "已截止或已作答"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quiz-results/submit [post]
func (c *QuizResultController) SubmitQuiz(ctx *gin.Context) {
	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	report, err := c.SubmissionService.Submit(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		respondError(ctx, err, c.Clock.Location())
		return
	}
	util.Created(ctx, report)
}

// ListMyResults godoc
// @Summary 我的成绩
// @Tags 成绩
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.ResultSummary}
// @Router /api/quiz-results [get]
func (c *QuizResultController) ListMyResults(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	results, err := c.ResultService.ListResults(ctx.Request.Context(), claims.UserID)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, results)
}

// GetMyResult godoc
// @Summary 成绩详情
// @Tags 成绩
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "成绩ID"
// @Success 200 {object} util.Response{data=service.ResultDetail}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/quiz-results/{id} [get]
func (c *QuizResultController) GetMyResult(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	detail, err := c.ResultService.GetResult(ctx.Request.Context(), id, claims.UserID)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, detail)
}

// ListResults godoc
// @Summary 成绩列表（管理端）
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param quiz_id query int false "测验ID"
// @Param user_id query int false "用户ID"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/quiz-results [get]
func (c *QuizResultController) ListResults(ctx *gin.Context) {
	filter := repository.ResultFilter{
		QuizID: util.MustParseUint(ctx.Query("quiz_id")),
		UserID: util.MustParseUint(ctx.Query("user_id")),
		Page:   util.ParsePositiveInt(ctx.Query("page"), 1),
		Limit:  util.ParsePositiveInt(ctx.Query("limit"), 20),
	}
	filter.Normalize()
	results, total, err := c.ResultService.ListAll(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  results,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// GetResult godoc
// @Summary 任意成绩详情（管理端）
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "成绩ID"
// @Success 200 {object} util.Response{data=service.ResultDetail}
// @Router /api/admin/quiz-results/{id} [get]
func (c *QuizResultController) GetResult(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	detail, err := c.ResultService.GetAnyResult(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, detail)
}

// DeleteResult godoc
// @Summary 删除成绩（管理端）
// @Description 连同作答记录一起删除，单次作答测验的学生可重新作答
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "成绩ID"
// @Success 200 {object} util.Response
// @Router /api/admin/quiz-results/{id} [delete]
func (c *QuizResultController) DeleteResult(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.ResultService.DeleteResult(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, nil)
}
