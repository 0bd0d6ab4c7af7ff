package controller

import (
	"kwizzy_backend/internal/service"
	"kwizzy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubjectController struct {
	SubjectService *service.SubjectService
}

func NewSubjectController(subjectService *service.SubjectService) *SubjectController {
	return &SubjectController{SubjectService: subjectService}
}

// ListSubjects godoc
// @Summary 科目列表
// @Tags 题库
// @Produce json
// @Security ApiKeyAuth
// @Param search query string false "按名称搜索"
// @Success 200 {object} util.Response{data=[]model.Subject}
// @Router /api/subjects [get]
func (c *SubjectController) ListSubjects(ctx *gin.Context) {
	subjects, err := c.SubjectService.List(ctx.Request.Context(), ctx.Query("search"))
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, subjects)
}

// GetSubject godoc
// @Summary 科目详情（含章节）
// @Tags 题库
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "科目ID"
// @Success 200 {object} util.Response{data=model.Subject}
// @Failure 404 {object} util.Response
// @Router /api/subjects/{id} [get]
func (c *SubjectController) GetSubject(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	subject, err := c.SubjectService.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, subject)
}

// CreateSubject godoc
// @Summary 创建科目
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.SubjectInput true "科目信息"
// @Success 201 {object} util.Response{data=model.Subject}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response "名称已存在"
// @Router /api/admin/subjects [post]
func (c *SubjectController) CreateSubject(ctx *gin.Context) {
	var input service.SubjectInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	subject, err := c.SubjectService.Create(ctx.Request.Context(), input)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Created(ctx, subject)
}

// UpdateSubject godoc
// @Summary 更新科目
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "科目ID"
// @Param body body service.SubjectInput true "科目信息"
// @Success 200 {object} util.Response{data=model.Subject}
// @Router /api/admin/subjects/{id} [put]
func (c *SubjectController) UpdateSubject(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var input service.SubjectInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	subject, err := c.SubjectService.Update(ctx.Request.Context(), id, input)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, subject)
}

// DeleteSubject godoc
// @Summary 删除科目（级联删除章节和测验）
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "科目ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "包含已有成绩的测验"
// @Router /api/admin/subjects/{id} [delete]
func (c *SubjectController) DeleteSubject(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.SubjectService.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, nil)
}
