package controller

import (
	"kwizzy_backend/internal/service"
	"kwizzy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChapterController struct {
	ChapterService *service.ChapterService
}

func NewChapterController(chapterService *service.ChapterService) *ChapterController {
	return &ChapterController{ChapterService: chapterService}
}

// ListChapters godoc
// @Summary 章节列表
// @Tags 题库
// @Produce json
// @Security ApiKeyAuth
// @Param subject_id query int false "科目ID"
// @Param search query string false "按名称搜索"
// @Success 200 {object} util.Response{data=[]model.Chapter}
// @Router /api/chapters [get]
func (c *ChapterController) ListChapters(ctx *gin.Context) {
	subjectID := util.MustParseUint(ctx.Query("subject_id"))
	chapters, err := c.ChapterService.List(ctx.Request.Context(), subjectID, ctx.Query("search"))
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, chapters)
}

// GetChapter godoc
// @Summary 章节详情（含测验）
// @Tags 题库
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "章节ID"
// @Success 200 {object} util.Response{data=model.Chapter}
// @Failure 404 {object} util.Response
// @Router /api/chapters/{id} [get]
func (c *ChapterController) GetChapter(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	chapter, err := c.ChapterService.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, chapter)
}

// CreateChapter godoc
// @Summary 创建章节
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.ChapterInput true "章节信息"
// @Success 201 {object} util.Response{data=model.Chapter}
// @Failure 404 {object} util.Response "科目不存在"
// @Router /api/admin/chapters [post]
func (c *ChapterController) CreateChapter(ctx *gin.Context) {
	var input service.ChapterInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	chapter, err := c.ChapterService.Create(ctx.Request.Context(), input)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Created(ctx, chapter)
}

// UpdateChapter godoc
// @Summary 更新章节
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "章节ID"
// @Param body body service.ChapterUpdateInput true "章节信息"
// @Success 200 {object} util.Response{data=model.Chapter}
// @Router /api/admin/chapters/{id} [put]
func (c *ChapterController) UpdateChapter(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var input service.ChapterUpdateInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	chapter, err := c.ChapterService.Update(ctx.Request.Context(), id, input)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, chapter)
}

// DeleteChapter godoc
// @Summary 删除章节
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "章节ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "包含已有成绩的测验"
// @Router /api/admin/chapters/{id} [delete]
func (c *ChapterController) DeleteChapter(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.ChapterService.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, nil)
}
