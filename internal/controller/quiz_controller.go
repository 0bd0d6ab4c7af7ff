package controller

import (
	"kwizzy_backend/internal/service"
	"kwizzy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// ListQuizzes godoc
// @Summary 测验列表
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param chapter_id query int false "章节ID"
// @Param search query string false "按名称搜索"
// @Success 200 {object} util.Response{data=[]repository.QuizListItem}
// @Router /api/quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	chapterID := util.MustParseUint(ctx.Query("chapter_id"))
	quizzes, err := c.QuizService.List(ctx.Request.Context(), chapterID, ctx.Query("search"))
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, quizzes)
}

// GetQuiz godoc
// @Summary 获取测验（含题目和选项）
// @Description 学生看不到正确答案；管理员传 include_answers=true 时返回正确选项
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Param include_answers query bool false "返回正确选项（仅管理员）"
// @Success 200 {object} util.Response{data=service.QuizView}
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	includeAnswers := false
	if claims := util.GetUserFromContext(ctx); claims != nil && claims.IsAdmin() {
		includeAnswers = ctx.Query("include_answers") == "true"
	}

	quiz, err := c.QuizService.Get(ctx.Request.Context(), id, includeAnswers)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, quiz)
}

// CreateQuiz godoc
// @Summary 创建测验
// @Description 可同时提交题目，每题至少两个选项且恰好一个正确
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.QuizInput true "测验信息"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response "章节不存在"
// @Router /api/admin/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	var input service.QuizInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	quiz, err := c.QuizService.Create(ctx.Request.Context(), input)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Created(ctx, quiz)
}

// UpdateQuiz godoc
// @Summary 更新测验
// @Description 传入 questions 时整体替换题目，已有成绩的测验不能替换
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Param body body service.QuizInput true "测验信息"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 409 {object} util.Response "已有成绩"
// @Router /api/admin/quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var input service.QuizInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	quiz, err := c.QuizService.Update(ctx.Request.Context(), id, input)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, quiz)
}

// DeleteQuiz godoc
// @Summary 删除测验
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "已有成绩"
// @Router /api/admin/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.QuizService.Delete(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, nil)
}

// AddQuestion godoc
// @Summary 添加题目
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Param body body service.QuestionInput true "题目"
// @Success 201 {object} util.Response{data=model.Question}
// @Failure 400 {object} util.Response "选项不合法"
// @Router /api/admin/quizzes/{id}/questions [post]
func (c *QuizController) AddQuestion(ctx *gin.Context) {
	quizID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var input service.QuestionInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	question, err := c.QuizService.AddQuestion(ctx.Request.Context(), quizID, input)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Created(ctx, question)
}

// GetQuestion godoc
// @Summary 题目详情（含正确选项）
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /api/admin/questions/{id} [get]
func (c *QuizController) GetQuestion(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	question, err := c.QuizService.GetQuestion(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, question)
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Description options 为空时只修改题干
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Param body body service.QuestionInput true "题目"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /api/admin/questions/{id} [put]
func (c *QuizController) UpdateQuestion(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var input service.QuestionInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	question, err := c.QuizService.UpdateQuestion(ctx.Request.Context(), id, input)
	if err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, question)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/admin/questions/{id} [delete]
func (c *QuizController) DeleteQuestion(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.QuizService.DeleteQuestion(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, nil)
		return
	}
	util.Success(ctx, nil)
}
