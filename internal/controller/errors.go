package controller

import (
	"errors"
	"kwizzy_backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// respondError 把服务层错误映射为状态码，未识别的错误记录日志并返回 500
func respondError(ctx *gin.Context, err error, loc *time.Location) {
	var unavailable *util.QuizUnavailableError
	switch {
	case errors.As(err, &unavailable):
		data := gin.H{"deadline": nil}
		if unavailable.Deadline != nil {
			if loc == nil {
				loc = time.Local
			}
			data["deadline"] = unavailable.Deadline.In(loc).Format(util.MinuteFormat)
		}
		util.ErrorWithData(ctx, http.StatusForbidden, err.Error(), data)

	case errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrResultNotFound),
		errors.Is(err, util.ErrSubjectNotFound),
		errors.Is(err, util.ErrChapterNotFound),
		errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrExportNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())

	case errors.Is(err, util.ErrAlreadyAttempted),
		errors.Is(err, util.ErrPermissionDenied):
		util.Error(ctx, http.StatusForbidden, err.Error())

	case errors.Is(err, util.ErrInvalidQuestion),
		errors.Is(err, util.ErrDuplicateAnswer),
		errors.Is(err, util.ErrInvalidOptions):
		util.BadRequest(ctx, err.Error())

	case errors.Is(err, util.ErrSubjectExists),
		errors.Is(err, util.ErrChapterExists),
		errors.Is(err, util.ErrEmailRegistered),
		errors.Is(err, util.ErrNameTaken),
		errors.Is(err, util.ErrQuizHasAttempts),
		errors.Is(err, util.ErrExportNotReady):
		util.Error(ctx, http.StatusConflict, err.Error())

	case errors.Is(err, util.ErrInvalidLogin):
		util.Error(ctx, http.StatusUnauthorized, err.Error())

	default:
		util.LogInternalError(ctx, err)
	}
}

// parseID 解析路径参数，非法时直接返回 400
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id := util.MustParseUint(ctx.Param(name))
	if id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return id, true
}
