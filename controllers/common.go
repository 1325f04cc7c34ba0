package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qnahub/qna/middleware"
	"github.com/qnahub/qna/services"
	"github.com/qnahub/qna/utils"
)

func getUserID(ctx *gin.Context) (uint, bool) {
	v, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func parseID(ctx *gin.Context, param string) (uint, bool) {
	raw := strings.TrimSpace(ctx.Param(param))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page, pageSize := 1, 10
	if n, err := strconv.Atoi(strings.TrimSpace(pageStr)); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(sizeStr)); err == nil && n > 0 && n <= 100 {
		pageSize = n
	}
	return page, pageSize
}

// serviceError maps service layer sentinels to the response envelope.
func serviceError(ctx *gin.Context, err error, fallbackCode int, fallbackMsg string) {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		utils.Error(ctx, http.StatusForbidden, 40301, "not enough permission")
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40402, "record not found")
	case errors.Is(err, services.ErrValidation):
		utils.Error(ctx, http.StatusBadRequest, 40010, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40902, "conflicting concurrent update")
	default:
		utils.Error(ctx, http.StatusInternalServerError, fallbackCode, fallbackMsg)
	}
}
