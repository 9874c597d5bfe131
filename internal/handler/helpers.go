package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/halewood/mediasearch/internal/logutil"
	"github.com/halewood/mediasearch/internal/pkg/errcode"
	appErr "github.com/halewood/mediasearch/internal/pkg/errors"
	"github.com/halewood/mediasearch/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case appErr.IsNotFound(err):
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "not found")
	case appErr.IsUnavailable(err):
		response.Error(c, http.StatusServiceUnavailable, errcode.ErrStoreUnavailable, "dependency unavailable")
	case appErr.IsInvalid(err):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
	default:
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}
