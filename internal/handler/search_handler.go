package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/halewood/mediasearch/internal/ai"
	"github.com/halewood/mediasearch/internal/model"
	"github.com/halewood/mediasearch/internal/pkg/errcode"
	"github.com/halewood/mediasearch/internal/pkg/response"
	"github.com/halewood/mediasearch/internal/search"
)

// SearchService is implemented by search.Service.
type SearchService interface {
	Search(ctx context.Context, req search.Request) ([]model.SearchResult, error)
}

type SearchHandler struct {
	svc SearchService
}

func NewSearchHandler(svc SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req search.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, 400, errcode.ErrInvalid, "invalid request")
		return
	}
	results, err := h.svc.Search(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			response.Error(c, 503, errcode.ErrEmbeddingFailed, "embedding unavailable")
			return
		}
		handleError(c, err)
		return
	}
	if results == nil {
		results = []model.SearchResult{}
	}
	response.Success(c, gin.H{"items": results, "count": len(results)})
}
