package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tupiana/lexipipe/internal/application/pos"
	"github.com/tupiana/lexipipe/internal/domain/annotation"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// POSResolver annotates token streams.  Satisfied by pos.Resolver.
type POSResolver interface {
	Annotate(ctx context.Context, tokens []annotation.Token) (*pos.Result, error)
}

// AnnotationHandler serves POS annotation of ingested token streams.
type AnnotationHandler struct {
	resolver POSResolver
	logger   logging.Logger
}

// NewAnnotationHandler builds the handler.
func NewAnnotationHandler(resolver POSResolver, log logging.Logger) *AnnotationHandler {
	return &AnnotationHandler{resolver: resolver, logger: log}
}

// AnnotateRequest carries the token stream in sentence order.
type AnnotateRequest struct {
	Tokens []annotation.Token `json:"tokens"`
}

// AnnotateResponse is the annotated stream plus the sentinel count.
type AnnotateResponse struct {
	Tokens     []annotation.AnnotatedToken `json:"tokens"`
	Unresolved int                         `json:"unresolved"`
}

// Annotate handles POST /annotations.
func (h *AnnotationHandler) Annotate(c *gin.Context) {
	var req AnnotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "malformed annotation request"))
		return
	}
	if len(req.Tokens) == 0 {
		respondError(c, errors.New(errors.ErrCodeValidation, "no tokens given"))
		return
	}

	result, err := h.resolver.Annotate(c.Request.Context(), req.Tokens)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AnnotateResponse{Tokens: result.Tokens, Unresolved: result.Unresolved})
}
