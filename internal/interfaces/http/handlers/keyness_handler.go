package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tupiana/lexipipe/internal/application/keyness"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// KeywordRanker ranks study-corpus terms against the reference corpus.
// Satisfied by keyness.Extractor.
type KeywordRanker interface {
	Rank(ctx context.Context, studyFreqs map[string]int64, studyTotal int64, limit int) ([]keyness.Keyword, error)
}

// KeynessHandler serves keyword extraction.
type KeynessHandler struct {
	ranker KeywordRanker
	logger logging.Logger
}

// NewKeynessHandler builds the handler.
func NewKeynessHandler(ranker KeywordRanker, log logging.Logger) *KeynessHandler {
	return &KeynessHandler{ranker: ranker, logger: log}
}

// KeynessRequest carries study-corpus frequencies.  TotalTokens defaults to
// the sum of frequencies when omitted.
type KeynessRequest struct {
	Frequencies map[string]int64 `json:"frequencies"`
	TotalTokens int64            `json:"total_tokens"`
	Limit       int              `json:"limit"`
}

// Extract handles POST /keyness.
func (h *KeynessHandler) Extract(c *gin.Context) {
	var req KeynessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "malformed keyness request"))
		return
	}
	if len(req.Frequencies) == 0 {
		respondError(c, errors.New(errors.ErrCodeValidation, "frequencies are required"))
		return
	}
	if req.TotalTokens <= 0 {
		for _, freq := range req.Frequencies {
			req.TotalTokens += freq
		}
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}

	keywords, err := h.ranker.Rank(c.Request.Context(), req.Frequencies, req.TotalTokens, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}
