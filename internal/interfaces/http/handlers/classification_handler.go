package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tupiana/lexipipe/internal/application/propagation"
	"github.com/tupiana/lexipipe/internal/application/semantics"
	"github.com/tupiana/lexipipe/internal/domain/classification"
	"github.com/tupiana/lexipipe/internal/domain/morphology"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// SemanticClassifier runs the cascade for ad-hoc requests.  Satisfied by
// semantics.Classifier.
type SemanticClassifier interface {
	Classify(ctx context.Context, req semantics.Request) (*classification.Record, error)
	ClassifyBatch(ctx context.Context, reqs []semantics.Request) ([]*classification.Record, error)
}

// Propagator spreads classifications over the synonym graph.  Satisfied by
// propagation.Engine.
type Propagator interface {
	PropagateFrom(ctx context.Context, seedWord string) (*propagation.Report, error)
	InferFromNeighbors(ctx context.Context, word string) (*classification.Record, error)
}

// ClassificationHandler serves classification lookups, the on-demand
// cascade, and synonym propagation.
type ClassificationHandler struct {
	classifier SemanticClassifier
	records    classification.Repository
	propagator Propagator
	logger     logging.Logger
}

// NewClassificationHandler builds the handler.  propagator may be nil when
// no synonym graph is configured.
func NewClassificationHandler(classifier SemanticClassifier, records classification.Repository, propagator Propagator, log logging.Logger) *ClassificationHandler {
	return &ClassificationHandler{
		classifier: classifier,
		records:    records,
		propagator: propagator,
		logger:     log,
	}
}

// Lookup handles GET /classifications/:word.  It reads stored records only;
// use Classify to run the cascade.
func (h *ClassificationHandler) Lookup(c *gin.Context) {
	word := morphology.Normalize(c.Param("word"))

	if text := c.Query("context"); text != "" {
		record, err := h.records.FindWordContext(c.Request.Context(), word, classification.ContextHash(text))
		if err != nil {
			respondError(c, err)
			return
		}
		if record != nil {
			c.JSON(http.StatusOK, record)
			return
		}
		// fall through to the word-only record
	}

	record, err := h.records.FindWord(c.Request.Context(), word)
	if err != nil {
		respondError(c, err)
		return
	}
	if record == nil {
		respondError(c, errors.Newf(errors.ErrCodeNotFound, "no classification for %q", word))
		return
	}
	c.JSON(http.StatusOK, record)
}

// ClassifyRequest runs the cascade for one word or a batch.
type ClassifyRequest struct {
	Word    string `json:"word"`
	Context string `json:"context"`
	Batch   []struct {
		Word    string `json:"word"`
		Context string `json:"context"`
	} `json:"batch"`
}

// Classify handles POST /classifications.
func (h *ClassificationHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "malformed classification request"))
		return
	}

	if len(req.Batch) > 0 {
		reqs := make([]semantics.Request, 0, len(req.Batch))
		for _, item := range req.Batch {
			reqs = append(reqs, semantics.Request{Word: item.Word, Context: item.Context})
		}
		records, err := h.classifier.ClassifyBatch(c.Request.Context(), reqs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
		return
	}

	if req.Word == "" {
		respondError(c, errors.New(errors.ErrCodeValidation, "word is required"))
		return
	}
	record, err := h.classifier.Classify(c.Request.Context(), semantics.Request{Word: req.Word, Context: req.Context})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// PropagateRequest seeds BFS propagation from a classified word.
type PropagateRequest struct {
	SeedWord string `json:"seed_word"`
}

// Propagate handles POST /propagation.
func (h *ClassificationHandler) Propagate(c *gin.Context) {
	if h.propagator == nil {
		respondError(c, errors.New(errors.ErrCodeSynonymGraphUnavailable, "no synonym graph configured"))
		return
	}
	var req PropagateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SeedWord == "" {
		respondError(c, errors.New(errors.ErrCodeValidation, "seed_word is required"))
		return
	}
	report, err := h.propagator.PropagateFrom(c.Request.Context(), req.SeedWord)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Infer handles POST /propagation/infer/:word, deriving a classification
// from already-classified neighbors.
func (h *ClassificationHandler) Infer(c *gin.Context) {
	if h.propagator == nil {
		respondError(c, errors.New(errors.ErrCodeSynonymGraphUnavailable, "no synonym graph configured"))
		return
	}
	record, err := h.propagator.InferFromNeighbors(c.Request.Context(), c.Param("word"))
	if err != nil {
		respondError(c, err)
		return
	}
	if record == nil {
		respondError(c, errors.Newf(errors.ErrCodeNotFound, "no neighbor evidence for %q", c.Param("word")))
		return
	}
	c.JSON(http.StatusOK, record)
}
