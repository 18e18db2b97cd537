package pos

import (
	"context"
	"strings"

	"github.com/tupiana/lexipipe/internal/domain/annotation"
	"github.com/tupiana/lexipipe/internal/domain/morphology"
	"github.com/tupiana/lexipipe/internal/infrastructure/monitoring/logging"
	"github.com/tupiana/lexipipe/internal/intelligence/llmclassifier"
	"github.com/tupiana/lexipipe/internal/intelligence/postagger"
)

// Layer confidences.  Grammar hits are definitional, dictionary notation is
// the documented 94%, LLM answers 88%.  The statistical layer reports its
// own confidence and is only accepted at or above MinStatisticalConfidence.
const (
	GrammarConfidence        = 1.0
	DictionaryConfidence     = 0.94
	MinStatisticalConfidence = 0.90
	LLMConfidence            = llmclassifier.POSConfidence
)

// Dictionary looks up the formal-dictionary class notation for a word.
type Dictionary interface {
	Notation(word string) (string, bool)
}

// Tagger is the statistical tagging service.
type Tagger interface {
	Tag(ctx context.Context, tokens []string, sentence string) ([]postagger.TagResult, error)
}

// LLM is the last-resort batched classifier.
type LLM interface {
	ClassifyPOS(ctx context.Context, inputs []llmclassifier.WordInput) ([]llmclassifier.POSResult, error)
}

// Result is the resolver's output: the annotated stream in original order
// plus the count of tokens that ended on the sentinel POS.
type Result struct {
	Tokens     []annotation.AnnotatedToken
	Unresolved int
}

// Resolver drives the four-layer chain.  Layers are fixed-order strategies;
// the first one to produce an annotation wins and every token ends with
// exactly one pos_source.
type Resolver struct {
	grammar    *GrammarTable
	dictionary Dictionary
	tagger     Tagger
	llm        LLM
	batchLimit int
	logger     logging.Logger
}

// NewResolver wires the chain.  dictionary, tagger, and llm may each be nil,
// in which case that layer is skipped; the sentinel still guarantees every
// token an annotation.
func NewResolver(grammar *GrammarTable, dictionary Dictionary, tagger Tagger, llm LLM, batchLimit int, logger logging.Logger) *Resolver {
	if grammar == nil {
		grammar = NewDefaultGrammarTable()
	}
	if batchLimit <= 0 {
		batchLimit = llmclassifier.DefaultBatchLimit
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Resolver{
		grammar:    grammar,
		dictionary: dictionary,
		tagger:     tagger,
		llm:        llm,
		batchLimit: batchLimit,
		logger:     logger.Named("pos"),
	}
}

// Annotate resolves the whole token stream.  MWEs are detected first so a
// recognized expression is annotated as one unit before per-token layers
// run; remaining tokens descend the chain and unresolved ones receive the
// sentinel POS with their count surfaced in the result.
func (r *Resolver) Annotate(ctx context.Context, tokens []annotation.Token) (*Result, error) {
	if len(tokens) == 0 {
		return &Result{}, nil
	}

	// Slot per input position; an MWE occupies its first position and its
	// members stay nil, so the output preserves stream order with the
	// expression as one unit.
	slots := make([]*annotation.AnnotatedToken, len(tokens))
	covered := make(map[int]bool)
	mwe := r.grammar.MWE()
	for i := 0; i < len(tokens); i++ {
		pattern, span := mwe.MatchAt(tokens, i)
		if pattern == nil {
			continue
		}
		surface := make([]string, 0, span)
		for j := i; j < i+span; j++ {
			surface = append(surface, tokens[j].SurfaceForm)
			covered[j] = true
		}
		slots[i] = &annotation.AnnotatedToken{
			Token: annotation.Token{
				SurfaceForm:      strings.Join(surface, " "),
				LeftContext:      tokens[i].LeftContext,
				RightContext:     tokens[i+span-1].RightContext,
				SentencePosition: tokens[i].SentencePosition,
			},
			POS:           pattern.POS,
			Lemma:         pattern.Lemma,
			POSConfidence: GrammarConfidence,
			POSSource:     annotation.SourceGrammar,
			Span:          span,
		}
		i += span - 1
	}

	pending := make([]int, 0, len(tokens))
	for i := range tokens {
		if covered[i] {
			continue
		}
		if a, ok := r.resolveGrammar(tokens[i]); ok {
			slots[i] = a
			continue
		}
		if a, ok := r.resolveDictionary(tokens[i]); ok {
			slots[i] = a
			continue
		}
		pending = append(pending, i)
	}

	pending = r.resolveStatistical(ctx, tokens, slots, pending)
	pending, err := r.resolveLLM(ctx, tokens, slots, pending)
	if err != nil {
		// LLM failure after its retry does not fail the stream: the
		// remaining tokens get the sentinel below.
		r.logger.Warn("llm pos layer failed", logging.Err(err))
	}

	unresolved := 0
	for _, i := range pending {
		slots[i] = sentinelAnnotation(tokens[i])
		unresolved++
	}

	out := make([]annotation.AnnotatedToken, 0, len(tokens))
	for i := range slots {
		if slots[i] != nil {
			out = append(out, *slots[i])
		}
	}
	return &Result{Tokens: out, Unresolved: unresolved}, nil
}

func (r *Resolver) resolveGrammar(tok annotation.Token) (*annotation.AnnotatedToken, bool) {
	entry, ok := r.grammar.Lookup(tok.SurfaceForm)
	if !ok {
		return nil, false
	}
	return &annotation.AnnotatedToken{
		Token:         tok,
		POS:           entry.POS,
		POSDetail:     entry.Detail,
		Lemma:         entry.Lemma,
		POSConfidence: GrammarConfidence,
		POSSource:     annotation.SourceGrammar,
		Span:          1,
	}, true
}

func (r *Resolver) resolveDictionary(tok annotation.Token) (*annotation.AnnotatedToken, bool) {
	if r.dictionary == nil {
		return nil, false
	}
	notation, ok := r.dictionary.Notation(tok.SurfaceForm)
	if !ok {
		return nil, false
	}
	pos, err := ParseNotation(notation)
	if err != nil {
		r.logger.Warn("unparseable dictionary notation",
			logging.String("word", tok.SurfaceForm),
			logging.String("notation", notation))
		return nil, false
	}
	return &annotation.AnnotatedToken{
		Token:         tok,
		POS:           pos,
		POSDetail:     notation,
		Lemma:         morphology.Normalize(tok.SurfaceForm),
		POSConfidence: DictionaryConfidence,
		POSSource:     annotation.SourceDictionary,
		Span:          1,
	}, true
}

// resolveStatistical tags all pending tokens in one service call and accepts
// answers at or above the confidence threshold.  Returns the still-pending
// positions.
func (r *Resolver) resolveStatistical(ctx context.Context, tokens []annotation.Token, slots []*annotation.AnnotatedToken, pending []int) []int {
	if r.tagger == nil || len(pending) == 0 {
		return pending
	}

	words := make([]string, len(pending))
	for i, idx := range pending {
		words[i] = tokens[idx].SurfaceForm
	}
	tags, err := r.tagger.Tag(ctx, words, sentenceOf(tokens))
	if err != nil {
		r.logger.Warn("statistical tagger unavailable; falling through", logging.Err(err))
		return pending
	}

	byWord := make(map[string]postagger.TagResult, len(tags))
	for _, tg := range tags {
		byWord[morphology.Normalize(tg.Token)] = tg
	}

	still := pending[:0]
	for _, idx := range pending {
		tg, ok := byWord[morphology.Normalize(tokens[idx].SurfaceForm)]
		if !ok || tg.Confidence < MinStatisticalConfidence || tg.POS == "" {
			still = append(still, idx)
			continue
		}
		slots[idx] = &annotation.AnnotatedToken{
			Token:         tokens[idx],
			POS:           annotation.POS(tg.POS),
			Lemma:         tg.Lemma,
			POSConfidence: tg.Confidence,
			POSSource:     annotation.SourceStatistical,
			Span:          1,
		}
	}
	return still
}

// resolveLLM classifies the remaining tokens in batches.  The classifier
// retries each batch once internally; words still missing afterwards stay
// pending for the sentinel.
func (r *Resolver) resolveLLM(ctx context.Context, tokens []annotation.Token, slots []*annotation.AnnotatedToken, pending []int) ([]int, error) {
	if r.llm == nil || len(pending) == 0 {
		return pending, nil
	}

	resolved := make(map[string]llmclassifier.POSResult)
	var lastErr error
	for start := 0; start < len(pending); start += r.batchLimit {
		end := start + r.batchLimit
		if end > len(pending) {
			end = len(pending)
		}
		inputs := make([]llmclassifier.WordInput, 0, end-start)
		for _, idx := range pending[start:end] {
			inputs = append(inputs, llmclassifier.WordInput{
				Word:    tokens[idx].SurfaceForm,
				Context: strings.TrimSpace(tokens[idx].LeftContext + " " + tokens[idx].RightContext),
			})
		}
		results, err := r.llm.ClassifyPOS(ctx, inputs)
		if err != nil {
			lastErr = err
			continue
		}
		for _, res := range results {
			resolved[res.Word] = res
		}
	}

	still := pending[:0]
	for _, idx := range pending {
		res, ok := resolved[morphology.Normalize(tokens[idx].SurfaceForm)]
		if !ok {
			still = append(still, idx)
			continue
		}
		conf := res.Confidence
		if conf <= 0 || conf > 1 {
			conf = LLMConfidence
		}
		slots[idx] = &annotation.AnnotatedToken{
			Token:         tokens[idx],
			POS:           annotation.POS(res.POS),
			Lemma:         res.Lemma,
			POSConfidence: conf,
			POSSource:     annotation.SourceLLM,
			Span:          1,
		}
	}
	return still, lastErr
}

// sentinelAnnotation marks a token no layer resolved.  The source stays llm
// because that is the layer that last attempted it; the sentinel POS and
// zero confidence make the miss unmistakable downstream.
func sentinelAnnotation(tok annotation.Token) *annotation.AnnotatedToken {
	return &annotation.AnnotatedToken{
		Token:         tok,
		POS:           annotation.POSUnclassified,
		POSConfidence: 0,
		POSSource:     annotation.SourceLLM,
		Span:          1,
	}
}

func sentenceOf(tokens []annotation.Token) string {
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.SurfaceForm
	}
	return strings.Join(words, " ")
}
