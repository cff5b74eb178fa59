package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantlab-io/signalpipe/internal/logger"
	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
	"github.com/quantlab-io/signalpipe/pkg/llm"
)

const systemPrompt = "You are a quantitative financial analyst specialized in cryptocurrency markets. " +
	"You assess the potential impact of news articles on the asset's price and answer only in the requested JSON format."

const promptTemplate = `Analyze the sentiment of the news article below with respect to its potential impact on the price of %s.

Consider the title and the description.

Return your analysis ONLY as JSON in the following shape:
{
  "sentiment_score": <a float from -1.0 (extremely bearish) to +1.0 (extremely bullish)>,
  "reasoning": "<a one-sentence justification>"
}

Article:
---
Title: %s
Description: %s
---`

// ChatClient is the slice of the LLM client the estimator needs.
type ChatClient interface {
	ChatCompletion(ctx context.Context, messages []llm.Message) (string, error)
}

// estimation is the strict shape the model reply must decode into.
type estimation struct {
	SentimentScore *float64 `json:"sentiment_score"`
	Reasoning      string   `json:"reasoning"`
}

// Estimator scores news documents with a generative-text collaborator.
type Estimator struct {
	client ChatClient
	asset  string
	log    *logger.Logger
}

// NewEstimator creates an estimator scoring documents against the named
// asset (e.g. "Bitcoin (BTC)").
func NewEstimator(client ChatClient, asset string, log *logger.Logger) *Estimator {
	return &Estimator{
		client: client,
		asset:  asset,
		log:    log,
	}
}

// Estimate scores a single document. Any deviation from the expected model
// output shape fails with a sentiment-parse error so the caller can skip
// the document.
func (e *Estimator) Estimate(ctx context.Context, doc types.NewsDocument) (float64, error) {
	prompt := fmt.Sprintf(promptTemplate, e.asset, doc.Title, doc.Description)

	reply, err := e.client.ChatCompletion(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeSentimentParse, "sentiment estimation call failed", err)
	}

	return parseScore(reply)
}

// parseScore decodes the model reply into a bounded score. The reply must
// be a JSON object with a numeric sentiment_score in [-1, 1]; markdown code
// fences around the JSON are tolerated since some models wrap their output.
func parseScore(reply string) (float64, error) {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var parsed estimation
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeSentimentParse, err, "model reply is not valid JSON: %.80s", cleaned)
	}

	if parsed.SentimentScore == nil {
		return 0, errors.New(errors.ErrCodeSentimentParse, "model reply is missing sentiment_score")
	}

	score := *parsed.SentimentScore
	if score < -1 || score > 1 {
		return 0, errors.Newf(errors.ErrCodeSentimentParse, "sentiment_score %v outside [-1, 1]", score)
	}

	return score, nil
}

// ScoreAll returns a new document slice in which every usable document
// carries a sentiment score. Documents with a precomputed score pass
// through untouched; documents without title and description, or whose
// estimation fails, are skipped. The batch fails only when no document
// could be scored at all.
func (e *Estimator) ScoreAll(ctx context.Context, docs []types.NewsDocument) ([]types.NewsDocument, error) {
	scored := make([]types.NewsDocument, 0, len(docs))

	for _, doc := range docs {
		if doc.HasScore() {
			scored = append(scored, doc)

			continue
		}

		if doc.Title == "" && doc.Description == "" {
			continue
		}

		score, err := e.Estimate(ctx, doc)
		if err != nil {
			e.log.Warn("skipping document after failed sentiment estimation",
				zap.String("id", doc.ID),
				zap.String("title", doc.Title),
				zap.Error(err),
			)

			continue
		}

		doc.Sentiment = optional.Some(score)
		scored = append(scored, doc)
	}

	if len(docs) > 0 && len(scored) == 0 {
		return nil, errors.New(errors.ErrCodeSentimentEmpty, "no document could be scored")
	}

	return scored, nil
}
