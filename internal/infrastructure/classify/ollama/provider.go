package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"docvault/internal/core/domain"
	"docvault/internal/observability/metrics"
	"docvault/internal/resilience"
)

// Provider is the AI classification provider. A weighted semaphore bounds
// concurrent model calls independently of the pipeline worker count; the
// permit count is fixed for the process lifetime.
type Provider struct {
	client   *Client
	gate     *semaphore.Weighted
	executor *resilience.Executor
	metrics  *metrics.PipelineMetrics
}

func NewProvider(client *Client, concurrency int, executor *resilience.Executor, m *metrics.PipelineMetrics) *Provider {
	if concurrency < 1 {
		concurrency = 1
	}
	if executor == nil {
		policy := resilience.DefaultPolicy()
		policy.Retryable = Retryable
		executor = resilience.NewExecutor(policy)
	}
	return &Provider{
		client:   client,
		gate:     semaphore.NewWeighted(int64(concurrency)),
		executor: executor,
		metrics:  m,
	}
}

func (p *Provider) ID() string { return "ollama" }

type modelAnswer struct {
	ContextID    string  `json:"context_id"`
	CategoryID   string  `json:"category_id"`
	Summary      string  `json:"summary"`
	DocumentDate string  `json:"document_date"`
	Confidence   float64 `json:"confidence"`
}

func (p *Provider) Analyze(ctx context.Context, fullText, filename string, candidates domain.Candidates, pred *domain.Prediction) error {
	if len(candidates.Contexts) == 0 && len(candidates.Categories) == 0 {
		return nil
	}

	waitStart := time.Now()
	if err := p.gate.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire model permit: %w", err)
	}
	defer p.gate.Release(1)
	if p.metrics != nil {
		p.metrics.ObserveAIPermitWait(time.Since(waitStart))
	}

	prompt := buildPrompt(fullText, filename, candidates)
	var raw string
	err := p.executor.Execute(ctx, "ollama_classify", func(ctx context.Context) error {
		var genErr error
		raw, genErr = p.client.GenerateJSON(ctx, prompt)
		return genErr
	})
	if err != nil {
		return err
	}

	var answer modelAnswer
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &answer); err != nil {
		return fmt.Errorf("parse model answer: %w", err)
	}

	pred.ContextID = validCandidateID(answer.ContextID, candidates.Contexts)
	pred.CategoryID = validCandidateID(answer.CategoryID, candidates.Categories)
	pred.Summary = answer.Summary
	pred.Confidence = answer.Confidence
	if answer.DocumentDate != "" {
		if date, err := time.Parse("2006-01-02", answer.DocumentDate); err == nil {
			pred.DocumentDate = &date
		}
	}
	return nil
}

// validCandidateID drops hallucinated ids the model was never offered.
func validCandidateID(id string, candidates []domain.Candidate) string {
	if id == "" {
		return ""
	}
	for _, c := range candidates {
		if c.ID == id {
			return id
		}
	}
	return ""
}
