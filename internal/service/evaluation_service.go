package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/hireloop/hireloop-api/internal/models"
	"github.com/hireloop/hireloop-api/internal/repository"
	"github.com/hireloop/hireloop-api/pkg/ai"
)

// EvaluationAggregatorConfig enumerates the aggregation knobs.
type EvaluationAggregatorConfig struct {
	CycleBudget int
	Temperature float32
	Weights     DimensionWeights
	GradeBands  []GradeBand
	NATSSubject string
}

// DefaultEvaluationAggregatorConfig returns the standard aggregation settings.
func DefaultEvaluationAggregatorConfig() EvaluationAggregatorConfig {
	return EvaluationAggregatorConfig{
		CycleBudget: 2,
		Temperature: 0.3,
		Weights:     DefaultDimensionWeights(),
		GradeBands:  DefaultGradeBands(),
		NATSSubject: "hireloop.interview.completed",
	}
}

// EvaluationAggregator combines all turns of a finished session into the final
// multi-dimension evaluation.
type EvaluationAggregator interface {
	Complete(ctx context.Context, sessionID uint, force bool) (models.InterviewEvaluation, error)
}

// NewEvaluationAggregator constructs the aggregator. The NATS connection may be
// nil, in which case no completion event is published.
func NewEvaluationAggregator(
	sessions repository.SessionRepository,
	turns repository.TurnRepository,
	evaluations repository.EvaluationRepository,
	invoker ai.Invoker,
	natsConn *nats.Conn,
	logger zerolog.Logger,
	cfg EvaluationAggregatorConfig,
) EvaluationAggregator {
	if cfg.CycleBudget < 0 {
		cfg.CycleBudget = 0
	}
	if len(cfg.GradeBands) == 0 {
		cfg.GradeBands = DefaultGradeBands()
	}
	if cfg.Weights == (DimensionWeights{}) {
		cfg.Weights = DefaultDimensionWeights()
	}

	return &evaluationAggregator{
		sessions:    sessions,
		turns:       turns,
		evaluations: evaluations,
		invoker:     invoker,
		nats:        natsConn,
		logger:      logger.With().Str("component", "evaluation_aggregator").Logger(),
		tracer:      otel.Tracer("github.com/hireloop/hireloop-api/internal/service/evaluation"),
		cfg:         cfg,
	}
}

type evaluationAggregator struct {
	sessions    repository.SessionRepository
	turns       repository.TurnRepository
	evaluations repository.EvaluationRepository
	invoker     ai.Invoker
	nats        *nats.Conn
	logger      zerolog.Logger
	tracer      trace.Tracer
	cfg         EvaluationAggregatorConfig
}

type evaluationPayload struct {
	Dimensions struct {
		TechnicalCompetence map[string]float64 `json:"technical_competence"`
		CommunicationSkills map[string]float64 `json:"communication_skills"`
		BehavioralFit       map[string]float64 `json:"behavioral_fit"`
	} `json:"dimensions"`
	Analysis struct {
		Strengths      []string `json:"strengths"`
		Weaknesses     []string `json:"weaknesses"`
		NotableMoments []string `json:"notable_moments"`
		RedFlags       []string `json:"red_flags"`
	} `json:"analysis"`
	Recommendation struct {
		Decision               string   `json:"decision"`
		Reasoning              string   `json:"reasoning"`
		DevelopmentSuggestions []string `json:"development_suggestions"`
	} `json:"recommendation"`
}

type completionEvent struct {
	SessionID      uint      `json:"session_id"`
	CandidateID    string    `json:"candidate_id"`
	FinalScore     float64   `json:"final_score"`
	Grade          string    `json:"grade"`
	Recommendation string    `json:"recommendation"`
	CompletedAt    time.Time `json:"completed_at"`
}

func (a *evaluationAggregator) Complete(parent context.Context, sessionID uint, force bool) (models.InterviewEvaluation, error) {
	ctx, span := a.tracer.Start(parent, "evaluation_aggregator.complete", trace.WithAttributes(
		attribute.Int("session_id", int(sessionID)),
		attribute.Bool("force", force),
	))
	defer span.End()

	session, err := a.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.InterviewEvaluation{}, ErrSessionNotFound
		}
		return models.InterviewEvaluation{}, err
	}

	if session.Status == models.SessionStatusAbandoned {
		return models.InterviewEvaluation{}, ErrSessionFinished
	}

	exists, err := a.evaluations.ExistsForSession(ctx, sessionID)
	if err != nil {
		return models.InterviewEvaluation{}, err
	}
	if exists {
		return models.InterviewEvaluation{}, ErrEvaluationExists
	}

	turns, err := a.turns.ListBySession(ctx, sessionID)
	if err != nil {
		return models.InterviewEvaluation{}, err
	}
	if len(turns) == 0 {
		return models.InterviewEvaluation{}, ErrIncompleteSession
	}

	if session.Status != models.SessionStatusCompleted {
		if !force {
			return models.InterviewEvaluation{}, ErrSessionNotCompleted
		}

		now := time.Now().UTC()
		session.Status = models.SessionStatusCompleted
		session.CompletedAt = &now
		if session.StartedAt != nil {
			session.DurationSeconds = int(now.Sub(*session.StartedAt).Seconds())
		}
		if err := a.sessions.Update(ctx, &session); err != nil {
			return models.InterviewEvaluation{}, fmt.Errorf("force-complete session: %w", err)
		}
	}

	prompt := buildEvaluationPrompt(session, turns)
	params := ai.GenerationParams{Agent: AgentEvaluationAggregator, SessionID: &sessionID, Temperature: a.cfg.Temperature}

	payload, err := a.invokeCycle(ctx, prompt, params)
	if err != nil {
		return models.InterviewEvaluation{}, err
	}

	finalScore := computeFinalScore(
		payload.Dimensions.TechnicalCompetence,
		payload.Dimensions.CommunicationSkills,
		payload.Dimensions.BehavioralFit,
		a.cfg.Weights,
	)

	evaluation := models.InterviewEvaluation{
		SessionID:              sessionID,
		FinalScore:             finalScore,
		Grade:                  gradeFor(finalScore, a.cfg.GradeBands),
		Recommendation:         payload.Recommendation.Decision,
		TechnicalCompetence:    toJSONMap(payload.Dimensions.TechnicalCompetence),
		CommunicationSkills:    toJSONMap(payload.Dimensions.CommunicationSkills),
		BehavioralFit:          toJSONMap(payload.Dimensions.BehavioralFit),
		Strengths:              payload.Analysis.Strengths,
		Weaknesses:             payload.Analysis.Weaknesses,
		NotableMoments:         payload.Analysis.NotableMoments,
		RedFlags:               payload.Analysis.RedFlags,
		Reasoning:              payload.Recommendation.Reasoning,
		DevelopmentSuggestions: payload.Recommendation.DevelopmentSuggestions,
	}

	if err := a.evaluations.Create(ctx, &evaluation); err != nil {
		return models.InterviewEvaluation{}, fmt.Errorf("persist evaluation: %w", err)
	}

	a.publishCompletion(session, evaluation)

	return evaluation, nil
}

func (a *evaluationAggregator) invokeCycle(ctx context.Context, prompt string, params ai.GenerationParams) (evaluationPayload, error) {
	var lastErr error
	for cycle := 0; cycle <= a.cfg.CycleBudget; cycle++ {
		raw, err := a.invoker.Invoke(ctx, prompt, params)
		if err != nil {
			return evaluationPayload{}, fmt.Errorf("%w: %v", ErrAggregationFailed, err)
		}

		payload, err := a.parseEvaluation(raw)
		if err == nil {
			return payload, nil
		}

		lastErr = err
		a.logger.Warn().Err(err).Int("cycle", cycle+1).Msg("evaluation result failed validation")
	}

	return evaluationPayload{}, fmt.Errorf("%w: %v", ErrAggregationFailed, lastErr)
}

func (a *evaluationAggregator) parseEvaluation(raw string) (evaluationPayload, error) {
	record, err := ai.ExtractJSON(raw)
	if err != nil {
		return evaluationPayload{}, err
	}

	if !ai.ValidateRequiredFields(record, []string{"dimensions", "analysis", "recommendation"}) {
		return evaluationPayload{}, fmt.Errorf("%w: missing evaluation sub-schemas", ErrIncompleteOutput)
	}

	dimensions, ok := record["dimensions"].(map[string]interface{})
	if !ok || !ai.ValidateRequiredFields(dimensions, []string{"technical_competence", "communication_skills", "behavioral_fit"}) {
		return evaluationPayload{}, fmt.Errorf("%w: dimension groups missing", ErrIncompleteOutput)
	}

	var payload evaluationPayload
	if err := ai.Decode(record, &payload); err != nil {
		return evaluationPayload{}, err
	}

	switch payload.Recommendation.Decision {
	case models.RecommendationStrongHire, models.RecommendationHire, models.RecommendationLeanHire, models.RecommendationNoHire:
	default:
		return evaluationPayload{}, fmt.Errorf("%w: unknown hiring decision %q", ErrIncompleteOutput, payload.Recommendation.Decision)
	}

	if len(payload.Dimensions.TechnicalCompetence) == 0 &&
		len(payload.Dimensions.CommunicationSkills) == 0 &&
		len(payload.Dimensions.BehavioralFit) == 0 {
		return evaluationPayload{}, fmt.Errorf("%w: no dimension sub-scores", ErrIncompleteOutput)
	}

	return payload, nil
}

// publishCompletion emits the integration event. A publish failure is logged
// and swallowed: downstream consumers are not part of the evaluation flow.
func (a *evaluationAggregator) publishCompletion(session models.InterviewSession, evaluation models.InterviewEvaluation) {
	if a.nats == nil || a.cfg.NATSSubject == "" {
		return
	}

	completedAt := time.Now().UTC()
	if session.CompletedAt != nil {
		completedAt = *session.CompletedAt
	}

	event := completionEvent{
		SessionID:      session.ID,
		CandidateID:    session.CandidateID,
		FinalScore:     evaluation.FinalScore,
		Grade:          evaluation.Grade,
		Recommendation: evaluation.Recommendation,
		CompletedAt:    completedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to encode completion event")
		return
	}

	if err := a.nats.Publish(a.cfg.NATSSubject, data); err != nil {
		a.logger.Warn().Err(err).Uint("session_id", session.ID).Msg("failed to publish completion event")
	}
}

func toJSONMap(scores map[string]float64) map[string]interface{} {
	if scores == nil {
		return nil
	}

	result := make(map[string]interface{}, len(scores))
	for name, score := range scores {
		result[name] = score
	}
	return result
}
