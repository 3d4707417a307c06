package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/hireloop/hireloop-api/internal/models"
	"github.com/hireloop/hireloop-api/internal/repository"
	"github.com/hireloop/hireloop-api/pkg/ai"
)

// TurnProcessorConfig enumerates the dialog state machine knobs.
type TurnProcessorConfig struct {
	MaxFollowUpDepth int
	HistoryWindow    int
	CycleBudget      int
	Temperature      float32
}

// DefaultTurnProcessorConfig returns the standard turn processing settings.
func DefaultTurnProcessorConfig() TurnProcessorConfig {
	return TurnProcessorConfig{
		MaxFollowUpDepth: 2,
		HistoryWindow:    6,
		CycleBudget:      2,
		Temperature:      0.4,
	}
}

// ProcessTurnInput carries one candidate answer.
type ProcessTurnInput struct {
	QuestionID uint
	Message    string
}

// TurnResult bundles everything a successful turn produces.
type TurnResult struct {
	Turn             models.InterviewTurn
	Action           string
	FollowUpQuestion string
	NextQuestion     *models.InterviewQuestion
	Context          ConversationContext
	SessionStatus    string
}

// TurnProcessor is the conversational state machine: one candidate answer in,
// one evaluated turn plus a next-action decision out.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, sessionID uint, input ProcessTurnInput) (TurnResult, error)
}

// NewTurnProcessor constructs the turn processor.
func NewTurnProcessor(
	sessions repository.SessionRepository,
	questions repository.QuestionRepository,
	turns repository.TurnRepository,
	invoker ai.Invoker,
	guard SessionGuard,
	logger zerolog.Logger,
	cfg TurnProcessorConfig,
) TurnProcessor {
	if cfg.MaxFollowUpDepth <= 0 {
		cfg.MaxFollowUpDepth = 2
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 6
	}
	if cfg.CycleBudget < 0 {
		cfg.CycleBudget = 0
	}

	return &turnProcessor{
		sessions:  sessions,
		questions: questions,
		turns:     turns,
		invoker:   invoker,
		guard:     guard,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "turn_processor").Logger(),
		tracer:    otel.Tracer("github.com/hireloop/hireloop-api/internal/service/turn"),
		cfg:       cfg,
	}
}

type turnProcessor struct {
	sessions  repository.SessionRepository
	questions repository.QuestionRepository
	turns     repository.TurnRepository
	invoker   ai.Invoker
	guard     SessionGuard
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	cfg       TurnProcessorConfig
}

type turnPayload struct {
	Evaluation struct {
		TechnicalScore     float64  `json:"technical_score"`
		CommunicationScore float64  `json:"communication_score"`
		DepthScore         float64  `json:"depth_score"`
		OverallScore       float64  `json:"overall_score"`
		KeyObservations    []string `json:"key_observations"`
		Strengths          []string `json:"strengths"`
		Gaps               []string `json:"gaps"`
	} `json:"evaluation"`
	NextAction struct {
		Type             string `json:"type"`
		FollowUpQuestion string `json:"follow_up_question"`
		Reasoning        string `json:"reasoning"`
	} `json:"next_action"`
	Response string `json:"response"`
}

var turnEvaluationRequired = []string{"technical_score", "communication_score", "depth_score", "overall_score"}

func (p *turnProcessor) ProcessTurn(parent context.Context, sessionID uint, input ProcessTurnInput) (TurnResult, error) {
	if strings.TrimSpace(input.Message) == "" {
		return TurnResult{}, fmt.Errorf("%w: candidate message is required", ErrInvalidInput)
	}

	release, err := p.guard.Acquire(parent, sessionID)
	if err != nil {
		return TurnResult{}, err
	}
	defer release()

	ctx, span := p.tracer.Start(parent, "turn_processor.process", trace.WithAttributes(
		attribute.Int("session_id", int(sessionID)),
	))
	defer span.End()

	session, err := p.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TurnResult{}, ErrSessionNotFound
		}
		return TurnResult{}, err
	}

	if session.Status == models.SessionStatusCompleted || session.Status == models.SessionStatusAbandoned {
		return TurnResult{}, ErrSessionFinished
	}

	question, err := p.questions.GetByID(ctx, input.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TurnResult{}, ErrQuestionNotFound
		}
		return TurnResult{}, err
	}
	if question.SessionID != sessionID {
		return TurnResult{}, fmt.Errorf("%w: question belongs to another session", ErrQuestionNotFound)
	}

	allQuestions, err := p.questions.ListBySession(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	history, err := p.turns.ListBySession(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	questionsByID := make(map[uint]models.InterviewQuestion, len(allQuestions))
	for _, q := range allQuestions {
		questionsByID[q.ID] = q
	}

	convCtx := rebuildContext(history, questionsByID)

	window := history
	if len(window) > p.cfg.HistoryWindow {
		window = window[len(window)-p.cfg.HistoryWindow:]
	}

	message := p.sanitizer.Sanitize(input.Message)
	prompt := buildTurnPrompt(question, window, convCtx, message, p.cfg.MaxFollowUpDepth)
	params := ai.GenerationParams{Agent: AgentTurnProcessor, SessionID: &sessionID, Temperature: p.cfg.Temperature}

	payload, err := p.invokeCycle(ctx, prompt, params)
	if err != nil {
		// No turn persisted, no session mutation: the caller can retry the same answer.
		return TurnResult{}, err
	}

	remaining := len(allQuestions) - (question.Position + 1)
	action := resolveAction(payload.NextAction.Type, convCtx.FollowUpDepth, p.cfg.MaxFollowUpDepth, remaining)
	if action != payload.NextAction.Type {
		p.logger.Info().
			Str("requested", payload.NextAction.Type).
			Str("resolved", action).
			Int("depth", convCtx.FollowUpDepth).
			Int("remaining", remaining).
			Msg("model action overridden by decision policy")
	}

	followUp := strings.TrimSpace(payload.NextAction.FollowUpQuestion)
	if action != models.ActionFollowUp {
		followUp = ""
	}

	turn := models.InterviewTurn{
		SessionID:          sessionID,
		QuestionID:         &question.ID,
		TurnNumber:         convCtx.TurnCount + 1,
		AIMessage:          payload.Response,
		CandidateMessage:   message,
		TechnicalScore:     clampScore(payload.Evaluation.TechnicalScore),
		CommunicationScore: clampScore(payload.Evaluation.CommunicationScore),
		DepthScore:         clampScore(payload.Evaluation.DepthScore),
		OverallScore:       clampScore(payload.Evaluation.OverallScore),
		KeyObservations:    payload.Evaluation.KeyObservations,
		Strengths:          payload.Evaluation.Strengths,
		Gaps:               payload.Evaluation.Gaps,
		Action:             action,
	}

	if err := p.turns.Create(ctx, &turn); err != nil {
		return TurnResult{}, fmt.Errorf("persist turn: %w", err)
	}

	status, err := p.transitionSession(ctx, &session, question, action)
	if err != nil {
		return TurnResult{}, err
	}

	result := TurnResult{
		Turn:             turn,
		Action:           action,
		FollowUpQuestion: followUp,
		Context:          advanceContext(convCtx, question.Code, action),
		SessionStatus:    status,
	}

	if action == models.ActionNextQuestion {
		for i := range allQuestions {
			if allQuestions[i].Position == question.Position+1 {
				next := allQuestions[i]
				result.NextQuestion = &next
				break
			}
		}
	}

	return result, nil
}

// invokeCycle runs the invoke-extract-validate loop. A validation failure burns
// one cycle and re-invokes; a terminal invoker failure is not retried here since
// the invoker already exhausted its own budget.
func (p *turnProcessor) invokeCycle(ctx context.Context, prompt string, params ai.GenerationParams) (turnPayload, error) {
	var lastErr error
	for cycle := 0; cycle <= p.cfg.CycleBudget; cycle++ {
		raw, err := p.invoker.Invoke(ctx, prompt, params)
		if err != nil {
			return turnPayload{}, fmt.Errorf("%w: %v", ErrTurnProcessingFailed, err)
		}

		payload, err := p.parseTurn(raw)
		if err == nil {
			return payload, nil
		}

		lastErr = err
		p.logger.Warn().Err(err).Int("cycle", cycle+1).Msg("turn result failed validation")
	}

	return turnPayload{}, fmt.Errorf("%w: %v", ErrTurnProcessingFailed, lastErr)
}

func (p *turnProcessor) parseTurn(raw string) (turnPayload, error) {
	record, err := ai.ExtractJSON(raw)
	if err != nil {
		return turnPayload{}, err
	}

	if !ai.ValidateRequiredFields(record, []string{"evaluation", "next_action", "response"}) {
		return turnPayload{}, fmt.Errorf("%w: missing turn sub-schemas", ErrIncompleteOutput)
	}

	evaluation, ok := record["evaluation"].(map[string]interface{})
	if !ok || !ai.ValidateRequiredFields(evaluation, turnEvaluationRequired) {
		return turnPayload{}, fmt.Errorf("%w: evaluation scores missing", ErrIncompleteOutput)
	}

	var payload turnPayload
	if err := ai.Decode(record, &payload); err != nil {
		return turnPayload{}, err
	}

	if !validAction(payload.NextAction.Type) {
		return turnPayload{}, fmt.Errorf("%w: unknown action %q", ErrIncompleteOutput, payload.NextAction.Type)
	}

	if payload.NextAction.Type == models.ActionFollowUp && strings.TrimSpace(payload.NextAction.FollowUpQuestion) == "" {
		return turnPayload{}, fmt.Errorf("%w: follow_up requires a follow-up question", ErrIncompleteOutput)
	}

	return payload, nil
}

// transitionSession applies the status change implied by the decided action.
// Status mutations happen only after the turn is safely persisted.
func (p *turnProcessor) transitionSession(ctx context.Context, session *models.InterviewSession, question models.InterviewQuestion, action string) (string, error) {
	now := time.Now().UTC()
	changed := false

	if session.Status == models.SessionStatusPending {
		session.Status = models.SessionStatusInProgress
		session.StartedAt = &now
		changed = true
	}

	if action == models.ActionEnd {
		session.Status = models.SessionStatusCompleted
		session.CompletedAt = &now
		if session.StartedAt != nil {
			session.DurationSeconds = int(now.Sub(*session.StartedAt).Seconds())
		}
		changed = true

		if err := p.questions.MarkUnselected(ctx, session.ID, question.Position+1); err != nil {
			return "", fmt.Errorf("mark unreached questions: %w", err)
		}
	}

	if changed {
		if err := p.sessions.Update(ctx, session); err != nil {
			return "", fmt.Errorf("update session status: %w", err)
		}
	}

	return session.Status, nil
}
