package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/hireloop/hireloop-api/internal/dto"
	"github.com/hireloop/hireloop-api/internal/models"
	"github.com/hireloop/hireloop-api/internal/repository"
)

// InterviewService exposes the caller-facing interview operations consumed by
// the transport layer.
type InterviewService interface {
	CreateSession(ctx context.Context, payload dto.CreateSessionRequest) (dto.SessionResponse, error)
	GetSession(ctx context.Context, sessionID uint) (dto.SessionResponse, error)
	SubmitTurn(ctx context.Context, sessionID uint, payload dto.SubmitTurnRequest) (dto.TurnResponse, error)
	CompleteSession(ctx context.Context, sessionID uint, force bool) (dto.EvaluationResponse, error)
	GetEvaluation(ctx context.Context, sessionID uint) (dto.EvaluationResponse, error)
	AbandonSession(ctx context.Context, sessionID uint) (dto.SessionResponse, error)
}

// NewInterviewService constructs the interview facade.
func NewInterviewService(
	sessions repository.SessionRepository,
	questions repository.QuestionRepository,
	evaluations repository.EvaluationRepository,
	generator QuestionGenerator,
	processor TurnProcessor,
	aggregator EvaluationAggregator,
	validate *validator.Validate,
	logger zerolog.Logger,
) InterviewService {
	return &interviewService{
		sessions:    sessions,
		questions:   questions,
		evaluations: evaluations,
		generator:   generator,
		processor:   processor,
		aggregator:  aggregator,
		validator:   validate,
		logger:      logger.With().Str("component", "interview_service").Logger(),
	}
}

type interviewService struct {
	sessions    repository.SessionRepository
	questions   repository.QuestionRepository
	evaluations repository.EvaluationRepository
	generator   QuestionGenerator
	processor   TurnProcessor
	aggregator  EvaluationAggregator
	validator   *validator.Validate
	logger      zerolog.Logger
}

// CreateSession generates the question set first and persists the session only
// once generation succeeded, so a terminal generation failure leaves nothing behind.
func (s *interviewService) CreateSession(ctx context.Context, payload dto.CreateSessionRequest) (dto.SessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	generated, err := s.generator.Generate(ctx, GenerateQuestionsInput{
		JobDescription:   payload.JobDescription,
		CandidateProfile: payload.CandidateProfile,
		PositionLevel:    payload.PositionLevel,
		QuestionCount:    payload.QuestionCount,
		FocusAreas:       payload.FocusAreas,
	})
	if err != nil {
		return dto.SessionResponse{}, err
	}

	now := time.Now().UTC()
	session := models.InterviewSession{
		CandidateID:  payload.CandidateID,
		JobPostingID: payload.JobPostingID,
		Status:       models.SessionStatusPending,
		ScheduledAt:  &now,
	}

	if err := s.sessions.CreateWithQuestions(ctx, &session, generated.Questions); err != nil {
		return dto.SessionResponse{}, fmt.Errorf("persist session: %w", err)
	}

	s.logger.Info().
		Uint("session_id", session.ID).
		Str("candidate_id", session.CandidateID).
		Int("questions", len(generated.Questions)).
		Msg("interview session created")

	response := toSessionResponse(session, generated.Questions)
	response.CategoryDistribution = generated.CategoryDistribution

	return response, nil
}

func (s *interviewService) GetSession(ctx context.Context, sessionID uint) (dto.SessionResponse, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrSessionNotFound
		}
		return dto.SessionResponse{}, err
	}

	questions, err := s.questions.ListBySession(ctx, sessionID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	return toSessionResponse(session, questions), nil
}

func (s *interviewService) SubmitTurn(ctx context.Context, sessionID uint, payload dto.SubmitTurnRequest) (dto.TurnResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TurnResponse{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	result, err := s.processor.ProcessTurn(ctx, sessionID, ProcessTurnInput{
		QuestionID: payload.QuestionID,
		Message:    payload.Message,
	})
	if err != nil {
		return dto.TurnResponse{}, err
	}

	return toTurnResponse(result), nil
}

func (s *interviewService) CompleteSession(ctx context.Context, sessionID uint, force bool) (dto.EvaluationResponse, error) {
	evaluation, err := s.aggregator.Complete(ctx, sessionID, force)
	if err != nil {
		return dto.EvaluationResponse{}, err
	}

	return toEvaluationResponse(evaluation), nil
}

func (s *interviewService) GetEvaluation(ctx context.Context, sessionID uint) (dto.EvaluationResponse, error) {
	evaluation, err := s.evaluations.GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrSessionNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	return toEvaluationResponse(evaluation), nil
}

func (s *interviewService) AbandonSession(ctx context.Context, sessionID uint) (dto.SessionResponse, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrSessionNotFound
		}
		return dto.SessionResponse{}, err
	}

	if session.Status == models.SessionStatusCompleted || session.Status == models.SessionStatusAbandoned {
		return dto.SessionResponse{}, ErrSessionFinished
	}

	session.Status = models.SessionStatusAbandoned
	if err := s.sessions.Update(ctx, &session); err != nil {
		return dto.SessionResponse{}, fmt.Errorf("abandon session: %w", err)
	}

	if err := s.questions.MarkUnselected(ctx, sessionID, 0); err != nil {
		s.logger.Warn().Err(err).Uint("session_id", sessionID).Msg("failed to unselect questions of abandoned session")
	}

	questions, err := s.questions.ListBySession(ctx, sessionID)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	return toSessionResponse(session, questions), nil
}

func toSessionResponse(session models.InterviewSession, questions []models.InterviewQuestion) dto.SessionResponse {
	response := dto.SessionResponse{
		ID:              session.ID,
		CandidateID:     session.CandidateID,
		JobPostingID:    session.JobPostingID,
		Status:          session.Status,
		StartedAt:       session.StartedAt,
		CompletedAt:     session.CompletedAt,
		DurationSeconds: session.DurationSeconds,
	}

	for _, question := range questions {
		response.Questions = append(response.Questions, toQuestionResponse(question))
	}

	return response
}

func toQuestionResponse(question models.InterviewQuestion) dto.QuestionResponse {
	return dto.QuestionResponse{
		ID:         question.ID,
		Code:       question.Code,
		Category:   question.Category,
		Difficulty: question.Difficulty,
		Text:       question.Text,
		KeyPoints:  question.KeyPoints,
		Position:   question.Position,
		Selected:   question.Selected,
	}
}

func toTurnResponse(result TurnResult) dto.TurnResponse {
	response := dto.TurnResponse{
		TurnNumber: result.Turn.TurnNumber,
		Evaluation: dto.TurnEvaluationResponse{
			TechnicalScore:     result.Turn.TechnicalScore,
			CommunicationScore: result.Turn.CommunicationScore,
			DepthScore:         result.Turn.DepthScore,
			OverallScore:       result.Turn.OverallScore,
			KeyObservations:    result.Turn.KeyObservations,
			Strengths:          result.Turn.Strengths,
			Gaps:               result.Turn.Gaps,
		},
		Action:           result.Action,
		AIMessage:        result.Turn.AIMessage,
		FollowUpQuestion: result.FollowUpQuestion,
		Context: dto.ContextResponse{
			TopicsCovered: result.Context.TopicsCovered,
			FollowUpDepth: result.Context.FollowUpDepth,
			TurnCount:     result.Context.TurnCount,
		},
		SessionStatus: result.SessionStatus,
	}

	if result.NextQuestion != nil {
		next := toQuestionResponse(*result.NextQuestion)
		response.NextQuestion = &next
	}

	return response
}

func toEvaluationResponse(evaluation models.InterviewEvaluation) dto.EvaluationResponse {
	return dto.EvaluationResponse{
		SessionID:              evaluation.SessionID,
		FinalScore:             evaluation.FinalScore,
		Grade:                  evaluation.Grade,
		Recommendation:         evaluation.Recommendation,
		TechnicalCompetence:    evaluation.TechnicalCompetence,
		CommunicationSkills:    evaluation.CommunicationSkills,
		BehavioralFit:          evaluation.BehavioralFit,
		Strengths:              evaluation.Strengths,
		Weaknesses:             evaluation.Weaknesses,
		NotableMoments:         evaluation.NotableMoments,
		RedFlags:               evaluation.RedFlags,
		Reasoning:              evaluation.Reasoning,
		DevelopmentSuggestions: evaluation.DevelopmentSuggestions,
		CreatedAt:              evaluation.CreatedAt,
	}
}
