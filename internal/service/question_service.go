package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hireloop/hireloop-api/internal/models"
	"github.com/hireloop/hireloop-api/pkg/ai"
)

// GenerateQuestionsInput carries everything the generator needs for one session.
type GenerateQuestionsInput struct {
	JobDescription   string
	CandidateProfile string
	PositionLevel    string
	QuestionCount    int
	FocusAreas       []string
}

// GeneratedQuestions is the ordered question set plus the observed category
// frequencies, reported for monitoring rather than enforced.
type GeneratedQuestions struct {
	Questions            []models.InterviewQuestion
	CategoryDistribution map[string]int
}

// QuestionGeneratorConfig enumerates the generation knobs.
type QuestionGeneratorConfig struct {
	MinCount        int
	MaxCount        int
	DefaultCount    int
	CycleBudget     int
	Temperature     float32
	CategoryWeights map[string]float64
}

// DefaultQuestionGeneratorConfig returns the standard generation settings.
func DefaultQuestionGeneratorConfig() QuestionGeneratorConfig {
	return QuestionGeneratorConfig{
		MinCount:     5,
		MaxCount:     15,
		DefaultCount: 8,
		CycleBudget:  2,
		Temperature:  0.7,
		CategoryWeights: map[string]float64{
			models.CategoryTechnical:   0.6,
			models.CategoryBehavioral:  0.2,
			models.CategorySituational: 0.2,
		},
	}
}

// QuestionGenerator produces a structured question set for a new session.
type QuestionGenerator interface {
	Generate(ctx context.Context, input GenerateQuestionsInput) (GeneratedQuestions, error)
}

// NewQuestionGenerator constructs a question generator on top of the model invoker.
func NewQuestionGenerator(invoker ai.Invoker, logger zerolog.Logger, cfg QuestionGeneratorConfig) QuestionGenerator {
	if cfg.MinCount <= 0 {
		cfg.MinCount = 5
	}
	if cfg.MaxCount < cfg.MinCount {
		cfg.MaxCount = cfg.MinCount
	}
	if cfg.DefaultCount < cfg.MinCount || cfg.DefaultCount > cfg.MaxCount {
		cfg.DefaultCount = cfg.MinCount
	}
	if cfg.CycleBudget < 0 {
		cfg.CycleBudget = 0
	}
	if len(cfg.CategoryWeights) == 0 {
		cfg.CategoryWeights = DefaultQuestionGeneratorConfig().CategoryWeights
	}

	return &questionGenerator{
		invoker: invoker,
		logger:  logger.With().Str("component", "question_generator").Logger(),
		tracer:  otel.Tracer("github.com/hireloop/hireloop-api/internal/service/question"),
		cfg:     cfg,
	}
}

type questionGenerator struct {
	invoker ai.Invoker
	logger  zerolog.Logger
	tracer  trace.Tracer
	cfg     QuestionGeneratorConfig
}

type questionEntry struct {
	ID                 string   `json:"id"`
	Category           string   `json:"category"`
	Difficulty         string   `json:"difficulty"`
	Question           string   `json:"question"`
	KeyPoints          []string `json:"key_points"`
	IdealAnswer        string   `json:"ideal_answer"`
	EvaluationCriteria []string `json:"evaluation_criteria"`
}

type questionPayload struct {
	Questions []questionEntry `json:"questions"`
}

var questionEntryRequired = []string{"id", "category", "difficulty", "question", "key_points"}

func (g *questionGenerator) Generate(parent context.Context, input GenerateQuestionsInput) (GeneratedQuestions, error) {
	if err := g.validateInput(input); err != nil {
		return GeneratedQuestions{}, err
	}

	count := input.QuestionCount
	if count == 0 {
		count = g.cfg.DefaultCount
	}
	if count < g.cfg.MinCount {
		count = g.cfg.MinCount
	}
	if count > g.cfg.MaxCount {
		count = g.cfg.MaxCount
	}

	ctx, span := g.tracer.Start(parent, "question_generator.generate", trace.WithAttributes(
		attribute.Int("count", count),
		attribute.String("level", input.PositionLevel),
	))
	defer span.End()

	prompt := buildQuestionPrompt(input, count, g.cfg.CategoryWeights)
	params := ai.GenerationParams{Agent: AgentQuestionGenerator, Temperature: g.cfg.Temperature}

	var lastErr error
	for cycle := 0; cycle <= g.cfg.CycleBudget; cycle++ {
		raw, err := g.invoker.Invoke(ctx, prompt, params)
		if err != nil {
			// The invoker already exhausted its transport retry budget.
			return GeneratedQuestions{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}

		result, err := g.parseQuestions(raw, count)
		if err == nil {
			span.SetAttributes(attribute.Int("cycles", cycle+1))
			return result, nil
		}

		lastErr = err
		g.logger.Warn().Err(err).Int("cycle", cycle+1).Msg("generated question set failed validation")
	}

	return GeneratedQuestions{}, fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
}

func (g *questionGenerator) validateInput(input GenerateQuestionsInput) error {
	if strings.TrimSpace(input.JobDescription) == "" {
		return fmt.Errorf("%w: job description is required", ErrInvalidInput)
	}

	if strings.TrimSpace(input.CandidateProfile) == "" {
		return fmt.Errorf("%w: candidate profile is required", ErrInvalidInput)
	}

	switch input.PositionLevel {
	case models.LevelJunior, models.LevelMiddle, models.LevelSenior:
	default:
		return fmt.Errorf("%w: unknown position level %q", ErrInvalidInput, input.PositionLevel)
	}

	return nil
}

func (g *questionGenerator) parseQuestions(raw string, count int) (GeneratedQuestions, error) {
	record, err := ai.ExtractJSON(raw)
	if err != nil {
		return GeneratedQuestions{}, err
	}

	if !ai.ValidateRequiredFields(record, []string{"questions"}) {
		return GeneratedQuestions{}, fmt.Errorf("%w: questions collection missing", ErrIncompleteOutput)
	}

	entries, ok := record["questions"].([]interface{})
	if !ok {
		return GeneratedQuestions{}, fmt.Errorf("%w: questions is not a collection", ErrIncompleteOutput)
	}

	for _, entry := range entries {
		fields, ok := entry.(map[string]interface{})
		if !ok || !ai.ValidateRequiredFields(fields, questionEntryRequired) {
			return GeneratedQuestions{}, fmt.Errorf("%w: question entry missing required fields", ErrIncompleteOutput)
		}
	}

	var payload questionPayload
	if err := ai.Decode(record, &payload); err != nil {
		return GeneratedQuestions{}, err
	}

	if len(payload.Questions) < g.cfg.MinCount {
		return GeneratedQuestions{}, fmt.Errorf("%w: got %d questions, need at least %d", ErrIncompleteOutput, len(payload.Questions), g.cfg.MinCount)
	}

	if len(payload.Questions) > count {
		payload.Questions = payload.Questions[:count]
	}

	result := GeneratedQuestions{CategoryDistribution: make(map[string]int)}
	for position, entry := range payload.Questions {
		code := strings.TrimSpace(entry.ID)
		if code == "" {
			code = "q_" + uuid.NewString()[:8]
		}

		category := strings.ToLower(strings.TrimSpace(entry.Category))
		difficulty := strings.ToLower(strings.TrimSpace(entry.Difficulty))

		result.Questions = append(result.Questions, models.InterviewQuestion{
			Code:               code,
			Category:           category,
			Difficulty:         difficulty,
			Text:               entry.Question,
			KeyPoints:          entry.KeyPoints,
			IdealAnswer:        entry.IdealAnswer,
			EvaluationCriteria: entry.EvaluationCriteria,
			Position:           position,
			Selected:           true,
		})
		result.CategoryDistribution[category]++
	}

	return result, nil
}
