package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop-api/internal/models"
	"github.com/hireloop/hireloop-api/pkg/ai"
)

func testGeneratorConfig() QuestionGeneratorConfig {
	cfg := DefaultQuestionGeneratorConfig()
	cfg.MinCount = 2
	cfg.MaxCount = 5
	cfg.DefaultCount = 3
	cfg.CycleBudget = 2
	return cfg
}

func generatorInput() GenerateQuestionsInput {
	return GenerateQuestionsInput{
		JobDescription:   "Backend engineer building payment APIs in Go",
		CandidateProfile: "Five years of Go and PostgreSQL experience",
		PositionLevel:    models.LevelMiddle,
		QuestionCount:    3,
	}
}

const validQuestionSet = `{"questions":[
	{"id":"q1","category":"technical","difficulty":"middle","question":"Explain goroutine scheduling.","key_points":["GMP model","preemption"],"ideal_answer":"Covers scheduler basics.","evaluation_criteria":["accuracy"]},
	{"id":"q2","category":"behavioral","difficulty":"middle","question":"Describe a production incident you handled.","key_points":["ownership"],"ideal_answer":"Structured incident story.","evaluation_criteria":["honesty"]},
	{"id":"q3","category":"technical","difficulty":"senior","question":"Design an idempotent payment endpoint.","key_points":["idempotency keys"],"ideal_answer":"Talks through dedup storage.","evaluation_criteria":["depth"]}
]}`

func TestGenerateProducesOrderedQuestions(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: validQuestionSet}}}
	generator := NewQuestionGenerator(invoker, zerolog.Nop(), testGeneratorConfig())

	result, err := generator.Generate(context.Background(), generatorInput())
	require.NoError(t, err)
	require.Len(t, result.Questions, 3)

	for position, question := range result.Questions {
		require.Equal(t, position, question.Position)
		require.True(t, question.Selected)
		require.NotEmpty(t, question.Code)
	}

	require.Equal(t, map[string]int{"technical": 2, "behavioral": 1}, result.CategoryDistribution)
	require.Equal(t, 1, invoker.callCount())
}

func TestGenerateAcceptsFencedOutput(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: "```json\n" + validQuestionSet + "\n```"}}}
	generator := NewQuestionGenerator(invoker, zerolog.Nop(), testGeneratorConfig())

	result, err := generator.Generate(context.Background(), generatorInput())
	require.NoError(t, err)
	require.Len(t, result.Questions, 3)
}

func TestGenerateRejectsEmptyInputsWithoutInvoking(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: validQuestionSet}}}
	generator := NewQuestionGenerator(invoker, zerolog.Nop(), testGeneratorConfig())

	cases := []GenerateQuestionsInput{
		{JobDescription: "", CandidateProfile: "profile", PositionLevel: models.LevelJunior},
		{JobDescription: "jd", CandidateProfile: "   ", PositionLevel: models.LevelJunior},
		{JobDescription: "jd", CandidateProfile: "profile", PositionLevel: "principal"},
	}

	for _, input := range cases {
		_, err := generator.Generate(context.Background(), input)
		require.ErrorIs(t, err, ErrInvalidInput)
	}

	require.Equal(t, 0, invoker.callCount(), "invalid input is never retried or sent to the backend")
}

func TestGenerateRetriesValidationFailuresThenSucceeds(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{
		{text: `{"noise": true}`},
		{text: `{"questions":[{"id":"q1","category":"technical"}]}`},
		{text: validQuestionSet},
	}}
	generator := NewQuestionGenerator(invoker, zerolog.Nop(), testGeneratorConfig())

	result, err := generator.Generate(context.Background(), generatorInput())
	require.NoError(t, err)
	require.Len(t, result.Questions, 3)
	require.Equal(t, 3, invoker.callCount())
}

func TestGenerateFailsTerminallyAfterCycleBudget(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: `{"questions": []}`}}}
	cfg := testGeneratorConfig()
	cfg.CycleBudget = 2
	generator := NewQuestionGenerator(invoker, zerolog.Nop(), cfg)

	_, err := generator.Generate(context.Background(), generatorInput())
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.Equal(t, 3, invoker.callCount(), "cycle budget bounds validation retries")
}

func TestGenerateDoesNotRetryTerminalInvokerFailure(t *testing.T) {
	backendErr := &ai.InvokeError{Attempts: 3, Err: ai.ErrBackendUnavailable}
	invoker := &stubInvoker{results: []stubResult{{err: backendErr}}}
	generator := NewQuestionGenerator(invoker, zerolog.Nop(), testGeneratorConfig())

	_, err := generator.Generate(context.Background(), generatorInput())
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.Equal(t, 1, invoker.callCount(), "the invoker already exhausted its own retry budget")
}

func TestGenerateRejectsMalformedJSONAfterRetries(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: `{"questions": [truncated`}}}
	cfg := testGeneratorConfig()
	cfg.CycleBudget = 1
	generator := NewQuestionGenerator(invoker, zerolog.Nop(), cfg)

	_, err := generator.Generate(context.Background(), generatorInput())
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.Equal(t, 2, invoker.callCount())
}

func TestGenerateTruncatesOverlongQuestionSets(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: validQuestionSet}}}
	cfg := testGeneratorConfig()
	generator := NewQuestionGenerator(invoker, zerolog.Nop(), cfg)

	input := generatorInput()
	input.QuestionCount = 2

	result, err := generator.Generate(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, result.Questions, 2, "extra questions beyond the requested count are dropped")
}

func TestGenerateAssignsFallbackCodes(t *testing.T) {
	set := `{"questions":[
		{"id":" ","category":"technical","difficulty":"junior","question":"What is a slice?","key_points":["backing array"]},
		{"id":"q2","category":"situational","difficulty":"junior","question":"Your deploy fails, what now?","key_points":["rollback"]}
	]}`

	invoker := &stubInvoker{results: []stubResult{{text: set}}}
	generator := NewQuestionGenerator(invoker, zerolog.Nop(), testGeneratorConfig())

	result, err := generator.Generate(context.Background(), generatorInput())
	require.NoError(t, err)
	require.Len(t, result.Questions, 2)
	require.NotEmpty(t, result.Questions[0].Code)
	require.NotEqual(t, " ", result.Questions[0].Code)
}
