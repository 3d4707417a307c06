package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop-api/internal/models"
	"github.com/hireloop/hireloop-api/pkg/ai"
)

type turnHarness struct {
	sessions  *stubSessionRepo
	questions *stubQuestionRepo
	turns     *stubTurnRepo
	invoker   *stubInvoker
	guard     SessionGuard
	processor TurnProcessor
}

func newTurnHarness(t *testing.T, invoker *stubInvoker, seed ...models.InterviewSession) *turnHarness {
	t.Helper()

	if len(seed) == 0 {
		seed = []models.InterviewSession{{CandidateID: "cand-1", Status: models.SessionStatusPending}}
	}

	h := &turnHarness{
		sessions: newStubSessionRepo(seed...),
		questions: &stubQuestionRepo{questions: []models.InterviewQuestion{
			{ID: 1, SessionID: 1, Code: "q1", Category: models.CategoryTechnical, Position: 0, Selected: true, Text: "Explain indexes."},
			{ID: 2, SessionID: 1, Code: "q2", Category: models.CategoryBehavioral, Position: 1, Selected: true, Text: "Tell me about a conflict."},
			{ID: 3, SessionID: 1, Code: "q3", Category: models.CategoryTechnical, Position: 2, Selected: true, Text: "Design a rate limiter."},
		}},
		turns:   &stubTurnRepo{},
		invoker: invoker,
		guard:   NewMemorySessionGuard(),
	}

	h.processor = NewTurnProcessor(h.sessions, h.questions, h.turns, h.invoker, h.guard, zerolog.Nop(), DefaultTurnProcessorConfig())
	return h
}

func turnJSON(action, followUp string) string {
	return fmt.Sprintf(`{
		"evaluation": {
			"technical_score": 7.5,
			"communication_score": 8.0,
			"depth_score": 6.0,
			"overall_score": 7.2,
			"key_observations": ["solid fundamentals"],
			"strengths": ["clear explanation"],
			"gaps": ["no mention of write amplification"]
		},
		"next_action": {"type": %q, "follow_up_question": %q, "reasoning": "probe deeper"},
		"response": "Thanks, let's dig in."
	}`, action, followUp)
}

func TestProcessTurnStartsSessionAndPersistsTurn(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: turnJSON(models.ActionContinue, "")}}}
	h := newTurnHarness(t, invoker)

	result, err := h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 1, Message: "B-trees keep lookups logarithmic."})
	require.NoError(t, err)

	require.Equal(t, models.ActionContinue, result.Action)
	require.Equal(t, 1, result.Turn.TurnNumber)
	require.InDelta(t, 7.5, result.Turn.TechnicalScore, 0.001)
	require.Equal(t, models.SessionStatusInProgress, result.SessionStatus)

	stored := h.sessions.get(1)
	require.Equal(t, models.SessionStatusInProgress, stored.Status)
	require.NotNil(t, stored.StartedAt)

	persisted, err := h.turns.ListBySession(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	require.Equal(t, "B-trees keep lookups logarithmic.", persisted[0].CandidateMessage)
}

func TestProcessTurnNumbersAreContiguous(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: turnJSON(models.ActionContinue, "")}}}
	h := newTurnHarness(t, invoker)

	for want := 1; want <= 3; want++ {
		result, err := h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 1, Message: "answer"})
		require.NoError(t, err)
		require.Equal(t, want, result.Turn.TurnNumber)
	}
}

func TestProcessTurnFollowUpCarriesQuestion(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: turnJSON(models.ActionFollowUp, "How would you handle a hot partition?")}}}
	h := newTurnHarness(t, invoker)

	result, err := h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 1, Message: "Sharding by key."})
	require.NoError(t, err)

	require.Equal(t, models.ActionFollowUp, result.Action)
	require.Equal(t, "How would you handle a hot partition?", result.FollowUpQuestion)
	require.Equal(t, 1, result.Context.FollowUpDepth)
	require.Nil(t, result.NextQuestion)
}

func TestProcessTurnOverridesFollowUpAtDepthCap(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: turnJSON(models.ActionFollowUp, "One more thing?")}}}
	h := newTurnHarness(t, invoker)

	// Two persisted follow-ups on q1 put the rebuilt context at the depth cap.
	qid := uint(1)
	for n := 1; n <= 2; n++ {
		require.NoError(t, h.turns.Create(context.Background(), &models.InterviewTurn{
			SessionID: 1, QuestionID: &qid, TurnNumber: n, Action: models.ActionFollowUp,
		}))
	}

	result, err := h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 1, Message: "Still answering."})
	require.NoError(t, err)

	require.Equal(t, models.ActionNextQuestion, result.Action)
	require.Empty(t, result.FollowUpQuestion, "a discarded follow-up question never leaks into the result")
	require.NotNil(t, result.NextQuestion)
	require.Equal(t, "q2", result.NextQuestion.Code)

	persisted, err := h.turns.ListBySession(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.ActionNextQuestion, persisted[len(persisted)-1].Action, "the overridden action is what gets persisted")
}

func TestProcessTurnForcesEndWhenNoQuestionsRemain(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: turnJSON(models.ActionNextQuestion, "")}}}
	h := newTurnHarness(t, invoker)

	result, err := h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 3, Message: "Token bucket per client."})
	require.NoError(t, err)

	require.Equal(t, models.ActionEnd, result.Action)
	require.Equal(t, models.SessionStatusCompleted, result.SessionStatus)

	stored := h.sessions.get(1)
	require.Equal(t, models.SessionStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)
}

func TestProcessTurnEndUnselectsRemainingQuestions(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: turnJSON(models.ActionEnd, "")}}}
	h := newTurnHarness(t, invoker)

	_, err := h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 1, Message: "That is all I know."})
	require.NoError(t, err)

	questions, err := h.questions.ListBySession(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, questions[0].Selected)
	require.False(t, questions[1].Selected)
	require.False(t, questions[2].Selected)
}

func TestProcessTurnBackendFailureLeavesNoTrace(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{err: &ai.InvokeError{Attempts: 3, Err: ai.ErrBackendUnavailable}}}}
	h := newTurnHarness(t, invoker)

	_, err := h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 1, Message: "answer"})
	require.ErrorIs(t, err, ErrTurnProcessingFailed)

	persisted, listErr := h.turns.ListBySession(context.Background(), 1)
	require.NoError(t, listErr)
	require.Empty(t, persisted, "a failed turn must not be persisted")

	stored := h.sessions.get(1)
	require.Equal(t, models.SessionStatusPending, stored.Status, "session state stays untouched so the answer can be resubmitted")
}

func TestProcessTurnRetriesValidationFailureOnce(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{
		{text: `{"response": "missing the rest"}`},
		{text: turnJSON(models.ActionContinue, "")},
	}}
	h := newTurnHarness(t, invoker)

	result, err := h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 1, Message: "answer"})
	require.NoError(t, err)
	require.Equal(t, models.ActionContinue, result.Action)
	require.Equal(t, 2, invoker.callCount())
}

func TestProcessTurnRejectsEmptyMessage(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: turnJSON(models.ActionContinue, "")}}}
	h := newTurnHarness(t, invoker)

	_, err := h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 1, Message: "   "})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Equal(t, 0, invoker.callCount())
}

func TestProcessTurnRejectsFinishedSession(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: turnJSON(models.ActionContinue, "")}}}
	h := newTurnHarness(t, invoker, models.InterviewSession{CandidateID: "cand-1", Status: models.SessionStatusCompleted})

	_, err := h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 1, Message: "answer"})
	require.ErrorIs(t, err, ErrSessionFinished)
}

func TestProcessTurnRejectsForeignQuestion(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: turnJSON(models.ActionContinue, "")}}}
	h := newTurnHarness(t, invoker)
	h.questions.questions = append(h.questions.questions, models.InterviewQuestion{ID: 9, SessionID: 2, Code: "other", Position: 0})

	_, err := h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 9, Message: "answer"})
	require.ErrorIs(t, err, ErrQuestionNotFound)

	_, err = h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 404, Message: "answer"})
	require.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestProcessTurnRejectsConcurrentSubmission(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: turnJSON(models.ActionContinue, "")}}}
	h := newTurnHarness(t, invoker)

	release, err := h.guard.Acquire(context.Background(), 1)
	require.NoError(t, err)
	defer release()

	_, err = h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 1, Message: "answer"})
	require.ErrorIs(t, err, ErrConcurrentTurn)
	require.Equal(t, 0, invoker.callCount())
}

func TestProcessTurnSanitizesCandidateMessage(t *testing.T) {
	invoker := &stubInvoker{results: []stubResult{{text: turnJSON(models.ActionContinue, "")}}}
	h := newTurnHarness(t, invoker)

	result, err := h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{
		QuestionID: 1,
		Message:    `I would use <script>alert("x")</script> indexes`,
	})
	require.NoError(t, err)
	require.NotContains(t, result.Turn.CandidateMessage, "<script>")
	require.Contains(t, result.Turn.CandidateMessage, "indexes")
}

func TestProcessTurnClampsScores(t *testing.T) {
	raw := `{
		"evaluation": {"technical_score": 14, "communication_score": -3, "depth_score": 5.5, "overall_score": 11},
		"next_action": {"type": "continue", "follow_up_question": "", "reasoning": ""},
		"response": "ok"
	}`
	invoker := &stubInvoker{results: []stubResult{{text: raw}}}
	h := newTurnHarness(t, invoker)

	result, err := h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 1, Message: "answer"})
	require.NoError(t, err)
	require.InDelta(t, 10, result.Turn.TechnicalScore, 0.001)
	require.InDelta(t, 0, result.Turn.CommunicationScore, 0.001)
	require.InDelta(t, 5.5, result.Turn.DepthScore, 0.001)
	require.InDelta(t, 10, result.Turn.OverallScore, 0.001)
}

func TestProcessTurnSessionDurationOnEnd(t *testing.T) {
	started := time.Now().UTC().Add(-10 * time.Minute)
	invoker := &stubInvoker{results: []stubResult{{text: turnJSON(models.ActionEnd, "")}}}
	h := newTurnHarness(t, invoker, models.InterviewSession{
		CandidateID: "cand-1",
		Status:      models.SessionStatusInProgress,
		StartedAt:   &started,
	})

	_, err := h.processor.ProcessTurn(context.Background(), 1, ProcessTurnInput{QuestionID: 2, Message: "done"})
	require.NoError(t, err)

	stored := h.sessions.get(1)
	require.Equal(t, models.SessionStatusCompleted, stored.Status)
	require.GreaterOrEqual(t, stored.DurationSeconds, 590)
}
