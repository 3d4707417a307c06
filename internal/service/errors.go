package service

import "errors"

// ErrInvalidInput indicates caller-supplied data failed a precondition. Never retried.
var ErrInvalidInput = errors.New("invalid input")

// ErrIncompleteOutput indicates parsed model output missing required fields or
// below minimum thresholds. Triggers a fresh invocation within the cycle budget.
var ErrIncompleteOutput = errors.New("incomplete model output")

// ErrGenerationFailed is the terminal failure of question generation.
var ErrGenerationFailed = errors.New("question generation failed")

// ErrTurnProcessingFailed is the terminal failure of turn processing.
var ErrTurnProcessingFailed = errors.New("turn processing failed")

// ErrAggregationFailed is the terminal failure of evaluation aggregation.
var ErrAggregationFailed = errors.New("evaluation aggregation failed")

// ErrIncompleteSession indicates a session without any turns cannot be evaluated.
var ErrIncompleteSession = errors.New("session has no turns to evaluate")

// ErrConcurrentTurn indicates a turn was submitted while another one for the
// same session is still in flight.
var ErrConcurrentTurn = errors.New("another turn is already in flight for this session")

// ErrSessionNotFound indicates the session cannot be located.
var ErrSessionNotFound = errors.New("interview session not found")

// ErrQuestionNotFound indicates the question cannot be located within the session.
var ErrQuestionNotFound = errors.New("interview question not found")

// ErrSessionFinished indicates the session already reached a terminal status.
var ErrSessionFinished = errors.New("interview session already finished")

// ErrSessionNotCompleted indicates aggregation was requested before the session completed.
var ErrSessionNotCompleted = errors.New("interview session is not completed")

// ErrEvaluationExists indicates the session already has a final evaluation.
var ErrEvaluationExists = errors.New("evaluation already exists for this session")
