package service

import "github.com/hireloop/hireloop-api/internal/models"

// Agent types recorded in the call audit trail.
const (
	AgentQuestionGenerator    = "question_generator"
	AgentTurnProcessor        = "turn_processor"
	AgentEvaluationAggregator = "evaluation_aggregator"
)

// resolveAction applies the hard decision caps on top of the model-reported
// action. The model's choice is accepted only when consistent with the
// follow-up depth limit and the number of questions left in the session.
func resolveAction(requested string, followUpDepth, depthCap, remainingQuestions int) string {
	action := requested

	if action == models.ActionFollowUp && followUpDepth >= depthCap {
		action = models.ActionNextQuestion
	}

	if action == models.ActionNextQuestion && remainingQuestions <= 0 {
		action = models.ActionEnd
	}

	return action
}

// validAction reports whether the model-reported action type is recognised.
func validAction(action string) bool {
	switch action {
	case models.ActionFollowUp, models.ActionContinue, models.ActionNextQuestion, models.ActionEnd:
		return true
	}
	return false
}
