package service

import "github.com/hireloop/hireloop-api/internal/models"

// ConversationContext is the transient dialog state for a session. It is never
// persisted on its own: it is rebuilt deterministically from the ordered turn
// history on every invocation.
type ConversationContext struct {
	TopicsCovered []string
	FollowUpDepth int
	TurnCount     int
}

// rebuildContext walks the ordered turn history and derives the conversation
// state: a follow_up increments the probing depth, a next_question resets it,
// continue and end leave it untouched. Topics are the codes of the questions
// touched so far, in first-seen order.
func rebuildContext(turns []models.InterviewTurn, questionsByID map[uint]models.InterviewQuestion) ConversationContext {
	ctx := ConversationContext{TurnCount: len(turns)}
	seen := make(map[string]struct{})

	for _, turn := range turns {
		if turn.QuestionID != nil {
			if question, ok := questionsByID[*turn.QuestionID]; ok {
				if _, dup := seen[question.Code]; !dup {
					seen[question.Code] = struct{}{}
					ctx.TopicsCovered = append(ctx.TopicsCovered, question.Code)
				}
			}
		}

		switch turn.Action {
		case models.ActionFollowUp:
			ctx.FollowUpDepth++
		case models.ActionNextQuestion:
			ctx.FollowUpDepth = 0
		}
	}

	return ctx
}

// advanceContext returns the context as it stands after a newly processed turn.
func advanceContext(ctx ConversationContext, questionCode, action string) ConversationContext {
	next := ConversationContext{
		TopicsCovered: append([]string(nil), ctx.TopicsCovered...),
		FollowUpDepth: ctx.FollowUpDepth,
		TurnCount:     ctx.TurnCount + 1,
	}

	covered := false
	for _, topic := range next.TopicsCovered {
		if topic == questionCode {
			covered = true
			break
		}
	}
	if !covered && questionCode != "" {
		next.TopicsCovered = append(next.TopicsCovered, questionCode)
	}

	switch action {
	case models.ActionFollowUp:
		next.FollowUpDepth++
	case models.ActionNextQuestion:
		next.FollowUpDepth = 0
	}

	return next
}
