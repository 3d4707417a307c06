package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hireloop/hireloop-api/internal/models"
)

func buildQuestionPrompt(input GenerateQuestionsInput, count int, weights map[string]float64) string {
	builder := strings.Builder{}
	builder.WriteString("You are a senior technical interviewer preparing a structured interview.\n")
	builder.WriteString("\n# Job Description\n")
	builder.WriteString(input.JobDescription)
	builder.WriteString("\n\n# Candidate Profile\n")
	builder.WriteString(input.CandidateProfile)
	builder.WriteString("\n\n# Position Level\n")
	builder.WriteString(input.PositionLevel)

	if len(input.FocusAreas) > 0 {
		builder.WriteString("\n\n# Focus Areas\n")
		builder.WriteString(strings.Join(input.FocusAreas, ", "))
	}

	builder.WriteString(fmt.Sprintf("\n\n# Instructions\nProduce exactly %d interview questions.", count))
	builder.WriteString("\nTarget category distribution:")
	for _, category := range sortedKeys(weights) {
		builder.WriteString(fmt.Sprintf(" %s=%.0f%%", category, weights[category]*100))
	}
	builder.WriteString("\nAllowed categories: technical, behavioral, situational. Allowed difficulties: junior, middle, senior.")
	builder.WriteString("\nReturn a JSON object of the shape:")
	builder.WriteString("\n{\"questions\":[{\"id\":\"q1\",\"category\":\"technical\",\"difficulty\":\"middle\",\"question\":\"...\",\"key_points\":[\"...\"],\"ideal_answer\":\"...\",\"evaluation_criteria\":[\"...\"]}]}")
	builder.WriteString("\nReturn JSON only.")

	return builder.String()
}

func buildTurnPrompt(question models.InterviewQuestion, history []models.InterviewTurn, convCtx ConversationContext, candidateMessage string, depthCap int) string {
	builder := strings.Builder{}
	builder.WriteString("You are conducting a structured technical interview. Evaluate the candidate's latest answer and decide how to proceed.\n")
	builder.WriteString("\n# Current Question\n")
	builder.WriteString(question.Text)

	if question.IdealAnswer != "" {
		builder.WriteString("\n\n## Ideal Answer Outline\n")
		builder.WriteString(question.IdealAnswer)
	}

	if len(question.EvaluationCriteria) > 0 {
		builder.WriteString("\n\n## Evaluation Criteria\n")
		builder.WriteString(strings.Join(question.EvaluationCriteria, "; "))
	}

	if len(question.KeyPoints) > 0 {
		builder.WriteString("\n\n## Key Points Expected\n")
		builder.WriteString(strings.Join(question.KeyPoints, "; "))
	}

	if len(history) > 0 {
		builder.WriteString("\n\n# Conversation So Far\n")
		for _, turn := range history {
			builder.WriteString(fmt.Sprintf("Interviewer: %s\nCandidate: %s\n", turn.AIMessage, turn.CandidateMessage))
		}
	}

	builder.WriteString("\n# Context\n")
	builder.WriteString(fmt.Sprintf("Topics covered: %s. Follow-up depth: %d of %d. Turns so far: %d.",
		strings.Join(convCtx.TopicsCovered, ", "), convCtx.FollowUpDepth, depthCap, convCtx.TurnCount))

	builder.WriteString("\n\n# Candidate Answer\n")
	builder.WriteString(candidateMessage)

	builder.WriteString("\n\n# Instructions\nScore the answer on a 0-10 scale per dimension. Choose the next action: follow_up (probe the same topic deeper), continue (let the candidate elaborate), next_question (move on), or end (conclude the interview).")
	builder.WriteString("\nReturn a JSON object of the shape:")
	builder.WriteString("\n{\"evaluation\":{\"technical_score\":0,\"communication_score\":0,\"depth_score\":0,\"overall_score\":0,\"key_observations\":[\"...\"],\"strengths\":[\"...\"],\"gaps\":[\"...\"]},\"next_action\":{\"type\":\"follow_up\",\"follow_up_question\":\"...\",\"reasoning\":\"...\"},\"response\":\"...\"}")
	builder.WriteString("\nThe follow_up_question field is required when type is follow_up. Return JSON only.")

	return builder.String()
}

func buildEvaluationPrompt(session models.InterviewSession, turns []models.InterviewTurn) string {
	builder := strings.Builder{}
	builder.WriteString("You are writing the final hiring evaluation for a completed structured interview.\n")
	builder.WriteString(fmt.Sprintf("\n# Interview Summary\nCandidate: %s. Turns completed: %d.\n", session.CandidateID, len(turns)))

	for _, turn := range turns {
		builder.WriteString(fmt.Sprintf("\n## Turn %d\n", turn.TurnNumber))
		builder.WriteString(fmt.Sprintf("Scores: technical=%.1f communication=%.1f depth=%.1f overall=%.1f\n",
			turn.TechnicalScore, turn.CommunicationScore, turn.DepthScore, turn.OverallScore))
		if len(turn.KeyObservations) > 0 {
			builder.WriteString("Observations: " + strings.Join(turn.KeyObservations, "; ") + "\n")
		}
		if len(turn.Strengths) > 0 {
			builder.WriteString("Strengths: " + strings.Join(turn.Strengths, "; ") + "\n")
		}
		if len(turn.Gaps) > 0 {
			builder.WriteString("Gaps: " + strings.Join(turn.Gaps, "; ") + "\n")
		}
	}

	builder.WriteString("\n# Instructions\nAssess the candidate across three dimension groups, each a map of named sub-scores on a 0-10 scale.")
	builder.WriteString("\nReturn a JSON object of the shape:")
	builder.WriteString("\n{\"dimensions\":{\"technical_competence\":{\"problem_solving\":0},\"communication_skills\":{\"clarity\":0},\"behavioral_fit\":{\"ownership\":0}},\"analysis\":{\"strengths\":[\"...\"],\"weaknesses\":[\"...\"],\"notable_moments\":[\"...\"],\"red_flags\":[]},\"recommendation\":{\"decision\":\"hire\",\"reasoning\":\"...\",\"development_suggestions\":[]}}")
	builder.WriteString("\nThe decision must be one of: strong_hire, hire, lean_hire, no_hire. Return JSON only.")

	return builder.String()
}

func sortedKeys(weights map[string]float64) []string {
	keys := make([]string, 0, len(weights))
	for key := range weights {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
