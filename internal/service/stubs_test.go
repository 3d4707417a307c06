package service

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/hireloop/hireloop-api/internal/models"
	"github.com/hireloop/hireloop-api/pkg/ai"
)

type stubResult struct {
	text string
	err  error
}

// stubInvoker replays scripted results; the final entry repeats once exhausted.
type stubInvoker struct {
	mu      sync.Mutex
	results []stubResult
	calls   int
	prompts []string
}

func (s *stubInvoker) Invoke(ctx context.Context, prompt string, params ai.GenerationParams) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	index := s.calls
	if index >= len(s.results) {
		index = len(s.results) - 1
	}
	s.calls++

	result := s.results[index]
	return result.text, result.err
}

func (s *stubInvoker) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubSessionRepo struct {
	mu       sync.Mutex
	sessions map[uint]models.InterviewSession
	nextID   uint
	err      error
}

func newStubSessionRepo(seed ...models.InterviewSession) *stubSessionRepo {
	repo := &stubSessionRepo{sessions: make(map[uint]models.InterviewSession), nextID: 1}
	for _, session := range seed {
		if session.ID == 0 {
			session.ID = repo.nextID
		}
		if session.ID >= repo.nextID {
			repo.nextID = session.ID + 1
		}
		repo.sessions[session.ID] = session
	}
	return repo
}

func (s *stubSessionRepo) CreateWithQuestions(ctx context.Context, session *models.InterviewSession, questions []models.InterviewQuestion) error {
	if s.err != nil {
		return s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session.ID = s.nextID
	s.nextID++
	s.sessions[session.ID] = *session
	return nil
}

func (s *stubSessionRepo) GetByID(ctx context.Context, id uint) (models.InterviewSession, error) {
	if s.err != nil {
		return models.InterviewSession{}, s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return models.InterviewSession{}, gorm.ErrRecordNotFound
	}
	return session, nil
}

func (s *stubSessionRepo) Update(ctx context.Context, session *models.InterviewSession) error {
	if s.err != nil {
		return s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = *session
	return nil
}

func (s *stubSessionRepo) get(id uint) models.InterviewSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

type stubQuestionRepo struct {
	mu        sync.Mutex
	questions []models.InterviewQuestion
	err       error
}

func (s *stubQuestionRepo) GetByID(ctx context.Context, id uint) (models.InterviewQuestion, error) {
	if s.err != nil {
		return models.InterviewQuestion{}, s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, question := range s.questions {
		if question.ID == id {
			return question, nil
		}
	}
	return models.InterviewQuestion{}, gorm.ErrRecordNotFound
}

func (s *stubQuestionRepo) ListBySession(ctx context.Context, sessionID uint) ([]models.InterviewQuestion, error) {
	if s.err != nil {
		return nil, s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var listed []models.InterviewQuestion
	for _, question := range s.questions {
		if question.SessionID == sessionID {
			listed = append(listed, question)
		}
	}
	sort.Slice(listed, func(i, j int) bool { return listed[i].Position < listed[j].Position })
	return listed, nil
}

func (s *stubQuestionRepo) MarkUnselected(ctx context.Context, sessionID uint, fromPosition int) error {
	if s.err != nil {
		return s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.questions {
		if s.questions[i].SessionID == sessionID && s.questions[i].Position >= fromPosition {
			s.questions[i].Selected = false
		}
	}
	return nil
}

type stubTurnRepo struct {
	mu     sync.Mutex
	turns  []models.InterviewTurn
	nextID uint
	err    error
}

func (s *stubTurnRepo) Create(ctx context.Context, turn *models.InterviewTurn) error {
	if s.err != nil {
		return s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	turn.ID = s.nextID
	s.turns = append(s.turns, *turn)
	return nil
}

func (s *stubTurnRepo) ListBySession(ctx context.Context, sessionID uint) ([]models.InterviewTurn, error) {
	if s.err != nil {
		return nil, s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var listed []models.InterviewTurn
	for _, turn := range s.turns {
		if turn.SessionID == sessionID {
			listed = append(listed, turn)
		}
	}
	sort.Slice(listed, func(i, j int) bool { return listed[i].TurnNumber < listed[j].TurnNumber })
	return listed, nil
}

func (s *stubTurnRepo) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	listed, err := s.ListBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return int64(len(listed)), nil
}

type stubEvaluationRepo struct {
	mu         sync.Mutex
	evaluation *models.InterviewEvaluation
	err        error
}

func (s *stubEvaluationRepo) Create(ctx context.Context, evaluation *models.InterviewEvaluation) error {
	if s.err != nil {
		return s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evaluation.ID = 1
	clone := *evaluation
	s.evaluation = &clone
	return nil
}

func (s *stubEvaluationRepo) GetBySession(ctx context.Context, sessionID uint) (models.InterviewEvaluation, error) {
	if s.err != nil {
		return models.InterviewEvaluation{}, s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.evaluation == nil || s.evaluation.SessionID != sessionID {
		return models.InterviewEvaluation{}, gorm.ErrRecordNotFound
	}
	return *s.evaluation, nil
}

func (s *stubEvaluationRepo) ExistsForSession(ctx context.Context, sessionID uint) (bool, error) {
	if s.err != nil {
		return false, s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.evaluation != nil && s.evaluation.SessionID == sessionID, nil
}

type stubCallLogRepo struct {
	mu      sync.Mutex
	entries []models.AgentCallLog
	err     error
	created chan struct{}
}

func (s *stubCallLogRepo) Create(ctx context.Context, log *models.AgentCallLog) error {
	defer func() {
		if s.created != nil {
			s.created <- struct{}{}
		}
	}()

	if s.err != nil {
		return s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, *log)
	return nil
}

func (s *stubCallLogRepo) ListBySession(ctx context.Context, sessionID uint) ([]models.AgentCallLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var listed []models.AgentCallLog
	for _, entry := range s.entries {
		if entry.SessionID != nil && *entry.SessionID == sessionID {
			listed = append(listed, entry)
		}
	}
	return listed, nil
}
