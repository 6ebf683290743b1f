package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"bank-advisor-be/internal/dto"
	"bank-advisor-be/internal/repository/history"
	"bank-advisor-be/internal/repository/memory"
	"bank-advisor-be/pkg/advisor"
	"bank-advisor-be/pkg/llm"
)

type IAdvisorService interface {
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	ResetSession(ctx context.Context, sessionId string) error
}

type advisorService struct {
	orchestrator *advisor.Orchestrator
	historyStore history.Store
	sessions     *memory.SessionRepository
	historyLimit int
	logger       *zap.Logger

	// One lock per session: turns within a conversation are strictly
	// ordered, turns across conversations run concurrently.
	sessionLocks sync.Map
}

func NewAdvisorService(
	orchestrator *advisor.Orchestrator,
	historyStore history.Store,
	sessions *memory.SessionRepository,
	historyLimit int,
	logger *zap.Logger,
) IAdvisorService {
	if historyLimit <= 0 {
		historyLimit = 20
	}
	return &advisorService{
		orchestrator: orchestrator,
		historyStore: historyStore,
		sessions:     sessions,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

func (s *advisorService) lockSession(sessionId string) *sync.Mutex {
	mu, _ := s.sessionLocks.LoadOrStore(sessionId, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *advisorService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	mu := s.lockSession(req.SessionId)
	mu.Lock()
	defer mu.Unlock()

	hist, err := s.historyStore.Recent(ctx, req.SessionId, s.historyLimit)
	if err != nil {
		s.logger.Warn("history load failed, continuing without context",
			zap.String("session_id", req.SessionId), zap.Error(err))
		hist = nil
	}

	var customer advisor.CustomerInfo
	if req.CustomerInfo != nil {
		customer = advisor.CustomerInfo{
			Employment:        req.CustomerInfo.Employment,
			Income:            req.CustomerInfo.Income,
			CreditScore:       req.CustomerInfo.CreditScore,
			BankingPreference: req.CustomerInfo.BankingPreference,
		}
	}

	result := s.orchestrator.HandleTurn(ctx, advisor.Turn{
		SessionID: req.SessionId,
		Message:   req.Message,
		History:   hist,
		Customer:  customer,
	})

	if err := s.historyStore.Append(ctx, req.SessionId,
		llm.Message{Role: "user", Content: req.Message},
		llm.Message{Role: "assistant", Content: result.Response},
	); err != nil {
		s.logger.Warn("history append failed",
			zap.String("session_id", req.SessionId), zap.Error(err))
	}

	s.logger.Info("advisor turn",
		zap.String("session_id", req.SessionId),
		zap.String("intent_type", string(result.Intent.Type)),
		zap.Strings("agent_chain", result.AgentChain),
		zap.Bool("needs_clarification", result.NeedsClarification),
	)

	return &dto.ChatResponse{
		SessionId:          req.SessionId,
		Response:           result.Response,
		AgentChain:         emptyIfNil(result.AgentChain),
		ProductsFound:      emptyIfNil(result.ProductsFound),
		NeedsClarification: result.NeedsClarification,
		DetectedIntent: dto.IntentDTO{
			ProductType: result.Intent.ProductType.String(),
			BankingType: result.Intent.BankingType.String(),
			Tier:        result.Intent.Tier.String(),
			UseCase:     result.Intent.UseCase.String(),
			Employment:  result.Intent.Employment.String(),
			IntentType:  string(result.Intent.Type),
		},
	}, nil
}

func (s *advisorService) ResetSession(ctx context.Context, sessionId string) error {
	mu := s.lockSession(sessionId)
	mu.Lock()
	defer mu.Unlock()

	s.sessions.Delete(sessionId)
	return s.historyStore.Clear(ctx, sessionId)
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
