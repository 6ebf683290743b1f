package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"

	"bank-advisor-be/internal/dto"
	"bank-advisor-be/internal/repository/specification"
	"bank-advisor-be/internal/repository/unitofwork"
)

type IKnowledgeService interface {
	Stats(ctx context.Context) (*dto.KnowledgeStatsResponse, error)
	ListProducts(ctx context.Context, bankingType string) (*dto.ProductListResponse, error)
	ListChunks(ctx context.Context, filter dto.ChunkFilterRequest) (*dto.ChunkListResponse, error)
	RequestReindex(ctx context.Context, force bool) (*dto.ReindexResponse, error)
}

// reindexMessage is the payload published to the indexing consumer.
type reindexMessage struct {
	Force bool `json:"force"`
}

type knowledgeService struct {
	uowFactory     unitofwork.RepositoryFactory
	pubSub         *gochannel.GoChannel
	topicName      string
	embeddingModel string
	llmModel       string
	logger         *zap.Logger
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	pubSub *gochannel.GoChannel,
	topicName string,
	embeddingModel string,
	llmModel string,
	logger *zap.Logger,
) IKnowledgeService {
	return &knowledgeService{
		uowFactory:     uowFactory,
		pubSub:         pubSub,
		topicName:      topicName,
		embeddingModel: embeddingModel,
		llmModel:       llmModel,
		logger:         logger,
	}
}

func (s *knowledgeService) Stats(ctx context.Context) (*dto.KnowledgeStatsResponse, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).ProductChunkRepository()

	count, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	names, err := repo.ListProductNames(ctx, "")
	if err != nil {
		return nil, err
	}

	return &dto.KnowledgeStatsResponse{
		TotalChunks:    count,
		TotalProducts:  len(names),
		EmbeddingModel: s.embeddingModel,
		LLMModel:       s.llmModel,
	}, nil
}

func (s *knowledgeService) ListProducts(ctx context.Context, bankingType string) (*dto.ProductListResponse, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).ProductChunkRepository()

	names, err := repo.ListProductNames(ctx, bankingType)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return &dto.ProductListResponse{Products: names}, nil
}

// ListChunks lists indexed chunks narrowed by the optional metadata filters,
// each filter applied as a repository specification.
func (s *knowledgeService) ListChunks(ctx context.Context, filter dto.ChunkFilterRequest) (*dto.ChunkListResponse, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).ProductChunkRepository()

	var specs []specification.Specification
	if filter.BankingType != "" {
		specs = append(specs, specification.ByBankingType{BankingType: filter.BankingType})
	}
	if filter.Tier != "" {
		specs = append(specs, specification.ByTier{Tier: filter.Tier})
	}
	if filter.ProductType != "" {
		specs = append(specs, specification.ByProductType{ProductType: filter.ProductType})
	}

	chunks, err := repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.ChunkSummary, len(chunks))
	for i, c := range chunks {
		summaries[i] = dto.ChunkSummary{
			ChunkKey:    c.ChunkKey,
			ProductName: c.ProductName,
			BankingType: c.BankingType,
			Tier:        c.Tier,
			Section:     c.Section,
			SourceFile:  c.SourceFile,
		}
	}
	return &dto.ChunkListResponse{Total: len(summaries), Chunks: summaries}, nil
}

// RequestReindex queues a full re-index; the consumer does the heavy work so
// the HTTP request returns immediately.
func (s *knowledgeService) RequestReindex(ctx context.Context, force bool) (*dto.ReindexResponse, error) {
	payload, err := json.Marshal(reindexMessage{Force: force})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		return nil, err
	}

	s.logger.Info("reindex requested", zap.Bool("force", force))
	return &dto.ReindexResponse{Accepted: true, Topic: s.topicName}, nil
}
