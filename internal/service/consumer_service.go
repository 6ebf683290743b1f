package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bank-advisor-be/internal/entity"
	"bank-advisor-be/internal/repository/unitofwork"
	"bank-advisor-be/pkg/chunker"
	"bank-advisor-be/pkg/embedding"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService rebuilds the chunk index when a reindex message arrives:
// walk the knowledge base, chunk every product sheet, embed each chunk, then
// swap the stored index inside one transaction.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	knowledgeRoot     string
	chunkConfig       chunker.Config
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	logger            *zap.Logger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	knowledgeRoot string,
	chunkConfig chunker.Config,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	logger *zap.Logger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		knowledgeRoot:     knowledgeRoot,
		chunkConfig:       chunkConfig,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload reindexMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("invalid reindex message", zap.Error(err))
		msg.Ack() // unparseable messages never become valid, drop them
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if !payload.Force {
		count, err := uow.ProductChunkRepository().Count(ctx)
		if err != nil {
			cs.logger.Error("failed to check index size", zap.Error(err))
			msg.Nack()
			return
		}
		if count > 0 {
			cs.logger.Info("index already populated, skipping reindex", zap.Int64("chunks", count))
			msg.Ack()
			return
		}
	}

	cs.logger.Info("reindexing knowledge base", zap.String("root", cs.knowledgeRoot))

	chunks, err := chunker.ProcessDir(cs.knowledgeRoot, cs.chunkConfig)
	if err != nil {
		cs.logger.Error("failed to chunk knowledge base", zap.Error(err))
		msg.Nack()
		return
	}

	entities := make([]*entity.ProductChunk, 0, len(chunks))
	for i, c := range chunks {
		vector, err := cs.embeddingProvider.Embed(ctx, c.Content)
		if err != nil {
			cs.logger.Error("embedding failed",
				zap.String("chunk_key", c.ChunkID), zap.Error(err))
			msg.Nack()
			return
		}

		entities = append(entities, &entity.ProductChunk{
			Id:                 uuid.New(),
			ChunkKey:           c.ChunkID,
			ProductId:          c.ProductID,
			ProductName:        c.ProductName,
			BankingType:        c.BankingType,
			ProductType:        c.ProductType,
			FeatureCategory:    c.FeatureCategory,
			Tier:               c.Tier,
			Category:           c.Category,
			Section:            c.Section,
			Subsection:         c.Subsection,
			Content:            c.Content,
			SourceFile:         c.SourceFile,
			UseCases:           c.UseCases,
			EmploymentSuitable: c.EmploymentSuitable,
			Keywords:           c.Keywords,
			EmbeddingValue:     vector,
			CreatedAt:          time.Now(),
		})

		if (i+1)%50 == 0 {
			cs.logger.Info("embedding progress", zap.Int("done", i+1), zap.Int("total", len(chunks)))
		}
	}

	if err := uow.Begin(ctx); err != nil {
		cs.logger.Error("failed to begin transaction", zap.Error(err))
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.ProductChunkRepository().DeleteAll(ctx); err != nil {
		cs.logger.Error("failed to clear old index", zap.Error(err))
		msg.Nack()
		return
	}
	if err := uow.ProductChunkRepository().CreateBulk(ctx, entities); err != nil {
		cs.logger.Error("failed to store chunks", zap.Error(err))
		msg.Nack()
		return
	}
	if err := uow.Commit(); err != nil {
		cs.logger.Error("failed to commit reindex", zap.Error(err))
		msg.Nack()
		return
	}

	cs.logger.Info("knowledge base indexed", zap.Int("chunks", len(entities)))
	msg.Ack()
}
