package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"bank-advisor-be/internal/config"
	"bank-advisor-be/internal/entity"
	"bank-advisor-be/internal/repository/contract"
	"bank-advisor-be/internal/repository/implementation"
	"bank-advisor-be/pkg/chunker"
	"bank-advisor-be/pkg/database"
	"bank-advisor-be/pkg/embedding"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Standalone indexer: chunks the knowledge base, embeds every chunk and
// replaces the stored index. Same work the reindex consumer does, but
// synchronous and with progress output, for local setup and CI seeding.
// With -source it re-chunks a single product sheet in place, replacing
// only the chunks that came from that file.
func main() {
	keepExisting := flag.Bool("keep-existing", false, "do not wipe existing chunks before indexing")
	source := flag.String("source", "", "reindex a single markdown file instead of the whole knowledge root")
	flag.Parse()

	cfg := config.Load()

	color.Cyan("🏦 Bank Advisor Knowledge Indexer")

	db, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	embedder := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	repo := implementation.NewProductChunkRepository(db)

	chunkCfg := chunker.Config{
		ChunkSize:    cfg.Knowledge.ChunkSize,
		ChunkOverlap: cfg.Knowledge.ChunkOverlap,
	}

	color.Yellow("\n[1/3] Chunking product sheets...")
	var chunks []chunker.Chunk
	if *source != "" {
		color.White("Source file: %s", *source)
		content, err := os.ReadFile(*source)
		if err != nil {
			color.Red("Failed to read %s: %v", *source, err)
			os.Exit(1)
		}
		chunks = chunker.ProcessDocument(*source, string(content), chunkCfg)
	} else {
		color.White("Knowledge root: %s", cfg.Knowledge.RootPath)
		chunks, err = chunker.ProcessDir(cfg.Knowledge.RootPath, chunkCfg)
		if err != nil {
			color.Red("Chunking failed: %v", err)
			os.Exit(1)
		}
	}
	color.Green("Produced %d chunks", len(chunks))

	color.Yellow("\n[2/3] Embedding chunks with %s...", cfg.Ai.EmbeddingModel)
	ctx := context.Background()
	started := time.Now()

	entities := make([]*entity.ProductChunk, 0, len(chunks))
	for i, c := range chunks {
		vector, err := embedder.Embed(ctx, c.Content)
		if err != nil {
			color.Red("Embedding failed for %s: %v", c.ChunkID, err)
			os.Exit(1)
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

		if (i+1)%25 == 0 || i+1 == len(chunks) {
			color.White("  embedded %d/%d", i+1, len(chunks))
		}
	}
	color.Green("Embedding done in %s", time.Since(started).Round(time.Second))

	color.Yellow("\n[3/3] Storing chunks...")
	if err := clearOldChunks(ctx, repo, *source, *keepExisting); err != nil {
		color.Red("Failed to clear old index: %v", err)
		os.Exit(1)
	}
	if err := repo.CreateBulk(ctx, entities); err != nil {
		color.Red("Failed to store chunks: %v", err)
		os.Exit(1)
	}

	color.Green("\n✅ Indexed %d chunks", len(entities))
}

// clearOldChunks removes whatever the new chunks replace: the single file's
// prior chunks in -source mode, the whole index otherwise.
func clearOldChunks(ctx context.Context, repo contract.ProductChunkRepository, source string, keepExisting bool) error {
	if source != "" {
		// Stored chunks carry the base name, not the path they were read from.
		return repo.DeleteBySourceFile(ctx, filepath.Base(source))
	}
	if keepExisting {
		return nil
	}
	return repo.DeleteAll(ctx)
}
