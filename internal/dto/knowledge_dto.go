package dto

type KnowledgeStatsResponse struct {
	TotalChunks    int64  `json:"total_chunks"`
	TotalProducts  int    `json:"total_products"`
	EmbeddingModel string `json:"embedding_model"`
	LLMModel       string `json:"llm_model"`
}

type ReindexRequest struct {
	Force bool `json:"force"`
}

type ReindexResponse struct {
	Accepted bool   `json:"accepted"`
	Topic    string `json:"topic"`
}

type ProductListResponse struct {
	Products []string `json:"products"`
}

type ChunkFilterRequest struct {
	BankingType string `json:"banking_type"`
	Tier        string `json:"tier"`
	ProductType string `json:"product_type"`
}

type ChunkSummary struct {
	ChunkKey    string `json:"chunk_key"`
	ProductName string `json:"product_name"`
	BankingType string `json:"banking_type"`
	Tier        string `json:"tier"`
	Section     string `json:"section"`
	SourceFile  string `json:"source_file"`
}

type ChunkListResponse struct {
	Total  int            `json:"total"`
	Chunks []ChunkSummary `json:"chunks"`
}
