package chunker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Chunk is one indexable slice of a product sheet, carrying both the
// frontmatter metadata and the folder-hierarchy metadata.
type Chunk struct {
	ChunkID         string
	ProductID       string
	ProductName     string
	BankingType     string
	ProductType     string
	FeatureCategory string
	Tier            string
	Category        string
	Section         string
	Subsection      string
	Content         string
	SourceFile      string

	UseCases           []string
	EmploymentSuitable []string
	Keywords           []string
}

// Config bounds chunk sizes in approximate tokens.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
}

func DefaultConfig() Config {
	return Config{ChunkSize: 350, ChunkOverlap: 100}
}

type frontmatter struct {
	ProductID          string   `yaml:"product_id"`
	ProductName        string   `yaml:"product_name"`
	BankingType        string   `yaml:"banking_type"`
	Tier               string   `yaml:"tier"`
	Category           string   `yaml:"category"`
	UseCases           []string `yaml:"use_cases"`
	EmploymentSuitable []string `yaml:"employment_suitable"`
}

// Section is a level-2 markdown section.
type Section struct {
	Name    string
	Content string
}

var headerPattern = regexp.MustCompile(`(?m)^## (.+)$`)

// ExtractFrontmatter splits a markdown document into its YAML frontmatter and
// body. Documents without (or with broken) frontmatter pass through whole.
func ExtractFrontmatter(content string) (frontmatter, string) {
	var fm frontmatter
	if !strings.HasPrefix(content, "---") {
		return fm, content
	}

	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return fm, content
	}
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		return frontmatter{}, content
	}
	return fm, strings.TrimSpace(parts[2])
}

// SplitByHeaders splits the body on level-2 headers. Text before the first
// header becomes an "Overview" section.
func SplitByHeaders(body string) []Section {
	locs := headerPattern.FindAllStringSubmatchIndex(body, -1)

	var sections []Section
	if len(locs) == 0 {
		if body = strings.TrimSpace(body); body != "" {
			sections = append(sections, Section{Name: "Overview", Content: body})
		}
		return sections
	}

	if intro := strings.TrimSpace(body[:locs[0][0]]); intro != "" {
		sections = append(sections, Section{Name: "Overview", Content: intro})
	}

	for i, loc := range locs {
		name := strings.TrimSpace(body[loc[2]:loc[3]])
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		content := strings.TrimSpace(body[loc[1]:end])
		if content != "" {
			sections = append(sections, Section{Name: name, Content: content})
		}
	}
	return sections
}

// approximateTokens estimates token count from word count (roughly 1 word =
// 1.3 tokens). Accurate enough for chunk sizing without a tokenizer dep.
func approximateTokens(text string) int {
	return int(float64(len(strings.Fields(text))) * 1.3)
}

// splitSection chunks a section's content on paragraph boundaries so no
// chunk exceeds the token budget.
func splitSection(content string, chunkSize int) []string {
	paragraphs := strings.Split(content, "\n\n")

	var chunks []string
	var current strings.Builder
	currentTokens := 0

	for _, para := range paragraphs {
		paraTokens := approximateTokens(para)

		if currentTokens+paraTokens > chunkSize && current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			current.WriteString(para)
			currentTokens = paraTokens
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		chunks = append(chunks, s)
	}
	if len(chunks) == 0 {
		chunks = []string{content}
	}
	return chunks
}

// hierarchyFromPath reads banking type, product type and feature category
// from the folder layout under knowledge_base/:
//
//	knowledge_base/islami/credit/i_need_a_credit_card/visa_hasanah_gold.md
func hierarchyFromPath(path string) (bankingType, productType, featureCategory string) {
	parts := strings.Split(strings.ToLower(filepath.ToSlash(path)), "/")
	for i, part := range parts {
		if part != "knowledge_base" {
			continue
		}
		if len(parts) > i+1 {
			bankingType = parts[i+1]
		}
		if len(parts) > i+2 {
			productType = parts[i+2]
		}
		if len(parts) > i+3 {
			featureCategory = parts[i+3]
		}
		return
	}
	return
}

// ProcessDocument chunks one markdown document. The path is only used for
// hierarchy metadata and the source-file label.
func ProcessDocument(path, content string, cfg Config) []Chunk {
	fm, body := ExtractFrontmatter(content)
	bankingType, productType, featureCategory := hierarchyFromPath(path)

	productID := fm.ProductID
	if productID == "" {
		productID = "UNKNOWN"
	}
	productName := fm.ProductName
	if productName == "" {
		productName = "Unknown Product"
	}
	if fm.BankingType != "" {
		bankingType = fm.BankingType
	}
	if bankingType == "" {
		bankingType = "conventional"
	}
	if productType == "" {
		productType = "credit"
	}
	if featureCategory == "" {
		featureCategory = "general"
	}
	tier := fm.Tier
	if tier == "" {
		tier = "standard"
	}
	category := fm.Category
	if category == "" {
		category = "general"
	}

	var chunks []Chunk
	counter := 0

	for _, section := range SplitByHeaders(body) {
		pieces := splitSection(section.Content, cfg.ChunkSize)

		for i, piece := range pieces {
			counter++

			subsection := section.Name
			if len(pieces) > 1 {
				subsection = fmt.Sprintf("Part %d", i+1)
			}

			var keywords []string
			lower := strings.ToLower(piece)
			for _, useCase := range fm.UseCases {
				if strings.Contains(lower, strings.ReplaceAll(strings.ToLower(useCase), "_", " ")) {
					keywords = append(keywords, useCase)
				}
			}

			chunks = append(chunks, Chunk{
				ChunkID:            fmt.Sprintf("%s_section_%d", productID, counter),
				ProductID:          productID,
				ProductName:        productName,
				BankingType:        bankingType,
				ProductType:        productType,
				FeatureCategory:    featureCategory,
				Tier:               tier,
				Category:           category,
				Section:            section.Name,
				Subsection:         subsection,
				Content:            piece,
				SourceFile:         filepath.Base(path),
				UseCases:           fm.UseCases,
				EmploymentSuitable: fm.EmploymentSuitable,
				Keywords:           keywords,
			})
		}
	}

	return chunks
}

// ProcessDir walks a knowledge-base tree and chunks every markdown file.
func ProcessDir(root string, cfg Config) ([]Chunk, error) {
	var all []Chunk

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		all = append(all, ProcessDocument(path, string(content), cfg)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
