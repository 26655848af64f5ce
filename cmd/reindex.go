/*
Copyright © 2025 chali-ug
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chali-ug/chali-be/config"
	"github.com/chali-ug/chali-be/database"
	"github.com/chali-ug/chali-be/service"
)

// reindexCmd rebuilds a company's semantic chunk index in Weaviate from
// its knowledge document.
var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild a company's semantic index",
	Long: `Flattens a company's knowledge document into labeled chunks and
uploads them to the Weaviate chunk index, replacing any existing chunks
for that company. Use --all to rebuild every semantic-capable company.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		company, _ := cmd.Flags().GetString("company")
		all, _ := cmd.Flags().GetBool("all")
		reinit, _ := cmd.Flags().GetBool("reinit")

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if !all && company == "" {
			log.Fatal("Either --company or --all is required")
		}

		weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
		if err != nil {
			log.Fatalf("Failed to connect to Weaviate database: %v", err)
		}
		if reinit {
			if err := weaviateDb.ReInit(); err != nil {
				log.Fatalf("Failed to reinitialize Weaviate index: %v", err)
			}
		}

		source := service.NewFileSource(cfg.KnowledgeDir, cfg.Companies)
		knowledgeService := service.NewKnowledgeService(source, service.NewKnowledgeCache(), cfg.Companies)

		targets := []string{company}
		if all {
			targets = nil
			for id, cc := range cfg.Companies {
				if cc.Semantic {
					targets = append(targets, strings.ToLower(id))
				}
			}
		}

		ctx := context.Background()
		for _, target := range targets {
			if err := reindexCompany(ctx, knowledgeService, weaviateDb, target); err != nil {
				log.Fatalf("Failed to reindex %s: %v", target, err)
			}
		}
	},
}

func reindexCompany(ctx context.Context, knowledge *service.KnowledgeService, store *database.WeaviateStore, company string) error {
	doc, err := knowledge.Load(ctx, company)
	if err != nil {
		return fmt.Errorf("loading knowledge: %w", err)
	}

	chunks := service.BuildChunks(doc)
	if len(chunks) == 0 {
		return fmt.Errorf("knowledge document for %s produced no chunks", company)
	}

	if err := store.DeleteCompanyChunks(ctx, company); err != nil {
		return fmt.Errorf("clearing old chunks: %w", err)
	}
	if err := store.BatchInsertChunks(ctx, company, chunks); err != nil {
		return fmt.Errorf("inserting chunks: %w", err)
	}
	log.Printf("Reindexed %s: %d entries, %d chunks", company, len(doc.Entries), len(chunks))
	return nil
}

func init() {
	rootCmd.AddCommand(reindexCmd)

	reindexCmd.Flags().StringP("config", "c", "config/config.yaml", "config file")
	reindexCmd.Flags().String("company", "", "Company to reindex")
	reindexCmd.Flags().Bool("all", false, "Reindex every semantic-capable company")
	reindexCmd.Flags().BoolP("reinit", "r", false, "Drop and recreate the chunk class first")
}
