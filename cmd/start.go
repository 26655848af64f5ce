/*
Copyright © 2025 chali-ug
*/
package cmd

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/chali-ug/chali-be/config"
	"github.com/chali-ug/chali-be/database"
	"github.com/chali-ug/chali-be/handler"
	"github.com/chali-ug/chali-be/repository"
	"github.com/chali-ug/chali-be/service"
)

// startServerCmd represents the startServer command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the chat server",
	Long:  `Starts the server that handles AI support chat for the configured companies`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		// Knowledge source: file by default, Mongo when configured.
		var source service.KnowledgeSource
		switch cfg.KnowledgeSource {
		case "mongo":
			mongoClient, err := database.NewMongoClient(context.Background(), cfg.MongoURI)
			if err != nil {
				log.Fatalf("Failed to connect to MongoDB: %v", err)
			}
			knowledgeRepo := repository.NewKnowledgeRepo(
				mongoClient.Database(cfg.MongoDatabase).Collection("knowledge"))
			source = service.NewMongoSource(knowledgeRepo)
		default:
			source = service.NewFileSource(cfg.KnowledgeDir, cfg.Companies)
		}

		knowledgeService := service.NewKnowledgeService(source, service.NewKnowledgeCache(), cfg.Companies)

		// Semantic backend: per-company search process by default,
		// Weaviate when configured.
		var semantic service.SemanticSearcher
		switch cfg.SemanticBackend {
		case "weaviate":
			weaviateDb, err := database.NewWeaviateStore(cfg.WeaviateStoreConfig)
			if err != nil {
				log.Fatalf("Failed to connect to Weaviate database: %v", err)
			}
			semantic = weaviateDb
		default:
			semantic = service.NewProcessBridge(cfg.PythonBin, cfg.Companies)
		}

		// Generation provider chain, in configured order.
		generators := make([]service.Generator, 0, len(cfg.Providers))
		for _, name := range cfg.Providers {
			switch name {
			case "openai":
				generators = append(generators,
					service.NewOpenAIService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.Model, cfg.Timeouts.Generation))
			case "gemini":
				gemini, err := service.NewGeminiService(cfg.GeminiKeys(), cfg.GeminiModel, cfg.Timeouts.Generation)
				if err != nil {
					log.Printf("Skipping gemini provider: %v", err)
					continue
				}
				generators = append(generators, gemini)
			default:
				log.Printf("Unknown provider %q, skipping", name)
			}
		}
		chain := service.NewProviderChain(generators...)

		orchestrator := service.NewOrchestrator(
			knowledgeService,
			semantic,
			chain,
			cfg.SemanticCompanies(),
			cfg.Timeouts.SemanticSearch,
		)

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		chatHandler := handler.NewChatHandler(orchestrator)
		searchHandler := handler.NewSearchHandler(semantic, cfg.Timeouts.SemanticEndpoint)
		knowledgeHandler := handler.NewKnowledgeHandler(knowledgeService)
		wsService := service.NewWebSocketService(orchestrator)

		// Setup Gin router
		router := gin.Default()
		router.Use(corsHandler.CorsMiddleware)

		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/chat", chatHandler.HandleChat)
			apiV1.POST("/search", searchHandler.HandleSearch)
			apiV1.GET("/companies", knowledgeHandler.HandleListCompanies)
			apiV1.GET("/knowledge/:company", knowledgeHandler.HandleKnowledgeSummary)
		}

		router.GET("/ws/chat", func(c *gin.Context) {
			wsService.HandleChat(c.Writer, c.Request)
		})
		router.GET("/health", gin.WrapH(wsService.Health()))

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
	startServerCmd.Flags().StringP("config", "c", "config/config.yaml", "config file")
}
