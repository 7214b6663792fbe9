package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/webshop-agent/server/internal/agent/model"
	"github.com/webshop-agent/server/internal/catalog"
	"github.com/webshop-agent/server/internal/core"
	"github.com/webshop-agent/server/internal/ingest"
	"github.com/webshop-agent/server/internal/qdrant"
	logx "github.com/webshop-agent/server/pkg/logger"
	pkgredis "github.com/webshop-agent/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the agent, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Components
	Chat         model.ChatModelConfig
	Conversation model.ConversationConfig
	Embedding    ingest.EmbeddingConfig
	Qdrant       qdrant.Config
	Catalog      catalog.Config
	Ingest       ingest.PipelineConfig
}

var appCfg AppConfig

var rootCmd = &cobra.Command{
	Use:   "webshop-agent",
	Short: "Conversational product agent over a vector index and a product catalog",
	Long: `webshop-agent answers customer questions about the shop's products.
It embeds the product feed into a Qdrant collection and runs a tool-calling
conversation loop that searches the index and verifies prices and stock
against the live catalog API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(".env"); err != nil {
			logx.Debug().Err(err).Msg("no .env file loaded")
		}
		if err := envconfig.Process("", &appCfg); err != nil {
			return fmt.Errorf("process environment config: %w", err)
		}
		logx.Init(logx.LoggerOpts{Environment: core.EnvironmentFromOS()})
		return nil
	},
}

// Execute runs the CLI with the given base context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func newGenaiClient(ctx context.Context) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  appCfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if appCfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = appCfg.BaseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return client, nil
}
