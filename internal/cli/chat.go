package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"

	"github.com/webshop-agent/server/internal/agent"
	"github.com/webshop-agent/server/internal/agent/repo"
	"github.com/webshop-agent/server/internal/agent/tools"
	"github.com/webshop-agent/server/internal/catalog"
	"github.com/webshop-agent/server/internal/ingest"
	"github.com/webshop-agent/server/internal/qdrant"
	logx "github.com/webshop-agent/server/pkg/logger"
)

var conversationID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive conversation with the product agent",
	Long: `Starts an interactive prompt. Conversation history is persisted in
Redis per conversation id, truncated to the configured number of turns on
every agent call. Type "exit" to quit.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&conversationID, "conversation", "c", "default", "conversation id for history persistence")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := newGenaiClient(ctx)
	if err != nil {
		return err
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       appCfg.Chat.Model,
		Temperature: &appCfg.Chat.Temperature,
		MaxTokens:   &appCfg.Chat.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("create chat model: %w", err)
	}

	embedder := ingest.NewEmbedder(appCfg.Embedding, ingest.NewGeminiBackend(client))
	index := qdrant.New(appCfg.Qdrant)
	catalogClient := catalog.New(appCfg.Catalog)
	svc := tools.NewService(embedder, index, catalogClient, appCfg.Qdrant.Collection)

	orch, err := agent.NewOrchestrator(chatModel, svc, appCfg.Conversation)
	if err != nil {
		return err
	}

	ttl, err := time.ParseDuration(appCfg.Conversation.TTL)
	if err != nil {
		return fmt.Errorf("invalid CONVERSATION_TTL %q: %w", appCfg.Conversation.TTL, err)
	}
	rdb, err := appCfg.Redis.New(ctx)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()
	conversations := repo.NewRedisConversationRepository(rdb, ttl)

	fmt.Printf("Conversation %q ready. Ask about products, \"exit\" quits.\n", conversationID)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			break
		}

		history, err := conversations.LoadHistory(ctx, conversationID)
		if err != nil {
			return err
		}

		answer, err := orch.SendMessage(ctx, history.Messages, line)
		if err != nil {
			logx.Error().Err(err).Str("conversation_id", conversationID).Msg("agent call failed")
			fmt.Println("Sorry, something went wrong. Please try again.")
			continue
		}

		if err := conversations.AddMessage(ctx, conversationID, schema.UserMessage(line)); err != nil {
			logx.Error().Err(err).Msg("failed to persist user message")
		}
		if err := conversations.AddMessage(ctx, conversationID, schema.AssistantMessage(answer, nil)); err != nil {
			logx.Error().Err(err).Msg("failed to persist assistant message")
		}

		fmt.Println(answer)
	}
	return scanner.Err()
}
