package cli

import (
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/webshop-agent/server/internal/ingest"
	"github.com/webshop-agent/server/internal/qdrant"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Embed the product feed into the vector index",
	Long: `Loads the CSV product feed, normalizes and embeds every record and
upserts the vectors into the Qdrant collection in batches of 100. The
collection and its price payload index are created on the first run.`,
	RunE: runIngest,
}

var feedPath string

func init() {
	ingestCmd.Flags().StringVar(&feedPath, "feed", "", "path to the product feed CSV (overrides PRODUCT_FEED_PATH)")
	rootCmd.AddCommand(ingestCmd)
}

// applyIngestFlags layers the parsed flags over the processed environment
// config. Cobra parses flags before PersistentPreRunE runs envconfig, so a
// flag bound directly into appCfg would be clobbered by the env value or
// the tag default.
func applyIngestFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("feed") {
		appCfg.Ingest.FeedPath = feedPath
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	applyIngestFlags(cmd)

	client, err := newGenaiClient(ctx)
	if err != nil {
		return err
	}

	embedder := ingest.NewEmbedder(appCfg.Embedding, ingest.NewGeminiBackend(client))
	index := qdrant.New(appCfg.Qdrant)

	var bar *progressbar.ProgressBar
	progress := func(processed, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("Ingesting"),
			)
		}
		_ = bar.Set(processed)
	}

	pipeline := ingest.NewPipeline(appCfg.Ingest, index, embedder, progress)
	return pipeline.Run(ctx)
}
