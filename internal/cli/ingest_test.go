package cli

import (
	"testing"

	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedFlagSurvivesConfigProcessing(t *testing.T) {
	oldIngest := appCfg.Ingest
	t.Cleanup(func() {
		appCfg.Ingest = oldIngest
		feedPath = ""
	})
	t.Setenv("PRODUCT_FEED_PATH", "data/products.csv")

	// Without the flag the env value wins.
	applyIngestFlags(ingestCmd)
	require.NoError(t, envconfig.Process("", &appCfg.Ingest))
	assert.Equal(t, "data/products.csv", appCfg.Ingest.FeedPath)

	// Cobra parses flags before PersistentPreRunE processes the environment,
	// so the env value lands on top of whatever the flag wrote.
	require.NoError(t, ingestCmd.Flags().Set("feed", "custom.csv"))
	require.NoError(t, envconfig.Process("", &appCfg.Ingest))
	assert.Equal(t, "data/products.csv", appCfg.Ingest.FeedPath)

	// Re-applying the flags afterwards restores the explicit choice.
	applyIngestFlags(ingestCmd)
	assert.Equal(t, "custom.csv", appCfg.Ingest.FeedPath)
}
