package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

// TestConfigReplacement_Integration tests that config replacement works with
// the actual common.Config struct used by the application.
func TestConfigReplacement_Integration(t *testing.T) {
	logger := arbor.NewLogger()
	kvMap := map[string]string{
		"claude-api-key": "sk-claude-12345",
		"adzuna-app-id":  "app-67890",
		"adzuna-app-key": "key-abcde",
		"db-path":        "/data/jobhunter.db",
	}

	config := NewDefaultConfig()
	config.Claude.APIKey = "{claude-api-key}"
	config.Sources.Adzuna.AppID = "{adzuna-app-id}"
	config.Sources.Adzuna.AppKey = "{adzuna-app-key}"
	config.Storage.SQLite.Path = "{db-path}"

	err := ReplaceInStruct(config, kvMap, logger)
	require.NoError(t, err)

	assert.Equal(t, "sk-claude-12345", config.Claude.APIKey)
	assert.Equal(t, "app-67890", config.Sources.Adzuna.AppID)
	assert.Equal(t, "key-abcde", config.Sources.Adzuna.AppKey)
	assert.Equal(t, "/data/jobhunter.db", config.Storage.SQLite.Path)
}

// TestReplaceInStruct_MapStringString tests the map[string]string support
func TestReplaceInStruct_MapStringString(t *testing.T) {
	logger := arbor.NewLogger()
	kvMap := map[string]string{
		"value1": "replaced1",
		"value2": "replaced2",
	}

	type Config struct {
		Name    string
		Options map[string]string
	}

	config := &Config{
		Name: "test",
		Options: map[string]string{
			"key1": "{value1}",
			"key2": "{value2}",
			"key3": "static",
		},
	}

	err := ReplaceInStruct(config, kvMap, logger)
	require.NoError(t, err)

	assert.Equal(t, "replaced1", config.Options["key1"])
	assert.Equal(t, "replaced2", config.Options["key2"])
	assert.Equal(t, "static", config.Options["key3"])
}

// TestReplaceInStruct_SliceOfStrings tests the []string support
func TestReplaceInStruct_SliceOfStrings(t *testing.T) {
	logger := arbor.NewLogger()
	kvMap := map[string]string{
		"source1": "replaced-source-1",
		"source2": "replaced-source-2",
		"tag1":    "replaced-tag-1",
	}

	type ScrapeRequest struct {
		Sources  []string
		Keywords []string
		Tags     []string
	}

	req := &ScrapeRequest{
		Sources:  []string{"{source1}", "remotive"},
		Keywords: []string{"{source2}"},
		Tags:     []string{"{tag1}", "static-tag", "{source1}"},
	}

	err := ReplaceInStruct(req, kvMap, logger)
	require.NoError(t, err)

	assert.Equal(t, []string{"replaced-source-1", "remotive"}, req.Sources)
	assert.Equal(t, []string{"replaced-source-2"}, req.Keywords)
	assert.Equal(t, []string{"replaced-tag-1", "static-tag", "replaced-source-1"}, req.Tags)
}
