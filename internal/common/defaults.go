// Package common provides shared utilities and default configuration.
package common

// DefaultKVValue represents a default key/value pair that is seeded on startup.
type DefaultKVValue struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// GetDefaultKVValues returns the list of default KV values seeded on startup.
// This is the single source of truth for default values.
func GetDefaultKVValues() []DefaultKVValue {
	return []DefaultKVValue{
		{
			Key:         "remotive_base_url",
			Value:       "https://remotive.com/api/remote-jobs",
			Description: "Remotive API base URL",
		},
		{
			Key:         "remoteok_base_url",
			Value:       "https://remoteok.com/api",
			Description: "RemoteOK API base URL",
		},
	}
}
