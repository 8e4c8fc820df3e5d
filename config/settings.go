package config

import (
	"os"
	"strings"
)

// Settings are the process level knobs, read from the environment and
// overridable from the command line.
type Settings struct {
	Port           string
	LogLevel       string
	TiersFile      string
	MazeFile       string
	HistoryFile    string
	NarrativeURL   string
	NarrativeKey   string
	PersistBackend string
	PersistURL     string
	PersistKey     string
	AWSRegion      string
	S3Bucket       string
	SQSQueue       string
}

func FromEnv() Settings {
	get := func(key, def string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return def
	}
	return Settings{
		Port:           get("PORT", "8080"),
		LogLevel:       get("LOG_LEVEL", "info"),
		TiersFile:      get("TIERS_FILE", ""),
		MazeFile:       get("MAZE_FILE", ""),
		HistoryFile:    get("HISTORY_FILE", "history.json"),
		NarrativeURL:   get("NARRATIVE_URL", ""),
		NarrativeKey:   get("NARRATIVE_KEY", ""),
		PersistBackend: get("PERSIST_BACKEND", "none"),
		PersistURL:     get("PERSIST_URL", ""),
		PersistKey:     get("PERSIST_KEY", ""),
		AWSRegion:      get("AWS_REGION", ""),
		S3Bucket:       get("S3_BUCKET", ""),
		SQSQueue:       get("SQS_QUEUE", ""),
	}
}
