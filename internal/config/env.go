package config

import (
	"os"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
)

// envFiles are loaded in order when present. Variables already set in the
// process environment are never overwritten, so .env wins over .env.local.
var envFiles = []string{".env", ".env.local"}

func loadEnvFiles() error {
	var present []string
	for _, name := range envFiles {
		if _, err := os.Stat(name); err == nil {
			present = append(present, name)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return ferrors.ConfigError("failed to load environment file").
			WithContext("files", present).
			WithCause(err).
			Build()
	}
	return nil
}
