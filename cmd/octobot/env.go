package main

import (
	"os"

	"github.com/joho/godotenv"
)

// findEnvFile loads the first existing candidate. Variables already set in
// the environment win over the file.
func findEnvFile(candidates []string) (string, bool) {
	for _, envPath := range candidates {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err == nil {
			return envPath, true
		}
	}
	return "", false
}
