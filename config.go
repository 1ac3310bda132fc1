package vertag

import (
	"os"
	"path/filepath"
)

// DefaultTemplate mirrors the image tags CI pipelines usually want:
// project, short commit, build time, version.
const DefaultTemplate = "{repo}-{commit}-{timestamp}-{version}"

// Config selects the store and addresses the record. It is explicit state
// passed into New; nothing here is read from the environment unless the
// caller asks via OverrideWithEnv.
type Config struct {
	// StoreURL selects the backend: file://, dynamodb://, s3:// or gs://.
	StoreURL string

	// Key addresses the version record, usually <workspace>/<repo>.
	Key string

	// Template renders Manager.Tag.
	Template string

	// Commit is the build commit, shortened into the {commit} placeholder.
	Commit string

	LogLevel  string
	LogFormat string
}

// DefaultConfig returns a file store next to the working directory, keyed
// by its basename.
func DefaultConfig() Config {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	return Config{
		StoreURL:  "file://" + filepath.Join(wd, ".vertag"),
		Key:       filepath.Base(wd),
		Template:  DefaultTemplate,
		LogLevel:  "error",
		LogFormat: "text",
	}
}

// OverrideWithEnv picks up Bitbucket Pipelines variables when present, then
// explicit VERTAG_* variables, which win over the CI-provided ones.
func (c *Config) OverrideWithEnv() {
	if slug := os.Getenv("BITBUCKET_REPO_SLUG"); slug != "" {
		workspace := os.Getenv("BITBUCKET_WORKSPACE")
		if workspace == "" {
			workspace = "default"
		}
		c.Key = workspace + "/" + slug
	}
	if commit := os.Getenv("BITBUCKET_COMMIT"); commit != "" {
		c.Commit = commit
	}

	if v := os.Getenv("VERTAG_STORE"); v != "" {
		c.StoreURL = v
	}
	if v := os.Getenv("VERTAG_KEY"); v != "" {
		c.Key = v
	}
	if v := os.Getenv("VERTAG_TEMPLATE"); v != "" {
		c.Template = v
	}
	if v := os.Getenv("VERTAG_COMMIT"); v != "" {
		c.Commit = v
	}
}
