package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed calibration.yaml
var calibrationYAML []byte

type Config struct {
	Database    DatabaseConfig
	FaceModel   FaceModelConfig
	Calibration Calibration
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type FaceModelConfig struct {
	URL         string  // face model server base URL, defaults to http://localhost:8000
	MinDetScore float64 // detections below this confidence are discarded
}

// Calibration fixes the embedding space and the verification policy.
// It is embedded at build time so every deployment of the same binary
// applies the same accept/reject threshold.
type Calibration struct {
	Model           string  `yaml:"model"`
	Dim             int     `yaml:"dim"`
	Metric          string  `yaml:"metric"`
	VerifyThreshold float64 `yaml:"verify_threshold"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var cal Calibration
	if err := yaml.Unmarshal(calibrationYAML, &cal); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded calibration.yaml: " + err.Error())
	}

	// FACEGATE_VERIFY_THRESHOLD exists for calibration experiments only;
	// production deployments rely on the embedded value.
	cal.VerifyThreshold = envFloat("FACEGATE_VERIFY_THRESHOLD", cal.VerifyThreshold)

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		FaceModel: FaceModelConfig{
			URL:         envString("FACE_MODEL_URL", "http://localhost:8000"),
			MinDetScore: envFloat("FACE_MIN_DET_SCORE", 0.5),
		},
		Calibration: cal,
	}
}
