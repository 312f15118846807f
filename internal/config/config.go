package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/openvalley/strmatch-backend-go/internal/match"
)

// Config holds application configuration. Values come from the environment
// (optionally seeded from a .env file); scoring weights may additionally be
// overridden from a YAML file so towns can tune them without a rebuild.
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string

	// MatchRadiusM bounds the nearest-centroid fallback during spatial
	// refresh, in meters.
	MatchRadiusM float64

	WeightsFile string
	Weights     match.Weights
}

// weightsFile mirrors the optional YAML override. Pointer fields so a
// partial file only overrides what it names.
type weightsFile struct {
	Bedrooms          *float64 `yaml:"bedrooms"`
	UseType           *float64 `yaml:"use_type"`
	Homestead         *float64 `yaml:"homestead"`
	ContentionPenalty *float64 `yaml:"contention_penalty"`
}

// Load reads configuration from the environment with sensible defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg := &Config{
		Port:         getEnv("PORT", ":8080"),
		DBPath:       getEnv("DB_PATH", "./data/strmatch.db"),
		JWTSecret:    getEnv("JWT_SECRET", "change-me-in-production"),
		MatchRadiusM: getEnvFloat("MATCH_RADIUS_M", match.DefaultRadiusMeters),
		WeightsFile:  os.Getenv("WEIGHTS_FILE"),
		Weights:      match.DefaultWeights(),
	}

	if cfg.WeightsFile != "" {
		w, err := LoadWeights(cfg.WeightsFile, cfg.Weights)
		if err != nil {
			log.Printf("Ignoring weights file %s: %v", cfg.WeightsFile, err)
		} else {
			cfg.Weights = w
		}
	}

	return cfg
}

// LoadWeights applies the YAML overrides in path on top of base. Weights
// the file does not name keep their base values.
func LoadWeights(path string, base match.Weights) (match.Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}

	var f weightsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return base, fmt.Errorf("parse weights file: %w", err)
	}

	if f.Bedrooms != nil {
		base.Bedrooms = *f.Bedrooms
	}
	if f.UseType != nil {
		base.UseType = *f.UseType
	}
	if f.Homestead != nil {
		base.Homestead = *f.Homestead
	}
	if f.ContentionPenalty != nil {
		base.ContentionPenalty = *f.ContentionPenalty
	}
	return base, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
