package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Admin       AdminConfig
	Storage     StorageConfig
	FaceAPI     FaceAPIConfig
	Recognition RecognitionConfig
	Train       TrainConfig
	RateLimit   RateLimitConfig
}

type AppConfig struct {
	Name string
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AdminConfig struct {
	Token string // Admin token for log access
}

// StorageConfig selects and configures the object-store backend.
type StorageConfig struct {
	Backend string // "bunny" or "local"

	// Bunny CDN storage zone
	StorageZone string
	AccessKey   string
	BaseURL     string

	// Local filesystem backend
	LocalRoot string
}

type FaceAPIConfig struct {
	BaseURL        string // Base URL of the detector/embedder service
	TimeoutSeconds int
}

// RecognitionConfig carries the enrollment and verification tuning knobs.
type RecognitionConfig struct {
	EmbeddingDim        int     // expected embedding length from the face service
	DefaultThreshold    float64 // floor for the per-user dynamic threshold
	ThresholdSigma      float64 // stddev multiplier in the dynamic threshold
	DistanceGateFactor  float64 // cosine gate = factor * user threshold
	ConfidenceGate      float64 // minimum classifier confidence for a match
	MinEnrollmentFaces  int     // minimum accepted crops per enrollment
	MaxEnrollmentFaces  int     // acceptance cap per enrollment batch
	MinTrainingSamples  int     // minimum total samples across all users
	TestFraction        float64 // held-out fraction for evaluation
	SplitSeed           int64   // fixed seed for the stratified split
	CropMargin          float64 // bounding-box expansion per side
}

type TrainConfig struct {
	Cron string // cron expression for automatic retraining; empty disables
}

type RateLimitConfig struct {
	Enabled       bool
	MaxRequests   int
	WindowSeconds int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists (optional for production)
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	faceTimeout, _ := strconv.Atoi(getEnv("FACE_API_TIMEOUT_SECONDS", "120"))
	rateLimitMax, _ := strconv.Atoi(getEnv("RATE_LIMIT_MAX_REQUESTS", "60"))
	rateLimitWindow, _ := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))

	config := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "Face Recognition API"),
			Port: getEnv("APP_PORT", "8000"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "face_service"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Admin: AdminConfig{
			Token: getEnv("ADMIN_TOKEN", ""),
		},
		Storage: StorageConfig{
			Backend:     getEnv("STORAGE_BACKEND", "local"),
			StorageZone: getEnv("BUNNY_STORAGE_ZONE", ""),
			AccessKey:   getEnv("BUNNY_ACCESS_KEY", ""),
			BaseURL:     getEnv("BUNNY_BASE_URL", "https://storage.bunnycdn.com"),
			LocalRoot:   getEnv("STORAGE_LOCAL_ROOT", "data"),
		},
		FaceAPI: FaceAPIConfig{
			BaseURL:        getEnv("FACE_API_URL", "http://localhost:5000"),
			TimeoutSeconds: faceTimeout,
		},
		Recognition: RecognitionConfig{
			EmbeddingDim:       getEnvInt("EMBEDDING_DIM", 512),
			DefaultThreshold:   getEnvFloat("RECOGNITION_DEFAULT_THRESHOLD", 0.85),
			ThresholdSigma:     getEnvFloat("RECOGNITION_THRESHOLD_SIGMA", 1.5),
			DistanceGateFactor: getEnvFloat("RECOGNITION_DISTANCE_GATE_FACTOR", 0.8),
			ConfidenceGate:     getEnvFloat("RECOGNITION_CONFIDENCE_GATE", 0.85),
			MinEnrollmentFaces: getEnvInt("ENROLLMENT_MIN_FACES", 10),
			MaxEnrollmentFaces: getEnvInt("ENROLLMENT_MAX_FACES", 20),
			MinTrainingSamples: getEnvInt("TRAINING_MIN_SAMPLES", 10),
			TestFraction:       getEnvFloat("TRAINING_TEST_FRACTION", 0.2),
			SplitSeed:          int64(getEnvInt("TRAINING_SPLIT_SEED", 42)),
			CropMargin:         getEnvFloat("ENROLLMENT_CROP_MARGIN", 0.2),
		},
		Train: TrainConfig{
			Cron: getEnv("TRAIN_CRON", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnv("RATE_LIMIT_ENABLED", "false") == "true",
			MaxRequests:   rateLimitMax,
			WindowSeconds: rateLimitWindow,
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
