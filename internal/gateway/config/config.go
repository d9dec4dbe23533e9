package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	Env     string
	LLM     LLMConfig
	Store   StoreConfig
	Logging LoggingConfig
}

type LLMConfig struct {
	Provider     string
	RouterToken  string
	GeminiAPIKey string
	Model        string
	BaseURL      string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	RPS          float64
	Burst        int
	MaxAttempts  int
}

type StoreConfig struct {
	Backend     string
	FilePath    string
	PostgresDSN string
	RegistryKey string
	CacheSize   int
	S3          S3Config
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

const (
	ProviderRouter = "router"
	ProviderGemini = "gemini"
	ProviderFake   = "fake"

	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendS3       = "s3"

	defaultModel   = "Qwen/Qwen3-Coder-480B-A35B-Instruct"
	defaultBaseURL = "https://router.huggingface.co/v1/chat/completions"
	defaultGemini  = "gemini-2.5-flash"
)

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local")
	cfg := &Config{
		Port: NormalizePort(firstNonEmpty(os.Getenv("PORT"), ":8081")),
		Env:  env,
		Logging: LoggingConfig{
			Level:  firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_LEVEL")), "info"),
			Format: firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "json"),
		},
	}

	llm, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}
	cfg.LLM = llm

	store, err := loadStoreConfig(env)
	if err != nil {
		return nil, err
	}
	cfg.Store = store
	return cfg, nil
}

// NormalizePort turns a bare port number into a listen address.
func NormalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" || strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func loadLLMConfig() (LLMConfig, error) {
	provider := strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), ProviderRouter))
	switch provider {
	case ProviderRouter, ProviderGemini, ProviderFake:
	default:
		return LLMConfig{}, fmt.Errorf("config: unknown LLM_PROVIDER %q", provider)
	}

	model := strings.TrimSpace(os.Getenv("LLM_MODEL"))
	if model == "" {
		model = defaultModel
		if provider == ProviderGemini {
			model = defaultGemini
		}
	}

	maxTokens, err := intEnv("LLM_MAX_TOKENS", 2000)
	if err != nil {
		return LLMConfig{}, err
	}
	temperature, err := floatEnv("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return LLMConfig{}, err
	}
	timeout, err := durationEnv("LLM_TIMEOUT", 60*time.Second)
	if err != nil {
		return LLMConfig{}, err
	}
	rps, err := floatEnv("LLM_RPS", 0)
	if err != nil {
		return LLMConfig{}, err
	}
	burst, err := intEnv("LLM_BURST", 1)
	if err != nil {
		return LLMConfig{}, err
	}
	attempts, err := intEnv("LLM_MAX_ATTEMPTS", 1)
	if err != nil {
		return LLMConfig{}, err
	}

	return LLMConfig{
		Provider:     provider,
		RouterToken:  strings.TrimSpace(os.Getenv("HF_TOKEN")),
		GeminiAPIKey: firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_API_KEY")), strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))),
		Model:        model,
		BaseURL:      firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_BASE_URL")), defaultBaseURL),
		MaxTokens:    maxTokens,
		Temperature:  temperature,
		Timeout:      timeout,
		RPS:          rps,
		Burst:        burst,
		MaxAttempts:  attempts,
	}, nil
}

func loadStoreConfig(env string) (StoreConfig, error) {
	backend := strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("STORE_BACKEND")), BackendFile))
	switch backend {
	case BackendMemory, BackendFile, BackendPostgres, BackendS3:
	default:
		return StoreConfig{}, fmt.Errorf("config: unknown STORE_BACKEND %q", backend)
	}
	cacheSize, err := intEnv("STORE_CACHE_SIZE", 256)
	if err != nil {
		return StoreConfig{}, err
	}
	return StoreConfig{
		Backend:     backend,
		FilePath:    firstNonEmpty(strings.TrimSpace(os.Getenv("STORE_FILE_PATH")), "tmp/blockvibe_store.json"),
		PostgresDSN: firstNonEmpty(strings.TrimSpace(os.Getenv("STORE_PG_DSN")), strings.TrimSpace(os.Getenv("DATABASE_URL"))),
		RegistryKey: firstNonEmpty(strings.TrimSpace(os.Getenv("REGISTRY_KEY")), "blockVibeCustomBlocks"),
		CacheSize:   cacheSize,
		S3:          loadS3Config(env),
	}, nil
}

func loadS3Config(env string) S3Config {
	return S3Config{
		Endpoint:  resolveS3Endpoint(env),
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "blockvibe"),
		Prefix:    strings.TrimSpace(os.Getenv("ARTIFACT_S3_PREFIX")),
		UseSSL:    resolveS3UseSSL(env),
	}
}

func resolveS3Endpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT")), "minio:9000")
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveS3UseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func intEnv(name string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return v, nil
}

func floatEnv(name string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return v, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
