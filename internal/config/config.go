package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting the service reads. All values are resolved
// once at startup; there is no hot reload.
type Config struct {
	Server ServerConfig
	Chat   ChatConfig
	Voice  VoiceConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	voice, err := loadVoiceConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Chat: chat, Voice: voice}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ChatConfig controls conversation pacing and history retention.
type ChatConfig struct {
	MaxHistory  int
	TypingDelay time.Duration
	Welcome     string
}

// DefaultWelcome greets the user and lists what the assistant covers.
const DefaultWelcome = "🤖 Hi! I'm your Health Advice Assistant. I can help you with nutrition, exercise, mental wellness, sleep, and hydration tips. What would you like to know?"

func loadChatConfig() (ChatConfig, error) {
	maxHistory := 50
	if override, err := parseOptionalIntEnv("CHAT_MAX_HISTORY"); err != nil {
		return ChatConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ChatConfig{}, fmt.Errorf("CHAT_MAX_HISTORY must be positive, got %d", *override)
		}
		maxHistory = *override
	}

	typingDelayMs := 1000
	if override, err := parseOptionalIntEnv("CHAT_TYPING_DELAY_MS"); err != nil {
		return ChatConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return ChatConfig{}, fmt.Errorf("CHAT_TYPING_DELAY_MS must not be negative, got %d", *override)
		}
		typingDelayMs = *override
	}

	return ChatConfig{
		MaxHistory:  maxHistory,
		TypingDelay: time.Duration(typingDelayMs) * time.Millisecond,
		Welcome:     getEnvOrDefault("CHAT_WELCOME", DefaultWelcome),
	}, nil
}

// VoiceConfig controls the voice engine and its platform providers.
type VoiceConfig struct {
	Enabled      bool
	AutoPlay     bool
	Rate         float64
	Pitch        float64
	Volume       float64
	Language     string
	WhisperModel string
	DebugDump    bool
	Chime        bool
}

func loadVoiceConfig() (VoiceConfig, error) {
	enabled, err := parseBoolEnv("VOICE_ENABLED", true)
	if err != nil {
		return VoiceConfig{}, err
	}

	autoPlay, err := parseBoolEnv("VOICE_AUTOPLAY", true)
	if err != nil {
		return VoiceConfig{}, err
	}

	rate, err := parseFloatEnv("VOICE_RATE", 1.0)
	if err != nil {
		return VoiceConfig{}, err
	}

	pitch, err := parseFloatEnv("VOICE_PITCH", 1.0)
	if err != nil {
		return VoiceConfig{}, err
	}

	volume, err := parseFloatEnv("VOICE_VOLUME", 1.0)
	if err != nil {
		return VoiceConfig{}, err
	}

	debugDump, err := parseBoolEnv("VOICE_DEBUG_DUMP", false)
	if err != nil {
		return VoiceConfig{}, err
	}

	chime, err := parseBoolEnv("VOICE_CHIME", true)
	if err != nil {
		return VoiceConfig{}, err
	}

	return VoiceConfig{
		Enabled:      enabled,
		AutoPlay:     autoPlay,
		Rate:         rate,
		Pitch:        pitch,
		Volume:       volume,
		Language:     getEnvOrDefault("VOICE_LANGUAGE", "en-US"),
		WhisperModel: getEnvOrDefault("VOICE_WHISPER_MODEL", "models/ggml-base.en.bin"),
		DebugDump:    debugDump,
		Chime:        chime,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
