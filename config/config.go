package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matheuscscp/obrawiser/services/secrets"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type (
	// Config ...
	Config struct {
		Port      string   `yaml:"port"`
		ProjectID string   `yaml:"projectID"`
		WhatsApp  WhatsApp `yaml:"whatsapp"`
		AI        AI       `yaml:"ai"`
		Sheets    Sheets   `yaml:"sheets"`
		Events    Events   `yaml:"events"`
		Media     Media    `yaml:"media"`
	}

	// WhatsApp configures both the inbound webhook and the Graph API client.
	WhatsApp struct {
		VerifyToken         string   `yaml:"verifyToken"`
		VerifyTokenSecretID string   `yaml:"verifyTokenSecretID"`
		Token               string   `yaml:"token"`
		TokenSecretID       string   `yaml:"tokenSecretID"`
		AppSecret           string   `yaml:"appSecret"`
		AppSecretSecretID   string   `yaml:"appSecretSecretID"`
		PhoneNumberID       string   `yaml:"phoneNumberID"`
		APIVersion          string   `yaml:"apiVersion"`
		BaseURL             string   `yaml:"baseURL"`
		AllowedSenders      []string `yaml:"allowedSenders"`
	}

	// AI ...
	AI struct {
		Provider           string `yaml:"provider"`
		Model              string `yaml:"model"`
		TranscriptionModel string `yaml:"transcriptionModel"`
		APIKey             string `yaml:"apiKey"`
		APIKeySecretID     string `yaml:"apiKeySecretID"`
		BaseURL            string `yaml:"baseURL"`
		Language           string `yaml:"language"`
	}

	// Sheets ...
	Sheets struct {
		ServiceAccountEmail string `yaml:"serviceAccountEmail"`
		PrivateKey          string `yaml:"privateKey"`
		PrivateKeySecretID  string `yaml:"privateKeySecretID"`
		SpreadsheetID       string `yaml:"spreadsheetID"`
		Range               string `yaml:"range"`
		TimeZone            string `yaml:"timeZone"`
	}

	// Events ...
	Events struct {
		TopicID string `yaml:"topicID"`
	}

	// Media ...
	Media struct {
		Bucket string `yaml:"bucket"`
		Prefix string `yaml:"prefix"`
	}
)

const (
	ConfFileEnv = "CONF_FILE"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultPort          = "3000"
	DefaultAPIVersion    = "v21.0"
	DefaultBaseURL       = "https://graph.facebook.com"
	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultWhisperModel  = "whisper-1"
	DefaultLanguage      = "pt"
	DefaultSheetRange    = "Sheet1!A:G"
	DefaultTimeZone      = "America/Sao_Paulo"
	DefaultMediaPrefix   = "media"
	defaultConfFileName  = "config.yml"
	privateKeyEscapedEOL = `\n`
)

var (
	// ErrUnknownProvider ...
	ErrUnknownProvider = errors.New("unknown ai provider")
)

// Load reads the optional YAML config file, then the optional .env file and
// the environment, which take precedence over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("error loading .env file: %v", err)
	}

	var conf Config
	confFile := os.Getenv(ConfFileEnv)
	if confFile == "" {
		confFile = defaultConfFileName
	}
	b, err := os.ReadFile(confFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &conf); err != nil {
			return nil, fmt.Errorf("error unmarshaling config file '%s': %w", confFile, err)
		}
	case errors.Is(err, os.ErrNotExist) && os.Getenv(ConfFileEnv) == "":
		logrus.Debugf("config file '%s' not found, using environment only", confFile)
	default:
		return nil, fmt.Errorf("error reading config file '%s': %w", confFile, err)
	}

	conf.applyEnv()
	conf.applyDefaults()
	return &conf, nil
}

func (c *Config) applyEnv() {
	for env, field := range map[string]*string{
		"PORT":                         &c.Port,
		"GOOGLE_CLOUD_PROJECT":         &c.ProjectID,
		"VERIFY_TOKEN":                 &c.WhatsApp.VerifyToken,
		"WHATSAPP_TOKEN":               &c.WhatsApp.Token,
		"WHATSAPP_APP_SECRET":          &c.WhatsApp.AppSecret,
		"WHATSAPP_PHONE_ID":            &c.WhatsApp.PhoneNumberID,
		"WHATSAPP_API_VERSION":         &c.WhatsApp.APIVersion,
		"AI_PROVIDER":                  &c.AI.Provider,
		"AI_MODEL":                     &c.AI.Model,
		"AI_BASE_URL":                  &c.AI.BaseURL,
		"GOOGLE_SERVICE_ACCOUNT_EMAIL": &c.Sheets.ServiceAccountEmail,
		"GOOGLE_PRIVATE_KEY":           &c.Sheets.PrivateKey,
		"GOOGLE_SHEET_ID":              &c.Sheets.SpreadsheetID,
		"GOOGLE_SHEET_RANGE":           &c.Sheets.Range,
		"EVENTS_TOPIC_ID":              &c.Events.TopicID,
		"MEDIA_BUCKET":                 &c.Media.Bucket,
	} {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("WHATSAPP_ALLOWED_SENDERS"); v != "" {
		c.WhatsApp.AllowedSenders = strings.Split(v, ",")
	}

	// the API key env depends on the provider
	keyEnv := "GOOGLE_API_KEY"
	if c.AI.Provider == ProviderOpenAI {
		keyEnv = "OPENAI_API_KEY"
	}
	if v := os.Getenv(keyEnv); v != "" {
		c.AI.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	setDefault(&c.Port, DefaultPort)
	setDefault(&c.WhatsApp.APIVersion, DefaultAPIVersion)
	setDefault(&c.WhatsApp.BaseURL, DefaultBaseURL)
	setDefault(&c.AI.Provider, ProviderGemini)
	if c.AI.Provider == ProviderOpenAI {
		setDefault(&c.AI.Model, DefaultOpenAIModel)
		setDefault(&c.AI.TranscriptionModel, DefaultWhisperModel)
	} else {
		setDefault(&c.AI.Model, DefaultGeminiModel)
	}
	setDefault(&c.AI.Language, DefaultLanguage)
	setDefault(&c.Sheets.Range, DefaultSheetRange)
	setDefault(&c.Sheets.TimeZone, DefaultTimeZone)
	setDefault(&c.Media.Prefix, DefaultMediaPrefix)

	c.Sheets.PrivateKey = strings.ReplaceAll(c.Sheets.PrivateKey, privateKeyEscapedEOL, "\n")
	for i, s := range c.WhatsApp.AllowedSenders {
		c.WhatsApp.AllowedSenders[i] = strings.TrimSpace(s)
	}
}

// NeedsSecrets tells whether any credential must be read from Secret Manager.
func (c *Config) NeedsSecrets() bool {
	for _, s := range c.secretRefs() {
		if s.id != "" {
			return true
		}
	}
	return false
}

// ResolveSecrets reads every credential configured with a secret ID.
func (c *Config) ResolveSecrets(ctx context.Context, secretsService secrets.Service) error {
	for _, s := range c.secretRefs() {
		if s.id == "" {
			continue
		}
		v, err := secretsService.Read(ctx, s.id)
		if err != nil {
			return fmt.Errorf("error reading secret '%s': %w", s.id, err)
		}
		*s.value = strings.TrimSpace(v)
	}
	c.Sheets.PrivateKey = strings.ReplaceAll(c.Sheets.PrivateKey, privateKeyEscapedEOL, "\n")
	return nil
}

type secretRef struct {
	id    string
	value *string
}

func (c *Config) secretRefs() []secretRef {
	return []secretRef{
		{c.WhatsApp.VerifyTokenSecretID, &c.WhatsApp.VerifyToken},
		{c.WhatsApp.TokenSecretID, &c.WhatsApp.Token},
		{c.WhatsApp.AppSecretSecretID, &c.WhatsApp.AppSecret},
		{c.AI.APIKeySecretID, &c.AI.APIKey},
		{c.Sheets.PrivateKeySecretID, &c.Sheets.PrivateKey},
	}
}

// Validate checks the settings without which no message can be handled.
// Sheets, events and media settings are optional.
func (c *Config) Validate() error {
	var missing []string
	if c.WhatsApp.VerifyToken == "" {
		missing = append(missing, "whatsapp.verifyToken")
	}
	if c.WhatsApp.Token == "" {
		missing = append(missing, "whatsapp.token")
	}
	if c.WhatsApp.PhoneNumberID == "" {
		missing = append(missing, "whatsapp.phoneNumberID")
	}
	if c.AI.APIKey == "" {
		missing = append(missing, "ai.apiKey")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if c.AI.Provider != ProviderGemini && c.AI.Provider != ProviderOpenAI {
		return fmt.Errorf("%w: '%s'", ErrUnknownProvider, c.AI.Provider)
	}
	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
