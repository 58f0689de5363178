package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	Env        string
	Database   DatabaseConfig
	Session    SessionConfig
	Notes      NotesConfig
	Google     GoogleConfig
	Avatar     AvatarConfig
	Events     EventsConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type SessionConfig struct {
	// Backend selects the session strategy: "cookie" for a signed
	// JWT cookie, "store" for server-side sessions in Postgres.
	Backend string
	Secret  string
}

type NotesConfig struct {
	// Backend selects the note store: "postgres" or "file".
	Backend string
	// File is the JSON file path used by the file backend.
	File string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type AvatarConfig struct {
	// Backend selects avatar storage: "local", "minio" or "gcs".
	Backend string
	// Dir is the directory used by the local backend.
	Dir   string
	Minio MinioConfig
	GCS   GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type EventsConfig struct {
	// Backend selects the event broker: "rabbitmq", "pubsub" or ""
	// to disable activity events.
	Backend         string
	Topic           string
	RabbitMQURL     string
	PubSubProjectID string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		ServerPort: getEnvInt("PORT", 3000),
		Env:        getEnv("ENV", "dev"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnvInt("PG_PORT", 5432),
			User:     getEnv("PG_USER", "notedesk"),
			Password: getEnv("PG_PASSWORD", "password"),
			DBName:   getEnv("PG_DATABASE", "notedesk_db"),
			UseSSL:   getEnvBool("PG_SSL", false),
		},
		Session: SessionConfig{
			Backend: getEnv("SESSION_BACKEND", "cookie"),
			Secret:  getEnv("SESSION_SECRET", ""),
		},
		Notes: NotesConfig{
			Backend: getEnv("NOTES_BACKEND", "postgres"),
			File:    getEnv("NOTES_FILE", "notes.json"),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("OAUTH_REDIRECT_URL", ""),
		},
		Avatar: AvatarConfig{
			Backend: getEnv("AVATAR_BACKEND", "local"),
			Dir:     getEnv("AVATAR_DIR", "avatars"),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "avatars"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
		Events: EventsConfig{
			Backend:         getEnv("EVENTS_BACKEND", ""),
			Topic:           getEnv("EVENTS_TOPIC", "note-activity"),
			RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
			PubSubProjectID: getEnv("PUBSUB_PROJECT_ID", ""),
		},
	}
}

// Production reports whether the server runs in production mode. It
// controls the Secure flag on session cookies.
func (c Config) Production() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		return value == "true" || value == "1"
	}
	return defaultValue
}
