package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Access and refresh tokens are signed with
// separate secrets so that a leaked access secret cannot be used to mint
// refresh tokens.
type Config struct {
	Env             string // application environment (e.g. "dev", "prod")
	Port            string // HTTP port to listen on
	DBUser          string // database username
	DBPass          string // database password (optional)
	DBHost          string // database host address
	DBPort          string // database port number
	DBName          string // database name
	DBMaxConns      int    // connection pool ceiling (open and idle)
	DBConnLifeMin   int    // pooled connection lifetime in minutes
	JWTSecret       string // secret used to sign access tokens
	RefreshSecret   string // secret used to sign refresh tokens
	AccessTTLMin    int    // access token time-to-live in minutes
	RefreshTTLDays  int    // refresh token time-to-live in days
	ResetTTLMin     int    // password reset token time-to-live in minutes
	BcryptCost      int    // bcrypt cost for password hashing
	FrontendBaseURL string // base URL used to build password reset links
	SMTPHost        string // SMTP server host (empty disables mail)
	SMTPPort        string // SMTP server port
	SMTPUser        string // SMTP auth user, also the From address
	SMTPPass        string // SMTP auth password
	MailName        string // display name on outgoing mail
	AdminEmail      string // address that receives admin notifications
	AMQPURL         string // RabbitMQ URL (empty disables event publishing)
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message. Mail and queue
// settings are optional; leaving them unset disables the feature.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"),
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		DBMaxConns:      envInt("DB_MAX_CONNS", 25),
		DBConnLifeMin:   envInt("DB_CONN_LIFETIME_MIN", 30),
		JWTSecret:       must("JWT_SECRET"),
		RefreshSecret:   must("REFRESH_SECRET"),
		AccessTTLMin:    envInt("ACCESS_TOKEN_TTL_MIN", 30),
		RefreshTTLDays:  envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		ResetTTLMin:     envInt("RESET_TOKEN_TTL_MIN", 60),
		BcryptCost:      envInt("BCRYPT_COST", 10),
		FrontendBaseURL: envStr("FRONTEND_BASE_URL", "http://localhost:5173"),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        envStr("SMTP_PORT", "587"),
		SMTPUser:        os.Getenv("SMTP_USER"),
		SMTPPass:        os.Getenv("SMTP_PASS"),
		MailName:        envStr("MAIL_NAME", "L'équipe ODIA"),
		AdminEmail:      os.Getenv("ADMIN_EMAIL"),
		AMQPURL:         os.Getenv("RABBITMQ_URL"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envStr returns the value of an optional environment variable or the
// provided default when unset.
func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt is like envStr but converts the retrieved string into an integer,
// falling back to the default on parse failure.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid int for %s: %q, using default %d", key, v, def)
		return def
	}
	return n
}
