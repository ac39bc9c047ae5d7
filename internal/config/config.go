package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and file paths, ints for
// durations and costs.  Signing-key paths point at PEM files which are read
// exactly once at startup; no other component touches the disk for key
// material afterwards.
type Config struct {
    Env               string // application environment (e.g. "dev", "prod")
    Port              string // HTTP port to listen on
    BaseURL           string // public base URL used in verification/reset links
    DBUser            string // database username
    DBPass            string // database password (optional)
    DBHost            string // database host address
    DBPort            string // database port number
    DBName            string // database name
    SessionPrivateKey string // path to the RSA private key signing session tokens
    SessionPublicKey  string // path to the RSA public key verifying session tokens
    ActionPrivateKey  string // path to the RSA private key signing action tokens
    ActionPublicKey   string // path to the RSA public key verifying action tokens
    SessionTTLMin     int    // session token time‑to‑live in minutes
    ActionTTLMin      int    // action token (verify/reset) time‑to‑live in minutes
    BcryptCost        int    // bcrypt cost for password hashing
    MailFrom          string // From address on outbound mail
    SMTPHost          string // SMTP relay host (consumed by the mail worker)
    SMTPPort          string // SMTP relay port
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:               must("APP_ENV"),                  // environment (dev/test/prod)
        Port:              must("APP_PORT"),                 // port to bind the HTTP server
        BaseURL:           must("APP_BASE_URL"),             // e.g. https://auth.example.com
        DBUser:            must("DB_USER"),                  // database user
        DBPass:            os.Getenv("DB_PASS"),             // database password (empty allowed)
        DBHost:            must("DB_HOST"),                  // database host
        DBPort:            must("DB_PORT"),                  // database port
        DBName:            must("DB_NAME"),                  // database name
        SessionPrivateKey: must("SESSION_PRIVATE_KEY"),      // PEM path, session signing
        SessionPublicKey:  must("SESSION_PUBLIC_KEY"),       // PEM path, session verification
        ActionPrivateKey:  must("ACTION_PRIVATE_KEY"),       // PEM path, action signing
        ActionPublicKey:   must("ACTION_PUBLIC_KEY"),        // PEM path, action verification
        SessionTTLMin:     mustInt("SESSION_TOKEN_TTL_MIN"), // TTL for session tokens in minutes
        ActionTTLMin:      mustInt("ACTION_TOKEN_TTL_MIN"),  // TTL for action tokens in minutes
        BcryptCost:        mustInt("BCRYPT_COST"),           // bcrypt cost factor
        MailFrom:          must("MAIL_FROM"),                // sender address on outbound mail
        SMTPHost:          os.Getenv("SMTP_HOST"),           // SMTP host (worker only; empty disables delivery)
        SMTPPort:          os.Getenv("SMTP_PORT"),           // SMTP port
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
