package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr         string
	DBUrl        string
	TokenSecret  string
	TokenTTL     time.Duration
	EditTokenTTL time.Duration
	Debug        bool
}

// ParseFlags reads configuration from command-line flags, with defaults
// taken from the environment. A .env file in the working directory is
// loaded first, so deployments can keep secrets out of the unit file.
func ParseFlags() (cfg Config, err error) {
	godotenv.Load()

	var host string
	flag.StringVar(&host, "host", envOr("FORMS_HOST", "0.0.0.0"), "listen host name")
	var port uint
	flag.UintVar(&port, "port", envOrUint("FORMS_PORT", 80), "listen port number")
	flag.StringVar(&cfg.DBUrl, "db-url", envOr("FORMS_DB_URL", "forms4u.sqlite"), "path to SQLite3 DB file")
	flag.StringVar(&cfg.TokenSecret, "token-secret", os.Getenv("FORMS_TOKEN_SECRET"), "secret key for token signing")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", envOrUint("FORMS_TOKEN_TTL", 120), "access token TTL in seconds")
	var editTTL uint
	flag.UintVar(&editTTL, "edit-token-ttl", envOrUint("FORMS_EDIT_TOKEN_TTL", 3600), "respondent edit token TTL in seconds")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.EditTokenTTL = time.Duration(editTTL) * time.Second

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrUint(key string, fallback uint) uint {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}
