package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultProfilePicURL = "https://cdn-icons-png.flaticon.com/512/149/149071.png"
	defaultAllowedOrigin = "http://localhost:5173"
)

type Config struct {
	Port                 string
	DatabaseUser         string
	DatabasePassword     string
	DatabaseHost         string
	DatabasePort         string
	DatabaseName         string
	DatabaseSSLMode      string
	JwtSigningKey        []byte
	TokenTTL             time.Duration // lifetime of user tokens
	AdminTokenTTL        time.Duration // lifetime of the admin token
	AdminEmail           string        // out-of-band admin identity, not a stored user
	AdminPassword        string
	Env                  string // either prod or dev, dev enables console logging
	SentryDSN            string
	CloudinaryURL        string // cloudinary://<key>:<secret>@<cloud>
	DefaultProfilePicURL string
	AllowedOrigins       []string
	SiteURL              string // public frontend, job pages live under /job/{id}
	MaxUploadSize        int64 // bytes
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}

func LoadConfig() (Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		return Config{}, fmt.Errorf("PORT cannot be empty")
	}
	databaseUser := os.Getenv("DATABASE_USER")
	if databaseUser == "" {
		return Config{}, fmt.Errorf("DATABASE_USER cannot be empty")
	}
	databasePassword := os.Getenv("DATABASE_PASSWORD")
	if databasePassword == "" {
		return Config{}, fmt.Errorf("DATABASE_PASSWORD cannot be empty")
	}
	databaseHost := os.Getenv("DATABASE_HOST")
	if databaseHost == "" {
		return Config{}, fmt.Errorf("DATABASE_HOST cannot be empty")
	}
	databasePort := os.Getenv("DATABASE_PORT")
	if databasePort == "" {
		return Config{}, fmt.Errorf("DATABASE_PORT cannot be empty")
	}
	databaseName := os.Getenv("DATABASE_NAME")
	if databaseName == "" {
		return Config{}, fmt.Errorf("DATABASE_NAME cannot be empty")
	}
	databaseSSLMode := os.Getenv("DATABASE_SSL_MODE")
	if databaseSSLMode == "" {
		return Config{}, fmt.Errorf("DATABASE_SSL_MODE cannot be empty")
	}
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		return Config{}, fmt.Errorf("ENV cannot be empty")
	}
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY cannot be empty")
	}
	jwtSigningKeyBytes, err := base64.StdEncoding.DecodeString(jwtSigningKey)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode jwt signing key to bytes")
	}
	tokenTTL, err := hoursFromEnv("TOKEN_TTL_HOURS", 7*24)
	if err != nil {
		return Config{}, err
	}
	adminTokenTTL, err := hoursFromEnv("ADMIN_TOKEN_TTL_HOURS", 8)
	if err != nil {
		return Config{}, err
	}
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		return Config{}, fmt.Errorf("ADMIN_EMAIL cannot be empty")
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		return Config{}, fmt.Errorf("ADMIN_PASSWORD cannot be empty")
	}
	cloudinaryURL := os.Getenv("CLOUDINARY_URL")
	if cloudinaryURL == "" {
		return Config{}, fmt.Errorf("CLOUDINARY_URL cannot be empty")
	}
	sentryDSN := os.Getenv("SENTRY_DSN")
	defaultProfilePic := os.Getenv("DEFAULT_PROFILE_PIC_URL")
	if defaultProfilePic == "" {
		defaultProfilePic = defaultProfilePicURL
	}
	allowedOrigins := []string{defaultAllowedOrigin}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		allowedOrigins = allowedOrigins[:0]
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	siteURL := strings.TrimRight(os.Getenv("SITE_URL"), "/")
	if siteURL == "" {
		siteURL = allowedOrigins[0]
	}
	maxUploadSizeMB := 5
	if v := os.Getenv("MAX_UPLOAD_SIZE_MB"); v != "" {
		maxUploadSizeMB, err = strconv.Atoi(v)
		if err != nil {
			return Config{}, errors.Wrap(err, "unable to convert MAX_UPLOAD_SIZE_MB to int")
		}
	}

	return Config{
		Port:                 port,
		DatabaseUser:         databaseUser,
		DatabasePassword:     databasePassword,
		DatabaseHost:         databaseHost,
		DatabasePort:         databasePort,
		DatabaseName:         databaseName,
		DatabaseSSLMode:      databaseSSLMode,
		JwtSigningKey:        jwtSigningKeyBytes,
		TokenTTL:             tokenTTL,
		AdminTokenTTL:        adminTokenTTL,
		AdminEmail:           strings.ToLower(adminEmail),
		AdminPassword:        adminPassword,
		Env:                  env,
		SentryDSN:            sentryDSN,
		CloudinaryURL:        cloudinaryURL,
		DefaultProfilePicURL: defaultProfilePic,
		AllowedOrigins:       allowedOrigins,
		SiteURL:              siteURL,
		MaxUploadSize:        int64(maxUploadSizeMB) * 1024 * 1024,
	}, nil
}

func hoursFromEnv(key string, fallback int) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(fallback) * time.Hour, nil
	}
	hours, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to convert %s to int", key)
	}
	if hours <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return time.Duration(hours) * time.Hour, nil
}
