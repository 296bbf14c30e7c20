package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Service holds process-level settings.
type Service struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" default:"development"`
	APIPort     string `envconfig:"SERVICE_API_PORT" default:"8080"`
	// AdminToken guards the HTTP surface. It is injected here and passed
	// down explicitly, never read from ambient process state elsewhere.
	AdminToken string `envconfig:"SERVICE_ADMIN_TOKEN" required:"true"`
}

// Database holds relational store settings.
type Database struct {
	URL string `envconfig:"DATABASE_URL" required:"true"`
}

// ObjectStore holds S3-compatible store settings. Endpoint is empty for real
// AWS and set for local MinIO/RustFS-style deployments.
type ObjectStore struct {
	Endpoint            string `envconfig:"S3_ENDPOINT"`
	Region              string `envconfig:"S3_REGION" default:"us-east-1"`
	AccessKey           string `envconfig:"S3_ACCESS_KEY"`
	SecretKey           string `envconfig:"S3_SECRET_KEY"`
	Bucket              string `envconfig:"S3_BUCKET" required:"true"`
	KeyPrefix           string `envconfig:"S3_KEY_PREFIX" default:"att/"`
	PresignMaxExpirySec int    `envconfig:"S3_PRESIGN_MAX_EXPIRY_SEC" default:"3600"`
}

// Limits bounds user-supplied data.
type Limits struct {
	TitleMaxLen         int      `envconfig:"LIMIT_TITLE_MAX_LEN" default:"200"`
	DescriptionMaxLen   int      `envconfig:"LIMIT_DESCRIPTION_MAX_LEN" default:"10000"`
	TagsMaxCount        int      `envconfig:"LIMIT_TAGS_MAX_COUNT" default:"20"`
	TagMaxLen           int      `envconfig:"LIMIT_TAG_MAX_LEN" default:"50"`
	MetadataMaxKeys     int      `envconfig:"LIMIT_METADATA_MAX_KEYS" default:"50"`
	MetadataMaxBytes    int      `envconfig:"LIMIT_METADATA_MAX_BYTES" default:"16384"`
	FileMaxBytes        int64    `envconfig:"LIMIT_FILE_MAX_BYTES" default:"10485760"`
	AttachmentsPerEvent int      `envconfig:"LIMIT_ATTACHMENTS_PER_EVENT" default:"10"`
	PageSizeMax         int      `envconfig:"LIMIT_PAGE_SIZE_MAX" default:"200"`
	AllowedContentTypes []string `envconfig:"LIMIT_ALLOWED_CONTENT_TYPES" default:"image/jpeg,image/png,image/webp,application/pdf,text/plain,text/markdown,text/csv,video/mp4"`
}

// Search holds query behavior toggles.
type Search struct {
	// TagMatchMode is "all" (every requested tag must be present) or "any".
	TagMatchMode string `envconfig:"SEARCH_TAG_MATCH_MODE" default:"all"`
}

// Reconciler holds background sweep settings.
type Reconciler struct {
	SweepIntervalSec int    `envconfig:"RECONCILER_SWEEP_INTERVAL_SEC" default:"900"`
	GracePeriodSec   int    `envconfig:"RECONCILER_GRACE_PERIOD_SEC" default:"3600"`
	HealthCheckPort  string `envconfig:"RECONCILER_HEALTH_CHECK_PORT" default:"8081"`
}

type Config struct {
	Service     Service
	Database    Database
	ObjectStore ObjectStore
	Limits      Limits
	Search      Search
	Reconciler  Reconciler
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

// SweepInterval returns the reconciler period as a duration.
func (r Reconciler) SweepInterval() time.Duration {
	return time.Duration(r.SweepIntervalSec) * time.Second
}

// GracePeriod returns the orphan grace window as a duration.
func (r Reconciler) GracePeriod() time.Duration {
	return time.Duration(r.GracePeriodSec) * time.Second
}

// PresignMaxExpiry returns the presign ceiling as a duration.
func (o ObjectStore) PresignMaxExpiry() time.Duration {
	return time.Duration(o.PresignMaxExpirySec) * time.Second
}
