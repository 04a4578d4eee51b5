package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/jsamuelsen/fee-quotation-service/internal/domain"
	"github.com/jsamuelsen/fee-quotation-service/internal/ports"
)

// DefaultConfigurationTTL bounds how long a configuration may be served stale
// when another instance saved it.
const DefaultConfigurationTTL = 5 * time.Minute

// ConfigurationRepository caches ConfigFor lookups in front of another
// repository. Save writes through and drops the cached entry. Cache failures
// are logged and never fail the call.
type ConfigurationRepository struct {
	next   ports.ConfigurationRepository
	cache  ports.Cache
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.ConfigurationRepository = (*ConfigurationRepository)(nil)

// NewConfigurationRepository wraps next. A zero ttl uses DefaultConfigurationTTL.
func NewConfigurationRepository(next ports.ConfigurationRepository, cache ports.Cache, ttl time.Duration, logger *slog.Logger) *ConfigurationRepository {
	if ttl <= 0 {
		ttl = DefaultConfigurationTTL
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ConfigurationRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "cache.ConfigurationRepository")),
	}
}

func configKey(journalID int64) string {
	return "fee-quotation:config:" + strconv.FormatInt(journalID, 10)
}

// ConfigFor returns the cached configuration or loads and caches it.
// Missing configurations are not cached.
func (r *ConfigurationRepository) ConfigFor(ctx context.Context, journalID int64) (*domain.QuotationConfiguration, error) {
	key := configKey(journalID)

	raw, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var cfg domain.QuotationConfiguration
		if jsonErr := json.Unmarshal(raw, &cfg); jsonErr == nil {
			return &cfg, nil
		}

		r.logger.WarnContext(ctx, "discarding undecodable cache entry", slog.String("key", key))
	case !domain.IsNotFound(err):
		r.logger.WarnContext(ctx, "configuration cache read failed", slog.Any("error", err))
	}

	cfg, err := r.next.ConfigFor(ctx, journalID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(cfg); err == nil {
		if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
			r.logger.WarnContext(ctx, "configuration cache write failed", slog.Any("error", err))
		}
	}

	return cfg, nil
}

// Save stores cfg and invalidates its cache entry.
func (r *ConfigurationRepository) Save(ctx context.Context, cfg *domain.QuotationConfiguration) error {
	if err := r.next.Save(ctx, cfg); err != nil {
		return err
	}

	if err := r.cache.Delete(ctx, configKey(cfg.JournalID)); err != nil {
		r.logger.WarnContext(ctx, "configuration cache invalidation failed",
			slog.Int64("journal_id", cfg.JournalID),
			slog.Any("error", err),
		)
	}

	return nil
}
