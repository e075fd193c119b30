package stats

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/alexivanou/cityinfo-api/internal/config"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Stats struct {
	Timestamp time.Time     `json:"timestamp"`
	Memory    MemoryStats   `json:"memory"`
	Database  DatabaseStats `json:"database"`
	Cache     CacheStats    `json:"cache"`
	Runtime   RuntimeStats  `json:"runtime"`
}

type MemoryStats struct {
	Alloc        uint64 `json:"alloc"`
	TotalAlloc   uint64 `json:"total_alloc"`
	Sys          uint64 `json:"sys"`
	NumGC        uint32 `json:"num_gc"`
	HeapAlloc    uint64 `json:"heap_alloc"`
	HeapSys      uint64 `json:"heap_sys"`
	HeapInuse    uint64 `json:"heap_inuse"`
	HeapReleased uint64 `json:"heap_released"`
}

type DatabaseStats struct {
	Type              string      `json:"type"`
	TotalRecords      int64       `json:"total_records"`
	SizeBytes         int64       `json:"size_bytes"`
	TableStats        []TableStat `json:"table_stats"`
	DistinctCountries int         `json:"distinct_countries"`
	RatedCities       int64       `json:"rated_cities"`
}

type TableStat struct {
	Name      string `json:"name"`
	RowCount  int64  `json:"row_count"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// CacheStats reports in-process caches. Absent sources report zero.
type CacheStats struct {
	CountryEntries     int `json:"country_entries"`
	RateLimitedClients int `json:"rate_limited_clients"`
}

// SizeReporter is anything that can report how many entries it holds
type SizeReporter interface {
	Len() int
}

type RuntimeStats struct {
	NumGoroutines int   `json:"num_goroutines"`
	NumCPU        int   `json:"num_cpu"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

type Collector struct {
	db         *sqlx.DB
	config     config.DBConfig
	countries  SizeReporter
	limiter    SizeReporter
	logger     *zap.Logger
	startTime  time.Time
	cachedMem  *MemoryStats
	cacheTime  time.Time
	cacheMutex sync.RWMutex
}

var (
	memStatsCacheDuration = 5 * time.Second
)

func NewCollector(db *sqlx.DB, cfg config.DBConfig) *Collector {
	return &Collector{
		db:        db,
		config:    cfg,
		logger:    zap.NewNop(),
		startTime: time.Now(),
	}
}

// WithLogger reports probes the database cannot answer at debug level
func (c *Collector) WithLogger(logger *zap.Logger) *Collector {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithCountryCache reports the size of the country cache in collected stats
func (c *Collector) WithCountryCache(countries SizeReporter) *Collector {
	c.countries = countries
	return c
}

// WithRateLimiter reports the number of tracked clients in collected stats
func (c *Collector) WithRateLimiter(limiter SizeReporter) *Collector {
	c.limiter = limiter
	return c
}

func (c *Collector) Collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Timestamp: time.Now(),
	}

	stats.Memory = c.collectMemoryStats()

	dbStats, err := c.collectDatabaseStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.Database = *dbStats
	stats.Cache = c.collectCacheStats()
	stats.Runtime = c.collectRuntimeStats()

	return stats, nil
}

func (c *Collector) collectMemoryStats() MemoryStats {
	c.cacheMutex.RLock()
	if c.cachedMem != nil && time.Since(c.cacheTime) < memStatsCacheDuration {
		mem := *c.cachedMem
		c.cacheMutex.RUnlock()
		return mem
	}
	c.cacheMutex.RUnlock()

	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mem := MemoryStats{
		Alloc:        m.Alloc,
		TotalAlloc:   m.TotalAlloc,
		Sys:          m.Sys,
		NumGC:        m.NumGC,
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		HeapInuse:    m.HeapInuse,
		HeapReleased: m.HeapReleased,
	}

	c.cachedMem = &mem
	c.cacheTime = time.Now()

	return mem
}

func (c *Collector) collectDatabaseStats(ctx context.Context) (*DatabaseStats, error) {
	stats := &DatabaseStats{
		Type:      string(c.config.Type),
		SizeBytes: c.databaseSize(ctx),
	}

	for _, table := range statTables {
		var rows int64
		if err := c.db.GetContext(ctx, &rows, "SELECT COUNT(*) FROM "+table); err != nil {
			c.logger.Debug("Skipping table stats", zap.String("table", table), zap.Error(err))
			continue
		}
		stats.TableStats = append(stats.TableStats, TableStat{
			Name:      table,
			RowCount:  rows,
			SizeBytes: c.tableSize(ctx, table),
		})
		stats.TotalRecords += rows
	}

	if countries, err := c.getDistinctCountriesCount(ctx); err == nil {
		stats.DistinctCountries = countries
	} else {
		c.logger.Warn("Failed to collect country stats", zap.Error(err))
	}
	if rated, err := c.getRatedCitiesCount(ctx); err == nil {
		stats.RatedCities = rated
	} else {
		c.logger.Warn("Failed to collect rating stats", zap.Error(err))
	}

	return stats, nil
}

var statTables = []string{"cities", "schema_migrations"}

func (c *Collector) isPostgres() bool {
	return c.config.Type == config.DBTypePostgreSQL
}

func (c *Collector) databaseSize(ctx context.Context) int64 {
	query := "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
	if c.isPostgres() {
		query = "SELECT pg_database_size(current_database())"
	}

	var size int64
	if err := c.db.GetContext(ctx, &size, query); err != nil {
		c.logger.Debug("Database size unavailable", zap.Error(err))
		return 0
	}
	return size
}

// tableSize reports 0 when the size cannot be read. SQLite only has the
// dbstat table when built with SQLITE_ENABLE_DBSTAT_VTAB.
func (c *Collector) tableSize(ctx context.Context, table string) int64 {
	query := "SELECT COALESCE(SUM(pgsize), 0) FROM dbstat WHERE name = ?"
	if c.isPostgres() {
		query = "SELECT COALESCE(pg_total_relation_size($1::regclass), 0)"
	}

	var size int64
	if err := c.db.GetContext(ctx, &size, query, table); err != nil {
		c.logger.Debug("Table size unavailable", zap.String("table", table), zap.Error(err))
		return 0
	}
	return size
}

func (c *Collector) getDistinctCountriesCount(ctx context.Context) (int, error) {
	// go_lower matches the case folding used by city search on SQLite
	lower := "go_lower"
	if c.isPostgres() {
		lower = "LOWER"
	}

	var count int
	err := c.db.GetContext(ctx, &count, "SELECT COUNT(DISTINCT "+lower+"(country)) FROM cities")
	if err != nil {
		return 0, fmt.Errorf("failed to count countries: %w", err)
	}
	return count, nil
}

func (c *Collector) getRatedCitiesCount(ctx context.Context) (int64, error) {
	var count int64
	err := c.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM cities WHERE tourist_rating > 0")
	if err != nil {
		return 0, fmt.Errorf("failed to count rated cities: %w", err)
	}
	return count, nil
}

func (c *Collector) collectCacheStats() CacheStats {
	var cs CacheStats
	if c.countries != nil {
		cs.CountryEntries = c.countries.Len()
	}
	if c.limiter != nil {
		cs.RateLimitedClients = c.limiter.Len()
	}
	return cs
}

func (c *Collector) collectRuntimeStats() RuntimeStats {
	uptime := time.Since(c.startTime).Seconds()
	return RuntimeStats{
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		UptimeSeconds: int64(uptime),
	}
}
