package integration

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alexivanou/cityinfo-api/internal/cache"
	"github.com/alexivanou/cityinfo-api/internal/httpretry"
	"github.com/alexivanou/cityinfo-api/internal/model"
	"go.uber.org/zap"
)

const defaultCountriesBaseURL = "https://restcountries.com"

// RestCountriesClient resolves country names through the REST Countries API.
// Successful lookups are cached for the lifetime of the client.
type RestCountriesClient struct {
	http    *httpretry.Client
	baseURL string
	cache   *cache.Cache[string, model.CountryInfo]
	logger  *zap.Logger
}

// NewRestCountriesClient creates a client. An empty baseURL uses the public API.
func NewRestCountriesClient(http *httpretry.Client, baseURL string, countryCache *cache.Cache[string, model.CountryInfo], logger *zap.Logger) *RestCountriesClient {
	if baseURL == "" {
		baseURL = defaultCountriesBaseURL
	}
	if countryCache == nil {
		countryCache = cache.New[string, model.CountryInfo](24*time.Hour, 512)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RestCountriesClient{
		http:    http,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   countryCache,
		logger:  logger,
	}
}

type rcCountry struct {
	CCA2       string `json:"cca2"`
	CCA3       string `json:"cca3"`
	Currencies map[string]struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"currencies"`
	Capital    []string `json:"capital"`
	Region     string   `json:"region"`
	Population *int64   `json:"population"`
}

// LookupCountry resolves a full country name. Failures of any kind, including
// an unknown name, report false and are not cached.
func (c *RestCountriesClient) LookupCountry(ctx context.Context, name string) (model.CountryInfo, bool) {
	key := countryKey(name)
	if info, ok := c.cache.Get(key); ok {
		return info, true
	}

	endpoint := fmt.Sprintf("%s/v3.1/name/%s?fullText=true", c.baseURL, url.PathEscape(strings.TrimSpace(name)))

	var results []rcCountry
	if err := c.http.GetJSON(ctx, endpoint, &results); err != nil {
		c.logger.Warn("Country lookup failed", zap.String("country", name), zap.Error(err))
		return model.CountryInfo{}, false
	}
	if len(results) == 0 {
		c.logger.Info("Country not found", zap.String("country", name))
		return model.CountryInfo{}, false
	}

	info := toCountryInfo(results[0])
	c.cache.Set(key, info)
	return info, true
}

func countryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func toCountryInfo(rc rcCountry) model.CountryInfo {
	currencies := make(map[string]model.Currency, len(rc.Currencies))
	for code, cur := range rc.Currencies {
		currencies[code] = model.Currency{Name: cur.Name, Symbol: cur.Symbol}
	}
	return model.CountryInfo{
		CCA2:       rc.CCA2,
		CCA3:       rc.CCA3,
		Currencies: currencies,
		Capital:    rc.Capital,
		Region:     rc.Region,
		Population: rc.Population,
	}
}
