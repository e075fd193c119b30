package service

import (
	"context"
	"strings"

	"github.com/alexivanou/cityinfo-api/internal/model"
)

type lookupState int

const (
	notLooked lookupState = iota
	resolved
	resolvedAbsent
)

type countryLookup struct {
	state lookupState
	info  model.CountryInfo
}

// countryMemo remembers country lookups for the duration of one search so
// that rows sharing a country trigger a single lookup, including misses.
type countryMemo struct {
	directory CountryDirectory
	entries   map[string]countryLookup
}

func newCountryMemo(directory CountryDirectory) *countryMemo {
	return &countryMemo{
		directory: directory,
		entries:   make(map[string]countryLookup),
	}
}

// resolve returns the country metadata, or nil when the country is unknown
func (m *countryMemo) resolve(ctx context.Context, country string) *model.CountryInfo {
	key := strings.ToLower(country)

	entry := m.entries[key]
	if entry.state == notLooked {
		if info, ok := m.directory.LookupCountry(ctx, country); ok {
			entry = countryLookup{state: resolved, info: info}
		} else {
			entry = countryLookup{state: resolvedAbsent}
		}
		m.entries[key] = entry
	}

	if entry.state != resolved {
		return nil
	}
	info := entry.info
	return &info
}
