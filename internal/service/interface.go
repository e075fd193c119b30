package service

import (
	"context"

	"github.com/alexivanou/cityinfo-api/internal/model"
)

// ServiceInterface defines the service interface for testing
type ServiceInterface interface {
	CreateCity(ctx context.Context, req model.CreateCityRequest) (*model.City, error)
	UpdateCity(ctx context.Context, id string, req model.UpdateCityRequest) (*model.City, error)
	DeleteCity(ctx context.Context, id string) error
	SearchCities(ctx context.Context, name string) ([]model.CitySearchResult, error)
	GetCityByID(ctx context.Context, id string) (*model.City, error)
}

// CountryDirectory resolves a country name to its metadata
type CountryDirectory interface {
	LookupCountry(ctx context.Context, name string) (model.CountryInfo, bool)
}

// WeatherProvider resolves current weather for a city in a country (ISO alpha-2 code)
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, city, countryCode string) (model.WeatherInfo, bool)
}
