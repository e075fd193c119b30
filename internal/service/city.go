package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexivanou/cityinfo-api/internal/model"
	"github.com/alexivanou/cityinfo-api/internal/repository"
	"go.uber.org/zap"
)

const searchLimit = 20

// CreateCity validates the request, confirms the country and the city exist
// upstream, then stores the city. Nothing is written when a check fails.
func (s *Service) CreateCity(ctx context.Context, req model.CreateCityRequest) (*model.City, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	lookupCtx, cancel := s.enrichmentContext(ctx)
	defer cancel()

	countryInfo, ok := s.countries.LookupCountry(lookupCtx, req.Country)
	if !ok {
		s.logger.Info("Rejected city with unknown country", zap.String("country", req.Country))
		return nil, errInvalidCountry(req.Country)
	}

	// The weather lookup doubles as a check that the city exists in that country
	if _, ok := s.weather.CurrentWeather(lookupCtx, req.Name, countryInfo.CCA2); !ok {
		s.logger.Info("Rejected city not found in country",
			zap.String("name", req.Name),
			zap.String("country", req.Country),
		)
		return nil, errCityNotFoundInCountry(req.Name, req.Country)
	}

	city, err := s.cityRepo.Create(ctx, model.NewCity{
		Name:          req.Name,
		Country:       req.Country,
		TouristRating: ratingValue(req.TouristRating),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, errDuplicateCity(req.Name, req.Country)
		}
		return nil, err
	}

	s.logger.Info("City created", zap.String("id", city.ID), zap.String("name", city.Name))
	return city, nil
}

// UpdateCity changes the tourist rating of a city
func (s *Service) UpdateCity(ctx context.Context, id string, req model.UpdateCityRequest) (*model.City, error) {
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	city, err := s.cityRepo.UpdateRating(ctx, id, *ratingValue(req.TouristRating))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("Failed to update city", zap.String("id", id), zap.Error(err))
		}
		return nil, ErrCityNotFound
	}
	return city, nil
}

// DeleteCity removes a city
func (s *Service) DeleteCity(ctx context.Context, id string) error {
	if err := s.cityRepo.Delete(ctx, id); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("Failed to delete city", zap.String("id", id), zap.Error(err))
		}
		return ErrCityNotFound
	}
	return nil
}

// SearchCities finds up to 20 cities whose name contains the query and
// enriches each with country metadata and current weather. Lookups are
// best-effort: a failure only leaves the matching field empty.
func (s *Service) SearchCities(ctx context.Context, name string) ([]model.CitySearchResult, error) {
	if err := s.validateStruct(model.SearchRequest{Name: name}); err != nil {
		return nil, err
	}

	cities, err := s.cityRepo.SearchByName(ctx, name, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search cities: %w", err)
	}

	results := make([]model.CitySearchResult, 0, len(cities))
	if len(cities) == 0 {
		return results, nil
	}

	lookupCtx, cancel := s.enrichmentContext(ctx)
	defer cancel()

	memo := newCountryMemo(s.countries)
	for _, city := range cities {
		countryInfo := memo.resolve(lookupCtx, city.Country)

		var countryCode string
		if countryInfo != nil {
			countryCode = countryInfo.CCA2
		}

		var weather *model.WeatherInfo
		if w, ok := s.weather.CurrentWeather(lookupCtx, city.Name, countryCode); ok {
			weather = &w
		}

		results = append(results, model.CitySearchResult{
			ID:            city.ID,
			Name:          city.Name,
			Country:       city.Country,
			TouristRating: city.TouristRating,
			CountryInfo:   countryInfo,
			Weather:       weather,
		})
	}

	return results, nil
}

// GetCityByID retrieves a single stored city
func (s *Service) GetCityByID(ctx context.Context, id string) (*model.City, error) {
	city, err := s.cityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get city: %w", err)
	}
	if city == nil {
		return nil, ErrCityNotFound
	}
	return city, nil
}
