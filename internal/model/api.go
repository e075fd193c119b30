package model

// CreateCityRequest is the body of POST /api/cities.
// Ratings decode as numbers so that 4.0 is accepted and 4.5 fails validation.
type CreateCityRequest struct {
	Name          string   `json:"name" validate:"required"`
	Country       string   `json:"country" validate:"required"`
	TouristRating *float64 `json:"touristRating" validate:"omitempty,whole,min=0,max=5"`
}

// UpdateCityRequest is the body of PATCH /api/cities/{id}
type UpdateCityRequest struct {
	TouristRating *float64 `json:"touristRating" validate:"required,whole,min=0,max=5"`
}

// SearchRequest carries the search query parameters
type SearchRequest struct {
	Name string `json:"name" validate:"required"`
}

// CitySearchResult is a city enriched with live country and weather data
type CitySearchResult struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Country       string       `json:"country"`
	TouristRating int          `json:"touristRating"`
	CountryInfo   *CountryInfo `json:"countryInfo"`
	Weather       *WeatherInfo `json:"weather"`
}

// SearchResponse represents the response for city search
type SearchResponse struct {
	Results []CitySearchResult `json:"results"`
}

// ErrorBody is the payload of every error response
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse wraps ErrorBody under the "error" key
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
