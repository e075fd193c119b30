package model

import "time"

// City represents a city in the database
type City struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Country       string    `json:"country" db:"country"`
	TouristRating int       `json:"touristRating" db:"tourist_rating"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// NewCity is the record handed to the store on creation.
// A nil TouristRating leaves the column default in place.
type NewCity struct {
	Name          string
	Country       string
	TouristRating *int
}

// Currency describes one currency used by a country
type Currency struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol,omitempty"`
}

// CountryInfo is country metadata resolved from the country directory
type CountryInfo struct {
	CCA2       string              `json:"cca2"`
	CCA3       string              `json:"cca3"`
	Currencies map[string]Currency `json:"currencies"`
	Capital    []string            `json:"capital,omitempty"`
	Region     string              `json:"region,omitempty"`
	Population *int64              `json:"population,omitempty"`
}

// WeatherInfo is the current weather for a city
type WeatherInfo struct {
	TempC       float64 `json:"tempC"`
	FeelsLikeC  float64 `json:"feelsLikeC"`
	Humidity    float64 `json:"humidity"`
	Description string  `json:"description"`
}
