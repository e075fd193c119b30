package service

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/alexivanou/cityinfo-api/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Config tunes the enrichment behaviour of the service
type Config struct {
	// EnrichmentTimeout bounds all third-party lookups of a single request.
	// Zero means no bound beyond the caller's context.
	EnrichmentTimeout time.Duration
}

// Service provides business logic for the API
type Service struct {
	cityRepo  repository.CityRepository
	countries CountryDirectory
	weather   WeatherProvider
	validate  *validator.Validate
	cfg       Config
	logger    *zap.Logger
}

// NewService creates a new service instance
func NewService(
	cityRepo repository.CityRepository,
	countries CountryDirectory,
	weather WeatherProvider,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cityRepo:  cityRepo,
		countries: countries,
		weather:   weather,
		validate:  newValidator(),
		cfg:       cfg,
		logger:    logger,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names rather than Go ones
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// whole accepts numbers without a fractional part
	_ = v.RegisterValidation("whole", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsInf(f, 0) && f == math.Trunc(f)
	})
	return v
}

// ratingValue converts a validated rating
func ratingValue(rating *float64) *int {
	if rating == nil {
		return nil
	}
	v := int(*rating)
	return &v
}

// validateStruct returns a BAD_REQUEST error describing every failed field
func (s *Service) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return NewValidationError(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "whole":
		return "must be an integer"
	default:
		return "is invalid"
	}
}

// enrichmentContext derives the context used for third-party lookups
func (s *Service) enrichmentContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.EnrichmentTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.EnrichmentTimeout)
	}
	return ctx, func() {}
}
