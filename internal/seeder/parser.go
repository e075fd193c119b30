package seeder

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alexivanou/cityinfo-api/internal/config"
	"github.com/alexivanou/cityinfo-api/internal/model"
)

const defaultBatchSize = 500

// Parser reads the seed file: tab-separated name, country and an optional
// tourist rating, one city per line. Lines starting with '#' are comments.
type Parser struct {
	dataFile  string
	batchSize int
}

// NewParser creates a new parser instance with config
func NewParser(seederCfg config.SeederConfig) *Parser {
	batchSize := seederCfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Parser{
		dataFile:  seederCfg.DataFile,
		batchSize: batchSize,
	}
}

// ParseResult holds the parsed cities and the number of lines skipped as malformed
type ParseResult struct {
	Cities  []model.NewCity
	Skipped int
}

// ParseCities parses the seed file. A .zip archive is read from its first .txt or .tsv entry.
func (p *Parser) ParseCities() (*ParseResult, error) {
	if strings.HasSuffix(p.dataFile, ".zip") {
		return p.parseCitiesFromZip(p.dataFile)
	}

	file, err := os.Open(p.dataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p.dataFile, err)
	}
	defer file.Close()

	return p.parseCitiesFromReader(file)
}

func (p *Parser) parseCitiesFromZip(zipPath string) (*ParseResult, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if strings.HasSuffix(f.Name, ".txt") || strings.HasSuffix(f.Name, ".tsv") {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open file in zip: %w", err)
			}
			defer rc.Close()
			return p.parseCitiesFromReader(rc)
		}
	}

	return nil, fmt.Errorf("no txt or tsv file found in zip")
}

func (p *Parser) parseCitiesFromReader(reader io.Reader) (*ParseResult, error) {
	scanner := bufio.NewScanner(reader)
	result := &ParseResult{}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		// Skip comments and blank lines
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		city, ok := parseLine(line)
		if !ok {
			result.Skipped++
			continue
		}
		result.Cities = append(result.Cities, city)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan cities: %w", err)
	}

	return result, nil
}

func parseLine(line string) (model.NewCity, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) < 2 {
		return model.NewCity{}, false
	}

	name := strings.TrimSpace(parts[0])
	country := strings.TrimSpace(parts[1])
	if name == "" || country == "" {
		return model.NewCity{}, false
	}

	city := model.NewCity{Name: name, Country: country}
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		rating, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || rating < 0 || rating > 5 {
			return model.NewCity{}, false
		}
		city.TouristRating = &rating
	}
	return city, true
}

// Batches splits cities into chunks of the configured batch size
func (p *Parser) Batches(cities []model.NewCity) [][]model.NewCity {
	var batches [][]model.NewCity
	for start := 0; start < len(cities); start += p.batchSize {
		end := start + p.batchSize
		if end > len(cities) {
			end = len(cities)
		}
		batches = append(batches, cities[start:end])
	}
	return batches
}
