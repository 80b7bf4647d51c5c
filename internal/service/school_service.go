package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"shikshaleap/internal/database"
	"shikshaleap/internal/models"
	"shikshaleap/internal/repository"
)

const (
	minSearchRunes   = 3
	schoolSearchSize = 20
)

// SchoolService serves the UDISE school directory
type SchoolService struct {
	db         *database.DB
	schoolRepo *repository.SchoolRepository
}

// NewSchoolService creates a new school service
func NewSchoolService(db *database.DB) *SchoolService {
	return &SchoolService{
		db:         db,
		schoolRepo: repository.NewSchoolRepository(db),
	}
}

// Lookup returns the school with the given UDISE code
func (s *SchoolService) Lookup(ctx context.Context, code string) (*models.School, error) {
	school, err := s.schoolRepo.GetSchoolByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if school == nil {
		return nil, ErrSchoolNotFound
	}
	return school, nil
}

// Search matches q against code, name and district. Queries shorter than
// three characters return an empty list.
func (s *SchoolService) Search(ctx context.Context, q string) ([]models.School, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < minSearchRunes {
		return []models.School{}, nil
	}
	return s.schoolRepo.SearchSchools(ctx, q, schoolSearchSize)
}

// ImportCSV replaces the directory with the rows of a CSV feed. The header
// must name UDISE_Code, School_Name, District and Block; Category, Area and
// Management are optional. It returns the number of schools stored.
func (s *SchoolService) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		// Excel exports start with a byte order mark
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		columns[strings.ToLower(name)] = i
	}
	for _, required := range []string{"udise_code", "school_name", "district", "block"} {
		if _, ok := columns[required]; !ok {
			return 0, fmt.Errorf("CSV header is missing column %s", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var schools []models.School
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read CSV: %w", err)
		}

		school := models.School{
			UdiseCode:  field(record, "udise_code"),
			SchoolName: field(record, "school_name"),
			District:   field(record, "district"),
			Block:      field(record, "block"),
			Category:   field(record, "category"),
			Area:       field(record, "area"),
			Management: field(record, "management"),
		}
		if school.UdiseCode == "" {
			line, _ := reader.FieldPos(0)
			return 0, fmt.Errorf("CSV line %d has no UDISE code", line)
		}
		schools = append(schools, school)
	}

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		repo := s.schoolRepo.WithTx(tx)
		if err := repo.DeleteAllSchools(ctx); err != nil {
			return err
		}
		for _, school := range schools {
			if err := repo.CreateSchool(ctx, school); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(schools), nil
}
