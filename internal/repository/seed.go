package repository

import (
	"context"
	"fmt"

	"github.com/voicedesk/openmic-bridge/internal/domain"
	"gorm.io/gorm"
)

// SeedVisitorName is the visitor provisioned for the default correlation key
const SeedVisitorName = "Shashwat Singh"

// SeedEmployees is the fixed employee directory provisioned by the seeder.
// Insertion order fixes their IDs on an empty database (Amit Verma is 3).
var SeedEmployees = []domain.Employee{
	{Name: "Rohan Sharma", Department: "Engineering", Location: "Bengaluru, Tower A, 5th Floor"},
	{Name: "Priya Iyer", Department: "Marketing", Location: "Mumbai, Tower B, 3rd Floor"},
	{Name: "Amit Verma", Department: "Sales", Location: "Delhi, Tower A, Ground Floor"},
	{Name: "Neha Gupta", Department: "HR", Location: "Gurugram, Tower C, 2nd Floor"},
	{Name: "Arjun Reddy", Department: "Finance", Location: "Hyderabad, Tower B, 4th Floor"},
}

// SeedResult reports what the seeder provisioned
type SeedResult struct {
	Visitor   *domain.Visitor
	Employees []domain.Employee
}

// SeedDirectory provisions the default visitor and the employee directory.
// It is safe to run repeatedly: existing rows are matched by phone and by name.
func SeedDirectory(ctx context.Context, db *gorm.DB, correlationKey string) (*SeedResult, error) {
	if correlationKey == "" {
		return nil, fmt.Errorf("correlation key cannot be empty")
	}

	result := &SeedResult{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		visitor, err := NewGormVisitorRepository(tx).FirstOrCreate(ctx, &domain.Visitor{
			Name:  SeedVisitorName,
			Phone: correlationKey,
		})
		if err != nil {
			return err
		}
		result.Visitor = visitor

		for _, seed := range SeedEmployees {
			var employee domain.Employee
			if err := tx.Where(domain.Employee{Name: seed.Name}).
				Attrs(domain.Employee{Department: seed.Department, Location: seed.Location}).
				FirstOrCreate(&employee).Error; err != nil {
				return fmt.Errorf("failed to seed employee %s: %w", seed.Name, err)
			}
			result.Employees = append(result.Employees, employee)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
