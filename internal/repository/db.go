package repository

import (
	"context"
	"time"

	"github.com/voicedesk/openmic-bridge/internal/domain"
	"gorm.io/gorm"
)

// VisitorRepository defines the interface for visitor lookups
type VisitorRepository interface {
	// GetByPhone returns nil, nil when no visitor owns the phone key
	GetByPhone(ctx context.Context, phone string) (*domain.Visitor, error)
	FirstOrCreate(ctx context.Context, visitor *domain.Visitor) (*domain.Visitor, error)
}

// EmployeeRepository defines the interface for employee directory lookups
type EmployeeRepository interface {
	// GetByID returns nil, nil when the employee does not exist
	GetByID(ctx context.Context, id uint) (*domain.Employee, error)
}

// CallRepository defines the append-only call log.
// There is intentionally no update or delete path.
type CallRepository interface {
	Append(ctx context.Context, call *domain.Call) error
	// LatestForVisitor returns the call with the greatest created_at, or nil, nil when there is none
	LatestForVisitor(ctx context.Context, visitorID uint) (*domain.CallSnapshot, error)
	ExistsByExternalID(ctx context.Context, externalCallID string) (bool, error)
}

// RepositoryManager combines all repositories
type RepositoryManager interface {
	Visitor() VisitorRepository
	Employee() EmployeeRepository
	Call() CallRepository

	// Transaction support
	WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connection
	Close() error
}

// GormRepositoryManager implements RepositoryManager using GORM
type GormRepositoryManager struct {
	db           *gorm.DB
	visitorRepo  *GormVisitorRepository
	employeeRepo *GormEmployeeRepository
	callRepo     *GormCallRepository
}

// NewGormRepositoryManager creates a new GORM repository manager over a single store handle
func NewGormRepositoryManager(db *gorm.DB) *GormRepositoryManager {
	return newGormRepositoryManager(db, time.Now)
}

func newGormRepositoryManager(db *gorm.DB, now func() time.Time) *GormRepositoryManager {
	return &GormRepositoryManager{
		db:           db,
		visitorRepo:  NewGormVisitorRepository(db),
		employeeRepo: NewGormEmployeeRepository(db),
		callRepo:     newGormCallRepository(db, now),
	}
}

// Visitor returns the visitor repository
func (m *GormRepositoryManager) Visitor() VisitorRepository {
	return m.visitorRepo
}

// Employee returns the employee repository
func (m *GormRepositoryManager) Employee() EmployeeRepository {
	return m.employeeRepo
}

// Call returns the call repository
func (m *GormRepositoryManager) Call() CallRepository {
	return m.callRepo
}

// WithTx executes a function within a database transaction
func (m *GormRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryManager) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, newGormRepositoryManager(tx, m.callRepo.now))
	})
}

// Ping checks the database connection
func (m *GormRepositoryManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (m *GormRepositoryManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
