package callcontext

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voicedesk/openmic-bridge/internal/domain"
	"github.com/voicedesk/openmic-bridge/internal/repository"
	"github.com/voicedesk/openmic-bridge/pkg/logger"
	"go.uber.org/zap"
)

// ErrVisitorNotFound is returned by RecordCall when no visitor owns the correlation key
var ErrVisitorNotFound = errors.New("visitor not found")

// Service resolves the per-call context served to the voice platform and records finished calls.
// Reads degrade to fallback values on a miss; the write path fails explicitly.
type Service struct {
	repos          repository.RepositoryManager
	employees      repository.EmployeeRepository
	correlationKey string
}

// NewService creates a call context service bound to a single correlation key.
// Every inbound call is attributed to the visitor owning that key.
// employees serves getData lookups and may be a cache over repos.Employee().
func NewService(repos repository.RepositoryManager, employees repository.EmployeeRepository, correlationKey string) *Service {
	if employees == nil {
		employees = repos.Employee()
	}
	return &Service{
		repos:          repos,
		employees:      employees,
		correlationKey: correlationKey,
	}
}

// ResolvePrecallContext builds the dynamic variables injected at call start.
// The call event is accepted but not inspected.
func (s *Service) ResolvePrecallContext(ctx context.Context, event *domain.PrecallRequest) (*domain.DynamicVariables, error) {
	vars := &domain.DynamicVariables{
		CustomerName:    domain.GuestCustomerName,
		LastCallSummary: domain.NoCallHistorySummary,
	}

	visitor, err := s.repos.Visitor().GetByPhone(ctx, s.correlationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve visitor: %w", err)
	}
	if visitor == nil {
		logger.Debug(ctx, "No visitor for correlation key, using guest context", zap.String("correlation_key", s.correlationKey))
		return vars, nil
	}
	vars.CustomerName = visitor.Name

	last, err := s.repos.Call().LatestForVisitor(ctx, visitor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve last call: %w", err)
	}
	if last != nil {
		vars.LastCallSummary = ComposeLastCallSummary(last)
	}
	return vars, nil
}

// ComposeLastCallSummary renders the sentence spoken about a visitor's previous call
func ComposeLastCallSummary(call *domain.CallSnapshot) string {
	summary := call.Summary
	if summary == "" {
		summary = domain.EmptySummaryPlaceholder
	}

	sentence := "visitor visited Support. Summary: " + summary
	if call.ArrivalTime == nil || call.ArrivalTime.IsZero() {
		return sentence
	}
	return fmt.Sprintf("On %s, %s", call.ArrivalTime.UTC().Format(domain.PrecallDateLayout), sentence)
}

// ResolveEmployee returns the speakable employee fields, falling back to defaults when the id is unknown
func (s *Service) ResolveEmployee(ctx context.Context, employeeID uint) (*domain.EmployeeSummary, error) {
	result := &domain.EmployeeSummary{EmployeeName: domain.UnknownEmployeeName}

	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve employee: %w", err)
	}
	if employee == nil {
		logger.Debug(ctx, "Employee not found, using defaults", zap.Uint("employee_id", employeeID))
		return result, nil
	}

	if employee.Name != "" {
		result.EmployeeName = employee.Name
	}
	result.EmployeeLocation = employee.Location
	result.EmployeeDepartment = employee.Department
	return result, nil
}

// RecordCall appends the finished call to the current visitor's history.
// When req.CallID is set, a repeated delivery of the same call is acknowledged without a second row.
// The visitor lookup, the duplicate check and the insert share one transaction.
func (s *Service) RecordCall(ctx context.Context, req *domain.PostcallRequest) error {
	var call *domain.Call
	err := s.repos.WithTx(ctx, func(ctx context.Context, tx repository.RepositoryManager) error {
		visitor, err := tx.Visitor().GetByPhone(ctx, s.correlationKey)
		if err != nil {
			return fmt.Errorf("failed to resolve visitor: %w", err)
		}
		if visitor == nil {
			return ErrVisitorNotFound
		}

		call = &domain.Call{
			Summary:     req.Summary,
			ArrivalTime: req.CreatedAt.Ptr(),
			VisitorID:   visitor.ID,
		}

		if req.CallID != "" {
			exists, err := tx.Call().ExistsByExternalID(ctx, req.CallID)
			if err != nil {
				return err
			}
			if exists {
				return repository.ErrDuplicateCall
			}
			externalID := req.CallID
			call.ExternalCallID = &externalID
		}

		return tx.Call().Append(ctx, call)
	})
	if err != nil {
		// Also covers losing the race against a concurrent delivery of the same call
		if errors.Is(err, repository.ErrDuplicateCall) {
			logger.Info(ctx, "Call already recorded, skipping", zap.String("call_id", req.CallID))
			return nil
		}
		return err
	}

	logger.Info(ctx, "Call recorded",
		zap.Uint("visitor_id", call.VisitorID),
		zap.Uint("call_id", call.ID),
		zap.Time("recorded_at", call.CreatedAt.Truncate(time.Millisecond)))
	return nil
}
