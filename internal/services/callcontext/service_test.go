package callcontext

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicedesk/openmic-bridge/internal/domain"
	"github.com/voicedesk/openmic-bridge/internal/repository"
)

// memoryStore is an in-memory RepositoryManager. Transactions roll back the call log on error.
type memoryStore struct {
	visitors  map[string]*domain.Visitor
	employees map[uint]*domain.Employee
	calls     []domain.Call
	clock     time.Time
	err       error
	txCount   int
	// staleReads hides recorded call ids from ExistsByExternalID, as a concurrent writer would
	staleReads bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		visitors:  make(map[string]*domain.Visitor),
		employees: make(map[uint]*domain.Employee),
		clock:     time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memoryStore) Visitor() repository.VisitorRepository   { return memoryVisitors{m} }
func (m *memoryStore) Employee() repository.EmployeeRepository { return memoryEmployees{m} }
func (m *memoryStore) Call() repository.CallRepository         { return memoryCalls{m} }
func (m *memoryStore) Ping(ctx context.Context) error          { return m.err }
func (m *memoryStore) Close() error                            { return nil }

func (m *memoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.RepositoryManager) error) error {
	m.txCount++
	snapshot := len(m.calls)
	if err := fn(ctx, m); err != nil {
		m.calls = m.calls[:snapshot]
		return err
	}
	return nil
}

type memoryVisitors struct{ s *memoryStore }
type memoryEmployees struct{ s *memoryStore }
type memoryCalls struct{ s *memoryStore }

func (m memoryVisitors) GetByPhone(ctx context.Context, phone string) (*domain.Visitor, error) {
	if m.s.err != nil {
		return nil, m.s.err
	}
	return m.s.visitors[phone], nil
}

func (m memoryVisitors) FirstOrCreate(ctx context.Context, visitor *domain.Visitor) (*domain.Visitor, error) {
	if v, ok := m.s.visitors[visitor.Phone]; ok {
		return v, nil
	}
	v := &domain.Visitor{ID: uint(len(m.s.visitors) + 1), Name: visitor.Name, Phone: visitor.Phone}
	m.s.visitors[v.Phone] = v
	return v, nil
}

func (m memoryEmployees) GetByID(ctx context.Context, id uint) (*domain.Employee, error) {
	if m.s.err != nil {
		return nil, m.s.err
	}
	return m.s.employees[id], nil
}

func (m memoryCalls) Append(ctx context.Context, call *domain.Call) error {
	if m.s.err != nil {
		return m.s.err
	}
	if call.ExternalCallID != nil {
		for _, c := range m.s.calls {
			if c.ExternalCallID != nil && *c.ExternalCallID == *call.ExternalCallID {
				return repository.ErrDuplicateCall
			}
		}
	}
	m.s.clock = m.s.clock.Add(time.Second)
	call.ID = uint(len(m.s.calls) + 1)
	call.CreatedAt = m.s.clock
	m.s.calls = append(m.s.calls, *call)
	return nil
}

func (m memoryCalls) LatestForVisitor(ctx context.Context, visitorID uint) (*domain.CallSnapshot, error) {
	if m.s.err != nil {
		return nil, m.s.err
	}
	var owned []domain.Call
	for _, c := range m.s.calls {
		if c.VisitorID == visitorID {
			owned = append(owned, c)
		}
	}
	if len(owned) == 0 {
		return nil, nil
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].ID > owned[j].ID
		}
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	return &domain.CallSnapshot{Summary: owned[0].Summary, ArrivalTime: owned[0].ArrivalTime}, nil
}

func (m memoryCalls) ExistsByExternalID(ctx context.Context, externalCallID string) (bool, error) {
	if m.s.staleReads {
		return false, nil
	}
	for _, c := range m.s.calls {
		if c.ExternalCallID != nil && *c.ExternalCallID == externalCallID {
			return true, nil
		}
	}
	return false, nil
}

func newTestService(store *memoryStore) *Service {
	return NewService(store, nil, "web_call")
}

func seededStore() *memoryStore {
	store := newMemoryStore()
	store.visitors["web_call"] = &domain.Visitor{ID: 1, Name: "Shashwat Singh", Phone: "web_call"}
	store.employees[3] = &domain.Employee{ID: 3, Name: "Amit Verma", Department: "Sales", Location: "Delhi, Tower A, Ground Floor"}
	return store
}

func timePtr(t time.Time) *time.Time { return &t }

func TestResolvePrecallContext_PriorCall(t *testing.T) {
	store := seededStore()
	store.calls = append(store.calls, domain.Call{
		ID: 1, VisitorID: 1, Summary: "Router issue",
		ArrivalTime: timePtr(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)),
		CreatedAt:   time.Date(2024, 1, 5, 0, 5, 0, 0, time.UTC),
	})

	vars, err := newTestService(store).ResolvePrecallContext(context.Background(), &domain.PrecallRequest{})

	require.NoError(t, err)
	assert.Equal(t, "Shashwat Singh", vars.CustomerName)
	assert.Equal(t, "On Fri Jan 05 2024, visitor visited Support. Summary: Router issue", vars.LastCallSummary)
}

func TestResolvePrecallContext_NoCalls(t *testing.T) {
	vars, err := newTestService(seededStore()).ResolvePrecallContext(context.Background(), &domain.PrecallRequest{})

	require.NoError(t, err)
	assert.Equal(t, "Shashwat Singh", vars.CustomerName)
	assert.Equal(t, "No previous call history available.", vars.LastCallSummary)
}

func TestResolvePrecallContext_NoVisitor(t *testing.T) {
	vars, err := newTestService(newMemoryStore()).ResolvePrecallContext(context.Background(), &domain.PrecallRequest{})

	require.NoError(t, err)
	assert.Equal(t, "Guest", vars.CustomerName)
	assert.Equal(t, "No previous call history available.", vars.LastCallSummary)
}

func TestResolvePrecallContext_MostRecentByInsertionNotArrival(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)
	ctx := context.Background()

	// Recorded first but claims the later arrival time
	require.NoError(t, svc.RecordCall(ctx, &domain.PostcallRequest{
		Summary:   "Skewed clock",
		CreatedAt: &domain.FlexibleTime{Time: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)},
	}))
	require.NoError(t, svc.RecordCall(ctx, &domain.PostcallRequest{
		Summary:   "Billing question",
		CreatedAt: &domain.FlexibleTime{Time: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)},
	}))

	vars, err := svc.ResolvePrecallContext(ctx, &domain.PrecallRequest{})

	require.NoError(t, err)
	assert.Equal(t, "On Fri Jan 05 2024, visitor visited Support. Summary: Billing question", vars.LastCallSummary)
}

func TestResolvePrecallContext_StoreFault(t *testing.T) {
	store := seededStore()
	store.err = errors.New("connection refused")

	vars, err := newTestService(store).ResolvePrecallContext(context.Background(), &domain.PrecallRequest{})

	assert.Error(t, err)
	assert.Nil(t, vars)
}

func TestComposeLastCallSummary(t *testing.T) {
	arrival := time.Date(2024, 1, 5, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		snapshot domain.CallSnapshot
		expected string
	}{
		{
			name:     "with arrival time",
			snapshot: domain.CallSnapshot{Summary: "Router issue", ArrivalTime: &arrival},
			expected: "On Fri Jan 05 2024, visitor visited Support. Summary: Router issue",
		},
		{
			name:     "without arrival time",
			snapshot: domain.CallSnapshot{Summary: "Router issue"},
			expected: "visitor visited Support. Summary: Router issue",
		},
		{
			name:     "empty summary",
			snapshot: domain.CallSnapshot{ArrivalTime: &arrival},
			expected: "On Fri Jan 05 2024, visitor visited Support. Summary: No summary available.",
		},
		{
			name:     "empty summary without arrival time",
			snapshot: domain.CallSnapshot{},
			expected: "visitor visited Support. Summary: No summary available.",
		},
		{
			name: "date rendered in UTC",
			snapshot: domain.CallSnapshot{
				Summary:     "Late call",
				ArrivalTime: timePtr(time.Date(2024, 1, 6, 2, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))),
			},
			expected: "On Fri Jan 05 2024, visitor visited Support. Summary: Late call",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComposeLastCallSummary(&tt.snapshot))
		})
	}
}

func TestResolveEmployee_Found(t *testing.T) {
	result, err := newTestService(seededStore()).ResolveEmployee(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, &domain.EmployeeSummary{
		EmployeeName:       "Amit Verma",
		EmployeeLocation:   "Delhi, Tower A, Ground Floor",
		EmployeeDepartment: "Sales",
	}, result)
}

func TestResolveEmployee_NotFound(t *testing.T) {
	result, err := newTestService(seededStore()).ResolveEmployee(context.Background(), 999)

	require.NoError(t, err)
	assert.Equal(t, &domain.EmployeeSummary{EmployeeName: "Unknown"}, result)
}

func TestResolveEmployee_MissingFields(t *testing.T) {
	store := seededStore()
	store.employees[7] = &domain.Employee{ID: 7}

	result, err := newTestService(store).ResolveEmployee(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, "Unknown", result.EmployeeName)
	assert.Empty(t, result.EmployeeLocation)
	assert.Empty(t, result.EmployeeDepartment)
}

func TestResolveEmployee_StoreFault(t *testing.T) {
	store := seededStore()
	store.err = errors.New("connection refused")

	_, err := newTestService(store).ResolveEmployee(context.Background(), 3)
	assert.Error(t, err)
}

func TestRecordCall_NoVisitor(t *testing.T) {
	store := newMemoryStore()

	err := newTestService(store).RecordCall(context.Background(), &domain.PostcallRequest{Summary: "x"})

	assert.ErrorIs(t, err, ErrVisitorNotFound)
	assert.Empty(t, store.calls)
	assert.Equal(t, 1, store.txCount)
}

func TestRecordCall_AppendsOneRow(t *testing.T) {
	store := seededStore()
	arrival := time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)

	err := newTestService(store).RecordCall(context.Background(), &domain.PostcallRequest{
		Summary:   "Router issue",
		CreatedAt: &domain.FlexibleTime{Time: arrival},
	})

	require.NoError(t, err)
	require.Len(t, store.calls, 1)
	call := store.calls[0]
	assert.Equal(t, uint(1), call.VisitorID)
	assert.Equal(t, "Router issue", call.Summary)
	require.NotNil(t, call.ArrivalTime)
	assert.True(t, arrival.Equal(*call.ArrivalTime))
	assert.False(t, call.CreatedAt.Equal(arrival))
	assert.Nil(t, call.ExternalCallID)
}

func TestRecordCall_MissingArrivalTime(t *testing.T) {
	store := seededStore()

	require.NoError(t, newTestService(store).RecordCall(context.Background(), &domain.PostcallRequest{Summary: "No clock"}))

	require.Len(t, store.calls, 1)
	assert.Nil(t, store.calls[0].ArrivalTime)
}

func TestRecordCall_TwiceWithoutCallIDAppendsTwice(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)
	req := &domain.PostcallRequest{Summary: "Same summary"}

	require.NoError(t, svc.RecordCall(context.Background(), req))
	require.NoError(t, svc.RecordCall(context.Background(), req))

	require.Len(t, store.calls, 2)
	assert.NotEqual(t, store.calls[0].ID, store.calls[1].ID)
}

func TestRecordCall_RetryWithCallIDAppendsOnce(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)
	req := &domain.PostcallRequest{Summary: "Router issue", CallID: "call-abc"}

	require.NoError(t, svc.RecordCall(context.Background(), req))
	require.NoError(t, svc.RecordCall(context.Background(), req))

	require.Len(t, store.calls, 1)
	require.NotNil(t, store.calls[0].ExternalCallID)
	assert.Equal(t, "call-abc", *store.calls[0].ExternalCallID)
	assert.Equal(t, 2, store.txCount)
}

func TestRecordCall_ConcurrentDuplicateAcknowledged(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)
	req := &domain.PostcallRequest{Summary: "Router issue", CallID: "call-abc"}
	require.NoError(t, svc.RecordCall(context.Background(), req))

	// The existence check misses the row, so only the unique index catches the retry
	store.staleReads = true
	require.NoError(t, svc.RecordCall(context.Background(), req))

	assert.Len(t, store.calls, 1)
}

func TestRecordCall_UsesEmployeeOverride(t *testing.T) {
	store := seededStore()
	override := newMemoryStore()
	override.employees[3] = &domain.Employee{ID: 3, Name: "Cached Amit"}

	result, err := NewService(store, memoryEmployees{override}, "web_call").ResolveEmployee(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, "Cached Amit", result.EmployeeName)
}

func TestRecordCall_StoreFault(t *testing.T) {
	store := seededStore()
	store.err = errors.New("connection refused")

	err := newTestService(store).RecordCall(context.Background(), &domain.PostcallRequest{Summary: "x"})

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrVisitorNotFound)
}
