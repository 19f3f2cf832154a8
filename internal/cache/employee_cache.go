package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/voicedesk/openmic-bridge/internal/domain"
	"github.com/voicedesk/openmic-bridge/internal/repository"
	"github.com/voicedesk/openmic-bridge/pkg/logger"
	"github.com/voicedesk/openmic-bridge/pkg/redis"
	"go.uber.org/zap"
)

type cachedEmployee struct {
	employee  *domain.Employee
	expiresAt time.Time
}

// EmployeeCache is a read-through cache in front of the employee directory.
// Lookups hit the in-process map first, then Redis (when configured), then the store.
// Misses are never cached so a newly seeded employee is visible on the next call.
type EmployeeCache struct {
	next  repository.EmployeeRepository
	redis redis.RedisServiceInterface
	ttl   time.Duration

	entries map[uint]cachedEmployee
	mutex   sync.RWMutex
	now     func() time.Time
}

var _ repository.EmployeeRepository = (*EmployeeCache)(nil)

// NewEmployeeCache wraps next. redisService may be nil to run with the in-process tier only.
func NewEmployeeCache(next repository.EmployeeRepository, redisService redis.RedisServiceInterface, ttl time.Duration) *EmployeeCache {
	return &EmployeeCache{
		next:    next,
		redis:   redisService,
		ttl:     ttl,
		entries: make(map[uint]cachedEmployee),
		now:     time.Now,
	}
}

// GetByID returns a copy of the employee, or nil, nil when it does not exist
func (c *EmployeeCache) GetByID(ctx context.Context, id uint) (*domain.Employee, error) {
	if id == 0 {
		return nil, nil
	}

	if employee, ok := c.getLocal(id); ok {
		return employee, nil
	}

	if employee := c.getRemote(ctx, id); employee != nil {
		c.setLocal(employee)
		return c.copyEmployee(employee), nil
	}

	employee, err := c.next.GetByID(ctx, id)
	if err != nil || employee == nil {
		return employee, err
	}

	c.setLocal(employee)
	c.setRemote(ctx, employee)
	return c.copyEmployee(employee), nil
}

func (c *EmployeeCache) getLocal(id uint) (*domain.Employee, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, ok := c.entries[id]
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, false
	}
	return c.copyEmployee(entry.employee), true
}

func (c *EmployeeCache) setLocal(employee *domain.Employee) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[employee.ID] = cachedEmployee{
		employee:  c.copyEmployee(employee),
		expiresAt: c.now().Add(c.ttl),
	}
}

// getRemote treats every Redis failure as a miss
func (c *EmployeeCache) getRemote(ctx context.Context, id uint) *domain.Employee {
	if c.redis == nil {
		return nil
	}

	var employee domain.Employee
	found, err := c.redis.GetJSON(ctx, c.key(id), &employee)
	if err != nil {
		logger.Warn(ctx, "Employee cache read failed, falling back to store", zap.Uint("employee_id", id), zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}
	return &employee
}

func (c *EmployeeCache) setRemote(ctx context.Context, employee *domain.Employee) {
	if c.redis == nil {
		return
	}
	if err := c.redis.SetJSON(ctx, c.key(employee.ID), employee, c.ttl); err != nil {
		logger.Warn(ctx, "Failed to cache employee", zap.Uint("employee_id", employee.ID), zap.Error(err))
	}
}

func (c *EmployeeCache) key(id uint) string {
	return c.redis.GenerateKey(redis.EMPLOYEE_DIRECTORY, strconv.FormatUint(uint64(id), 10))
}

// copyEmployee hands out copies so callers cannot mutate cached entries
func (c *EmployeeCache) copyEmployee(original *domain.Employee) *domain.Employee {
	if original == nil {
		return nil
	}

	var out domain.Employee
	if err := copier.CopyWithOption(&out, original, copier.Option{DeepCopy: true}); err != nil {
		logger.Base().Warn("Failed to copy employee", zap.Error(err))
		return original
	}
	return &out
}
