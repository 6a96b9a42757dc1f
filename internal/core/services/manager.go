package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driven"
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driving"
	"github.com/custodia-labs/prospect-cli/internal/logger"
)

// Ensure DriverManager implements the interface.
var _ driving.Orchestrator = (*DriverManager)(nil)

// DriverManager owns the registry of configured drivers and orchestrates
// research runs across them. Eligible drivers run as independent concurrent
// goroutines with no shared mutable state between them; one driver's
// failure or timeout never blocks another's result.
type DriverManager struct {
	drivers []driven.Driver
	byName  map[string]driven.Driver
	retry   retryPolicy

	mu       sync.RWMutex
	configs  map[string]domain.DriverConfig
	trackers map[string]*progressTracker
	running  bool
}

// NewDriverManager builds a manager from the supplied configuration and
// driver set. Driver names must be unique; a duplicate is the one
// misconfiguration that fails construction.
func NewDriverManager(configs map[string]domain.DriverConfig, drivers ...driven.Driver) (*DriverManager, error) {
	m := &DriverManager{
		drivers: make([]driven.Driver, 0, len(drivers)),
		byName:  make(map[string]driven.Driver, len(drivers)),
		retry:   defaultRetryPolicy(),
		configs: make(map[string]domain.DriverConfig, len(configs)),
	}

	for _, d := range drivers {
		name := d.Descriptor().Name
		if _, exists := m.byName[name]; exists {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateDriver, name)
		}
		m.byName[name] = d
		m.drivers = append(m.drivers, d)
	}

	for name, cfg := range configs {
		m.configs[name] = cfg
	}
	m.sortDrivers()

	logger.Info("Initialised %d drivers", len(m.drivers))
	return m, nil
}

// sortDrivers orders the registry by priority (higher first), then name.
func (m *DriverManager) sortDrivers() {
	sort.SliceStable(m.drivers, func(i, j int) bool {
		a, b := m.drivers[i].Descriptor().Name, m.drivers[j].Descriptor().Name
		pa, pb := m.configs[a].Priority, m.configs[b].Priority
		if pa != pb {
			return pa > pb
		}
		return a < b
	})
}

// SetConfigs replaces the per-driver configuration. Only allowed between
// runs; mid-flight reconfiguration returns ErrRunInProgress.
func (m *DriverManager) SetConfigs(configs map[string]domain.DriverConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return domain.ErrRunInProgress
	}

	m.configs = make(map[string]domain.DriverConfig, len(configs))
	for name, cfg := range configs {
		m.configs[name] = cfg
	}
	m.sortDrivers()
	return nil
}

// ListDrivers returns every registered driver with its static status,
// independent of any in-flight run.
func (m *DriverManager) ListDrivers() []driving.DriverInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]driving.DriverInfo, 0, len(m.drivers))
	for _, d := range m.drivers {
		desc := d.Descriptor()
		cfg := m.configs[desc.Name]
		infos = append(infos, driving.DriverInfo{
			Name:               desc.Name,
			DisplayName:        desc.DisplayName,
			Description:        desc.Description,
			Status:             initialStatus(desc, cfg),
			RequiresCredential: desc.RequiresCredential,
			HasCredential:      cfg.Credential != "",
			Priority:           cfg.Priority,
		})
	}
	return infos
}

// initialStatus decides a driver's pre-launch state. Disabled takes
// precedence over a missing credential: a disabled driver is never started
// to discover its credential gap.
func initialStatus(desc domain.DriverDescriptor, cfg domain.DriverConfig) domain.DriverStatus {
	switch {
	case !cfg.Enabled:
		return domain.StatusDisabled
	case desc.RequiresCredential && cfg.Credential == "":
		return domain.StatusMissingCredential
	default:
		return domain.StatusIdle
	}
}

// launch is one driver's resolved plan for a run, fixed at run start.
type launch struct {
	driver  driven.Driver
	desc    domain.DriverDescriptor
	cfg     domain.DriverConfig
	status  domain.DriverStatus
	tracker *progressTracker
}

// beginRun marks a run in flight and resolves the launch plan for the
// named drivers (all registered drivers when names is empty). Eligibility
// and configuration are fixed here, under the lock, for the whole run.
func (m *DriverManager) beginRun(names ...string) ([]launch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil, domain.ErrRunInProgress
	}

	selected := m.drivers
	if len(names) > 0 {
		selected = make([]driven.Driver, 0, len(names))
		for _, name := range names {
			d, ok := m.byName[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q", domain.ErrDriverNotFound, name)
			}
			selected = append(selected, d)
		}
	}

	launches := make([]launch, 0, len(selected))
	trackers := make(map[string]*progressTracker)
	for _, d := range selected {
		desc := d.Descriptor()
		cfg := m.configs[desc.Name].Normalised()
		l := launch{driver: d, desc: desc, cfg: cfg, status: initialStatus(desc, cfg)}
		if l.status == domain.StatusIdle {
			l.tracker = newProgressTracker()
			trackers[desc.Name] = l.tracker
		}
		launches = append(launches, l)
	}

	m.running = true
	m.trackers = trackers
	return launches, nil
}

func (m *DriverManager) endRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
}

// RunAll launches every eligible driver concurrently and waits for all of
// them to reach a terminal state. There is no global cross-driver deadline:
// a slow archive lookup must not truncate a fast search-API result. The
// bundle carries exactly one result per registered driver.
func (m *DriverManager) RunAll(ctx context.Context, entity domain.Entity) (*domain.ResultBundle, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	launches, err := m.beginRun()
	if err != nil {
		return nil, err
	}
	defer m.endRun()

	eligible := 0
	for _, l := range launches {
		if l.status == domain.StatusIdle {
			eligible++
		}
	}
	logger.Section(fmt.Sprintf("Research: %s", entity.Name))
	logger.Info("Starting research for %q with %d of %d sources", entity.Name, eligible, len(launches))

	results := make(chan domain.DriverResult, len(launches))
	var wg sync.WaitGroup

	// Launch every eligible driver before waiting on any.
	for _, l := range launches {
		if l.status != domain.StatusIdle {
			results <- skippedResult(l.desc, l.status)
			continue
		}
		wg.Add(1)
		go func(l launch) {
			defer wg.Done()
			results <- m.invoke(ctx, l, entity)
		}(l)
	}

	wg.Wait()
	close(results)

	bundle := &domain.ResultBundle{
		RunID:   uuid.NewString(),
		Entity:  entity,
		Results: make(map[string]domain.DriverResult, len(launches)),
	}
	for r := range results {
		bundle.Results[r.DriverName] = r
	}
	bundle.CompletedAt = time.Now()

	logger.Info("Research complete for %q: %d completed, %d failed, %d skipped",
		entity.Name,
		bundle.CountByStatus(domain.StatusCompleted),
		bundle.CountByStatus(domain.StatusFailed),
		bundle.CountByStatus(domain.StatusDisabled)+bundle.CountByStatus(domain.StatusMissingCredential))

	return bundle, nil
}

// RunSingle runs one named driver through the same machinery as RunAll.
func (m *DriverManager) RunSingle(ctx context.Context, driverName string, entity domain.Entity) (*domain.DriverResult, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}
	launches, err := m.beginRun(driverName)
	if err != nil {
		return nil, err
	}
	defer m.endRun()

	l := launches[0]
	if l.status != domain.StatusIdle {
		r := skippedResult(l.desc, l.status)
		return &r, nil
	}

	r := m.invoke(ctx, l, entity)
	return &r, nil
}

// invoke runs one driver invocation under the retry/timeout policy and
// produces its terminal result. All operational failures are captured in
// the result; nothing escapes to the caller.
func (m *DriverManager) invoke(ctx context.Context, l launch, entity domain.Entity) (result domain.DriverResult) {
	started := time.Now()
	l.tracker.setStatus(domain.StatusRunning)
	logger.Debug("%s: starting fetch for %q", l.desc.DisplayName, entity.Name)

	// A panicking driver must not take the run down with it.
	defer func() {
		if r := recover(); r != nil {
			_, last := l.tracker.read()
			l.tracker.setStatus(domain.StatusFailed)
			result = domain.DriverResult{
				DriverName:      l.desc.Name,
				Status:          domain.StatusFailed,
				ErrorKind:       domain.KindTerminal,
				ErrorMessage:    fmt.Sprintf("driver panic: %v", r),
				StartedAt:       started,
				CompletedAt:     time.Now(),
				AttemptsUsed:    1,
				ProgressPercent: last,
			}
		}
	}()

	data, attempts, err := m.retry.run(ctx, l.desc.Name, l.cfg, l.tracker, func(attemptCtx context.Context) (map[string]any, error) {
		return l.driver.Fetch(attemptCtx, entity, l.cfg.Credential, l.tracker)
	})

	result = domain.DriverResult{
		DriverName:   l.desc.Name,
		StartedAt:    started,
		CompletedAt:  time.Now(),
		AttemptsUsed: attempts,
	}

	if err != nil {
		_, last := l.tracker.read()
		result.Status = domain.StatusFailed
		result.ErrorKind = domain.Classify(err)
		result.ErrorMessage = err.Error()
		result.ProgressPercent = last
		l.tracker.setStatus(domain.StatusFailed)
		logger.Warn("%s: failed after %d attempt(s): %v", l.desc.DisplayName, attempts, err)
		return result
	}

	l.tracker.Set(100)
	l.tracker.setStatus(domain.StatusCompleted)
	result.Status = domain.StatusCompleted
	result.Data = data
	result.ProgressPercent = 100
	logger.Info("%s: completed in %.1fs", l.desc.DisplayName, result.Duration().Seconds())
	return result
}

// skippedResult records a driver that never ran: no data, no timing.
func skippedResult(desc domain.DriverDescriptor, status domain.DriverStatus) domain.DriverResult {
	msg := "driver is disabled"
	if status == domain.StatusMissingCredential {
		msg = fmt.Sprintf("credential required for %s but none configured", desc.DisplayName)
	}
	return domain.DriverResult{
		DriverName:   desc.Name,
		Status:       status,
		ErrorKind:    domain.KindConfigurationGap,
		ErrorMessage: msg,
	}
}

// AggregateProgress returns the arithmetic mean of progress over the
// current run's launched drivers. Not-yet-started invocations count 0,
// completed ones 100, failed ones whatever they last reported. A cheap,
// stale-read-tolerant approximation for display, not a synchronisation
// primitive.
func (m *DriverManager) AggregateProgress() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.trackers) == 0 {
		return 0
	}
	var sum float64
	for _, t := range m.trackers {
		_, p := t.read()
		sum += p
	}
	return sum / float64(len(m.trackers))
}

// Snapshot returns per-driver status and progress for the current run.
func (m *DriverManager) Snapshot() domain.ProgressSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := make(domain.ProgressSnapshot, len(m.trackers))
	for name, t := range m.trackers {
		status, p := t.read()
		snap[name] = domain.DriverProgress{Status: status, Percent: p}
	}
	return snap
}
