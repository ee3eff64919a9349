package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"catalog-summary/internal/domain"
	"catalog-summary/internal/metrics"
)

// Collaborators are the dependencies shared by every PanelController.
type Collaborators struct {
	Charts     domain.ChartFetcher
	Aggregator *Aggregator
	Notifier   domain.Notifier
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// PanelController owns the summary of one bound entity of a single entity
// type. Binding runs the synchronous projections immediately and starts the
// asynchronous fetches; each fetch merges only while its generation is
// still current.
type PanelController struct {
	entityType domain.EntityType
	deps       Collaborators
	logger     *slog.Logger

	emitMu    sync.Mutex
	listeners map[int]listener
	nextID    int

	mu         sync.Mutex
	generation uint64
	phase      domain.Phase
	pending    int
	done       chan struct{}

	bound     any           // caller's pointer, compared by identity
	table     *domain.Table // local copy of the bound table
	dashboard *domain.Dashboard
	overview  []domain.OverviewRow
	children  []domain.ChildEntity
	tests     domain.TestResultSummary
	notices   []domain.Notice
}

type listener struct {
	ctx domain.DisplayContext
	fn  func(domain.ViewModel)
}

// NewPanelController creates an idle controller for entityType.
func NewPanelController(entityType domain.EntityType, deps Collaborators) *PanelController {
	return &PanelController{
		entityType: entityType,
		deps:       deps,
		logger:     deps.Logger.With("component", "summary-panel", "entity_type", string(entityType)),
		listeners:  make(map[int]listener),
		phase:      domain.PhaseIdle,
	}
}

// EntityType returns the entity type the controller summarises.
func (c *PanelController) EntityType() domain.EntityType { return c.entityType }

// Generation returns the current generation token.
func (c *PanelController) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// BindTable binds t. Rebinding the same pointer is a no-op. The fetches run
// under ctx; the caller's table is never modified.
func (c *PanelController) BindTable(ctx context.Context, t *domain.Table) error {
	if c.entityType != domain.EntityTypeTable {
		return domain.ErrValidation("cannot bind a table to a %s summary", c.entityType)
	}
	if t == nil {
		return domain.ErrValidation("table is required")
	}

	c.mu.Lock()
	if c.bound == any(t) {
		c.mu.Unlock()
		return nil
	}
	gen := c.reset(t)
	local := t.Clone()
	c.table = local
	c.overview = ProjectTable(t)
	c.children = FormatChildren(domain.SummaryKindColumn, ChildSource{
		Columns:     local.Columns,
		Constraints: local.TableConstraints,
	})

	ref := domain.RefOf(t)
	tasks := []func(context.Context){
		func(ctx context.Context) { c.fetchTests(ctx, gen, ref) },
	}
	if !ref.Deleted {
		tasks = append(tasks,
			func(ctx context.Context) { c.fetchProfile(ctx, gen, ref) },
			func(ctx context.Context) { c.fetchQueries(ctx, gen, ref) },
		)
	}
	c.start(len(tasks))
	c.mu.Unlock()

	c.logger.Debug("table bound", "fqn", t.FullyQualifiedName, "generation", gen, "deleted", ref.Deleted)
	c.emit()
	c.run(domain.WithSubject(ctx, t.FullyQualifiedName), tasks)
	return nil
}

// BindDashboard binds d. Rebinding the same pointer is a no-op.
func (c *PanelController) BindDashboard(ctx context.Context, d *domain.Dashboard) error {
	if c.entityType != domain.EntityTypeDashboard {
		return domain.ErrValidation("cannot bind a dashboard to a %s summary", c.entityType)
	}
	if d == nil {
		return domain.ErrValidation("dashboard is required")
	}

	c.mu.Lock()
	if c.bound == any(d) {
		c.mu.Unlock()
		return nil
	}
	gen := c.reset(d)
	c.dashboard = d
	c.overview = ProjectDashboard(d)
	c.children = FormatChildren(domain.SummaryKindChart, ChildSource{})

	var tasks []func(context.Context)
	if len(d.Charts) > 0 {
		refs := slices.Clone(d.Charts)
		tasks = append(tasks, func(ctx context.Context) { c.fetchCharts(ctx, gen, d.Label(), refs) })
	}
	c.start(len(tasks))
	c.mu.Unlock()

	c.logger.Debug("dashboard bound", "fqn", d.FullyQualifiedName, "generation", gen, "charts", len(d.Charts))
	c.emit()
	c.run(domain.WithSubject(ctx, d.FullyQualifiedName), tasks)
	return nil
}

// Unbind returns the controller to idle. Fetches still in flight are
// discarded when they land.
func (c *PanelController) Unbind() {
	c.mu.Lock()
	c.generation++
	c.clear()
	c.phase = domain.PhaseIdle
	c.mu.Unlock()
	c.emit()
}

// Wait blocks until every fetch of the current generation has merged, the
// controller is rebound or unbound, or ctx is done.
func (c *PanelController) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnChange registers fn to receive a view of the summary in dctx after every
// bind, merge and unbind. Calls are serialised. The returned func removes
// the registration.
func (c *PanelController) OnChange(dctx domain.DisplayContext, fn func(domain.ViewModel)) func() {
	c.emitMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = listener{ctx: dctx, fn: fn}
	c.emitMu.Unlock()

	return func() {
		c.emitMu.Lock()
		delete(c.listeners, id)
		c.emitMu.Unlock()
	}
}

// View returns a snapshot of the summary filtered for dctx. The snapshot
// shares no memory with the controller.
func (c *PanelController) View(dctx domain.DisplayContext) domain.ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()

	vm := domain.ViewModel{
		EntityType:     c.entityType,
		DisplayContext: dctx,
		Phase:          c.phase,
		Overview:       FilterRows(c.overview, dctx),
		Children:       cloneChildren(c.children),
		Notices:        slices.Clone(c.notices),
	}
	if vm.Children == nil {
		vm.Children = []domain.ChildEntity{}
	}

	var (
		title, description string
		tags               []domain.TagLabel
		deleted            bool
	)
	switch {
	case c.table != nil:
		t := c.table
		vm.ID, vm.FQN, vm.DisplayName = t.ID, t.FullyQualifiedName, t.Label()
		vm.ChildKind = domain.SummaryKindColumn
		vm.ProfilerSection = true
		vm.Profiler = BuildProfilerSummary(t, t.Profile, c.tests)
		title, description, tags, deleted = t.Label(), t.Description, t.Tags, t.Deleted
	case c.dashboard != nil:
		d := c.dashboard
		vm.ID, vm.FQN, vm.DisplayName = d.ID, d.FullyQualifiedName, d.Label()
		vm.ChildKind = domain.SummaryKindChart
		title, description, tags, deleted = d.Label(), d.Description, d.Tags, d.Deleted
	default:
		return vm
	}

	switch dctx {
	case domain.DisplayExplore:
		vm.Header = &domain.Header{Title: title, FQN: vm.FQN, EntityType: c.entityType, Deleted: deleted}
	case domain.DisplayDrawer:
		vm.Description = &description
		vm.Tags = slices.Clone(tags)
		if vm.Tags == nil {
			vm.Tags = []domain.TagLabel{}
		}
	}
	return vm
}

// reset starts a new generation bound to entity. c.mu must be held.
func (c *PanelController) reset(entity any) uint64 {
	c.generation++
	c.clear()
	c.bound = entity
	return c.generation
}

// clear drops every derived field and releases waiters. c.mu must be held.
func (c *PanelController) clear() {
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	c.bound = nil
	c.table = nil
	c.dashboard = nil
	c.overview = nil
	c.children = nil
	c.tests = domain.TestResultSummary{}
	c.notices = nil
	c.pending = 0
}

// start records the number of fetches outstanding. c.mu must be held.
func (c *PanelController) start(n int) {
	c.pending = n
	if n == 0 {
		c.phase = domain.PhaseComplete
		return
	}
	c.phase = domain.PhaseMetadata
	c.done = make(chan struct{})
}

func (c *PanelController) run(ctx context.Context, tasks []func(context.Context)) {
	for _, task := range tasks {
		go task(ctx)
	}
}

// merge applies fn under c.mu if gen is still current and counts the fetch
// as landed.
func (c *PanelController) merge(gen uint64, fn func()) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.deps.Metrics.StaleMerge()
		c.logger.Debug("discarding stale result", "generation", gen)
		return false
	}
	fn()
	c.pending--
	if c.pending == 0 {
		c.phase = domain.PhaseComplete
		if c.done != nil {
			close(c.done)
			c.done = nil
		}
	}
	c.mu.Unlock()
	c.emit()
	return true
}

// fail merges a notice for err and reports it; the field the fetch would
// have filled keeps its prior value. The notifier runs under the same lock
// as the generation check and before waiters are released. Failures caused
// by the caller abandoning ctx are not reported.
func (c *PanelController) fail(ctx context.Context, gen uint64, err error, message string) {
	report := !abandoned(ctx, err)
	c.merge(gen, func() {
		c.notices = append(c.notices, domain.Notice{Message: message, Error: err.Error()})
		if report {
			c.deps.Notifier.NotifyError(ctx, err, message)
			return
		}
		c.logger.Debug("fetch abandoned by caller", "generation", gen, "error", err)
	})
}

// abandoned reports whether err stems from ctx being cancelled or expiring.
func abandoned(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func (c *PanelController) fetchTests(ctx context.Context, gen uint64, ref domain.TableRef) {
	_, summary, err := c.deps.Aggregator.TestResults(ctx, ref)
	if err != nil {
		c.fail(ctx, gen, err, testsFailureMessage(ref))
		return
	}
	c.merge(gen, func() { c.tests = summary })
}

func (c *PanelController) fetchProfile(ctx context.Context, gen uint64, ref domain.TableRef) {
	p, err := c.deps.Aggregator.LatestProfile(ctx, ref)
	if err != nil {
		c.fail(ctx, gen, err, detailsFailureMessage(ref))
		return
	}
	c.merge(gen, func() { c.table.Profile = p })
}

func (c *PanelController) fetchQueries(ctx context.Context, gen uint64, ref domain.TableRef) {
	q, err := c.deps.Aggregator.RecentQueries(ctx, ref)
	if err != nil {
		c.fail(ctx, gen, err, detailsFailureMessage(ref))
		return
	}
	c.merge(gen, func() { c.table.TableQueries = q })
}

func (c *PanelController) fetchCharts(ctx context.Context, gen uint64, name string, refs []domain.EntityReference) {
	charts, err := c.deps.Charts.FetchCharts(ctx, refs)
	if err != nil {
		c.fail(ctx, gen, fmt.Errorf("charts of %q: %w", name, err), fmt.Sprintf("error while fetching charts for %s", name))
		return
	}
	c.merge(gen, func() { c.children = FormatCharts(charts) })
}

// emit delivers the current view to every listener.
func (c *PanelController) emit() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	for _, l := range c.listeners {
		l.fn(c.View(l.ctx))
	}
}

func cloneChildren(in []domain.ChildEntity) []domain.ChildEntity {
	if in == nil {
		return nil
	}
	out := make([]domain.ChildEntity, len(in))
	for i, ch := range in {
		ch.Tags = slices.Clone(ch.Tags)
		if ch.Extra != nil {
			extra := domain.ChildExtra{Constraints: slices.Clone(ch.Extra.Constraints)}
			ch.Extra = &extra
		}
		ch.Children = cloneChildren(ch.Children)
		out[i] = ch
	}
	return out
}
