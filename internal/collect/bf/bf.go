// Package bf implements the breadth-first dependency collector: the driver
// that loops over a FIFO work queue, resolves version ranges and
// descriptors through the data pool, applies dependency management,
// detects cycles, follows relocations, and consults the resolution skipper
// before expanding or caching each subtree.
package bf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/artifactresolve/collector/internal/collect/cycle"
	"github.com/artifactresolve/collector/internal/collect/management"
	"github.com/artifactresolve/collector/internal/collect/pool"
	"github.com/artifactresolve/collector/internal/collect/premanaged"
	"github.com/artifactresolve/collector/internal/collect/resilience"
	"github.com/artifactresolve/collector/internal/collect/skip"
	"github.com/artifactresolve/collector/pkg/metrics"
	"github.com/artifactresolve/collector/pkg/resolve/artifact"
	"github.com/artifactresolve/collector/pkg/resolve/dep"
)

// Budgets bounds the two diagnostic counters: maxExceptions (default 50)
// and maxCycles (default 10). Exceeding either silently drops further
// occurrences.
type Budgets struct {
	MaxExceptions int
	MaxCycles     int
}

// DefaultBudgets returns the documented default caps.
func DefaultBudgets() Budgets {
	return Budgets{MaxExceptions: 50, MaxCycles: 10}
}

// Collaborators bundles the three external contracts the collector
// consumes.
type Collaborators struct {
	Descriptor   dep.DescriptorReader
	VersionRange dep.VersionRangeResolver
	Repositories dep.RemoteRepositoryManager
}

// Args is the per-resolution state carried through the main loop: session,
// pool, skipper, budgets, the ignore-repositories and verbose-management
// flags, and the collaborator plumbing.
type Args struct {
	Session            any
	IgnoreRepositories bool
	VerboseManagement  bool
	Budgets            Budgets
	Collaborators      Collaborators
	Pool               *pool.DataPool
	Skipper            *skip.Skipper
	PolicyContext      dep.PolicyContext
	RequestContext     string

	// Logger receives one debug event per processed dependency and per
	// version-conflict skip, an info event per detected cycle, and a warn
	// event per recorded error. Nil falls back to slog.Default().
	Logger *slog.Logger

	// Metrics, if non-nil, receives node/cycle/exception/skipper counters
	// for this resolution.
	Metrics *metrics.CollectorMetrics

	// RetryPolicy bounds the backoff retry wrapped around every
	// Collaborators.Descriptor.Read / Collaborators.VersionRange.Resolve
	// call; both are synchronous steps that may perform blocking I/O and
	// therefore may transiently fail. The zero value is not valid;
	// NewCollector fills in DefaultRetryPolicy.
	RetryPolicy resilience.RetryPolicy

	// CollaboratorLimiter, if non-nil, token-bucket throttles outbound
	// calls to the descriptor reader and version-range resolver, so a
	// breadth-first traversal of a large graph cannot hammer a single
	// remote repository. Nil disables throttling.
	CollaboratorLimiter *rate.Limiter
}

// DependencyProcessingContext carries one queued unit of work: the
// policies/repositories/managed-deps in effect at the current depth, the
// ordered parent node list, and the candidate dependency itself.
type DependencyProcessingContext struct {
	Policies     management.Policies
	Repositories []artifact.RemoteRepository
	ManagedDeps  []artifact.Dependency
	Parents      []*artifact.DependencyNode
	Dependency   artifact.Dependency

	// group, when non-nil, is the child-subgraph cache entry this queued
	// item contributes to; see spliceGroup.
	group *spliceGroup
}

// spliceGroup tracks completion of one child-subgraph memo entry. A
// cacheable node's sibling dependency items all share one group; each
// item's processing (including any relocation tail-calls)
// completes exactly once per FIFO dequeue, so decrementing remaining at
// that point - rather than trying to track deeper descendants - correctly
// detects "all of this node's direct children have been appended". Nodes
// skipped as exact duplicates while the group is still pending register
// themselves on nodes and receive the finished child list on completion,
// which is how two same-depth parents of one coordinate end up sharing a
// spliced subtree.
type spliceGroup struct {
	key        string
	dependency artifact.Dependency
	depth      int
	nodes      []*artifact.DependencyNode
	remaining  int
}

// Exception is one recorded collection error: a failure plus the
// "->"-joined artifact trail that led to it.
type Exception struct {
	Err  error
	Path string
}

func (e Exception) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// CycleRecord is one detected dependency cycle.
type CycleRecord struct {
	Path      string
	Ancestor  artifact.Coordinate
	Candidate artifact.Coordinate
}

// Result accumulates everything the main loop produces across the queue
// drain: exceptions, cycles, and (via Root) the assembled graph.
type Result struct {
	Root       *artifact.DependencyNode
	Exceptions []Exception
	Cycles     []CycleRecord
}

var (
	// ErrDescriptorRead is wrapped around every descriptor-read failure
	// recorded on the result.
	ErrDescriptorRead = errors.New("descriptor read failed")
	// ErrVersionRange is wrapped around every version-range resolution
	// failure recorded on the result.
	ErrVersionRange = errors.New("version range resolution failed")
)

// Collector runs the breadth-first traversal for one resolution.
type Collector struct {
	args   *Args
	result *Result
	logger *slog.Logger

	// pending maps a child-subgraph key to its in-flight splice group, so
	// duplicate occurrences dequeued before the group completes can still
	// attach themselves as splice recipients.
	pending map[string]*spliceGroup
}

// NewCollector constructs a Collector for one Collect call. Root must
// already be built, synthetic or real.
func NewCollector(args *Args, root *artifact.DependencyNode) *Collector {
	if args.RetryPolicy == (resilience.RetryPolicy{}) {
		args.RetryPolicy = resilience.DefaultRetryPolicy()
	}
	logger := args.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		args:    args,
		result:  &Result{Root: root},
		logger:  logger,
		pending: make(map[string]*spliceGroup),
	}
}

func (c *Collector) countNode(kind string) {
	if c.args.Metrics != nil {
		c.args.Metrics.NodesVisitedTotal.WithLabelValues(kind).Inc()
	}
}

func (c *Collector) countSkipperDecision(d skip.Decision) {
	if c.args.Metrics == nil {
		return
	}
	label := "expand"
	switch d {
	case skip.DecisionDuplicate:
		label = "duplicate"
	case skip.DecisionVersionConflict:
		label = "version_conflict"
	case skip.DecisionForceResolution:
		label = "force_resolution"
	}
	c.args.Metrics.SkipperDecisionsTotal.WithLabelValues(label).Inc()
}

// callCollaborator throttles (if a limiter is configured) and retries (per
// args.RetryPolicy) a single collaborator invocation.
func (c *Collector) callCollaborator(ctx context.Context, operationName string, call func() (dep.DescriptorResult, error)) (dep.DescriptorResult, error) {
	if c.args.CollaboratorLimiter != nil {
		if err := c.args.CollaboratorLimiter.Wait(ctx); err != nil {
			return dep.DescriptorResult{}, err
		}
	}
	return resilience.WithRetry(ctx, c.args.RetryPolicy, operationName, call)
}

func (c *Collector) callVersionRange(ctx context.Context, operationName string, call func() (dep.VersionRangeResult, error)) (dep.VersionRangeResult, error) {
	if c.args.CollaboratorLimiter != nil {
		if err := c.args.CollaboratorLimiter.Wait(ctx); err != nil {
			return dep.VersionRangeResult{}, err
		}
	}
	return resilience.WithRetry(ctx, c.args.RetryPolicy, operationName, call)
}

// Run drains the queue seeded from the root's direct dependencies and
// returns the accumulated result. It does not invoke the graph-
// transformation hook; that is the caller's responsibility (package
// transform), a step after the main loop, not inside it.
func (c *Collector) Run(ctx context.Context, seed []DependencyProcessingContext) *Result {
	queue := append([]DependencyProcessingContext(nil), seed...)
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		produced := c.processDependency(ctx, item, nil, false)
		queue = append(queue, produced...)
		c.completeGroup(item.group)
	}
	return c.result
}

// completeGroup decrements g's remaining count and, once every sibling
// item sharing g has finished processing, stores the now-final child list
// in the pool under g's key and fans it out to every registered splice
// recipient.
func (c *Collector) completeGroup(g *spliceGroup) {
	if g == nil {
		return
	}
	g.remaining--
	if g.remaining == 0 {
		c.finishGroup(g)
	}
}

// finishGroup publishes g's child list: the first registered node is the
// one that actually expanded; later nodes are duplicates that share the
// subtree by splice. The skipper is consulted a second time here so a
// subtree superseded by force resolution while its items were draining is
// not re-published to the pool.
func (c *Collector) finishGroup(g *spliceGroup) {
	expanded := g.nodes[0]
	if !c.args.Skipper.Superseded(g.dependency, g.depth) {
		c.args.Pool.PutChildren(g.dependency.Artifact.Versionless(), g.key, expanded.Children)
	}
	for _, n := range g.nodes[1:] {
		n.Children = expanded.Children
	}
	// With the skipper disabled the same key can be re-expanded while an
	// earlier group is still draining; only drop the entry if it is ours.
	if c.pending[g.key] == g {
		delete(c.pending, g.key)
	}
}

// recordException appends err to the bounded error list. The primary
// error-path string is whatever Exceptions[0].Path ends up holding, the
// first one ever appended.
func (c *Collector) recordException(kind string, err error, parents []*artifact.DependencyNode, leaf artifact.Artifact) {
	path := pathString(parents, leaf)
	c.logger.Warn("recording collection exception", "kind", kind, "path", path, "error", err)
	if c.args.Metrics != nil {
		c.args.Metrics.ExceptionsTotal.WithLabelValues(kind).Inc()
	}
	if len(c.result.Exceptions) >= c.args.Budgets.MaxExceptions {
		return
	}
	c.result.Exceptions = append(c.result.Exceptions, Exception{Err: err, Path: path})
}

// recordCycle appends rec to the bounded cycle list. The cycle-terminus
// node is built regardless of the budget; only the record is silently
// dropped once the cap is reached.
func (c *Collector) recordCycle(rec CycleRecord) {
	c.logger.Info("dependency cycle detected", "path", rec.Path, "ancestor", rec.Ancestor.String())
	if c.args.Metrics != nil {
		c.args.Metrics.CyclesDetectedTotal.Inc()
	}
	if len(c.result.Cycles) >= c.args.Budgets.MaxCycles {
		return
	}
	c.result.Cycles = append(c.result.Cycles, rec)
}

// addStub appends a childless node for a coordinate whose descriptor could
// not be read, so the attempted coordinate stays discoverable in the graph.
func (c *Collector) addStub(parent *artifact.DependencyNode, dependency artifact.Dependency, version string) {
	stub := artifact.NewNode(&dependency)
	stub.Version = version
	parent.AddChild(stub)
	c.countNode("stub")
}

// lacksDescriptor reports whether d can never have a readable descriptor:
// a system-scoped dependency resolved from a local path has nothing to
// read.
func lacksDescriptor(d artifact.Dependency) bool {
	if d.Scope != "system" {
		return false
	}
	return d.Artifact.Properties["localPath"] != ""
}

func pathString(parents []*artifact.DependencyNode, leaf artifact.Artifact) string {
	s := ""
	for _, p := range parents {
		if p.Dependency == nil {
			continue
		}
		s += p.Dependency.Artifact.Coordinate.String() + " -> "
	}
	return s + leaf.Coordinate.String()
}

// processDependency runs one queued candidate through the full pipeline:
// selection, management, version-range resolution, descriptor read, cycle
// and relocation handling, child construction. disableVersionMgmt is
// threaded through relocation tail-calls per the "relocation to same GA
// must not re-apply version management" rule. It returns the newly
// enqueued child processing contexts (the caller appends them to the FIFO
// queue); it never recurses into the queue itself except via a relocation
// tail-call, which happens synchronously within this call.
func (c *Collector) processDependency(ctx context.Context, pctx DependencyProcessingContext, relocations []artifact.Artifact, disableVersionMgmt bool) []DependencyProcessingContext {
	parent := pctx.Parents[len(pctx.Parents)-1]

	// Selector check.
	if !pctx.Policies.Selector.SelectDependency(pctx.Dependency) {
		return nil
	}

	// Apply dependency management.
	override := pctx.Policies.Manager.ManageDependency(pctx.Dependency, pctx.ManagedDeps)
	managedDep, snapshot := premanaged.Apply(pctx.Dependency, override, disableVersionMgmt)
	managedDep = c.args.Pool.InternDependency(managedDep)

	c.logger.Debug("processing dependency",
		"artifact", managedDep.Artifact.Coordinate.String(),
		"scope", string(managedDep.Scope),
		"depth", len(pctx.Parents))

	// A node is traversed only when it both has a descriptor and the
	// traverser allows it. Whether there IS a descriptor is only known
	// per candidate version below; traverserAllows is the policy half of
	// the conjunction, fixed for this dependency.
	traverserAllows := pctx.Policies.Traverser.TraverseDependency(managedDep)

	// Resolve the version range, filter, reverse (highest first).
	rangeKey := pool.VersionRangeKey(managedDep.Artifact, pctx.Repositories)
	rangeResult, ok := c.args.Pool.GetVersionRange(rangeKey)
	if !ok {
		resolved, err := c.callVersionRange(ctx, "version-range-resolve", func() (dep.VersionRangeResult, error) {
			return c.args.Collaborators.VersionRange.Resolve(ctx, dep.VersionRangeRequest{
				Artifact:     managedDep.Artifact,
				Repositories: pctx.Repositories,
				Context:      c.args.RequestContext,
			})
		})
		if err != nil {
			c.recordException("version_range", fmt.Errorf("%w: %v", ErrVersionRange, err), pctx.Parents, managedDep.Artifact)
			return nil
		}
		c.args.Pool.PutVersionRange(rangeKey, resolved)
		rangeResult = resolved
	}

	candidates := pctx.Policies.Filter.FilterVersions(managedDep, rangeResult.Versions)
	reversed := make([]string, len(candidates))
	for i, v := range candidates {
		reversed[len(candidates)-1-i] = v
	}

	var enqueued []DependencyProcessingContext

	for _, v := range reversed {
		versioned := managedDep
		versioned.Artifact = c.args.Pool.InternArtifact(versioned.Artifact.WithVersion(v))

		// A dependency that cannot have a descriptor (system scope
		// pointing at a local path) gets an empty result; no read attempt.
		var descResult dep.DescriptorResult
		status := pool.StatusPresent
		if lacksDescriptor(versioned) {
			descResult = dep.DescriptorResult{Artifact: versioned.Artifact}
		} else {
			// Read the descriptor via the pool.
			descKey := pool.DescriptorKey(versioned.Artifact, pctx.Repositories)
			descResult, status = c.args.Pool.GetDescriptor(descKey)
			if status == pool.StatusAbsent {
				read, err := c.callCollaborator(ctx, "descriptor-read", func() (dep.DescriptorResult, error) {
					return c.args.Collaborators.Descriptor.Read(ctx, dep.DescriptorRequest{
						Artifact:     versioned.Artifact,
						Repositories: pctx.Repositories,
						Context:      c.args.RequestContext,
					})
				})
				if err != nil {
					c.args.Pool.PutDescriptorFailure(descKey)
					c.recordException("descriptor_read", fmt.Errorf("%w: %v", ErrDescriptorRead, err), pctx.Parents, versioned.Artifact)
					// Keep the failed coordinate discoverable in the graph.
					c.addStub(parent, versioned, v)
					continue
				}
				c.args.Pool.PutDescriptor(descKey, read)
				descResult = read
				status = pool.StatusPresent
			}
			if status == pool.StatusSentinel {
				c.addStub(parent, versioned, v)
				continue
			}
		}

		// Cycle check.
		if idx := cycle.Detect(pctx.Parents, versioned); idx >= 0 {
			ancestor := pctx.Parents[idx]
			if !cycle.IsRootlessRoot(ancestor) && ancestor.Dependency != nil {
				c.recordCycle(CycleRecord{
					Path:      pathString(pctx.Parents, versioned.Artifact),
					Ancestor:  ancestor.Dependency.Artifact.Coordinate,
					Candidate: versioned.Artifact.Coordinate,
				})
				parent.AddChild(cycle.Terminus(versioned, ancestor))
				c.countNode("cycle_terminus")
				continue
			}
			// Rootless root: fall through as normal.
		}

		// Relocation tail-recursion.
		if len(descResult.Relocations) > 0 {
			target := descResult.Relocations[0]
			sameGA := target.GroupID == versioned.Artifact.GroupID && target.ArtifactID == versioned.Artifact.ArtifactID
			relocated := versioned
			relocated.Artifact = target
			nextPctx := pctx
			nextPctx.Dependency = relocated
			nested := c.processDependency(ctx, nextPctx, append(relocations, versioned.Artifact), disableVersionMgmt || sameGA)
			enqueued = append(enqueued, nested...)
			continue
		}

		// Intern, compute the repository list, append the child.
		repos := pctx.Repositories
		if rangeResult.RepositoryPerVersion != nil {
			if r, ok := rangeResult.RepositoryPerVersion[v]; ok {
				repos = []artifact.RemoteRepository{r}
			}
		}
		if !c.args.IgnoreRepositories && len(descResult.Repositories) > 0 {
			repos = c.args.Collaborators.Repositories.Aggregate(ctx, c.args.Session, pctx.Repositories, descResult.Repositories, true)
		}

		child := artifact.NewNode(&versioned)
		child.Version = v
		child.VersionConstraint = rangeResult.Constraint
		child.Repositories = repos
		child.RequestContext = c.args.RequestContext
		child.Aliases = descResult.Aliases
		child.Relocations = relocations
		premanaged.StampIfVerbose(child, snapshot, c.args.VerboseManagement)
		parent.AddChild(child)
		c.countNode("resolved")

		// Every appended node registers with the skipper, leaves included:
		// a shallow leaf must still claim the winner slot for its identity
		// so a deeper occurrence with children cannot expand behind it.
		decision := c.args.Skipper.Evaluate(versioned, pctx.Parents)
		c.countSkipperDecision(decision)
		if decision == skip.DecisionVersionConflict {
			c.logger.Debug("skipping version-conflict loser",
				"artifact", versioned.Artifact.Coordinate.String(), "depth", len(pctx.Parents))
			continue
		}

		// Only the recursion itself is gated on traversal.
		traverse := traverserAllows && !descResult.Empty()
		if !traverse {
			continue
		}

		childPolicies := pctx.Policies.DeriveChild(c.args.PolicyContext)
		key, cacheable := pool.ChildKey(versioned.Artifact, repos, childPolicies.Selector, childPolicies.Manager, childPolicies.Traverser, childPolicies.Filter)

		if decision == skip.DecisionDuplicate {
			// A duplicate is never re-expanded. It shares the winner's
			// subtree: spliced from the pool when already complete, or by
			// registering on the still-pending group otherwise.
			if cacheable {
				if cached, hit := c.args.Pool.GetChildren(key); hit {
					child.Children = cached
				} else if g := c.pending[key]; g != nil {
					g.nodes = append(g.nodes, child)
				}
			}
			continue
		}

		if decision == skip.DecisionForceResolution {
			// A shallower occurrence supersedes whatever the deeper one
			// cached.
			c.args.Pool.InvalidateChildren(versioned.Artifact.Versionless())
		}

		childManaged := mergeManaged(pctx.ManagedDeps, descResult.ManagedDependencies)
		childParents := append(append([]*artifact.DependencyNode(nil), pctx.Parents...), child)

		var group *spliceGroup
		if cacheable {
			if cached, hit := c.args.Pool.GetChildren(key); hit {
				child.Children = cached
				continue
			}
			group = &spliceGroup{key: key, dependency: versioned, depth: len(pctx.Parents), nodes: []*artifact.DependencyNode{child}}
			c.pending[key] = group
		}

		var toEnqueue []DependencyProcessingContext
		for _, childDep := range descResult.Dependencies {
			if versioned.Excludes(childDep.Artifact.Versionless()) {
				continue
			}
			toEnqueue = append(toEnqueue, DependencyProcessingContext{
				Policies:     childPolicies,
				Repositories: repos,
				ManagedDeps:  childManaged,
				Parents:      childParents,
				Dependency:   childDep,
				group:        group,
			})
		}
		if group != nil {
			if len(toEnqueue) == 0 {
				// No grandchild dependencies survive the exclusion
				// filter: the child list is trivially complete now.
				c.finishGroup(group)
			} else {
				group.remaining = len(toEnqueue)
			}
		}
		enqueued = append(enqueued, toEnqueue...)
	}

	return enqueued
}

// mergeManaged combines a parent's managed-dependency list with a
// descriptor's own managedDependencies, with the inherited (request/
// parent) list winning on id collision.
func mergeManaged(inherited, declared []artifact.Dependency) []artifact.Dependency {
	seen := make(map[artifact.VersionlessKey]bool, len(inherited))
	out := append([]artifact.Dependency(nil), inherited...)
	for _, d := range inherited {
		seen[d.Artifact.Versionless()] = true
	}
	for _, d := range declared {
		if seen[d.Artifact.Versionless()] {
			continue
		}
		out = append(out, d)
	}
	return out
}
