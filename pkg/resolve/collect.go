// Package resolve exposes the single core operation of the dependency
// collection engine: collect(session, request) -> result. It wires
// together the data pool, the resolution skipper, the breadth-first
// collector, and the graph-transformation hook.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/artifactresolve/collector/internal/collect/bf"
	"github.com/artifactresolve/collector/internal/collect/management"
	"github.com/artifactresolve/collector/internal/collect/pool"
	"github.com/artifactresolve/collector/internal/collect/resilience"
	"github.com/artifactresolve/collector/internal/collect/skip"
	"github.com/artifactresolve/collector/internal/collect/transform"
	"github.com/artifactresolve/collector/internal/config"
	"github.com/artifactresolve/collector/pkg/logger"
	"github.com/artifactresolve/collector/pkg/metrics"
	"github.com/artifactresolve/collector/pkg/resolve/artifact"
	"github.com/artifactresolve/collector/pkg/resolve/dep"
)

// CollectRequest carries the inputs of one collection: either a root
// artifact or a root dependency, declared/managed dependency lists, an
// ordered repository list, and a request-context string.
type CollectRequest struct {
	RootArtifact   *artifact.Artifact
	RootDependency *artifact.Dependency

	Dependencies        []artifact.Dependency
	ManagedDependencies []artifact.Dependency
	Repositories        []artifact.RemoteRepository
	RequestContext      string

	// Policies seeds the depth-0 selector/manager/traverser/filter set.
	// Callers that do not need Maven's full scope-inheritance subtleties
	// may leave this zero to get management.Default().
	Policies management.Policies
}

// Result mirrors CollectRequest plus what the collector produced: the
// (possibly synthetic) root node, recorded exceptions, and detected
// cycles.
type Result struct {
	Root       *artifact.DependencyNode
	Exceptions []bf.Exception
	Cycles     []bf.CycleRecord
	Request    CollectRequest

	// ResolutionID identifies this collection run: the caller-supplied ID
	// carried on ctx (pkg/logger.WithResolutionID), or a freshly generated
	// one otherwise. It correlates this Result with the log lines Collect
	// emitted and, for callers wiring internal/history, with the
	// persisted history entry's ResolutionID.
	ResolutionID string
}

// Session bundles the recognised collector options with the external
// collaborators the core consumes.
type Session struct {
	Options       *config.SessionOptions
	Collaborators bf.Collaborators
	Transformer   transform.GraphTransformer
	Metrics       *metrics.CollectorMetrics
	Logger        *slog.Logger

	// RetryPolicy bounds the backoff retry wrapped around every
	// collaborator call. The zero value is replaced with
	// resilience.DefaultRetryPolicy.
	RetryPolicy resilience.RetryPolicy

	// CollaboratorLimiter, if non-nil, token-bucket throttles outbound
	// descriptor-read and version-range-resolve calls. Nil disables
	// throttling.
	CollaboratorLimiter *rate.Limiter
}

// NewSession builds a Session from loaded options and collaborators. If
// metricsRegistry is nil, metrics are recorded against the package-level
// DefaultRegistry.
func NewSession(opts *config.SessionOptions, collaborators bf.Collaborators, transformer transform.GraphTransformer, metricsRegistry *metrics.MetricsRegistry) *Session {
	if metricsRegistry == nil {
		metricsRegistry = metrics.DefaultRegistry()
	}
	return &Session{
		Options:       opts,
		Collaborators: collaborators,
		Transformer:   transformer,
		Metrics:       metricsRegistry.Collector(),
		Logger:        slog.Default(),
		RetryPolicy:   resilience.DefaultRetryPolicy(),
	}
}

// Collect is the engine's single exposed operation. It returns a non-nil
// Result even on failure (the partial graph), paired with a
// *DependencyCollectionException when any error was recorded during
// traversal.
func Collect(ctx context.Context, session *Session, req CollectRequest) (*Result, error) {
	start := time.Now()
	defer func() {
		if session.Metrics != nil {
			session.Metrics.CollectionDurationSecs.Observe(time.Since(start).Seconds())
		}
	}()

	resolutionID := logger.ResolutionIDFromContext(ctx)
	if resolutionID == "" {
		resolutionID = uuid.New().String()
		ctx = logger.WithResolutionID(ctx, resolutionID)
	}
	if session.RetryPolicy == (resilience.RetryPolicy{}) {
		session.RetryPolicy = resilience.DefaultRetryPolicy()
	}
	log := session.Logger
	if log == nil {
		log = slog.Default()
	}
	log = logger.FromContext(ctx, log)

	dataPool := pool.New().WithMetrics(session.Metrics)
	skipper := skip.New(session.Options.SkipperEnabled)

	policies := req.Policies
	if policies == (management.Policies{}) {
		policies = management.Default()
	}

	root, dependencies, managedDeps, repos, err := buildRoot(ctx, session, dataPool, req, policies)
	if err != nil {
		result := &Result{Root: root, Request: req, ResolutionID: resolutionID}
		if errors.Is(err, ErrNoRootArtifact) {
			// A malformed request is the caller's bug, not a collection
			// failure; no partial graph exists to carry.
			return result, err
		}
		path := "<root>"
		if req.RootDependency != nil {
			path = req.RootDependency.Artifact.Coordinate.String()
		}
		result.Exceptions = []bf.Exception{{Err: err, Path: path}}
		return result, &DependencyCollectionException{Result: result, FirstPath: path, FirstCause: err}
	}

	seed := make([]bf.DependencyProcessingContext, 0, len(dependencies))
	for _, d := range dependencies {
		seed = append(seed, bf.DependencyProcessingContext{
			Policies:     policies,
			Repositories: repos,
			ManagedDeps:  managedDeps,
			Parents:      []*artifact.DependencyNode{root},
			Dependency:   d,
		})
	}

	args := &bf.Args{
		Session:             session,
		IgnoreRepositories:  session.Options.IgnoreArtifactDescriptorRepositories,
		VerboseManagement:   session.Options.VerboseManagement,
		Budgets:             bf.Budgets{MaxExceptions: session.Options.MaxExceptions, MaxCycles: session.Options.MaxCycles},
		Collaborators:       session.Collaborators,
		Pool:                dataPool,
		Skipper:             skipper,
		PolicyContext:       dep.PolicyContext{},
		RequestContext:      req.RequestContext,
		RetryPolicy:         session.RetryPolicy,
		CollaboratorLimiter: session.CollaboratorLimiter,
		Logger:              log,
		Metrics:             session.Metrics,
	}

	bfResult := bf.NewCollector(args, root).Run(ctx, seed)

	outcome := transform.Apply(ctx, session.Transformer, bfResult.Root, transform.Context{"requestContext": req.RequestContext})
	bfResult.Root = outcome.Root
	if outcome.Ran && outcome.Error != nil {
		log.Warn("graph transformer failed, keeping pre-transform graph", "error", outcome.Error)
		if session.Metrics != nil {
			session.Metrics.ExceptionsTotal.WithLabelValues("graph_transform").Inc()
		}
		bfResult.Exceptions = append(bfResult.Exceptions, bf.Exception{
			Err:  fmt.Errorf("graph transform: %w", outcome.Error),
			Path: rootPathString(bfResult.Root),
		})
	}

	log.Info("dependency collection finished",
		"exceptions", len(bfResult.Exceptions),
		"cycles", len(bfResult.Cycles),
		"duration", time.Since(start))

	result := &Result{
		Root:         bfResult.Root,
		Exceptions:   bfResult.Exceptions,
		Cycles:       bfResult.Cycles,
		Request:      req,
		ResolutionID: resolutionID,
	}

	if len(result.Exceptions) > 0 {
		first := result.Exceptions[0]
		return result, &DependencyCollectionException{Result: result, FirstPath: first.Path, FirstCause: first.Err}
	}
	return result, nil
}

// buildRoot resolves and reads the root dependency's descriptor when one
// is supplied, or constructs a synthetic root when only a bare artifact
// is supplied.
func buildRoot(ctx context.Context, session *Session, dataPool *pool.DataPool, req CollectRequest, policies management.Policies) (*artifact.DependencyNode, []artifact.Dependency, []artifact.Dependency, []artifact.RemoteRepository, error) {
	if req.RootDependency == nil && req.RootArtifact == nil {
		return nil, nil, nil, nil, ErrNoRootArtifact
	}

	if req.RootDependency == nil {
		root := artifact.NewNode(nil)
		root.Version = req.RootArtifact.Version
		root.Repositories = req.Repositories
		root.RequestContext = req.RequestContext
		return root, req.Dependencies, req.ManagedDependencies, req.Repositories, nil
	}

	rootDep := *req.RootDependency
	rangeKey := pool.VersionRangeKey(rootDep.Artifact, req.Repositories)
	if session.CollaboratorLimiter != nil {
		if err := session.CollaboratorLimiter.Wait(ctx); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	rangeResult, err := resilience.WithRetry(ctx, session.RetryPolicy, "version-range-resolve", func() (dep.VersionRangeResult, error) {
		return session.Collaborators.VersionRange.Resolve(ctx, dep.VersionRangeRequest{
			Artifact:     rootDep.Artifact,
			Repositories: req.Repositories,
			Context:      req.RequestContext,
		})
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: %v", bf.ErrVersionRange, err)
	}
	dataPool.PutVersionRange(rangeKey, rangeResult)

	filtered := policies.Filter.FilterVersions(rootDep, rangeResult.Versions)
	if len(filtered) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("%w: no versions matched for %s", bf.ErrVersionRange, rootDep.Artifact)
	}
	highest := filtered[len(filtered)-1]
	rootDep.Artifact = dataPool.InternArtifact(rootDep.Artifact.WithVersion(highest))

	if session.CollaboratorLimiter != nil {
		if err := session.CollaboratorLimiter.Wait(ctx); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	descResult, err := resilience.WithRetry(ctx, session.RetryPolicy, "descriptor-read", func() (dep.DescriptorResult, error) {
		return session.Collaborators.Descriptor.Read(ctx, dep.DescriptorRequest{
			Artifact:     rootDep.Artifact,
			Repositories: req.Repositories,
			Context:      req.RequestContext,
		})
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: %v", bf.ErrDescriptorRead, err)
	}

	repos := req.Repositories
	if !session.Options.IgnoreArtifactDescriptorRepositories && len(descResult.Repositories) > 0 {
		repos = session.Collaborators.Repositories.Aggregate(ctx, session, req.Repositories, descResult.Repositories, true)
	}

	dependencies := mergeByID(req.Dependencies, descResult.Dependencies)
	managedDeps := mergeByID(req.ManagedDependencies, descResult.ManagedDependencies)

	root := artifact.NewNode(&rootDep)
	root.Version = highest
	root.VersionConstraint = rangeResult.Constraint
	root.Repositories = repos
	root.RequestContext = req.RequestContext
	root.Aliases = descResult.Aliases
	root.Relocations = descResult.Relocations

	return root, dependencies, managedDeps, repos, nil
}

// mergeByID combines a request-declared list with a descriptor-declared
// list, with the request list winning on versionless-identity collision.
func mergeByID(requestList, descriptorList []artifact.Dependency) []artifact.Dependency {
	seen := make(map[artifact.VersionlessKey]bool, len(requestList))
	out := append([]artifact.Dependency(nil), requestList...)
	for _, d := range requestList {
		seen[d.Artifact.Versionless()] = true
	}
	for _, d := range descriptorList {
		if seen[d.Artifact.Versionless()] {
			continue
		}
		out = append(out, d)
	}
	return out
}

func rootPathString(root *artifact.DependencyNode) string {
	if root == nil || root.Dependency == nil {
		return "<root>"
	}
	return root.Dependency.Artifact.Coordinate.String()
}
