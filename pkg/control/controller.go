// Package control implements the version and approval state machine for
// controlled documents: Draft approval, minor and major revision, master
// register consistency, and tamper verification. It coordinates the
// persistence, filesystem, and audit collaborators and serializes
// concurrent operations per document.
package control

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/audit"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/store"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/vault"
)

// TaskDisposalPolicy decides what happens to tasks locked to a version
// superseded by a major revision.
type TaskDisposalPolicy string

const (
	// DisposalObsolete retains superseded tasks flagged Obsolete.
	DisposalObsolete TaskDisposalPolicy = "obsolete"
	// DisposalDelete removes superseded tasks outright.
	DisposalDelete TaskDisposalPolicy = "delete"
)

// ComplianceChecker is the upstream gate that must pass before a document
// may be approved. Deployments plug in their review workflow here.
type ComplianceChecker interface {
	Check(ctx context.Context, doc *document.Document) error
}

// ComplianceFunc adapts a function to the ComplianceChecker interface.
type ComplianceFunc func(ctx context.Context, doc *document.Document) error

func (f ComplianceFunc) Check(ctx context.Context, doc *document.Document) error {
	return f(ctx, doc)
}

// Controller is the document control service.
type Controller struct {
	store      store.Store
	vault      *vault.Vault
	audit      audit.Sink
	compliance ComplianceChecker
	disposal   TaskDisposalPolicy
	now        func() time.Time
	logger     *zap.Logger

	locks keyedMutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithCompliance installs the upstream compliance gate.
func WithCompliance(checker ComplianceChecker) Option {
	return func(c *Controller) { c.compliance = checker }
}

// WithTaskDisposal sets the policy for tasks superseded by a major
// revision. Default is DisposalObsolete.
func WithTaskDisposal(policy TaskDisposalPolicy) Option {
	return func(c *Controller) { c.disposal = policy }
}

// New creates a Controller.
func New(st store.Store, v *vault.Vault, sink audit.Sink, logger *zap.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = audit.NopSink{}
	}
	c := &Controller{
		store:    st,
		vault:    v,
		audit:    sink,
		disposal: DisposalObsolete,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// keyedMutex serializes operations per doc_id so concurrent approve and
// revise calls on the same document cannot race the one-Controlled-per-id
// invariant. Operations on different documents proceed independently.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
