package authtrail

import (
	"context"
	"fmt"
)

// deletionRegistry is the ordered collection of per-domain purge
// handlers. It is populated once during Build and never mutated
// afterwards, so duplicate-domain bugs surface at startup rather than at
// the first account deletion.
type deletionRegistry struct {
	domains  []string
	handlers map[string]PurgeHandler
}

func newDeletionRegistry() *deletionRegistry {
	return &deletionRegistry{
		handlers: map[string]PurgeHandler{},
	}
}

func (r *deletionRegistry) register(domain string, handler PurgeHandler) error {
	if domain == "" {
		return fmt.Errorf("%w: empty domain name", ErrDuplicatePurgeDomain)
	}
	if _, exists := r.handlers[domain]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicatePurgeDomain, domain)
	}
	r.domains = append(r.domains, domain)
	r.handlers[domain] = handler
	return nil
}

// run invokes every registered handler sequentially in registration
// order. Ordering matters: later purgers may assume earlier ones
// completed. A handler error propagates immediately and aborts the
// remaining purges; the whole deletion must then be retried.
func (r *deletionRegistry) run(ctx context.Context, userID string) ([]DeletionDetails, error) {
	results := make([]DeletionDetails, 0, len(r.domains))
	for _, domain := range r.domains {
		res, err := r.handlers[domain](ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("purge %q for user %q: %w", domain, userID, err)
		}
		detail := DeletionDetails{Domain: domain}
		if res != nil {
			count := res.DeletedRecords
			detail.DeletedRecords = &count
		}
		results = append(results, detail)
	}
	return results, nil
}

func (r *deletionRegistry) domainNames() []string {
	out := make([]string, len(r.domains))
	copy(out, r.domains)
	return out
}

// PurgeDomains returns the registered purge domain names in registration
// order. Intended for introspection and tests.
func (e *Engine) PurgeDomains() []string {
	if e == nil || e.registry == nil {
		return nil
	}
	return e.registry.domainNames()
}

// DeleteAllUserData runs every registered purge handler for userID and
// returns the per-domain results. It does not record the account.deleted
// audit entry; [Engine.AfterUserDeleted] layers that on top.
func (e *Engine) DeleteAllUserData(ctx context.Context, userID string) ([]DeletionDetails, error) {
	if e == nil || e.registry == nil {
		return nil, ErrEngineNotReady
	}
	return e.registry.run(ctx, userID)
}
