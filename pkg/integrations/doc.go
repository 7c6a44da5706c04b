// Package integrations provides the shared HTTP client used by metadata API
// clients.
//
// # Overview
//
// [Client] wraps net/http with the concerns every API client needs:
//
//   - Response caching through a [cache.Cache] backend
//   - Retry with exponential backoff for transient failures
//   - Client-side rate limiting ([golang.org/x/time/rate])
//   - HTTP hooks for metrics ([observability.HTTPHooks])
//
// Responses are classified into three sentinels that make up the fetch
// contract: [ErrNotFound], [ErrUnauthorized] and [ErrNetwork]. Callers
// wrap them with context using %w so errors.Is keeps working.
//
// The Salesforce REST client lives in the [salesforce] subpackage.
//
// [salesforce]: github.com/matzehuels/schemagraph/pkg/integrations/salesforce
// [cache.Cache]: github.com/matzehuels/schemagraph/pkg/cache.Cache
// [observability.HTTPHooks]: github.com/matzehuels/schemagraph/pkg/observability.HTTPHooks
package integrations
