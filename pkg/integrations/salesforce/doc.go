// Package salesforce provides a client for the Salesforce REST metadata API.
//
// The client covers the read-only endpoints schemagraph needs:
//
//   - [Client.APIVersions]: GET /services/data/
//   - [Client.ListSObjects]: GET /services/data/<v>/sobjects/
//   - [Client.Describe]: GET /services/data/<v>/sobjects/<name>/describe
//   - [Client.Identity]: GET /services/oauth2/userinfo
//
// Requests carry a bearer access token. Describe implements the fetch
// contract used by the describe cache: it fails with
// [integrations.ErrNotFound], [integrations.ErrUnauthorized] or
// [integrations.ErrNetwork]. When a [TokenRefresher] is configured, a 401 is
// answered by refreshing the token once and replaying the request.
//
// Version listings and entity listings are cached through the shared HTTP
// client; describes are not, because the describe cache owns them.
package salesforce
