// Package authorization answers company-scoped permission checks for propdesk.
//
// Layering:
// - domain: role catalog, membership model, permission evaluation
// - application: membership commands and the cache-first permission check
// - ports: persistence and cache boundaries
// - adapters: memory and postgres implementations
//
// A user holds at most one active role per company. Permissions are never
// granted across companies.
package authorization
