// Package core contains the canonical dispatch domain: transaction routes,
// the permission index, the authorizer, and secure handler loading. Adapters
// and transports depend on this package; core must not depend on them.
package core
