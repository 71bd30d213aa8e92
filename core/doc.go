// Package core contains the webhook dispatch domain: the closed event catalog,
// subscription and delivery types, the contracts implemented by stores and
// delivery adapters, and the shared error, config and telemetry helpers.
// Adapters depend on this package; core must not depend on them.
package core
