// Package auth provides identity and resource ownership for the storefront
// API: bcrypt password hashing, HS256 JWT issuance and validation, Bun
// backed repositories, and JSON handlers built on go-router.
//
// Identity:
//   - Auther registers and logs in users. Tokens carry sub, role, email and
//     name claims and expire after thirty minutes. A TokenService built
//     without a signing key is a startup error.
//   - RouteAuthenticator runs the bearer middleware in optional mode. Every
//     request gets a Principal, Anonymous when the token is missing or bad.
//
// Ownership:
//   - CanMutate allows admins, then explicit owners. Rows without an owner id
//     fall back to MatchesAuthorName. Everything else is denied.
//   - Wishlist adds are idempotent and removals only touch the caller's rows.
//
// Tickets:
//   - TicketStateMachine moves tickets between Pending, InProgress and
//     Completed in any direction. Status changes are not gated by ownership.
//
// Activity sinks:
//   - ActivitySink receives login, review, ownership and ticket events. Sinks
//     run best-effort and errors are logged.
package auth
