// Package dealer implements identity and access lifecycle for marketplace
// dealer accounts: self-registration, admin review, password setup through
// single-use links, opaque server-side sessions, and an append-only auth log.
//
// A dealer account moves through pending, verified, and active statuses.
// Two paths lead into active: redeeming a setup token after admin
// verification, and direct admin approval for accounts that registered with
// a password. Both are intentional product behavior; see LifecycleMachine.
//
// All status changes and token redemptions are single conditional UPDATE
// statements, so concurrent admins or duplicate link clicks resolve to
// exactly one winner without in-process locking.
package dealer
