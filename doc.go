// Package accounts implements an account lifecycle backend: registration
// with email verification, credential authentication issuing bearer
// tokens, and a self service password reset flow.
//
// Account lifecycle:
//   - Accounts are persisted via Bun. The stored fields determine the state
//     (unverified, verified, reset_pending); see Account.State.
//   - Manager drives every transition. Each operation validates its input,
//     runs its storage work in a single transaction and only then emits
//     notifications and activity events.
//
// Notifications:
//   - Notifier is a best-effort channel. The manager logs delivery errors
//     and never returns them. Wrap SMTP or other slow transports in an
//     AsyncNotifier so requests do not wait on delivery.
//
// Activity sinks:
//   - ActivitySink receives registration, verification, login and password
//     reset events. Sink errors are logged.
//
// Tokens:
//   - TokenService signs HS256 JWTs carrying AccountClaims. Previous signing
//     keys can be listed by key id so tokens issued before a rotation keep
//     validating until they expire.
package accounts
