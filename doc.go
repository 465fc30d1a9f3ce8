// Package accounts orchestrates the account lifecycle of a web application
// whose identity store is a managed auth backend: credential sign-in and
// sign-up, email confirmation, password recovery, profile completion, and
// account deletion.
//
// Backend clients:
//   - IdentityClient is the user-scoped surface (sign-in, sign-up, OTP
//     verification, password updates). AdminClient is the elevated surface
//     holding the service credential; only it can delete identities. The two
//     are separate types so an end-user code path can never reach an admin
//     operation.
//   - BlobStorage uploads avatar blobs and derives their public URLs.
//
// Commands:
//   - Each orchestrator operation is a Message/Handler pair (SignInMessage,
//     ConfirmTokenMessage, DeleteAccountMessage, ...). Handlers convert every
//     backend outcome into a structured result, so HTTP controllers only
//     inspect response payloads and rich error categories.
//
// Sessions:
//   - SessionAccessor derives the acting Identity once per request from the
//     session cookie; handlers receive it as an explicit parameter instead of
//     reading ambient state mid-operation. SessionGuard owns the cookie and
//     the protected-route middleware.
package accounts
