// Package gotrue provides accounts clients backed by the GoTrue REST API, as
// deployed by Supabase and compatible platforms. It exposes a user-scoped
// identity client, an elevated admin client, and a blob storage client; the
// three are constructed separately so the service role credential never
// leaks into user-scoped code paths.
package gotrue
