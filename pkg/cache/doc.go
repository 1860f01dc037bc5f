// Package cache allows command-line clients to resume an authenticated Blue Link session.
//
// Logging in requires a round-trip to the token servlet with the account password. Saving the
// session token in a [TokenCache] lets subsequent runs skip that round-trip until the token
// expires, after which its refresh token is used.
//
// Cached tokens grant full access to the account. Files written by [TokenCache.ExportToFile] are
// created with owner-only permissions.
package cache
