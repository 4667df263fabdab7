// Package auth validates and issues the HS256 bearer tokens that guard the
// local HTTP bridge.
package auth
