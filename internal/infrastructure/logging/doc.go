// Package logging provides the structured logger shared by every
// Bohrium component.
//
// It is a thin layer over log/slog: New applies the configured level,
// format and destination and stamps the service name and version onto
// every entry, and each package derives a child logger tagging its
// component. Request handling additionally logs through the server's
// request-id middleware, so one request's entries correlate across
// components.
//
// Secrets never belong in log fields. JWT secrets, account passwords
// and push credentials are logged, at most, by presence.
package logging
