// Package api provides the HTTP REST interface for hearthd.
//
// The server exposes a versioned JSON API under /api/v1 covering
// authentication (login, refresh, logout), device and room management,
// operating modes, and user administration. Every protected route passes
// through the authorization gate, which resolves the bearer token into a
// principal and its authority set before the handler runs.
//
// Token extraction order on protected routes: the access_token cookie,
// then the Authorization: Bearer header, then the access_token query
// parameter. All token failures collapse into a uniform 401; only a
// valid principal lacking a required authority receives a 403.
package api
