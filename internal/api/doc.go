// Package api provides the HTTP client for the library service.
//
// # Overview
//
// Every call the console makes goes through Client. Protected calls share
// one pipeline:
//
//  1. Read the token from the session. With no token the request is not
//     sent and ErrNotAuthenticated is returned.
//  2. If the token is a JWT whose exp claim has passed, the Guard is tripped
//     and ErrUnauthorized is returned without a round-trip.
//  3. Wait on the outbound rate limiter, then send with the bearer token,
//     a per-call timeout and an X-Request-ID header.
//  4. A 401, or an envelope with "Unauthorized": true, trips the Guard.
//  5. Other non-2xx responses become StatusError; network failures and
//     unreadable bodies become TransportError.
//  6. An envelope with "Status": false becomes BusinessError carrying the
//     server's Error text.
//
// Identical GETs issued concurrently with the same token share a single
// round-trip.
//
// # Errors
//
// Classify maps any error from this package onto a Kind, and Message gives
// the text to show the user. Only KindUnauthorized ends the session, and
// the Guard makes sure that happens once per rejected token no matter how
// many requests fail with it.
//
// # Usage
//
//	client, err := api.NewClient(api.Options{
//		BaseURL: "http://127.0.0.1:3000",
//		Session: manager,
//	})
//	if err != nil {
//		return err
//	}
//	client.Guard().OnExpired(func() { notices.Notify(notify.LevelWarning, api.MsgSessionExpired) })
//
//	books, err := client.ListBooks(ctx)
package api
