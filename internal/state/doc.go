// Package state holds the data behind the console's list views.
//
// # Overview
//
// Collection is one generic controller used for books, loans and admin
// accounts. It owns the last successfully fetched list and derives the
// filtered, paginated rows a view renders. Views never fetch on their own.
//
// # Refresh
//
// Refresh does nothing but return api.ErrNotAuthenticated while logged out.
// A failed refresh keeps the previous list, records the error and the
// number of consecutive failures, and posts one notice. Each refresh takes a
// generation number; a response that arrives after a newer refresh or a
// local patch is discarded with ErrStale.
//
// # Mutations
//
// Apply sends one request, posts one notice, and then either patches the
// list in place (SyncPatch) or refetches it (SyncRefetch). Either way the
// list ends up equal to what a fresh fetch would return. Failed mutations
// leave the list untouched and are not retried.
//
// # Filtering
//
// Filter is a case-insensitive substring match over a per-resource
// haystack. Changing the filter or the page size returns to page 0, and the
// pages produced by Paginate always concatenate back to the filtered list.
package state
