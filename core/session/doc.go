// Package session stores server-side session payloads keyed by opaque tokens.
//
// A token is 32 bytes from crypto/rand encoded as unpadded base64url, so it is
// safe to put in a cookie unchanged. Two stores implement the Store interface:
//
//   - MemoryStore keeps sessions in a mutex-guarded map. Expired sessions are
//     removed when read; Start or Run adds a periodic sweep.
//   - RedisStore keeps sessions as JSON documents whose keys expire with the
//     session TTL.
//
// Basic usage:
//
//	store := session.NewMemoryStore(session.WithTTL(time.Hour))
//
//	id, err := store.Create(ctx, session.Data{"user_id": 42})
//	data, err := store.Get(ctx, id)        // ErrNotFound once expired
//	err = store.Update(ctx, id, data)      // no-op for unknown ids
//	err = store.Delete(ctx, id)            // idempotent
//
// The sweep follows the errgroup lifecycle used elsewhere in the module:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(store.Run(ctx))
//
// Payloads are copied on the way in and out; callers may mutate the maps they
// pass or receive without affecting stored state. Nested maps and slices are
// copied as well.
package session
