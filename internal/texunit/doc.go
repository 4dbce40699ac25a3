// Package texunit provides the texture unit slot table used by the bind
// cache.
//
// A [Table] has one slot per device texture unit. Each slot stores the
// texture the cache believes is bound there and a last-used sequence number
// taken from a monotonic table-wide counter:
//
//	tbl := texunit.New(4)
//	tbl.Assign(0, tex)            // slot 0 holds tex, lastUsed = 1
//	i, _ := tbl.LeastRecentlyUsed()
//
// The table is pure bookkeeping. It never issues device calls and performs
// no bounds checking beyond what the bind cache already guarantees.
//
// # Thread Safety
//
// Table is not safe for concurrent use. It lives inside a glstate.Context,
// which is confined to the thread owning the device context.
package texunit
