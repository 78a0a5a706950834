// Package history keeps a local record of uploads completed by the CLI.
//
// # Overview
//
// Entries live in a SQLite database (modernc.org/sqlite, no cgo) inside the
// configured history directory. The schema is applied with goose from the
// embedded migrations on Open.
//
// Typical Usage
//
//	st, err := history.Open(ctx, ".lessonvault")
//	_ = st.Add(ctx, entry)
//	items, _ := st.List(ctx, 20)
//	_ = st.Remove(ctx, id)
//
// The store is safe for concurrent use to the extent *sql.DB is.
package history
