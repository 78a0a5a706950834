// Package transfer drives the end-to-end upload of user-selected files.
//
// For every file, in selection order and one at a time, the Orchestrator:
//
//  1. requests a presigned PUT credential from the server;
//  2. attempts a direct PUT of the raw file to storage (attemptDirect);
//  3. on a RecoverableFailure (HTTP 403 or a status-less network error),
//     re-sends the same file once through the server (attemptServerMediated);
//  4. persists the metadata record using the key and URL of the attempt that
//     actually stored the object;
//  5. appends the record to the visible list and the local history.
//
// A FatalFailure (any other status, a timeout, a failed credential request,
// a failed fallback or a failed metadata save) aborts the batch. Files already
// finished stay finished.
//
// Progress is reported through a callback. Per-file byte counts never go
// backwards, even when the fallback re-sends a file from the start, and
// throughput is computed over the whole batch since it began.
package transfer
