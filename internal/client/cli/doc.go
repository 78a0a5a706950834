// Package cli provides the interactive lessonvault uploader.
//
// It wires configuration, the local upload history, the HTTP API client and
// the transfer orchestrator behind a small REPL. Typical flow: log in, upload
// one or more files into a folder (optionally attaching them to a lesson),
// then list, rename, reassign or delete the stored records.
//
// Commands:
//   - register / login
//   - upload <paths...> [-folder f] [-lesson id]
//   - list, history
//   - rename <id> <name>, assign <id> <lesson|none>, delete <id>
//   - help, exit
//
// Upload progress is drawn on a single line sized to the terminal width.
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
