package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/lessonvault/internal/client/api"
	"github.com/dmitrijs2005/lessonvault/internal/common"
)

const historyLimit = 50

// List prints the caller's records stored on the server.
func (a *App) List(ctx context.Context) error {
	records, err := a.api.ListRecords(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "List failed: %s\n", describe(err))
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(a.out, "No uploads yet")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tTYPE\tLESSON\tCREATED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.OriginalName, formatBytes(r.FileSize), r.FileType,
			lessonOrDash(r.LessonID), r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// History prints uploads finished from this machine.
func (a *App) History(ctx context.Context) error {
	entries, err := a.history.List(ctx, historyLimit)
	if err != nil {
		fmt.Fprintf(a.out, "History unavailable: %s\n", describe(err))
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "History is empty")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tFILE\tSIZE\tVIA\tKEY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.UploadedAt.Local().Format("2006-01-02 15:04"), e.LocalPath,
			formatBytes(e.FileSize), e.Mode, e.S3Key)
	}
	return tw.Flush()
}

// Rename changes the display name of a record: rename <id> <name...>.
func (a *App) Rename(ctx context.Context, args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(a.out, "Usage: rename <id> <name>")
		return common.ErrorValidation
	}
	name := strings.Join(args[1:], " ")

	rec, err := a.api.UpdateRecord(ctx, args[0], api.RecordPatch{OriginalName: &name})
	if err != nil {
		fmt.Fprintf(a.out, "Rename failed: %s\n", describe(err))
		return err
	}
	fmt.Fprintf(a.out, "Renamed %s to %q\n", rec.ID, rec.OriginalName)
	return nil
}

// Assign moves a record to a lesson: assign <id> <lesson>. "none" detaches it.
func (a *App) Assign(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "Usage: assign <id> <lesson|none>")
		return common.ErrorValidation
	}

	patch := api.RecordPatch{}
	if strings.EqualFold(args[1], "none") {
		patch.ClearLesson = true
	} else {
		lesson := args[1]
		patch.LessonID = &lesson
	}

	rec, err := a.api.UpdateRecord(ctx, args[0], patch)
	if err != nil {
		fmt.Fprintf(a.out, "Assign failed: %s\n", describe(err))
		return err
	}
	fmt.Fprintf(a.out, "%s now belongs to lesson %s\n", rec.ID, lessonOrDash(rec.LessonID))
	return nil
}

// Delete removes a record and its stored object: delete <id>.
func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: delete <id>")
		return common.ErrorValidation
	}
	id := args[0]

	if err := a.api.DeleteRecord(ctx, id); err != nil {
		fmt.Fprintf(a.out, "Delete failed: %s\n", describe(err))
		return err
	}
	if err := a.history.Remove(ctx, id); err != nil && !errors.Is(err, common.ErrorNotFound) {
		a.log.Warn(ctx, "failed to remove history entry", "id", id, "error", err)
	}

	fmt.Fprintf(a.out, "Deleted %s\n", id)
	return nil
}

func lessonOrDash(id *string) string {
	if id == nil || *id == "" {
		return "-"
	}
	return *id
}
