package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lessonvault/internal/client/transfer"
	"github.com/dmitrijs2005/lessonvault/internal/common"
	"github.com/dmitrijs2005/lessonvault/internal/flagx"
)

var errUploadUsage = fmt.Errorf("%w: usage: upload <paths...> [-folder f] [-lesson id]", common.ErrorValidation)

// parseUploadArgs accepts -folder and -lesson (or their -- forms) anywhere
// among the paths.
func parseUploadArgs(args []string, defaultFolder string) ([]string, transfer.Destination, error) {
	dst := transfer.Destination{Folder: defaultFolder}

	opts, paths, err := flagx.SplitArgs(args, []string{"folder", "lesson"})
	if err != nil || len(paths) == 0 {
		return nil, dst, errUploadUsage
	}
	if v, ok := opts["folder"]; ok {
		dst.Folder = v
	}
	if v, ok := opts["lesson"]; ok {
		dst.LessonID = v
	}
	return paths, dst, nil
}

// Upload selects the given files and sends them one by one.
func (a *App) Upload(ctx context.Context, args []string) error {
	paths, dst, err := parseUploadArgs(args, a.config.DefaultFolder)
	if err != nil {
		fmt.Fprintln(a.out, describe(err))
		return err
	}

	files, err := a.uploader.SelectFiles(paths)
	if err != nil {
		fmt.Fprintln(a.out, describe(err))
		return err
	}
	fmt.Fprintf(a.out, "Uploading %d file(s), %s total, to %q\n", len(files), formatBytes(transfer.TotalSize(files)), dst.Folder)

	done, err := a.uploader.UploadPending(ctx, dst)
	a.progress.finish()

	for _, u := range done {
		fmt.Fprintf(a.out, "  %s -> %s [%s, %s]\n", u.File.Name, u.Outcome.URL, u.Outcome.Via, formatBytes(u.Outcome.FileSize))
	}
	if err != nil {
		fmt.Fprintf(a.out, "Upload stopped: %s\n", describe(err))
		var fatal *transfer.FatalFailure
		if errors.As(err, &fatal) && !errors.Is(err, transfer.ErrMetadata) {
			fmt.Fprintln(a.out, "Re-run upload to retry the remaining files.")
		}
		return err
	}

	fmt.Fprintf(a.out, "Done: %d file(s) uploaded\n", len(done))
	return nil
}
