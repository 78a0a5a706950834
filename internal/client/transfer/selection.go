package transfer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/lessonvault/internal/common"
	"github.com/dmitrijs2005/lessonvault/internal/filex"
)

var ErrNoFiles = fmt.Errorf("%w: no files selected", common.ErrorValidation)

// File is one selected file. Type and size are recorded but never validated.
type File struct {
	Path        string
	Name        string
	Size        int64
	ContentType string
}

// SelectFiles stats every path and returns the selection in the given order.
func SelectFiles(paths []string) ([]File, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	files := make([]File, 0, len(paths))
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("select %s: %w", p, err)
		}
		if fi.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", common.ErrorValidation, p)
		}
		name := filepath.Base(p)
		files = append(files, File{
			Path:        p,
			Name:        name,
			Size:        fi.Size(),
			ContentType: filex.DetectContentType(name),
		})
	}
	return files, nil
}

// TotalSize is the aggregate byte count of files.
func TotalSize(files []File) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}
