package vars

import (
	stderrors "errors"
	"io/fs"

	"github.com/arthur-debert/slack-send/pkg/errors"
	"github.com/spf13/afero"
)

func osFs(fsys afero.Fs) afero.Fs {
	if fsys == nil {
		return afero.NewOsFs()
	}
	return fsys
}

// readFile reads the whole file and maps a missing path to FILE_NOT_FOUND.
// afero.ReadFile closes the handle on every path.
func readFile(fsys afero.Fs, path string) ([]byte, error) {
	data, err := afero.ReadFile(osFs(fsys), path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.FileNotFound(path, err)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", path).
			WithDetail("path", path)
	}
	return data, nil
}
