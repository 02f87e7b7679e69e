package extract

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/easytier/easytier-service/pkg/errdefs"
	"github.com/loft-sh/log"
	perrors "github.com/pkg/errors"
)

type Options struct {
	// Filter decides by base file name whether an entry is extracted. Nil extracts everything.
	Filter func(name string) bool

	Log log.Logger
}

type Option func(o *Options)

func WithFilter(filter func(name string) bool) Option {
	return func(o *Options) {
		o.Filter = filter
	}
}

func WithLogger(log log.Logger) Option {
	return func(o *Options) {
		o.Log = log
	}
}

// Unzip extracts the entries of the zip archive at archivePath into destFolder. Entries
// that would escape destFolder are skipped. Every failure is an archive error and aborts
// the extraction, leaving already written entries in place.
func Unzip(archivePath, destFolder string, options ...Option) ([]string, error) {
	extractOptions := &Options{Log: log.Discard}
	for _, o := range options {
		o(extractOptions)
	}

	written, err := unzip(archivePath, destFolder, extractOptions)
	if err != nil {
		return written, errdefs.Archive(err)
	}

	return written, nil
}

func unzip(archivePath, destFolder string, options *Options) ([]string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, perrors.Wrap(err, "open archive")
	}
	defer reader.Close()

	written := []string{}
	for _, file := range reader.File {
		relativePath, ok := EnclosedName(file.Name)
		if !ok {
			options.Log.Debugf("Skip unsafe archive entry %q", file.Name)
			continue
		}

		if options.Filter != nil && !options.Filter(path.Base(relativePath)) {
			continue
		}

		outFileName := filepath.Join(destFolder, filepath.FromSlash(relativePath))
		options.Log.Debugf("Extract %s", relativePath)
		if err := extractNext(file, outFileName, options); err != nil {
			return written, err
		}
		written = append(written, relativePath)
	}

	return written, nil
}

func extractNext(file *zip.File, outFileName string, options *Options) error {
	if err := os.MkdirAll(filepath.Dir(outFileName), 0o755); err != nil {
		return perrors.Wrapf(err, "create parent of %s", outFileName)
	}

	if file.FileInfo().IsDir() {
		if err := os.MkdirAll(outFileName, 0o755); err != nil {
			return perrors.Wrapf(err, "create %s", outFileName)
		}
	} else if err := writeFile(file, outFileName); err != nil {
		return err
	}

	if runtime.GOOS != "windows" {
		if perm := file.Mode().Perm(); perm != 0 {
			if err := os.Chmod(outFileName, perm); err != nil {
				return perrors.Wrapf(err, "chmod %s", outFileName)
			}
		}
	}

	return nil
}

func writeFile(file *zip.File, outFileName string) error {
	in, err := file.Open()
	if err != nil {
		return perrors.Wrapf(err, "open entry %s", file.Name)
	}
	defer in.Close()

	// a running executable can't be truncated on every platform, but it can be unlinked
	if stat, err := os.Lstat(outFileName); err == nil && !stat.IsDir() {
		_ = os.Remove(outFileName)
	}

	outFile, err := os.OpenFile(outFileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return perrors.Wrapf(err, "create %s", outFileName)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, in); err != nil {
		return perrors.Wrapf(err, "io copy zip entry %s", file.Name)
	}
	if err := outFile.Close(); err != nil {
		return perrors.Wrapf(err, "out file close %s", outFileName)
	}

	return nil
}

// EnclosedName sanitizes an archive entry name into a relative slash separated path.
// Names that are absolute, contain a NUL byte or climb above the archive root are rejected.
func EnclosedName(name string) (string, bool) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", false
	}

	name = strings.ReplaceAll(name, "\\", "/")
	if path.IsAbs(name) || filepath.VolumeName(name) != "" || hasDriveLetter(name) {
		return "", false
	}

	depth := 0
	for _, part := range strings.Split(name, "/") {
		switch part {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return "", false
			}
		default:
			depth++
		}
	}

	cleaned := path.Clean(name)
	if cleaned == "." {
		return "", false
	}

	return cleaned, true
}

func hasDriveLetter(name string) bool {
	return len(name) >= 2 && name[1] == ':' &&
		((name[0] >= 'a' && name[0] <= 'z') || (name[0] >= 'A' && name[0] <= 'Z'))
}
