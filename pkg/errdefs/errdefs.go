package errdefs

import (
	"errors"
)

// Kind classifies a failure of the synchronization engine
type Kind string

const (
	KindNetwork      Kind = "network"
	KindDecode       Kind = "decode"
	KindNotInstalled Kind = "not installed"
	KindDownload     Kind = "download"
	KindArchive      Kind = "archive"
	KindNoRelease    Kind = "no release available"
	KindNoAsset      Kind = "no asset available"
)

// Error is a classified error. It unwraps to the underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}

	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// Network marks err as a failed request against the release catalog
func Network(err error) error { return newError(KindNetwork, err) }

// Decode marks err as a malformed response
func Decode(err error) error { return newError(KindDecode, err) }

// Download marks err as a failed asset download
func Download(err error) error { return newError(KindDownload, err) }

// Archive marks err as an unreadable archive or a failed write during extraction
func Archive(err error) error { return newError(KindArchive, err) }

var (
	// ErrNotInstalled is returned when a version is read from an absent installation
	ErrNotInstalled = newError(KindNotInstalled, nil)
	// ErrNoRelease is returned when upstream has no releases
	ErrNoRelease = newError(KindNoRelease, nil)
	// ErrNoAsset is returned when the latest release has no asset for this platform
	ErrNoAsset = newError(KindNoAsset, nil)
)

// KindOf returns the kind of the first classified error in the chain
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}

	return "", false
}

func is(err error, kinds ...Kind) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}

	for _, k := range kinds {
		if k == kind {
			return true
		}
	}

	return false
}

// IsNetwork checks for a failed catalog request or asset download
func IsNetwork(err error) bool { return is(err, KindNetwork, KindDownload) }

func IsDecode(err error) bool { return is(err, KindDecode) }

func IsDownload(err error) bool { return is(err, KindDownload) }

func IsArchive(err error) bool { return is(err, KindArchive) }

func IsNotInstalled(err error) bool { return is(err, KindNotInstalled) }

func IsNoRelease(err error) bool { return is(err, KindNoRelease) }

func IsNoAsset(err error) bool { return is(err, KindNoAsset) }
