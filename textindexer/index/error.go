package index

import "golang.org/x/xerrors"

var (
	// ErrNotFound is returned when attempting to look up a document that
	// does not exist.
	ErrNotFound = xerrors.New("not found")

	// ErrMissingID is returned when attempting to index a document that
	// does not specify an ID.
	ErrMissingID = xerrors.New("document does not provide a valid ID")

	// ErrBadQuery is returned by parsers for query text with invalid syntax.
	ErrBadQuery = xerrors.New("bad query syntax")

	// ErrUnknownAnalyzer is returned by parsers when the requested analyzer
	// does not exist.
	ErrUnknownAnalyzer = xerrors.New("unknown analyzer")

	// ErrClosed is returned when using an engine or snapshot that has been
	// closed.
	ErrClosed = xerrors.New("index closed")
)
