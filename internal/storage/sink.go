package storage

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/paideia-dao/paideia-site/internal/metadata"
	"github.com/paideia-dao/paideia-site/pkg/failure"
	"github.com/paideia-dao/paideia-site/pkg/fileutil"
	"github.com/paideia-dao/paideia-site/pkg/hashutil"
)

/*
Responsibilities
- Persist rendered pages for static hosting
- Map each route onto <route>/index.html

Output Characteristics
- Stable directory layout
- Atomic, overwrite-safe writes
- Content hash reported per file
*/

type Sink interface {
	Write(
		outputDir string,
		doc Document,
		hashAlgo hashutil.HashAlgo,
	) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
}

func NewLocalSink(
	metadataSink metadata.MetadataSink,
) LocalSink {
	return LocalSink{
		metadataSink: metadataSink,
	}
}

func (s *LocalSink) Write(
	outputDir string,
	doc Document,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(outputDir, doc, hashAlgo)
	if err != nil {
		var storageError *StorageError
		errors.As(err, &storageError)
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.Write",
			mapStorageErrorToMetadataCause(storageError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrPath, doc.Route()),
				metadata.NewAttr(metadata.AttrWritePath, storageError.Path),
			},
		)
		return WriteResult{}, storageError
	}
	s.metadataSink.RecordArtifact(
		metadata.ArtifactPage,
		writeResult.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, writeResult.Path()),
			metadata.NewAttr(metadata.AttrPath, writeResult.Route()),
			metadata.NewAttr(metadata.AttrHash, writeResult.ContentHash()),
		},
	)
	return writeResult, nil
}

// RoutePath maps a site route onto the file serving it below outputDir:
// "/" is index.html, "/education" is education/index.html.
func RoutePath(outputDir string, route string) (string, bool) {
	if !strings.HasPrefix(route, "/") || strings.Contains(route, "..") {
		return "", false
	}
	clean := strings.Trim(route, "/")
	if clean == "" {
		return filepath.Join(outputDir, "index.html"), true
	}
	return filepath.Join(outputDir, filepath.FromSlash(clean), "index.html"), true
}

func write(
	outputDir string,
	doc Document,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	fullPath, ok := RoutePath(outputDir, doc.Route())
	if !ok {
		return WriteResult{}, &StorageError{
			Message:   "route must be absolute and must not climb: " + doc.Route(),
			Retryable: false,
			Cause:     ErrCauseInvalidRoute,
			Path:      "",
		}
	}

	contentHash, err := hashutil.HashBytes(doc.Body(), hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
			Path:      fullPath,
		}
	}

	if err := fileutil.WriteFileAtomic(fullPath, doc.Body()); err != nil {
		cause := ErrCauseWriteFailure
		retryable := false
		var fileErr *fileutil.FileError
		if errors.As(err, &fileErr) {
			if fileErr.Cause == fileutil.ErrCausePathError {
				cause = ErrCausePathError
			}
			retryable = fileErr.Retryable
		}
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: retryable,
			Cause:     cause,
			Path:      fullPath,
		}
	}

	return NewWriteResult(doc.Route(), fullPath, contentHash), nil
}
