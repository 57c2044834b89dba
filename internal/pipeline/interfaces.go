package pipeline

import (
	"context"

	"github.com/dvloznov/echeque-clerk/internal/gcsuploader"
	infra "github.com/dvloznov/echeque-clerk/internal/infra/bigquery"
	"github.com/dvloznov/echeque-clerk/internal/oracle"
)

// StorageService is the document-storage boundary of the pipeline. The
// interface enables mocking in tests.
type StorageService interface {
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
	UploadRenamedCopy(ctx context.Context, sourceURI, filename string, data []byte) (string, error)
	ExtractFilenameFromGCSURI(uri string) string
}

// AliasResolver resolves a raw payee to its operator-maintained short form,
// falling back to the input. Implemented by *alias.Store.
type AliasResolver interface {
	Resolve(rawPayee string) string
}

// Deps bundles the collaborators a pipeline run needs.
type Deps struct {
	Repo    infra.Repository
	Storage StorageService
	Parser  oracle.ChequeParser
	Aliases AliasResolver
}

// GCSStorage is the StorageService implementation backed by the gcsuploader
// package.
type GCSStorage struct{}

func (GCSStorage) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	return gcsuploader.FetchFromGCS(ctx, gcsURI)
}

func (GCSStorage) UploadRenamedCopy(ctx context.Context, sourceURI, filename string, data []byte) (string, error) {
	return gcsuploader.UploadRenamedCopy(ctx, sourceURI, filename, data)
}

func (GCSStorage) ExtractFilenameFromGCSURI(uri string) string {
	return gcsuploader.ExtractFilenameFromGCSURI(uri)
}

var _ StorageService = GCSStorage{}
