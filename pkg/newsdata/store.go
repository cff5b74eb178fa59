package newsdata

import (
	"encoding/json"
	"os"

	"github.com/quantlab-io/signalpipe/internal/types"
	"github.com/quantlab-io/signalpipe/pkg/errors"
)

// SaveDocuments persists news documents as a JSON array. The same format is
// used for raw and scored batches; a scored batch simply carries sentiment
// values.
func SaveDocuments(docs []types.NewsDocument, path string) error {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatasetWriteFailed, "failed to encode news documents", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeDatasetWriteFailed, err, "failed to write news documents to %s", path)
	}

	return nil
}

// LoadDocuments restores a document batch persisted by SaveDocuments.
func LoadDocuments(path string) ([]types.NewsDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDatasetReadFailed, err, "failed to read news documents from %s", path)
	}

	var docs []types.NewsDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDatasetReadFailed, err, "failed to decode news documents from %s", path)
	}

	return docs, nil
}
