package catalogimport

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Decode reads gzipped YAML from r, one Document per YAML document.
func Decode(ctx context.Context, r io.Reader) ([]Document, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	dec := yaml.NewDecoder(gzipReader)
	dec.KnownFields(true)

	var docs []Document
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var doc Document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode document %d: %w", len(docs), err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// fileLoader implements Loader for gzipped catalog files on local disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based catalog loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "catalog-loader").Logger(),
	}
}

// Load reads a gzipped catalog file from disk.
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]Document, error) {
	l.logger.Info().Str("file", filePath).Msg("loading catalog file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open catalog file")
		return nil, fmt.Errorf("failed to open catalog file %s: %w", filePath, err)
	}
	defer file.Close()

	docs, err := Decode(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read catalog file")
		return nil, fmt.Errorf("failed to read catalog file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("documents", len(docs)).
		Msg("catalog file loaded successfully")

	return docs, nil
}

// Encode writes docs to w as gzipped multi-document YAML.
func Encode(w io.Writer, docs []Document) error {
	gzipWriter := gzip.NewWriter(w)

	enc := yaml.NewEncoder(gzipWriter)
	enc.SetIndent(2)
	for i, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode document %d: %w", i, err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush yaml encoder: %w", err)
	}
	return gzipWriter.Close()
}
