// Package bq provides a BigQuery-backed schema source: it lists a dataset's
// tables and converts their metadata into the raw schema payload the editor
// widget consumes.
package bq

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"cloud.google.com/go/bigquery"
)

// Source fetches schema payloads from one BigQuery project.
type Source struct {
	client *bigquery.Client
}

// NewSource creates a Source for projectID using application default
// credentials. The source only reads metadata, so it asks for the read-only
// scope.
func NewSource(ctx context.Context, projectID string) (*Source, error) {
	creds, err := google.FindDefaultCredentials(ctx,
		"https://www.googleapis.com/auth/bigquery.readonly",
	)
	if err != nil {
		return nil, fmt.Errorf("ADC not found (run 'gcloud auth application-default login'): %w", err)
	}
	client, err := bigquery.NewClient(ctx, projectID, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &Source{client: client}, nil
}

// newSourceWithClient wraps an existing client, used with the emulator in
// integration tests.
func newSourceWithClient(client *bigquery.Client) *Source {
	return &Source{client: client}
}

func (s *Source) Close() error {
	return s.client.Close()
}

// ListDatasets returns the project's dataset IDs.
func (s *Source) ListDatasets(ctx context.Context) ([]string, error) {
	var datasets []string
	it := s.client.Datasets(ctx)
	for {
		ds, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list datasets: %w", err)
		}
		datasets = append(datasets, ds.DatasetID)
	}
	return datasets, nil
}

// ListTables returns the table IDs of a dataset.
func (s *Source) ListTables(ctx context.Context, datasetID string) ([]string, error) {
	var tables []string
	it := s.client.Dataset(datasetID).Tables(ctx)
	for {
		t, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		tables = append(tables, t.TableID)
	}
	return tables, nil
}

// FetchSchemaPayload reads every table's metadata in the dataset and returns
// the raw payload shape the widget consumes:
// {tables: [{name, columns: [{name, type}]}]}.
func (s *Source) FetchSchemaPayload(ctx context.Context, datasetID string) (map[string]any, error) {
	tableIDs, err := s.ListTables(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	tables := make([]any, 0, len(tableIDs))
	for _, id := range tableIDs {
		md, err := s.client.Dataset(datasetID).Table(id).Metadata(ctx)
		if err != nil {
			return nil, fmt.Errorf("table metadata %s: %w", id, err)
		}
		columns := make([]any, 0, len(md.Schema))
		for _, f := range md.Schema {
			columns = append(columns, map[string]any{
				"name": f.Name,
				"type": string(f.Type),
			})
		}
		tables = append(tables, map[string]any{
			"name":    id,
			"columns": columns,
		})
	}

	return map[string]any{"tables": tables}, nil
}
