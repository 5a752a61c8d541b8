//go:build integration

package bq

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"slices"
	"testing"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"
	"google.golang.org/api/option/internaloption"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/testcontainers/testcontainers-go"
	tcbigquery "github.com/testcontainers/testcontainers-go/modules/gcloud/bigquery"

	"github.com/querypad/querypad/schema"
)

const projectID = "test-project"

var dataYAML = []byte(`
projects:
- id: test-project
  datasets:
  - id: test_dataset
    tables:
    - id: users
      columns:
      - name: id
        type: INTEGER
      - name: name
        type: STRING
      - name: email
        type: STRING
      data:
      - id: 1
        name: Alice
        email: alice@example.com
    - id: orders
      columns:
      - name: order_id
        type: INTEGER
      - name: product
        type: STRING
      data:
      - order_id: 100
        product: Widget
`)

var testSource *Source

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcbigquery.Run(
		ctx,
		"ghcr.io/goccy/bigquery-emulator:0.6.1",
		tcbigquery.WithProjectID(projectID),
		tcbigquery.WithDataYAML(bytes.NewReader(dataYAML)),
		testcontainers.WithImagePlatform("linux/amd64"),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start bigquery emulator: %v\n", err)
		os.Exit(1)
	}

	opts := []option.ClientOption{
		option.WithEndpoint(container.URI()),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		option.WithoutAuthentication(),
		internaloption.SkipDialSettingsValidation(),
	}

	bqClient, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create bigquery client: %v\n", err)
		os.Exit(1)
	}

	testSource = newSourceWithClient(bqClient)

	code := m.Run()

	bqClient.Close()
	if err := testcontainers.TerminateContainer(container); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}

	os.Exit(code)
}

func TestListDatasets(t *testing.T) {
	datasets, err := testSource.ListDatasets(context.Background())
	if err != nil {
		t.Fatalf("ListDatasets: %v", err)
	}

	if !slices.Contains(datasets, "test_dataset") {
		t.Errorf("expected test_dataset in datasets, got %v", datasets)
	}
}

func TestListTables(t *testing.T) {
	tables, err := testSource.ListTables(context.Background(), "test_dataset")
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}

	if !slices.Contains(tables, "users") || !slices.Contains(tables, "orders") {
		t.Errorf("expected users and orders in tables, got %v", tables)
	}
}

// TestFetchSchemaPayload verifies the payload the source emits round-trips
// through the editor's normalizer.
func TestFetchSchemaPayload(t *testing.T) {
	payload, err := testSource.FetchSchemaPayload(context.Background(), "test_dataset")
	if err != nil {
		t.Fatalf("FetchSchemaPayload: %v", err)
	}

	tables := schema.Normalize(payload)
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d: %+v", len(tables), tables)
	}

	var users *schema.Table
	for i := range tables {
		if tables[i].Name == "users" {
			users = &tables[i]
		}
	}
	if users == nil {
		t.Fatalf("users table not found in %+v", tables)
	}

	wantTypes := map[string]string{
		"id":    "INTEGER",
		"name":  "STRING",
		"email": "STRING",
	}
	if len(users.Columns) != len(wantTypes) {
		t.Fatalf("expected %d columns, got %d", len(wantTypes), len(users.Columns))
	}
	for _, c := range users.Columns {
		wantType, ok := wantTypes[c.Name]
		if !ok {
			t.Errorf("unexpected column %q", c.Name)
			continue
		}
		if c.Type != wantType {
			t.Errorf("column %q: expected type %q, got %q", c.Name, wantType, c.Type)
		}
	}
}
