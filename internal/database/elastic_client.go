package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olivere/elastic/v7"

	"github.com/locvowork/payroll/internal/domain"
)

const employeeMapping = `{
	"mappings": {
		"properties": {
			"id":         {"type": "long"},
			"first_name": {"type": "text"},
			"last_name":  {"type": "text"},
			"role":       {"type": "keyword"}
		}
	}
}`

// EmployeeDoc mirrors domain.Employee for ES storage.
type EmployeeDoc struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// ElasticSearchClient wraps olivere/elastic client and implements domain.EmployeeIndex.
type ElasticSearchClient struct {
	client *elastic.Client
	index  string
}

// NewElasticSearchClient creates a new client for Elasticsearch 7.x.
func NewElasticSearchClient(url, index string, opts ...elastic.ClientOptionFunc) (*ElasticSearchClient, error) {
	options := append([]elastic.ClientOptionFunc{
		elastic.SetURL(url),
		elastic.SetSniff(false), // Essential when using Docker or cloud
	}, opts...)

	client, err := elastic.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &ElasticSearchClient{client: client, index: index}, nil
}

// Close stops the client's background health checks.
func (es *ElasticSearchClient) Close() error {
	es.client.Stop()
	return nil
}

// EnsureIndex creates the employee index with its mapping when missing.
func (es *ElasticSearchClient) EnsureIndex(ctx context.Context) error {
	exists, err := es.client.IndexExists(es.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", es.index, err)
	}
	if exists {
		return nil
	}

	if _, err := es.client.CreateIndex(es.index).BodyString(employeeMapping).Do(ctx); err != nil {
		return fmt.Errorf("failed to create index %s: %w", es.index, err)
	}
	return nil
}

// DropIndex deletes the employee index, a missing index is not an error.
func (es *ElasticSearchClient) DropIndex(ctx context.Context) error {
	_, err := es.client.DeleteIndex(es.index).Do(ctx)
	if err != nil && !elastic.IsNotFound(err) {
		return fmt.Errorf("failed to delete index %s: %w", es.index, err)
	}
	return nil
}

// IndexEmployee indexes an employee document using its id as the document ID.
func (es *ElasticSearchClient) IndexEmployee(ctx context.Context, e domain.Employee) error {
	_, err := es.client.Index().
		Index(es.index).
		Id(docID(e.ID)).
		BodyJson(toEmployeeDoc(e)).
		Refresh("true"). // Make changes immediately searchable
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index employee %d: %w", e.ID, err)
	}
	return nil
}

// RemoveEmployee deletes the document; an unknown id is not an error.
func (es *ElasticSearchClient) RemoveEmployee(ctx context.Context, id int64) error {
	_, err := es.client.Delete().
		Index(es.index).
		Id(docID(id)).
		Refresh("true").
		Do(ctx)
	if err != nil && !elastic.IsNotFound(err) {
		return fmt.Errorf("failed to remove employee %d: %w", id, err)
	}
	return nil
}

// SearchByName performs a full-text match on first_name or last_name.
func (es *ElasticSearchClient) SearchByName(ctx context.Context, name string) ([]domain.Employee, error) {
	query := elastic.NewMultiMatchQuery(name, "first_name", "last_name")

	searchResult, err := es.client.Search().
		Index(es.index).
		Query(query).
		Size(100).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	employees := make([]domain.Employee, 0, len(searchResult.Hits.Hits))
	for _, item := range searchResult.Hits.Hits {
		var doc EmployeeDoc
		if err := json.Unmarshal(item.Source, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode hit %s: %w", item.Id, err)
		}
		employees = append(employees, doc.toDomain())
	}

	return employees, nil
}

// BulkIndexEmployees efficiently indexes multiple employees.
func (es *ElasticSearchClient) BulkIndexEmployees(ctx context.Context, employees []domain.Employee) error {
	bulkRequest := es.client.Bulk()

	for _, e := range employees {
		req := elastic.NewBulkIndexRequest().
			Index(es.index).
			Id(docID(e.ID)).
			Doc(toEmployeeDoc(e))
		bulkRequest = bulkRequest.Add(req)
	}

	if bulkRequest.NumberOfActions() == 0 {
		return nil
	}

	bulkResponse, err := bulkRequest.Refresh("true").Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index failed: %w", err)
	}

	if failed := bulkResponse.Failed(); len(failed) > 0 {
		reason := fmt.Sprintf("status %d", failed[0].Status)
		if failed[0].Error != nil {
			reason = failed[0].Error.Reason
		}
		return fmt.Errorf("bulk index: %d items failed, first: %s", len(failed), reason)
	}

	return nil
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func toEmployeeDoc(e domain.Employee) EmployeeDoc {
	return EmployeeDoc{ID: e.ID, FirstName: e.FirstName, LastName: e.LastName, Role: e.Role}
}

func (d EmployeeDoc) toDomain() domain.Employee {
	return domain.Employee{ID: d.ID, FirstName: d.FirstName, LastName: d.LastName, Role: d.Role}
}

// DisabledEmployeeIndex stands in when no search backend is configured.
// Writes are dropped and searches fail with domain.ErrSearchDisabled.
type DisabledEmployeeIndex struct{}

func (DisabledEmployeeIndex) IndexEmployee(context.Context, domain.Employee) error { return nil }

func (DisabledEmployeeIndex) RemoveEmployee(context.Context, int64) error { return nil }

func (DisabledEmployeeIndex) SearchByName(context.Context, string) ([]domain.Employee, error) {
	return nil, domain.ErrSearchDisabled
}
