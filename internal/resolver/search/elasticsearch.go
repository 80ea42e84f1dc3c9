// internal/resolver/search/elasticsearch.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "context-resolver/internal/common/errors"
	"context-resolver/internal/common/logger"
	"context-resolver/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Index suffixes per collection; the full index name is <prefix>_<suffix>.
const (
	indexCustomers   = "customers"
	indexProjects    = "projects"
	indexTasks       = "tasks"
	indexInvoices    = "invoices"
	indexTeamMembers = "team_members"
)

// ESStore implements Client against Elasticsearch, one index per collection.
type ESStore struct {
	es     *elasticsearch.Client
	prefix string
	logger logger.Logger
}

func NewESStore(es *elasticsearch.Client, indexPrefix string, log logger.Logger) *ESStore {
	return &ESStore{
		es:     es,
		prefix: indexPrefix,
		logger: log.WithFields(map[string]interface{}{"store": "elasticsearch"}),
	}
}

func (s *ESStore) index(suffix string) string {
	return s.prefix + "_" + suffix
}

// esEnvelope is the subset of the search response we read.
type esEnvelope struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// runSearch executes one query body against one index and returns the raw
// hit sources in backend order.
func (s *ESStore) runSearch(ctx context.Context, index string, body map[string]interface{}, limit int) ([]json.RawMessage, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	size := limit
	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(encoded),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.es)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewSearchTimeoutError(index)
		}
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", index, res.Status())
	}

	var envelope esEnvelope
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response for %s: %w", index, err)
	}

	sources := make([]json.RawMessage, 0, len(envelope.Hits.Hits))
	for _, hit := range envelope.Hits.Hits {
		sources = append(sources, hit.Source)
	}
	return sources, nil
}

// Customer fetches one customer document by id.
func (s *ESStore) Customer(ctx context.Context, id string) (*models.Customer, error) {
	res, err := s.es.Get(s.index(indexCustomers), id, s.es.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get customer %s: %w", id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewCustomerNotFoundError(id)
	}
	if res.IsError() {
		return nil, fmt.Errorf("get customer %s: %s", id, res.Status())
	}

	var doc struct {
		Source models.Customer `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode customer %s: %w", id, err)
	}
	doc.Source.ID = id
	return &doc.Source, nil
}

func (s *ESStore) Customers(ctx context.Context, term string, limit int) ([]models.Customer, error) {
	sources, err := s.runSearch(ctx, s.index(indexCustomers), buildCustomerQuery(term), limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.Customer, 0, len(sources))
	for _, src := range sources {
		var c models.Customer
		if err := json.Unmarshal(src, &c); err != nil {
			s.logger.Warn("skipping malformed customer document", map[string]interface{}{"error": err.Error()})
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *ESStore) Projects(ctx context.Context, f ProjectFilter, limit int) ([]models.Project, error) {
	sources, err := s.runSearch(ctx, s.index(indexProjects), buildProjectQuery(f), limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.Project, 0, len(sources))
	for _, src := range sources {
		var p models.Project
		if err := json.Unmarshal(src, &p); err != nil {
			s.logger.Warn("skipping malformed project document", map[string]interface{}{"error": err.Error()})
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *ESStore) Tasks(ctx context.Context, f TaskFilter, limit int) ([]models.Task, error) {
	sources, err := s.runSearch(ctx, s.index(indexTasks), buildTaskQuery(f), limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.Task, 0, len(sources))
	for _, src := range sources {
		var t models.Task
		if err := json.Unmarshal(src, &t); err != nil {
			s.logger.Warn("skipping malformed task document", map[string]interface{}{"error": err.Error()})
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *ESStore) Invoices(ctx context.Context, f InvoiceFilter, limit int) ([]models.Invoice, error) {
	sources, err := s.runSearch(ctx, s.index(indexInvoices), buildInvoiceQuery(f), limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.Invoice, 0, len(sources))
	for _, src := range sources {
		var inv models.Invoice
		if err := json.Unmarshal(src, &inv); err != nil {
			s.logger.Warn("skipping malformed invoice document", map[string]interface{}{"error": err.Error()})
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (s *ESStore) TeamMembers(ctx context.Context, term string, limit int) ([]models.TeamMember, error) {
	sources, err := s.runSearch(ctx, s.index(indexTeamMembers), buildTeamMemberQuery(term), limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.TeamMember, 0, len(sources))
	for _, src := range sources {
		var m models.TeamMember
		if err := json.Unmarshal(src, &m); err != nil {
			s.logger.Warn("skipping malformed team member document", map[string]interface{}{"error": err.Error()})
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
