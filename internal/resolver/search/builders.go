// internal/resolver/search/builders.go
package search

import "fmt"

// Query builders for the Elasticsearch store. Pure functions so the request
// bodies can be unit-tested without a cluster.

// invoiceNumberPrefix is the shared numbering scheme: INV-<year>-<seq>.
func invoiceNumberPrefix(year int) string {
	return fmt.Sprintf("INV-%d-", year)
}

// buildTextQuery produces a multi_match over the given boosted fields, or a
// match_all when the term is empty.
func buildTextQuery(term string, fields []string) map[string]interface{} {
	if term == "" {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}
	return map[string]interface{}{
		"multi_match": map[string]interface{}{
			"query":  term,
			"fields": fields,
			"type":   "best_fields",
		},
	}
}

func boolQuery(must []interface{}, filter []interface{}) map[string]interface{} {
	b := map[string]interface{}{}
	if len(must) > 0 {
		b["must"] = must
	}
	if len(filter) > 0 {
		b["filter"] = filter
	}
	if len(b) == 0 {
		b["must"] = []interface{}{map[string]interface{}{"match_all": map[string]interface{}{}}}
	}
	return map[string]interface{}{"query": map[string]interface{}{"bool": b}}
}

func termClause(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{field: value},
	}
}

func buildCustomerQuery(term string) map[string]interface{} {
	return boolQuery(
		[]interface{}{buildTextQuery(term, []string{"displayName^3", "companyName^2", "email"})},
		nil,
	)
}

func buildProjectQuery(f ProjectFilter) map[string]interface{} {
	var must, filter []interface{}
	if f.Term != "" {
		must = append(must, buildTextQuery(f.Term, []string{"name^3", "status"}))
	}
	if f.CustomerID != "" {
		filter = append(filter, termClause("customerId", f.CustomerID))
	}
	return boolQuery(must, filter)
}

func buildTaskQuery(f TaskFilter) map[string]interface{} {
	var must, filter []interface{}
	if f.Term != "" {
		must = append(must, buildTextQuery(f.Term, []string{"title^3", "taskType"}))
	}
	if f.ProjectID != "" {
		filter = append(filter, termClause("projectId", f.ProjectID))
	}
	if f.CustomerID != "" {
		filter = append(filter, termClause("customerId", f.CustomerID))
	}
	if f.Status != "" {
		filter = append(filter, termClause("status", f.Status))
	}
	if f.Invoiced != nil {
		filter = append(filter, termClause("invoiced", *f.Invoiced))
	}
	return boolQuery(must, filter)
}

func buildInvoiceQuery(f InvoiceFilter) map[string]interface{} {
	var must, filter []interface{}
	if f.Term != "" {
		must = append(must, buildTextQuery(f.Term, []string{"invoiceNumber^3", "status"}))
	}
	if f.CustomerID != "" {
		filter = append(filter, termClause("customerId", f.CustomerID))
	}
	if f.ProjectID != "" {
		filter = append(filter, termClause("projectId", f.ProjectID))
	}
	q := boolQuery(must, filter)
	if f.Year != 0 {
		// Numbering scan: newest invoices first within the year.
		q["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"] = append(
			filter, map[string]interface{}{
				"prefix": map[string]interface{}{"invoiceNumber": invoiceNumberPrefix(f.Year)},
			})
		q["sort"] = []interface{}{
			map[string]interface{}{"invoiceDate": map[string]interface{}{"order": "desc"}},
		}
	}
	return q
}

func buildTeamMemberQuery(term string) map[string]interface{} {
	return boolQuery(
		[]interface{}{buildTextQuery(term, []string{"fullName^3", "username^2", "role", "email"})},
		nil,
	)
}
