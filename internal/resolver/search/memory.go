// internal/resolver/search/memory.go
package search

import (
	"context"
	"strings"
	"sync"

	apperrors "context-resolver/internal/common/errors"
	"context-resolver/internal/models"
)

// MemoryStore is an in-memory Client used for local development and tests.
// Matching is case-insensitive substring containment; ordering is insertion
// order.
type MemoryStore struct {
	mu          sync.RWMutex
	customers   []models.Customer
	projects    []models.Project
	tasks       []models.Task
	invoices    []models.Invoice
	teamMembers []models.TeamMember
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AddCustomers(cs ...models.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = append(s.customers, cs...)
}

func (s *MemoryStore) AddProjects(ps ...models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, ps...)
}

func (s *MemoryStore) AddTasks(ts ...models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, ts...)
}

func (s *MemoryStore) AddInvoices(is ...models.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = append(s.invoices, is...)
}

func (s *MemoryStore) AddTeamMembers(ms ...models.TeamMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teamMembers = append(s.teamMembers, ms...)
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (s *MemoryStore) Customer(_ context.Context, id string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.ID == id {
			copied := c
			return &copied, nil
		}
	}
	return nil, apperrors.NewCustomerNotFoundError(id)
}

func (s *MemoryStore) Customers(_ context.Context, term string, limit int) ([]models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Customer{}
	for _, c := range s.customers {
		if len(out) >= limit {
			break
		}
		if term == "" || contains(c.DisplayName, term) || contains(c.CompanyName, term) || contains(c.Email, term) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) Projects(_ context.Context, f ProjectFilter, limit int) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Project{}
	for _, p := range s.projects {
		if len(out) >= limit {
			break
		}
		if f.Term != "" && !contains(p.Name, f.Term) {
			continue
		}
		if f.CustomerID != "" && p.CustomerID != f.CustomerID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) Tasks(_ context.Context, f TaskFilter, limit int) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customerProjects := map[string]bool{}
	if f.CustomerID != "" {
		for _, p := range s.projects {
			if p.CustomerID == f.CustomerID {
				customerProjects[p.ID] = true
			}
		}
	}

	out := []models.Task{}
	for _, t := range s.tasks {
		if len(out) >= limit {
			break
		}
		if f.Term != "" && !contains(t.Title, f.Term) {
			continue
		}
		if f.ProjectID != "" && t.ProjectID != f.ProjectID {
			continue
		}
		if f.CustomerID != "" && !customerProjects[t.ProjectID] {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Invoiced != nil && t.Invoiced != *f.Invoiced {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *MemoryStore) Invoices(_ context.Context, f InvoiceFilter, limit int) ([]models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Invoice{}
	for _, inv := range s.invoices {
		if len(out) >= limit {
			break
		}
		if f.Term != "" && !contains(inv.InvoiceNumber, f.Term) {
			continue
		}
		if f.CustomerID != "" && inv.CustomerID != f.CustomerID {
			continue
		}
		if f.Year != 0 && !strings.HasPrefix(inv.InvoiceNumber, invoiceNumberPrefix(f.Year)) {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (s *MemoryStore) TeamMembers(_ context.Context, term string, limit int) ([]models.TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.TeamMember{}
	for _, m := range s.teamMembers {
		if len(out) >= limit {
			break
		}
		if term == "" || contains(m.Username, term) || contains(m.FullName, term) || contains(m.Role, term) {
			out = append(out, m)
		}
	}
	return out, nil
}
