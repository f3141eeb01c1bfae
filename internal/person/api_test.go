package person

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/council-gov/casework/internal/shared/auth"
	"github.com/council-gov/casework/internal/shared/errors"
	"github.com/council-gov/casework/internal/shared/types"
)

// fakeStore is an in-memory Store for handler tests
type fakeStore struct {
	persons map[types.ID]*Person
}

func newFakeStore() *fakeStore {
	return &fakeStore{persons: make(map[types.ID]*Person)}
}

func (s *fakeStore) Create(ctx context.Context, p *Person) error {
	copied := *p
	s.persons[p.ID] = &copied
	return nil
}

func (s *fakeStore) Get(ctx context.Context, id types.ID) (*Person, error) {
	p, ok := s.persons[id]
	if !ok {
		return nil, errors.NotFound("person", id.String())
	}
	copied := *p
	return &copied, nil
}

func (s *fakeStore) Update(ctx context.Context, p *Person) error {
	if _, ok := s.persons[p.ID]; !ok {
		return errors.NotFound("person", p.ID.String())
	}
	copied := *p
	s.persons[p.ID] = &copied
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id types.ID) error {
	if _, ok := s.persons[id]; !ok {
		return errors.NotFound("person", id.String())
	}
	delete(s.persons, id)
	return nil
}

func (s *fakeStore) List(ctx context.Context, filter ListFilter) ([]Person, int, error) {
	out := []Person{}
	for _, p := range s.persons {
		out = append(out, *p)
	}
	return out, len(out), nil
}

// newTestServer mounts the person routes behind a fixed actor
func newTestServer(t *testing.T, store *fakeStore, actor *auth.Actor) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), auth.ActorContextKey, actor)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Mount("/persons", NewHandler(store, nil).Routes())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func managerActor() *auth.Actor {
	return &auth.Actor{ID: types.NewID(), Role: auth.RoleManager}
}

// TestListPersonsResponseShape tests the list envelope keys
func TestListPersonsResponseShape(t *testing.T) {
	store := newFakeStore()
	store.Create(context.Background(), &Person{
		ID:          types.NewID(),
		PersonType:  PersonTypeReporter,
		FirstName:   "Ada",
		LastName:    "Price",
		LinkedCases: []types.ID{},
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	})
	srv := newTestServer(t, store, managerActor())

	resp, err := http.Get(srv.URL + "/persons")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, ok := body["persons"]; !ok {
		t.Error("Expected persons key in list response")
	}
	if _, ok := body["total"]; !ok {
		t.Error("Expected total key in list response")
	}

	var persons []Person
	if err := json.Unmarshal(body["persons"], &persons); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(persons) != 1 {
		t.Errorf("Expected 1 person, got %d", len(persons))
	}
}

// TestCreatePersonStatus tests that create answers 200 with the record
func TestCreatePersonStatus(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(t, store, managerActor())

	payload := `{"person_type":"reporter","first_name":"Ada","last_name":"Price","notes":"Called twice about the same site"}`
	resp, err := http.Post(srv.URL+"/persons", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var created Person
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if created.ID.IsZero() {
		t.Error("Expected created person to carry an ID")
	}
	if created.Notes != "Called twice about the same site" {
		t.Errorf("Expected notes to round-trip, got %q", created.Notes)
	}
	if len(store.persons) != 1 {
		t.Errorf("Expected 1 stored person, got %d", len(store.persons))
	}
}

// TestDeletePersonStatus tests that a manager delete answers 200
func TestDeletePersonStatus(t *testing.T) {
	store := newFakeStore()
	id := types.NewID()
	store.Create(context.Background(), &Person{
		ID:         id,
		PersonType: PersonTypeOffender,
		FirstName:  "Ben",
		LastName:   "Okoro",
	})
	srv := newTestServer(t, store, managerActor())

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/persons/"+id.String(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if body["status"] != "deleted" {
		t.Errorf("Expected deleted status, got %q", body["status"])
	}
	if len(store.persons) != 0 {
		t.Error("Expected person to be removed from the store")
	}
}

// TestDeletePersonOfficerForbidden tests the manager-only delete gate
func TestDeletePersonOfficerForbidden(t *testing.T) {
	store := newFakeStore()
	id := types.NewID()
	store.Create(context.Background(), &Person{ID: id, PersonType: PersonTypeReporter, FirstName: "Ben", LastName: "Okoro"})
	srv := newTestServer(t, store, &auth.Actor{ID: types.NewID(), Role: auth.RoleOfficer})

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/persons/"+id.String(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d", resp.StatusCode)
	}
	if len(store.persons) != 1 {
		t.Error("Expected person to survive a denied delete")
	}
}
