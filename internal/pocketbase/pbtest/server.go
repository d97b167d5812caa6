// Package pbtest runs an in-memory stand-in for the remote collection store,
// good enough for exercising the client, the adapter and the services
// against real HTTP round-trips in tests.
package pbtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/billfold/billfold/internal/pocketbase"
)

const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme123"
)

// Server is an in-memory collection store behind an httptest listener.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	adminEmail  string
	adminPass   string
	collections map[string][]map[string]any
	tokens      map[string]bool
	logins      int
	seq         int
}

// New starts a fake store with the default admin identity. The listener is
// shut down when the test finishes.
func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		adminEmail:  DefaultAdminEmail,
		adminPass:   DefaultAdminPassword,
		collections: make(map[string][]map[string]any),
		tokens:      make(map[string]bool),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Server.Close)
	return s
}

// Client builds a store client wired to this server with admin credentials.
func (s *Server) Client() *pocketbase.Client {
	return pocketbase.NewClient(s.URL, pocketbase.WithAdminCredentials(s.adminEmail, s.adminPass))
}

// CreateCollection registers an empty collection.
func (s *Server) CreateCollection(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = []map[string]any{}
	}
}

// Seed inserts a record directly, bypassing HTTP, and returns it. Field
// values go through a JSON round-trip so they compare the way HTTP-created
// records do.
func (s *Server) Seed(collection string, fields map[string]any) pocketbase.Record {
	raw, err := json.Marshal(fields)
	if err != nil {
		panic(err)
	}
	var normalized map[string]any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection]; !ok {
		s.collections[collection] = []map[string]any{}
	}
	rec := s.newRecord(normalized)
	s.collections[collection] = append(s.collections[collection], rec)
	return pocketbase.Record(copyMap(rec))
}

// Records returns a snapshot of a collection's rows.
func (s *Server) Records(collection string) []pocketbase.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pocketbase.Record, 0, len(s.collections[collection]))
	for _, rec := range s.collections[collection] {
		out = append(out, pocketbase.Record(copyMap(rec)))
	}
	return out
}

// Logins reports how many admin logins the server has served.
func (s *Server) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// RevokeTokens invalidates every issued admin token, forcing clients back
// through the login endpoint.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]bool)
}

func (s *Server) newRecord(fields map[string]any) map[string]any {
	s.seq++
	rec := copyMap(fields)
	if id, ok := rec["id"].(string); !ok || id == "" {
		rec["id"] = fmt.Sprintf("rec%012d", s.seq)
	}
	// Offset by the sequence number so records created in the same
	// millisecond still sort in insertion order.
	now := time.Now().UTC().Add(time.Duration(s.seq) * time.Millisecond).Format("2006-01-02 15:04:05.000Z")
	rec["created"] = now
	rec["updated"] = now
	return rec
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/collections/_superusers/auth-with-password" && r.Method == http.MethodPost {
		s.handleLogin(w, r)
		return
	}
	if r.URL.Path == "/api/collections" && r.Method == http.MethodPost {
		if !s.authorized(r) {
			writeError(w, http.StatusUnauthorized, "The request requires valid admin authorization token.")
			return
		}
		s.handleCreateCollection(w, r)
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, "/api/collections/")
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "The request requires valid admin authorization token.")
		return
	}

	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 2 && parts[1] == "records":
		s.handleCollection(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "records":
		s.handleRecord(w, r, parts[0], parts[2])
	default:
		writeError(w, http.StatusNotFound, "Not found.")
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Identity string `json:"identity"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins++
	if creds.Identity != s.adminEmail || creds.Password != s.adminPass {
		writeError(w, http.StatusBadRequest, "Failed to authenticate.")
		return
	}
	token := fmt.Sprintf("token-%d", s.logins)
	s.tokens[token] = true
	writeJSON(w, http.StatusOK, map[string]any{
		"token":  token,
		"record": map[string]any{"id": "su0001", "email": s.adminEmail},
	})
}

func (s *Server) authorized(r *http.Request) bool {
	token := r.Header.Get("Authorization")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[token]
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var col struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&col); err != nil || col.Name == "" {
		writeError(w, http.StatusBadRequest, "Invalid collection definition.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.collections[col.Name]; exists {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Collection %q already exists.", col.Name))
		return
	}
	s.collections[col.Name] = []map[string]any{}
	writeJSON(w, http.StatusOK, map[string]any{"name": col.Name})
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, exists := s.collections[name]
	if !exists {
		writeError(w, http.StatusNotFound, "Missing collection context.")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.listRecords(w, r, records)
	case http.MethodPost:
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		rec := s.newRecord(fields)
		s.collections[name] = append(s.collections[name], rec)
		writeJSON(w, http.StatusOK, rec)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	}
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request, name, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, exists := s.collections[name]
	if !exists {
		writeError(w, http.StatusNotFound, "Missing collection context.")
		return
	}

	idx := -1
	for i, rec := range records {
		if rec["id"] == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeError(w, http.StatusNotFound, "The requested resource wasn't found.")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, records[idx])
	case http.MethodPatch:
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body.")
			return
		}
		for k, v := range fields {
			records[idx][k] = v
		}
		records[idx]["updated"] = time.Now().UTC().Format("2006-01-02 15:04:05.000Z")
		writeJSON(w, http.StatusOK, records[idx])
	case http.MethodDelete:
		s.collections[name] = append(records[:idx:idx], records[idx+1:]...)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	}
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request, records []map[string]any) {
	q := r.URL.Query()

	filtered := records
	if filter := q.Get("filter"); filter != "" {
		filtered = nil
		for _, rec := range records {
			match, err := evalFilter(filter, rec)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid filter expression.")
				return
			}
			if match {
				filtered = append(filtered, rec)
			}
		}
	}

	if sortExpr := q.Get("sort"); sortExpr != "" {
		filtered = sortRecords(filtered, sortExpr)
	}

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("perPage"))
	if perPage < 1 {
		perPage = 30
	}

	total := len(filtered)
	totalPages := (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	items := make([]map[string]any, 0, end-start)
	items = append(items, filtered[start:end]...)

	writeJSON(w, http.StatusOK, map[string]any{
		"page":       page,
		"perPage":    perPage,
		"totalItems": total,
		"totalPages": totalPages,
		"items":      items,
	})
}

func sortRecords(records []map[string]any, expr string) []map[string]any {
	field := expr
	desc := false
	if strings.HasPrefix(field, "-") {
		desc = true
		field = field[1:]
	}

	out := make([]map[string]any, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return compareValues(out[j][field], out[i][field])
		}
		return compareValues(out[i][field], out[j][field])
	})
	return out
}

func compareValues(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af < bf
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"status": status, "message": msg})
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
