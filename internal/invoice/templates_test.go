package invoice_test

import (
	"context"
	"sync"
	"testing"

	"github.com/billfold/billfold/internal/invoice"
	"github.com/billfold/billfold/internal/pocketbase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func templateInput(name string) invoice.TemplateInput {
	return invoice.TemplateInput{
		Name: name,
		Settings: invoice.TemplateSettings{
			Template:     "classic",
			PrimaryColor: "#000000",
			FontFamily:   "Inter",
		},
	}
}

func TestTemplateCRUD(t *testing.T) {
	svc, server := newService(t)
	ctx := context.Background()

	created, err := svc.CreateTemplate(ctx, "u1", templateInput("House style"))
	require.NoError(t, err)
	assert.Equal(t, "House style", created.Name)
	assert.Equal(t, "classic", created.Settings.Template)
	assert.False(t, created.IsDefault)

	got, err := svc.GetTemplate(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetTemplate(ctx, "u2", created.ID)
	assert.ErrorIs(t, err, invoice.ErrNotFound)

	input := templateInput("Renamed")
	input.Settings.PrimaryColor = "#ff0000"
	updated, err := svc.UpdateTemplate(ctx, "u1", created.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "#ff0000", updated.Settings.PrimaryColor)

	require.NoError(t, svc.DeleteTemplate(ctx, "u1", created.ID))
	assert.Empty(t, server.Records(invoice.CollectionTemplates))
}

func TestCreateTemplateRequiresName(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.CreateTemplate(context.Background(), "u1", templateInput("  "))
	assert.ErrorIs(t, err, invoice.ErrValidation)
}

func TestSetDefaultTemplateClearsPrevious(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	first, err := svc.CreateTemplate(ctx, "u1", invoice.TemplateInput{Name: "First", IsDefault: true})
	require.NoError(t, err)
	second, err := svc.CreateTemplate(ctx, "u1", templateInput("Second"))
	require.NoError(t, err)

	got, err := svc.DefaultTemplate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = svc.SetDefaultTemplate(ctx, "u1", second.ID)
	require.NoError(t, err)

	got, err = svc.DefaultTemplate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	templates, err := svc.ListTemplates(ctx, "u1")
	require.NoError(t, err)
	defaults := 0
	for _, tpl := range templates {
		if tpl.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestDefaultTemplateNoneFlagged(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateTemplate(ctx, "u1", templateInput("Plain"))
	require.NoError(t, err)

	_, err = svc.DefaultTemplate(ctx, "u1")
	assert.ErrorIs(t, err, invoice.ErrNotFound)
}

// gatedStore is an in-memory store whose FullList calls rendezvous at a
// barrier, so two SetDefaultTemplate calls can be forced to read the same
// state before either writes.
type gatedStore struct {
	mu   sync.Mutex
	rows map[string]pocketbase.Record

	arrivals *sync.WaitGroup
	gate     chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{rows: map[string]pocketbase.Record{}}
}

func (g *gatedStore) seed(id string, fields map[string]any) {
	rec := pocketbase.Record{"id": id}
	for k, v := range fields {
		rec[k] = v
	}
	g.mu.Lock()
	g.rows[id] = rec
	g.mu.Unlock()
}

func (g *gatedStore) CreateRecord(ctx context.Context, collection string, data map[string]any) (pocketbase.Record, error) {
	panic("not used")
}

func (g *gatedStore) GetRecord(ctx context.Context, collection, id string) (pocketbase.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyRecord(g.rows[id]), nil
}

func (g *gatedStore) UpdateRecord(ctx context.Context, collection, id string, data map[string]any) (pocketbase.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for k, v := range data {
		g.rows[id][k] = v
	}
	return copyRecord(g.rows[id]), nil
}

func (g *gatedStore) DeleteRecord(ctx context.Context, collection, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rows, id)
	return nil
}

func (g *gatedStore) FullList(ctx context.Context, collection string, opts pocketbase.ListOptions) ([]pocketbase.Record, error) {
	g.mu.Lock()
	out := make([]pocketbase.Record, 0, len(g.rows))
	for _, rec := range g.rows {
		out = append(out, copyRecord(rec))
	}
	g.mu.Unlock()

	if g.arrivals != nil {
		g.arrivals.Done()
		<-g.gate
	}
	return out, nil
}

func copyRecord(r pocketbase.Record) pocketbase.Record {
	out := make(pocketbase.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Two concurrent SetDefaultTemplate calls that both read before either
// writes each clear the old default and then flag their own target, leaving
// two defaults behind. The clear-then-set sequence is advisory, not atomic.
func TestSetDefaultTemplateConcurrentCallsCanLeaveTwoDefaults(t *testing.T) {
	store := newGatedStore()
	store.seed("tplA", map[string]any{"userId": "u1", "name": "A", "isDefault": true})
	store.seed("tplB", map[string]any{"userId": "u1", "name": "B", "isDefault": false})
	store.seed("tplC", map[string]any{"userId": "u1", "name": "C", "isDefault": false})

	arrivals := &sync.WaitGroup{}
	arrivals.Add(2)
	store.arrivals = arrivals
	store.gate = make(chan struct{})

	svc := invoice.NewService(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, target := range []string{"tplB", "tplC"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.SetDefaultTemplate(ctx, "u1", id)
			assert.NoError(t, err)
		}(target)
	}

	// Hold the gate until both calls have read the pre-write state.
	arrivals.Wait()
	store.arrivals = nil
	close(store.gate)
	wg.Wait()

	defaults := 0
	for _, id := range []string{"tplA", "tplB", "tplC"} {
		rec, err := store.GetRecord(ctx, invoice.CollectionTemplates, id)
		require.NoError(t, err)
		if rec.GetBool("isDefault") {
			defaults++
		}
	}
	assert.Equal(t, 2, defaults)
}
