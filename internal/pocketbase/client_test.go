package pocketbase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/billfold/billfold/internal/pocketbase"
	"github.com/billfold/billfold/internal/pocketbase/pbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateCachesToken(t *testing.T) {
	server := pbtest.New(t)
	server.CreateCollection("user")
	client := server.Client()
	ctx := context.Background()

	require.NoError(t, client.Authenticate(ctx))
	assert.Equal(t, 1, server.Logins())

	_, err := client.ListRecords(ctx, "user", pocketbase.ListOptions{})
	require.NoError(t, err)
	_, err = client.CreateRecord(ctx, "user", map[string]any{"email": "a@example.com"})
	require.NoError(t, err)

	assert.Equal(t, 1, server.Logins())
}

func TestConcurrentFirstCallsShareOneLogin(t *testing.T) {
	server := pbtest.New(t)
	server.CreateCollection("user")
	client := server.Client()

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.ListRecords(context.Background(), "user", pocketbase.ListOptions{})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, server.Logins())
}

func TestRevokedTokenTriggersOneRetry(t *testing.T) {
	server := pbtest.New(t)
	client := server.Client()
	ctx := context.Background()
	seeded := server.Seed("user", map[string]any{"email": "a@example.com"})

	require.NoError(t, client.Authenticate(ctx))
	server.RevokeTokens()

	record, err := client.GetRecord(ctx, "user", seeded.ID())
	require.NoError(t, err)
	assert.Equal(t, seeded.ID(), record.ID())
	assert.Equal(t, 2, server.Logins())
}

func TestBadCredentials(t *testing.T) {
	server := pbtest.New(t)
	server.CreateCollection("user")
	client := pocketbase.NewClient(server.URL,
		pocketbase.WithAdminCredentials("admin@example.com", "wrong"),
	)

	err := client.Authenticate(context.Background())
	var authErr *pocketbase.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 400, authErr.Status)

	// The failed login must not be cached: the next operation tries again.
	_, err = client.ListRecords(context.Background(), "user", pocketbase.ListOptions{})
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 2, server.Logins())
}

func TestMissingRecordIsAPIError(t *testing.T) {
	server := pbtest.New(t)
	server.CreateCollection("user")
	client := server.Client()

	_, err := client.GetRecord(context.Background(), "user", "missing")
	var apiErr *pocketbase.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	assert.NotEmpty(t, apiErr.Message)
	assert.Equal(t, 404, pocketbase.StatusOf(err))
}

func TestMissingCollectionMessage(t *testing.T) {
	server := pbtest.New(t)
	client := server.Client()

	_, err := client.ListRecords(context.Background(), "ghost", pocketbase.ListOptions{})
	var apiErr *pocketbase.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, "Missing collection context.", apiErr.Message)
}

func TestListRecordsPaging(t *testing.T) {
	server := pbtest.New(t)
	client := server.Client()
	for i := 0; i < 7; i++ {
		server.Seed("invoices", map[string]any{"seq": i})
	}

	list, err := client.ListRecords(context.Background(), "invoices", pocketbase.ListOptions{Page: 2, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, list.TotalItems)
	assert.Equal(t, 3, list.TotalPages)
	assert.Len(t, list.Items, 3)
}

func TestFullListWalksEveryPage(t *testing.T) {
	server := pbtest.New(t)
	client := server.Client()
	for i := 0; i < 205; i++ {
		server.Seed("invoices", map[string]any{"seq": i})
	}

	records, err := client.FullList(context.Background(), "invoices", pocketbase.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, records, 205)

	seen := make(map[string]bool, len(records))
	for _, record := range records {
		seen[record.ID()] = true
	}
	assert.Len(t, seen, 205)
}

func TestCreateCollection(t *testing.T) {
	server := pbtest.New(t)
	client := server.Client()
	ctx := context.Background()

	col := pocketbase.Collection{
		Name: "invoices",
		Type: "base",
		Schema: []pocketbase.CollectionField{
			{Name: "userId", Type: "text", Required: true},
		},
	}
	require.NoError(t, client.CreateCollection(ctx, col))

	err := client.CreateCollection(ctx, col)
	require.Error(t, err)
	assert.Equal(t, 400, pocketbase.StatusOf(err))
}

func TestStatusOfUnrelatedError(t *testing.T) {
	assert.Equal(t, 0, pocketbase.StatusOf(nil))
	assert.Equal(t, 0, pocketbase.StatusOf(fmt.Errorf("plain failure")))
}
