package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"agrimono/internal/models"
	"agrimono/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryStore struct {
	active map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{active: make(map[string]string)}
}

func (m *memoryStore) ActiveDataset(ctx context.Context) (string, error) {
	return m.active["active"], nil
}

func (m *memoryStore) SetActiveDataset(ctx context.Context, id string) error {
	m.active["active"] = id
	return nil
}

func newTestSheetService(t *testing.T, handler http.Handler) (*SheetService, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.SheetsConfig{BaseURL: srv.URL + "/pub?output=csv"}
	svc := NewSheetService(cfg, loadRegistry(t), newMemoryStore(), zap.NewNop())
	return svc, srv
}

func TestSheetService_LoadParsesTypedRecords(t *testing.T) {
	svc, _ := newTestSheetService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1841187586", r.URL.Query().Get("gid"))
		w.Write([]byte("Commune,sup_bt_ha,obs\nAzrou,100,sec\nTimahdite,50.5,\n"))
	}))

	rs, err := svc.Load(context.Background(), "1841187586")
	require.NoError(t, err)
	require.Len(t, rs.Records, 2)
	assert.Equal(t, []string{"Commune", "sup_bt_ha", "obs"}, rs.Columns)
	assert.Equal(t, float64(100), rs.Records[0]["sup_bt_ha"])
	assert.Equal(t, "sec", rs.Records[0]["obs"])
	assert.Equal(t, 50.5, rs.Records[1]["sup_bt_ha"])
	assert.Nil(t, rs.Records[1]["obs"])
}

func TestSheetService_LoadCaches(t *testing.T) {
	var hits int32
	svc, _ := newTestSheetService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("Commune,sup_bt_ha\nAzrou,100\n"))
	}))

	_, err := svc.Load(context.Background(), "1841187586")
	require.NoError(t, err)
	_, err = svc.Load(context.Background(), "1841187586")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSheetService_ReloadRefetches(t *testing.T) {
	var hits int32
	svc, _ := newTestSheetService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("Commune,sup_bt_ha\nAzrou,100\n"))
	}))

	_, err := svc.Load(context.Background(), "1841187586")
	require.NoError(t, err)
	_, err = svc.Reload(context.Background(), "1841187586")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestSheetService_FetchErrorOnBadStatus(t *testing.T) {
	svc, _ := newTestSheetService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := svc.Load(context.Background(), "1841187586")
	var fetchErr *models.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "1841187586", fetchErr.DatasetID)
}

func TestSheetService_SkipsEmptyRows(t *testing.T) {
	svc, _ := newTestSheetService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Commune,sup_bt_ha\nAzrou,100\n,\n\nTimahdite,50\n"))
	}))

	rs, err := svc.Load(context.Background(), "1841187586")
	require.NoError(t, err)
	assert.Len(t, rs.Records, 2)
}

func TestSheetService_LoadAllFailsAsWhole(t *testing.T) {
	svc, _ := newTestSheetService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("gid") == "804566860" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("Commune,sup_bt_ha\nAzrou,100\n"))
	}))

	datasets := []models.Dataset{
		{ID: "1841187586", Label: "Céréales"},
		{ID: "804566860", Label: "Légumineuses"},
	}
	_, err := svc.LoadAll(context.Background(), datasets)
	var fetchErr *models.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "804566860", fetchErr.DatasetID)
}

func TestSheetService_ActiveDatasetRoundTrip(t *testing.T) {
	svc, _ := newTestSheetService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// Default: first registry entry.
	assert.Equal(t, "1482909862", svc.Current(context.Background()).ID)

	ds, err := svc.SetActive(context.Background(), "1841187586")
	require.NoError(t, err)
	assert.Equal(t, "Céréales", ds.Label)
	assert.Equal(t, "1841187586", svc.Current(context.Background()).ID)

	_, err = svc.SetActive(context.Background(), "nope")
	assert.Error(t, err)
}
