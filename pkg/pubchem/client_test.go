package pubchem

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formulary-labs/formulation-cli/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}
}

func TestLookupByName(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   string
		wantCount int
	}{
		{
			name:   "single match",
			status: http.StatusOK,
			body: `{"PropertyTable": {"Properties": [
				{"CID": 753, "MolecularFormula": "C3H8O3", "IUPACName": "propane-1,2,3-triol"}
			]}}`,
			wantCount: 1,
		},
		{
			name:   "multiple matches keep database order",
			status: http.StatusOK,
			body: `{"PropertyTable": {"Properties": [
				{"CID": 14985, "MolecularFormula": "C29H50O2"},
				{"CID": 2116, "MolecularFormula": "C28H48O2"}
			]}}`,
			wantCount: 2,
		},
		{
			name:      "unknown name fault",
			status:    http.StatusNotFound,
			body:      `{"Fault": {"Code": "PUGREST.NotFound", "Message": "No CID found"}}`,
			wantCount: 0,
		},
		{
			name:    "bad request",
			status:  http.StatusBadRequest,
			body:    `{"Fault": {"Code": "PUGREST.BadRequest"}}`,
			wantErr: "unexpected status 400",
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `{invalid`,
			wantErr: "unmarshal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/compound/name/Glycerin/property/MolecularFormula,IUPACName/JSON", r.URL.Path)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(WithBaseURL(srv.URL), WithRetry(fastRetry()))

			compounds, err := client.LookupByName(context.Background(), "Glycerin")

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Len(t, compounds, tt.wantCount)
		})
	}
}

func TestLookupByName_FirstMatchFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"PropertyTable": {"Properties": [
			{"CID": 962, "MolecularFormula": "H2O", "IUPACName": "oxidane"}
		]}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetry(fastRetry()))

	compounds, err := client.LookupByName(context.Background(), "Water")

	require.NoError(t, err)
	require.Len(t, compounds, 1)
	assert.Equal(t, int64(962), compounds[0].CID)
	assert.Equal(t, "H2O", compounds[0].MolecularFormula)
	assert.Equal(t, "oxidane", compounds[0].IUPACName)
}

func TestLookupByName_EscapesName(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"PropertyTable": {"Properties": []}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetry(fastRetry()))

	_, err := client.LookupByName(context.Background(), "sodium chloride/water")

	require.NoError(t, err)
	assert.Contains(t, gotPath, "sodium%20chloride%2Fwater")
}

func TestLookupByName_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"Fault": {"Code": "PUGREST.ServerBusy"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"PropertyTable": {"Properties": [{"CID": 753, "MolecularFormula": "C3H8O3"}]}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetry(fastRetry()))

	compounds, err := client.LookupByName(context.Background(), "Glycerin")

	require.NoError(t, err)
	assert.Len(t, compounds, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLookupByName_EmptyName(t *testing.T) {
	client := NewClient(WithRetry(fastRetry()))

	_, err := client.LookupByName(context.Background(), "")
	assert.Error(t, err)
}
