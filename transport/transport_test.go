package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-api-client/transport"
)

func TestResolvesRelativePathsAgainstBase(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr, err := transport.New(server.URL + "/api/v1")
	require.NoError(t, err)

	query := url.Values{"page": {"2"}}
	resp, err := tr.Do(context.Background(), transport.NewDescriptor(http.MethodGet, "/bookings", query, nil))
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Equal(t, "/api/v1/bookings", gotPath)
	require.Equal(t, "page=2", gotQuery)
}

func TestRejectsRelativeBaseAddress(t *testing.T) {
	_, err := transport.New("/just/a/path")
	require.Error(t, err)
}

func TestDefaultHeadersMergedAndOverridable(t *testing.T) {
	var gotTenant, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = r.Header.Get("X-Tenant")
		gotAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr, err := transport.New(server.URL, transport.WithDefaultHeader("X-Tenant", "fleet-1"))
	require.NoError(t, err)

	_, err = tr.Do(context.Background(), transport.NewDescriptor(http.MethodGet, "ping", nil, nil))
	require.NoError(t, err)
	require.Equal(t, "fleet-1", gotTenant)
	require.Equal(t, "application/json", gotAccept)

	d := transport.NewDescriptor(http.MethodGet, "ping", nil, nil)
	d.Headers = http.Header{"X-Tenant": {"fleet-2"}}
	_, err = tr.Do(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, "fleet-2", gotTenant)
}

func TestJSONPayloadSerialized(t *testing.T) {
	var gotContentType string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	tr, err := transport.New(server.URL)
	require.NoError(t, err)

	payload := map[string]string{"name": "station-7"}
	resp, err := tr.Do(context.Background(), transport.NewDescriptor(http.MethodPost, "stations", nil, payload))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, payload, gotBody)
}

func TestMultipartBodyBypassesJSON(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		gotBody = buf.Bytes()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr, err := transport.New(server.URL)
	require.NoError(t, err)

	body := bytes.NewBufferString("--xyz\r\nraw multipart\r\n--xyz--")
	d := transport.NewMultipartDescriptor(http.MethodPost, "upload", body, "multipart/form-data; boundary=xyz")
	_, err = tr.Do(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data; boundary=xyz", gotContentType)
	require.Contains(t, string(gotBody), "raw multipart")
}

func TestNonSuccessStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"already exists"}`))
	}))
	defer server.Close()

	tr, err := transport.New(server.URL)
	require.NoError(t, err)

	resp, err := tr.Do(context.Background(), transport.NewDescriptor(http.MethodPost, "stations", nil, nil))
	require.NoError(t, err)
	require.False(t, resp.OK())
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Contains(t, string(resp.Body), "already exists")
}

func TestTimeoutSurfacesAsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	tr, err := transport.New(server.URL, transport.WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	resp, err := tr.Do(context.Background(), transport.NewDescriptor(http.MethodGet, "slow", nil, nil))
	require.Error(t, err)
	require.Nil(t, resp)
}

func TestRequestIDHeaderAttached(t *testing.T) {
	var gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr, err := transport.New(server.URL)
	require.NoError(t, err)

	d := transport.NewDescriptor(http.MethodGet, "ping", nil, nil)
	_, err = tr.Do(context.Background(), d)
	require.NoError(t, err)
	require.Equal(t, d.RequestID, gotRequestID)
	require.NotEmpty(t, gotRequestID)
}
