package instance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newMetadataServer(t *testing.T, values map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/latest/api/token" {
			w.Header().Set("X-Aws-Ec2-Metadata-Token-Ttl-Seconds", "21600")
			_, _ = w.Write([]byte("token-1"))
			return
		}
		if r.Header.Get("X-Aws-Ec2-Metadata-Token") != "token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		v, ok := values[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(v))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIMDSDescriber_Describe(t *testing.T) {
	srv := newMetadataServer(t, map[string]string{
		"/latest/meta-data/instance-id":                 "i-0123456789abcdef0",
		"/latest/meta-data/placement/availability-zone": "us-east-1a\n",
	})

	info := NewIMDSDescriber(srv.URL, nil).Describe(context.Background())

	assert.Equal(t, "i-0123456789abcdef0", info.InstanceID)
	assert.Equal(t, "us-east-1a", info.AvailabilityZone)
}

func TestIMDSDescriber_PartialMetadata(t *testing.T) {
	srv := newMetadataServer(t, map[string]string{
		"/latest/meta-data/instance-id": "i-abc",
	})

	info := NewIMDSDescriber(srv.URL, nil).Describe(context.Background())

	assert.Equal(t, "i-abc", info.InstanceID)
	assert.Equal(t, Unknown, info.AvailabilityZone)
}

func TestIMDSDescriber_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	info := NewIMDSDescriber(endpoint, nil).Describe(context.Background())

	assert.Equal(t, Info{InstanceID: Unknown, AvailabilityZone: Unknown}, info)
}

func TestStatic(t *testing.T) {
	s := Static{InstanceID: "local", AvailabilityZone: "dev"}
	assert.Equal(t, Info{InstanceID: "local", AvailabilityZone: "dev"}, s.Describe(context.Background()))
}
