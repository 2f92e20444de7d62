package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/ca-srg/footprint/internal/types"
)

func TestSettingsDefaults(t *testing.T) {
	s, err := SettingsFromConfig(&types.Config{})
	require.NoError(t, err)

	assert.False(t, s.Enabled)
	assert.Equal(t, defaultServiceName, s.ServiceName)
	assert.Equal(t, protocolHTTPProtobuf, s.Protocol)
	assert.Equal(t, "always_on", s.Sampler)
	assert.Equal(t, defaultExportInterval, s.ExportInterval)
	assert.Equal(t, defaultServiceName, s.ResourceAttributes[resourceServiceName])
}

func TestSettingsValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.Config
		wantErr bool
	}{
		{name: "missing endpoint", cfg: types.Config{OTelEnabled: true}, wantErr: true},
		{name: "http without scheme", cfg: types.Config{OTelEnabled: true, OTelExporterOTLPEndpoint: "collector:4318"}, wantErr: true},
		{name: "http ok", cfg: types.Config{OTelEnabled: true, OTelExporterOTLPEndpoint: "http://collector:4318"}},
		{name: "grpc host port", cfg: types.Config{OTelEnabled: true, OTelExporterOTLPProtocol: "grpc", OTelExporterOTLPEndpoint: "collector:4317"}},
		{name: "grpc no port", cfg: types.Config{OTelEnabled: true, OTelExporterOTLPProtocol: "grpc", OTelExporterOTLPEndpoint: "collector"}, wantErr: true},
		{name: "unknown protocol", cfg: types.Config{OTelEnabled: true, OTelExporterOTLPProtocol: "udp", OTelExporterOTLPEndpoint: "http://c"}, wantErr: true},
		{name: "bad ratio", cfg: types.Config{OTelEnabled: true, OTelExporterOTLPEndpoint: "http://c:4318", OTelTracesSampler: "traceidratio", OTelTracesSamplerArg: 2}, wantErr: true},
		{name: "bad attributes", cfg: types.Config{OTelResourceAttributes: "novalue"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			_, err := SettingsFromConfig(&cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseResourceAttributes(t *testing.T) {
	attrs, err := parseResourceAttributes(" env=test, team = search ,,")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"env": "test", "team": "search"}, attrs)

	_, err = parseResourceAttributes("=x")
	assert.Error(t, err)
}

func TestSignalURL(t *testing.T) {
	tests := map[string]string{
		"http://collector:4318":           "http://collector:4318/v1/traces",
		"http://collector:4318/":          "http://collector:4318/v1/traces",
		"http://collector:4318/v1/traces": "http://collector:4318/v1/traces",
		"https://otel.example/otlp?x=1":   "https://otel.example/otlp/v1/traces?x=1",
		"https://otel.example/v1/traces/": "https://otel.example/v1/traces",
	}
	for in, want := range tests {
		got, err := signalURL(in, "/v1/traces")
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestGRPCTarget(t *testing.T) {
	target, insecure, err := grpcTarget("https://collector:4317")
	require.NoError(t, err)
	assert.Equal(t, "collector:4317", target)
	assert.False(t, insecure)

	target, insecure, err = grpcTarget("collector:4317")
	require.NoError(t, err)
	assert.Equal(t, "collector:4317", target)
	assert.True(t, insecure)

	_, _, err = grpcTarget("ftp://collector:4317")
	assert.Error(t, err)
}

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), &types.Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitExportsToOTLPHTTP(t *testing.T) {
	var traceRequests atomic.Int32
	var metricRequests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/traces":
			traceRequests.Add(1)
		case "/v1/metrics":
			metricRequests.Add(1)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)

	cfg := &types.Config{
		OTelEnabled:              true,
		OTelServiceName:          "footprint-test",
		OTelExporterOTLPEndpoint: server.URL,
		OTelExporterOTLPProtocol: "http/protobuf",
		OTelResourceAttributes:   "service.namespace=footprint-test,environment=test",
		OTelTracesSampler:        "always_on",
		OTelTracesSamplerArg:     1.0,
	}

	shutdown, err := Init(context.Background(), cfg, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, span := otel.Tracer("footprint/test").Start(ctx, "integration-span")
	span.End()

	counter, err := otel.Meter("footprint/test").Int64Counter("footprint.test.counter", metric.WithDescription("test counter"))
	require.NoError(t, err)
	counter.Add(ctx, 1)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, shutdown(shutdownCtx))

	require.GreaterOrEqual(t, traceRequests.Load(), int32(1), "no trace export received")
	require.GreaterOrEqual(t, metricRequests.Load(), int32(1), "no metric export received")
}
