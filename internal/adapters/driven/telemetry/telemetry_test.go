package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/custodia-labs/triagem/internal/core/domain"
)

type testProvider struct {
	*Provider
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
}

func newTestProvider(t *testing.T) *testProvider {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	p, err := NewWithProviders(tp, mp)
	require.NoError(t, err)
	return &testProvider{Provider: p, spans: spans, reader: reader}
}

// counterTotal sums the data points of an Int64 counter.
func (tp *testProvider) counterTotal(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, tp.reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

type stubOracle struct {
	err error
}

func (s *stubOracle) Invoke(context.Context, domain.OracleRequest) (string, error) {
	return "verdict", s.err
}
func (s *stubOracle) Name() string { return "gemini" }
func (s *stubOracle) AcceptsPDF() bool { return true }
func (s *stubOracle) Ping(context.Context) error { return nil }
func (s *stubOracle) Close() error { return nil }

type stubMailer struct {
	err error
}

func (s *stubMailer) Send(context.Context, *domain.MailMessage) (string, error) {
	return "<id@triagem>", s.err
}
func (s *stubMailer) Close() error { return nil }

func TestNew_Disabled(t *testing.T) {
	p, err := New(context.Background(), ConfigFromSettings(domain.TelemetrySettings{}, "dev"))
	require.NoError(t, err)
	require.NotNil(t, p.Tracer())

	_, done := p.TrackOperation(context.Background(), "noop")
	done(errors.New("ignored"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestConfigFromSettings(t *testing.T) {
	cfg := ConfigFromSettings(domain.TelemetrySettings{Enabled: true, SampleRate: 0.5}, "1.2.3")
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 0.5, cfg.SampleRate)
}

func TestOracle_Invoke(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"success", nil, false},
		{"failure", domain.ErrOracleUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := newTestProvider(t)
			oracle := WrapOracle(&stubOracle{err: tt.err}, tp.Provider)

			verdict, err := oracle.Invoke(context.Background(), domain.OracleRequest{PDF: []byte("%PDF")})
			assert.Equal(t, "verdict", verdict)
			assert.Equal(t, tt.err, err)
			assert.Equal(t, "gemini", oracle.Name())
			assert.True(t, oracle.AcceptsPDF())

			ended := tp.spans.Ended()
			require.Len(t, ended, 1)
			assert.Equal(t, "oracle.invoke", ended[0].Name())
			assert.Contains(t, ended[0].Attributes(), attribute.Bool("oracle.pdf", true))
			if tt.wantErr {
				assert.Equal(t, codes.Error, ended[0].Status().Code)
				assert.Equal(t, int64(1), tp.counterTotal(t, "triagem.errors.total"))
			} else {
				assert.Equal(t, int64(0), tp.counterTotal(t, "triagem.errors.total"))
			}
			assert.Equal(t, int64(1), tp.counterTotal(t, "triagem.operations.total"))
		})
	}
}

func TestMailer_Send(t *testing.T) {
	tp := newTestProvider(t)
	mailer := WrapMailer(&stubMailer{}, tp.Provider, "smtp")

	id, err := mailer.Send(context.Background(), &domain.MailMessage{To: "a@example.com", HTML: "<p>x</p>"})
	require.NoError(t, err)
	assert.Equal(t, "<id@triagem>", id)
	assert.NoError(t, mailer.Close())

	ended := tp.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "mail.send", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("mail.transport", "smtp"))
	assert.Contains(t, ended[0].Attributes(), attribute.Bool("mail.html", true))
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tp := newTestProvider(t)

	router := gin.New()
	router.Use(GinMiddleware(tp.Provider))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/health", "/boom", "/missing"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	ended := tp.spans.Ended()
	require.Len(t, ended, 3)
	assert.Equal(t, "GET /health", ended[0].Name())
	assert.Equal(t, "GET /boom", ended[1].Name())
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "GET unmatched", ended[2].Name())

	assert.Equal(t, int64(3), tp.counterTotal(t, "triagem.operations.total"))
	assert.Equal(t, int64(1), tp.counterTotal(t, "triagem.errors.total"))
}
