package validation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClient_Validate(t *testing.T) {
	var gotSession string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = r.Header.Get("X-Session-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"return_code": 0, "message": "Validation completed"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	result, err := client.Validate(context.Background(), "sess-9")
	require.NoError(t, err)

	assert.Equal(t, "sess-9", gotSession)
	assert.True(t, result.Valid())
	// Empty description filled from the return-code mapping.
	assert.Equal(t, "Invoice artifact is valid.", result.Description)
}

func TestClient_Validate_InvalidArtifact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"return_code": 1, "message": "Validation completed"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	result, err := client.Validate(context.Background(), "sess-9")
	require.NoError(t, err)

	assert.False(t, result.Valid())
	assert.Equal(t, "Invoice artifact is invalid.", result.Description)
}

func TestDescribeReturnCode(t *testing.T) {
	assert.Equal(t, "Parsing error: incorrect validator arguments.", DescribeReturnCode(-1))
	assert.Equal(t, "Configuration error: validation targets could not be loaded.", DescribeReturnCode(-2))
	assert.Equal(t, "Unknown validator error.", DescribeReturnCode(-99))
}

func TestClient_Report(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/report", r.URL.Path)
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?>
			<report>
				<message id="v1" level="error" code="BR-DE-15" location="/Invoice/cbc:BuyerReference">Buyer reference missing</message>
				<message id="v2" level="warning" code="BR-16">At least one line expected</message>
			</report>`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, zap.NewNop())
	messages, err := client.Report(context.Background(), "sess-9")
	require.NoError(t, err)

	require.Len(t, messages, 2)
	assert.Equal(t, Message{
		ID:       "v1",
		Level:    LevelError,
		Code:     "BR-DE-15",
		Message:  "Buyer reference missing",
		Location: "/Invoice/cbc:BuyerReference",
	}, messages[0])
	assert.Equal(t, LevelWarning, messages[1].Level)

	assert.Len(t, Errors(messages), 1)
}

func TestParseReport_UnknownLevelBecomesError(t *testing.T) {
	messages, err := ParseReport([]byte(`<report><message level="fatal" code="X">broken</message></report>`))
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, LevelError, messages[0].Level)
	assert.Equal(t, "m1", messages[0].ID)
}

func TestParseReport_Malformed(t *testing.T) {
	_, err := ParseReport([]byte(`not xml`))
	assert.Error(t, err)
}
