package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestWithFieldsAccumulates(t *testing.T) {
	ctx := context.Background()
	ctx = WithFields(ctx, Field{"campaign_id", int64(1)})
	ctx = WithFields(ctx, Field{"email", "a@b.com"})

	fields := getObservabilityFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != "campaign_id" || fields[1].Key != "email" {
		t.Errorf("unexpected field keys: %v, %v", fields[0].Key, fields[1].Key)
	}
}

func TestMergeFieldsDeduplicates(t *testing.T) {
	ctx := WithFields(context.Background(), Field{"status", "draft"})

	merged := mergeFields(ctx, []MetricField{{"status", "active"}, {"latency", 10}})
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged fields, got %d", len(merged))
	}
}

func TestGetRealClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		want      string
	}{
		{
			name:      "single forwarded address",
			forwarded: "203.0.113.7",
			want:      "203.0.113.7",
		},
		{
			name:      "first hop of forwarded chain",
			forwarded: "203.0.113.7, 10.0.0.1",
			want:      "203.0.113.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.Header.Set("X-Forwarded-For", tt.forwarded)

			if got := GetRealClientIP(c); got != tt.want {
				t.Errorf("GetRealClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
