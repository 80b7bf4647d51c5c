package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"shikshaleap/internal/logger"
)

func TestConsoleDeliveryHashesContact(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	delivery := NewConsoleDelivery(logger.NewFromZap(zap.New(core)))

	contacts := []string{"asha@example.com", "9437000002"}
	for _, raw := range contacts {
		t.Run(raw, func(t *testing.T) {
			logs.TakeAll()
			if err := delivery.Deliver(context.Background(), mustContact(t, raw), "123456", 10*time.Minute); err != nil {
				t.Fatalf("Deliver() error = %v", err)
			}

			entries := logs.TakeAll()
			if len(entries) != 1 {
				t.Fatalf("got %d log entries, want 1", len(entries))
			}
			for key, val := range entries[0].ContextMap() {
				if strings.Contains(fmt.Sprint(val), raw) {
					t.Errorf("field %q logs the contact in clear: %v", key, val)
				}
			}
			if got := fmt.Sprint(entries[0].ContextMap()["contact"]); !strings.HasPrefix(got, "hash:") {
				t.Errorf("contact field = %q, want a hash", got)
			}
		})
	}
}
