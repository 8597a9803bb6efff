package resilience

import (
	"testing"
	"time"
)

func TestCircuitBreakerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     CircuitBreakerConfig
		wantErr bool
	}{
		{name: "defaults", cfg: DefaultCircuitBreakerConfig()},
		{name: "disabled ignores zero values", cfg: CircuitBreakerConfig{Enabled: false}},
		{name: "zero threshold", cfg: CircuitBreakerConfig{Enabled: true, OpenTimeout: time.Second, HalfOpenMaxReq: 1}, wantErr: true},
		{name: "zero open timeout", cfg: CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, HalfOpenMaxReq: 1}, wantErr: true},
		{name: "zero half-open probes", cfg: CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate("WHATSAPP")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestCircuitBreakerConfig_WithDefaults(t *testing.T) {
	got := CircuitBreakerConfig{Enabled: true, FailureThreshold: 3}.withDefaults()
	want := CircuitBreakerConfig{Enabled: true, FailureThreshold: 3, OpenTimeout: 15 * time.Second, HalfOpenMaxReq: 2}
	if got != want {
		t.Fatalf("withDefaults()=%+v want=%+v", got, want)
	}
}
