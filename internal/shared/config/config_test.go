package config

import (
	"os"
	"testing"
)

func TestLoadForPorts(t *testing.T) {
	if _, ok := os.LookupEnv("SERVICE_NAME"); ok {
		t.Skip("SERVICE_NAME set in environment")
	}
	cases := map[string][2]string{
		"settlement-service": {"8083", "9099"},
		"wallet-service":     {"8082", "9098"},
		"oracle-simulator":   {"", "9094"},
		"outcome-service":    {"8080", "9095"},
	}
	for svc, want := range cases {
		cfg := LoadFor(svc)
		if cfg.ServiceName != svc || cfg.HTTPPort != want[0] || cfg.MetricsPort != want[1] {
			t.Errorf("%s: got %q %q/%q", svc, cfg.ServiceName, cfg.HTTPPort, cfg.MetricsPort)
		}
	}
}

func TestServiceNameEnvWins(t *testing.T) {
	t.Setenv("SERVICE_NAME", "wallet-service")
	t.Setenv("HTTP_PORT_WALLET", "18082")

	cfg := LoadFor("settlement-service")
	if cfg.ServiceName != "wallet-service" || cfg.HTTPPort != "18082" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.TopicBetResolved != "bet_resolved" {
		t.Fatalf("topic = %q", cfg.TopicBetResolved)
	}
}
