package observability

import (
	"context"
	"testing"
)

func TestNew_DisabledSkipsExporterSetup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	p, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.tracerProvider != nil || p.meterProvider != nil {
		t.Fatal("expected no providers to be initialized when disabled")
	}

	// Tracer/Meter/TrackOperation must still be safe to call on a disabled provider.
	ctx, done := p.TrackOperation(context.Background(), "noop")
	done(nil)
	_ = ctx

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestDefaultConfig_ServiceIdentity(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ServiceName != "breachcorpus-ingest" {
		t.Fatalf("ServiceName = %q, want breachcorpus-ingest", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Fatalf("SampleRate = %v, want 1.0", cfg.SampleRate)
	}
}
