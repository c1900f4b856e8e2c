package media

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/playperu/geohunt/internal/geohunt"
)

func TestStoreUnavailableBeforeConnect(t *testing.T) {
	clock := &fakeClock{}
	s := New(discard, RetryPolicy{Retries: 2, Delay: DefaultRetryDelay, After: clock.After})

	if _, err := s.SummaryForUser(context.Background(), "alice"); !errors.Is(err, geohunt.ErrStoreUnavailable) {
		t.Errorf("summary err = %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.RawRecordsForUser(context.Background(), "alice"); !errors.Is(err, geohunt.ErrStoreUnavailable) {
		t.Errorf("records err = %v, want ErrStoreUnavailable", err)
	}
	if len(clock.delays) != 4 {
		t.Errorf("waits = %d, want 2 per query", len(clock.delays))
	}
	if err := s.Check(context.Background()); err == nil {
		t.Error("Check before connect should fail")
	}
	s.Close()
}

func TestConnectRejectsBadDSN(t *testing.T) {
	s := New(discard, RetryPolicy{})
	if err := s.Connect(context.Background(), Config{DSN: "::not a dsn"}); err == nil {
		t.Error("expected error for invalid dsn")
	}
}

func TestQueriesFailFastAfterConnectFails(t *testing.T) {
	clock := &fakeClock{}
	s := New(discard, RetryPolicy{Retries: DefaultRetries, Delay: DefaultRetryDelay, After: clock.After})
	if err := s.Connect(context.Background(), Config{DSN: "::not a dsn"}); err == nil {
		t.Fatal("expected error for invalid dsn")
	}

	if _, err := s.SummaryForUser(context.Background(), "alice"); !errors.Is(err, geohunt.ErrStoreUnavailable) {
		t.Errorf("summary err = %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.RawRecordsForUser(context.Background(), "alice"); !errors.Is(err, geohunt.ErrStoreUnavailable) {
		t.Errorf("records err = %v, want ErrStoreUnavailable", err)
	}
	if len(clock.delays) != 0 {
		t.Errorf("waits = %d, want none once connecting failed", len(clock.delays))
	}
	if err := s.Check(context.Background()); err == nil || errors.Is(err, errNotReady) {
		t.Errorf("Check = %v, want the connect error", err)
	}
}

func TestTunnelConfigNeedsCredentials(t *testing.T) {
	c := TunnelConfig{Addr: "bastion:22", User: "geo"}
	if !c.Enabled() {
		t.Fatal("tunnel with addr should be enabled")
	}
	if _, err := c.clientConfig(discard); err == nil {
		t.Error("expected error without password or key")
	}

	c.Password = "secret"
	cfg, err := c.clientConfig(discard)
	if err != nil {
		t.Fatalf("clientConfig: %v", err)
	}
	if cfg.User != "geo" || len(cfg.Auth) != 1 {
		t.Errorf("config = %+v", cfg)
	}

	c.KeyFile = "/does/not/exist"
	if _, err := c.clientConfig(discard); err == nil {
		t.Error("expected error for missing key file")
	}
}

func TestDisabled(t *testing.T) {
	var m geohunt.MediaStore = Disabled{}
	sum, err := m.SummaryForUser(context.Background(), "alice")
	if err != nil || sum.UploadedVideos != 0 {
		t.Errorf("summary = %+v, %v", sum, err)
	}
	recs, err := m.RawRecordsForUser(context.Background(), "alice")
	if err != nil || len(recs) != 0 {
		t.Errorf("records = %+v, %v", recs, err)
	}
}

// TestStoreIntegration runs against a live database when MEDIA_TEST_DSN is
// set. The user_activity and videos tables must exist.
func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("MEDIA_TEST_DSN")
	if dsn == "" {
		t.Skip("MEDIA_TEST_DSN not set")
	}
	ctx := context.Background()

	s := New(discard, RetryPolicy{})
	if err := s.Connect(ctx, Config{DSN: dsn}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(s.Close)

	if err := s.Check(ctx); err != nil {
		t.Fatalf("check: %v", err)
	}
	if _, err := s.SummaryForUser(ctx, "nobody-at-all"); err != nil {
		t.Errorf("summary: %v", err)
	}
	recs, err := s.RawRecordsForUser(ctx, "nobody-at-all")
	if err != nil || len(recs) != 0 {
		t.Errorf("records = %v, %v", recs, err)
	}
}
