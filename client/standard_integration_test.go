package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lvalerom/jsamp/internal/config"
	"github.com/lvalerom/jsamp/internal/hub"
	"github.com/lvalerom/jsamp/internal/lockfile"
	"github.com/lvalerom/jsamp/internal/sampvalue"
	"github.com/lvalerom/jsamp/profile/standard"
)

// TestStandardClientRegisterNotifyCallback runs a real Standard
// Profile against a real hub, in-process, exercising
// DiscoverStandardClient, Register, Start's own callback listener, and
// a notify delivered end to end.
func TestStandardClientRegisterNotifyCallback(t *testing.T) {
	h := hub.New(hub.DefaultConfig())
	log := zap.NewNop().Sugar()
	lockPath := filepath.Join(t.TempDir(), "samp-lock")
	p := standard.New(h, config.StandardConfig{LockfilePath: lockPath}, 0, log)
	if err := p.Start(); err != nil {
		t.Fatalf("profile Start: %v", err)
	}
	defer p.Stop(context.Background())

	waitForLockfile(t, lockPath)

	sender, err := DiscoverStandardClient(lockPath)
	if err != nil {
		t.Fatalf("DiscoverStandardClient: %v", err)
	}
	if err := sender.Register(); err != nil {
		t.Fatalf("sender Register: %v", err)
	}

	recv, err := DiscoverStandardClient(lockPath)
	if err != nil {
		t.Fatalf("DiscoverStandardClient: %v", err)
	}
	if err := recv.Register(); err != nil {
		t.Fatalf("recv Register: %v", err)
	}

	notified := make(chan string, 1)
	if err := recv.Start(Handlers{
		Notification: func(senderID string, msg hub.Message) { notified <- msg.MType },
	}); err != nil {
		t.Fatalf("recv Start: %v", err)
	}
	defer recv.Stop()

	subs := sampvalue.NewMap()
	subs.Set("samp.app.ping", sampvalue.NewMap())
	if err := recv.DeclareSubscriptions(subs); err != nil {
		t.Fatalf("DeclareSubscriptions: %v", err)
	}

	if err := sender.Notify(recv.SelfID(), hub.Message{MType: "samp.app.ping", Params: sampvalue.NewMap()}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	select {
	case mtype := <-notified:
		if mtype != "samp.app.ping" {
			t.Fatalf("got mtype %q, want samp.app.ping", mtype)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification callback")
	}
}

func waitForLockfile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f, err := lockfile.Read(path); err == nil && f.Validate() == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("lockfile %s never became valid", path)
}
