package standard

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"go.uber.org/zap"

	"github.com/lvalerom/jsamp/internal/config"
	"github.com/lvalerom/jsamp/internal/hub"
	"github.com/lvalerom/jsamp/internal/lockfile"
	"github.com/lvalerom/jsamp/internal/sampvalue"
	"github.com/lvalerom/jsamp/internal/transport/xmlrpc"
)

func startTestProfile(t *testing.T) (*Profile, string) {
	t.Helper()
	h := hub.New(hub.DefaultConfig())
	log := zap.NewNop().Sugar()
	lockPath := filepath.Join(t.TempDir(), "samp-lock")
	p := New(h, config.StandardConfig{LockfilePath: lockPath}, 0, log)
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { p.Stop(context.Background()) })
	return p, lockPath
}

// TestLockfileContractRequiredKeysAndPermissions covers scenario S6:
// a written lockfile carries every required key and is not readable by
// anyone but its owner.
func TestLockfileContractRequiredKeysAndPermissions(t *testing.T) {
	_, lockPath := startTestProfile(t)

	f, err := lockfile.Read(lockPath)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, key := range []string{lockfile.KeySecret, lockfile.KeyXMLRPCURL, lockfile.KeyProfileVersion} {
		if _, ok := f.Get(key); !ok {
			t.Fatalf("missing required key %q", key)
		}
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(lockPath)
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Fatalf("got permissions %v, want 0600", perm)
		}
	}
}

// TestRegisterWrongSecretFailsAuth covers the wrong-secret half of
// scenario S6: a register call presenting any secret other than the
// lockfile's own fails, while the lockfile's own secret registers.
func TestRegisterWrongSecretFailsAuth(t *testing.T) {
	p, lockPath := startTestProfile(t)

	f, err := lockfile.Read(lockPath)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	url, _ := f.Get(lockfile.KeyXMLRPCURL)

	caller := xmlrpc.NewHTTPCaller(nil)
	_, err = caller.Call(url, "samp.hub.register", sampvalue.List{sampvalue.String("not-the-real-secret")})
	if err == nil {
		t.Fatal("expected register with wrong secret to fail")
	}

	secret, _ := f.Get(lockfile.KeySecret)
	result, err := caller.Call(url, "samp.hub.register", sampvalue.List{sampvalue.String(secret)})
	if err != nil {
		t.Fatalf("register with correct secret: %v", err)
	}
	m, ok := result.(*sampvalue.Map)
	if !ok {
		t.Fatalf("got result %T, want *sampvalue.Map", result)
	}
	if _, ok := m.GetString("samp.self-id"); !ok {
		t.Fatal("missing samp.self-id in register result")
	}
	_ = p
}
