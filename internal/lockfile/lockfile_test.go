package lockfile

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".samp")

	f := New()
	f.Set(KeySecret, "abc123")
	f.Set(KeyXMLRPCURL, "http://127.0.0.1:12345/")
	f.Set(KeyProfileVersion, ProfileVersion)
	f.Set("samp.hub.custom", "extra")

	if err := Write(path, f); err != nil {
		t.Fatalf("Write: %v", err)
	}

	read, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := read.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if v, _ := read.Get(KeySecret); v != "abc123" {
		t.Fatalf("got secret %q", v)
	}
	if v, _ := read.Get("samp.hub.custom"); v != "extra" {
		t.Fatalf("unknown key not preserved: %q", v)
	}
}

func TestWriteSetsOwnerOnlyPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permission bits not meaningful on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, ".samp")

	f := New()
	f.Set(KeySecret, "abc123")
	f.Set(KeyXMLRPCURL, "http://127.0.0.1:1/")
	f.Set(KeyProfileVersion, ProfileVersion)

	if err := Write(path, f); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Fatalf("got permissions %o, want 0600", perm)
	}
}

func TestValidateFailsOnMissingKey(t *testing.T) {
	f := New()
	f.Set(KeySecret, "abc123")
	err := f.Validate()
	if err == nil {
		t.Fatal("expected IncompleteLockInfo")
	}
	if _, ok := err.(*IncompleteLockInfo); !ok {
		t.Fatalf("got %T, want *IncompleteLockInfo", err)
	}
}

func TestReadToleratesWhitespaceAndComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".samp")
	content := "# SAMP Standard Profile lockfile\n" +
		"\n" +
		"  samp.secret =   abc123  \n" +
		"samp.hub.xmlrpc.url=http://127.0.0.1:1/\n" +
		"samp.profile.version = 1.0\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	f, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := f.Get(KeySecret); v != "abc123" {
		t.Fatalf("got %q", v)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDeleteMissingFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	if err := Delete(filepath.Join(dir, "nope")); err != nil {
		t.Fatalf("Delete of missing file returned error: %v", err)
	}
}

func TestResolvePathDefaultsToHomeDir(t *testing.T) {
	t.Setenv("SAMP_HUB", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir available")
	}
	got := ResolvePath("")
	want := filepath.Join(home, ".samp")
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestResolvePathHonorsOverride(t *testing.T) {
	t.Setenv("SAMP_HUB", "")
	got := ResolvePath("/etc/samp/lock")
	if got != "/etc/samp/lock" {
		t.Fatalf("got %q", got)
	}
}

func TestResolvePathHonorsStdLockURL(t *testing.T) {
	t.Setenv("SAMP_HUB", "std-lockurl:file:///tmp/custom.samp")
	got := ResolvePath("/should/be/ignored")
	if got != "/tmp/custom.samp" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveSAMPHubOverrideDetectsForeignValue(t *testing.T) {
	t.Setenv("SAMP_HUB", "some-other-scheme:whatever")
	_, isForeign := ResolveSAMPHubOverride()
	if !isForeign {
		t.Fatal("expected foreign SAMP_HUB value to be flagged")
	}
}

func TestLocalhostNameFallsBackOnEmpty(t *testing.T) {
	if got := LocalhostName(""); got != "127.0.0.1" {
		t.Fatalf("got %q", got)
	}
}

func TestLocalhostNamePassesThroughExplicitValue(t *testing.T) {
	if got := LocalhostName("my-host.example"); got != "my-host.example" {
		t.Fatalf("got %q", got)
	}
}
