package lockfile

import (
	"net"
	"os"
	"path/filepath"
	"strings"
)

// stdLockURLPrefix is the SAMP_HUB prefix that overrides lockfile
// discovery with an explicit URL instead of a filesystem path.
const stdLockURLPrefix = "std-lockurl:"

// ResolvePath returns the filesystem path a Standard Profile hub
// should read or write its lockfile at, following the resolution
// order in spec §4.2:
//
//  1. $SAMP_HUB, if it begins with "std-lockurl:": the remainder, with
//     a leading "file://" stripped if present, is used as the path
//     (anything else non-empty is logged by the caller and ignored,
//     per spec §6's environment table);
//  2. override, if non-empty (an implementation-chosen configuration
//     property, wired from internal/config);
//  3. "<home-dir>/.samp".
func ResolvePath(override string) string {
	if hub := os.Getenv("SAMP_HUB"); strings.HasPrefix(hub, stdLockURLPrefix) {
		if u, err := urlToPath(strings.TrimPrefix(hub, stdLockURLPrefix)); err == nil {
			return u
		}
	}
	if override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".samp")
}

// ResolveSAMPHubOverride reports whether SAMP_HUB was set to something
// other than a recognized std-lockurl: value, so callers can log and
// ignore it per spec §6.
func ResolveSAMPHubOverride() (value string, isForeign bool) {
	hub := os.Getenv("SAMP_HUB")
	if hub == "" {
		return "", false
	}
	if strings.HasPrefix(hub, stdLockURLPrefix) {
		return hub, false
	}
	return hub, true
}

func urlToPath(rawurl string) (string, error) {
	const filePrefix = "file://"
	if strings.HasPrefix(rawurl, filePrefix) {
		return strings.TrimPrefix(rawurl, filePrefix), nil
	}
	return rawurl, nil
}

// LocalhostName resolves the hostname embedded in URLs written to the
// lockfile and advertised to clients, honoring the jsamp.localhost
// override named in spec §6: the literal sentinels "[hostname]" and
// "[hostnumber]" trigger a DNS lookup for the fully-qualified name or
// an IP literal respectively; a lookup failure of any kind falls back
// to "127.0.0.1", and an unset/empty override also falls back to it.
func LocalhostName(override string) string {
	switch override {
	case "[hostname]":
		if names, err := net.LookupAddr("127.0.0.1"); err == nil && len(names) > 0 {
			return strings.TrimSuffix(names[0], ".")
		}
		return "127.0.0.1"
	case "[hostnumber]":
		if addrs, err := net.LookupHost("localhost"); err == nil && len(addrs) > 0 {
			return addrs[0]
		}
		return "127.0.0.1"
	case "":
		return "127.0.0.1"
	default:
		return override
	}
}
