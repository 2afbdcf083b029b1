package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hub.yaml")
	if err := os.WriteFile(path, []byte("standard:\n  enabled: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.MaxClients != 4096 || c.MaxDeliveryPerTarget != 16 || c.HTTPWorkers != 20 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.Web.Addr != ":8090" || c.Web.Path != "/" || c.Web.QueueBound != 4096 {
		t.Fatalf("unexpected web defaults: %+v", c.Web)
	}
}

func TestLoadDefaultsToStandardProfileWhenNeitherEnabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hub.yaml")
	if err := os.WriteFile(path, []byte("log_level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Standard.Enabled {
		t.Fatal("expected Standard profile to default on")
	}
}

func TestLoadRejectsNegativeBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hub.yaml")
	if err := os.WriteFile(path, []byte("max_clients: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for negative max_clients")
	}
}
