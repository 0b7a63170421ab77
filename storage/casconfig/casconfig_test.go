package casconfig

import (
	"os"
	"path/filepath"
	"testing"

	_ "creed.space/vcp/storage/localfs"
)

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cas.yaml")
	data := "write_policy: all\nbackends:\n  - name: memory\n  - name: memory\n    id: mirror\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.WritePolicy != "all" || len(cfg.Backends) != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Backends[1].ID != "mirror" {
		t.Fatalf("backend id: %+v", cfg.Backends[1])
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"no backends", Config{}, false},
		{"missing name", Config{Backends: []BackendConfig{{}}}, false},
		{"duplicate id", Config{Backends: []BackendConfig{{Name: "memory"}, {Name: "memory"}}, WritePolicy: "first"}, false},
		{"bad policy", Config{Backends: []BackendConfig{{Name: "memory"}}, WritePolicy: "quorum"}, false},
		{"ok", Config{Backends: []BackendConfig{{Name: "memory"}, {Name: "memory", ID: "mirror"}}, WritePolicy: "all"}, true},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestOpenReplicating(t *testing.T) {
	cfg := Config{
		WritePolicy: "all",
		Backends: []BackendConfig{
			{Name: "memory"},
			{Name: "memory", ID: "mirror"},
		},
	}
	cas, closeAll, err := cfg.Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() {
		if err := closeAll(); err != nil {
			t.Errorf("close: %v", err)
		}
	}()

	id, err := cas.Put([]byte("replicated"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := cas.Get(id)
	if err != nil || string(got) != "replicated" {
		t.Fatalf("Get: %q %v", got, err)
	}
}

func TestOpenPreferredBackend(t *testing.T) {
	cfg := Config{
		Backends: []BackendConfig{
			{Name: "localfs", Config: map[string]string{"dir": t.TempDir()}},
			{Name: "memory", ID: "scratch"},
		},
	}
	if _, _, err := cfg.Open("nope"); err == nil {
		t.Fatal("unknown preferred backend must fail")
	}
	cas, closeAll, err := cfg.Open("scratch")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer closeAll()
	if _, err := cas.Put([]byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
}
