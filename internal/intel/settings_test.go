package intel

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettingsMissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if s.URL != "" || s.AuthKey != "" {
		t.Fatalf("missing file produced non-zero settings: %+v", s)
	}
}

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	body := `{"url": "https://threatfox-api.abuse.ch/api/v1/", "auth_key": "k", "days": 7}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.URL != "https://threatfox-api.abuse.ch/api/v1/" || s.AuthKey != "k" || s.Days != 7 {
		t.Fatalf("settings = %+v", s)
	}
}

func TestLoadSettingsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	os.WriteFile(path, []byte("{not json"), 0o644)
	if _, err := LoadSettings(path); err == nil {
		t.Fatal("malformed settings file did not error")
	}
}
