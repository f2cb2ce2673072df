package api_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/safa0/radiantctl/api"
	"github.com/safa0/radiantctl/preset"
)

func TestListPresetsBuiltins(t *testing.T) {
	env := newTestServer(t)

	resp := env.do(t, http.MethodGet, "/api/presets", "")
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("expected json content-type, got %q", ct)
	}

	presets := decode[[]preset.Preset](t, resp)
	if len(presets) != 3 || presets[0].ID != preset.Brightest || presets[2].ID != preset.Midnight {
		t.Fatalf("unexpected presets %+v", presets)
	}
}

func TestCreatePreset(t *testing.T) {
	env := newTestServer(t)

	resp := env.do(t, http.MethodPost, "/api/presets", `{"name":"Reading","values":{"0x10":30,"0x12":45}}`)
	expectStatus(t, resp, http.StatusCreated)

	p := decode[preset.Preset](t, resp)
	if !strings.HasPrefix(p.ID, "custom_") || p.Name != "Reading" || !p.IsCustom {
		t.Fatalf("unexpected preset %+v", p)
	}
	if _, err := env.store.Get(p.ID); err != nil {
		t.Fatalf("preset not stored: %v", err)
	}
}

func TestCreatePresetValidation(t *testing.T) {
	env := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", "not-json", http.StatusBadRequest},
		{"missing name", `{"values":{"0x10":1}}`, http.StatusBadRequest},
		{"out of range", `{"name":"x","values":{"0x10":101}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/presets", tt.body)
			expectStatus(t, resp, tt.want)
		})
	}
}

func TestDeletePreset(t *testing.T) {
	env := newTestServer(t)
	created := decode[preset.Preset](t, env.do(t, http.MethodPost, "/api/presets", `{"name":"Tmp","values":{}}`))

	expectStatus(t, env.do(t, http.MethodDelete, "/api/presets/"+created.ID, ""), http.StatusNoContent)
	if _, err := env.store.Get(created.ID); err == nil {
		t.Fatal("preset still stored")
	}
}

func TestDeleteBuiltinConflict(t *testing.T) {
	env := newTestServer(t)

	resp := env.do(t, http.MethodDelete, "/api/presets/"+preset.Mid, "")
	expectStatus(t, resp, http.StatusConflict)
	if e := decode[api.Error](t, resp); e.Code != api.ErrCodeConflict {
		t.Fatalf("unexpected error body %+v", e)
	}
}

func TestDeleteUnknownNotFound(t *testing.T) {
	env := newTestServer(t)
	expectStatus(t, env.do(t, http.MethodDelete, "/api/presets/nope", ""), http.StatusNotFound)
}

func TestDuplicatePreset(t *testing.T) {
	env := newTestServer(t)

	resp := env.do(t, http.MethodPost, "/api/presets/"+preset.Midnight+"/duplicate", "")
	expectStatus(t, resp, http.StatusCreated)
	p := decode[preset.Preset](t, resp)
	if p.ID != "midnight_copy_1" || p.Name != "Midnight (copy)" {
		t.Fatalf("unexpected duplicate %+v", p)
	}

	expectStatus(t, env.do(t, http.MethodPost, "/api/presets/nope/duplicate", ""), http.StatusNotFound)
}

func TestStorageFailureIsInternalError(t *testing.T) {
	env := newTestServer(t)
	env.kv.SetErr = errTest

	resp := env.do(t, http.MethodPost, "/api/presets", `{"name":"x","values":{}}`)
	expectStatus(t, resp, http.StatusInternalServerError)
	if e := decode[api.Error](t, resp); e.Message != "internal error" {
		t.Fatalf("storage detail leaked: %+v", e)
	}
}
