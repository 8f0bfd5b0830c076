package static

import (
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"go.uber.org/zap"
)

func testHandler() *Handler {
	fsys := fstest.MapFS{
		"index.html":     {Data: []byte("<html>app</html>")},
		"assets/app.js":  {Data: []byte("console.log(1)")},
		"assets/app.css": {Data: []byte("body{}")},
		"favicon.ico":    {Data: []byte{0x00}},
		"data.bin":       {Data: []byte{0x01}},
	}
	return NewHandler(fsys, zap.NewNop())
}

func TestServeIndex(t *testing.T) {
	h := testHandler()
	for _, p := range []string{"/", "/index.html"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", p, nil))
		if rec.Code != 200 {
			t.Errorf("GET %s = %d, want 200", p, rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
			t.Errorf("GET %s content type = %q", p, got)
		}
	}
}

func TestRouteFallsBackToIndex(t *testing.T) {
	h := testHandler()
	for _, p := range []string{"/chats", "/chats/42", "/settings/profile"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", p, nil))
		if rec.Code != 200 {
			t.Fatalf("GET %s = %d, want 200", p, rec.Code)
		}
		if rec.Body.String() != "<html>app</html>" {
			t.Errorf("GET %s body = %q, want index.html content", p, rec.Body.String())
		}
	}
}

func TestServeAsset(t *testing.T) {
	h := testHandler()
	tests := []struct {
		path string
		ct   string
	}{
		{"/assets/app.js", "application/javascript"},
		{"/assets/app.css", "text/css"},
		{"/favicon.ico", "image/x-icon"},
		{"/data.bin", "application/octet-stream"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
		if rec.Code != 200 {
			t.Fatalf("GET %s = %d, want 200", tt.path, rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != tt.ct {
			t.Errorf("GET %s content type = %q, want %q", tt.path, got, tt.ct)
		}
	}
}

func TestMissingFileWithExtension404s(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/assets/gone.js", nil))
	if rec.Code != 404 {
		t.Errorf("GET missing asset = %d, want 404", rec.Code)
	}
}

func TestTraversalStaysInRoot(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/../secret.js", nil))
	if rec.Code != 404 {
		t.Errorf("traversal request = %d, want 404", rec.Code)
	}
}
