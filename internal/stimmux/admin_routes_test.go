package stimmux

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func adminServer(t *testing.T) (*Mux[*TestablePort], *TestablePort, *httptest.Server) {
	t.Helper()
	port := NewTestablePort()
	mux := NewMux(port)

	httpMux := http.NewServeMux()
	mux.AttachAdminRoutes(httpMux)
	srv := httptest.NewServer(httpMux)
	t.Cleanup(srv.Close)
	return mux, port, srv
}

func TestSendCommandForm(t *testing.T) {
	_, _, srv := adminServer(t)

	resp, err := http.Get(srv.URL + "/debug/send-command")
	if err != nil {
		t.Fatalf("GET send-command: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestSendCommandAPI(t *testing.T) {
	_, port, srv := adminServer(t)

	resp, err := http.PostForm(srv.URL+"/debug/send-command-api", url.Values{"command": {"RP"}})
	if err != nil {
		t.Fatalf("POST send-command-api: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := string(port.GetWrittenData()); got != "RP\n" {
		t.Errorf("port received %q, want %q", got, "RP\\n")
	}
}

func TestSendCommandAPIValidation(t *testing.T) {
	_, _, srv := adminServer(t)

	// GET is not allowed.
	resp, err := http.Get(srv.URL + "/debug/send-command-api")
	if err != nil {
		t.Fatalf("GET send-command-api: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", resp.StatusCode)
	}

	// Empty command is rejected.
	resp, err = http.PostForm(srv.URL+"/debug/send-command-api", url.Values{"command": {"  "}})
	if err != nil {
		t.Fatalf("POST empty command: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty command status = %d, want 400", resp.StatusCode)
	}
}

func TestTailJS(t *testing.T) {
	_, _, srv := adminServer(t)

	resp, err := http.Get(srv.URL + "/debug/tail.js")
	if err != nil {
		t.Fatalf("GET tail.js: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Errorf("Content-Type = %q", ct)
	}
}
