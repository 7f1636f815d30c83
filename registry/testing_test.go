package registry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// fixture is a small registry: package -> version -> manifest.
type fixture struct {
	metadata  map[string]*Metadata
	manifests map[string]string // "name@version" -> MANIFEST.star
}

func newFixture() *fixture {
	return &fixture{metadata: map[string]*Metadata{}, manifests: map[string]string{}}
}

// add publishes name@version with the given dep() lines.
func (f *fixture) add(name, version string, deps ...string) *fixture {
	md, ok := f.metadata[name]
	if !ok {
		md = &Metadata{}
		f.metadata[name] = md
	}
	md.Versions = append(md.Versions, version)
	content := `package("` + name + `", "` + version + `")` + "\n"
	for _, d := range deps {
		content += d + "\n"
	}
	f.manifests[name+"@"+version] = content
	return f
}

func (f *fixture) yank(name, version, reason string) *fixture {
	md := f.metadata[name]
	if md.YankedVersions == nil {
		md.YankedVersions = map[string]string{}
	}
	md.YankedVersions[version] = reason
	return f
}

// serve starts an HTTP registry for f and counts requests.
func (f *fixture) serve(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /packages/{name}/metadata.json", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		md, ok := f.metadata[r.PathValue("name")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(md)
	})
	mux.HandleFunc("GET /packages/{name}/{version}/MANIFEST.star", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		content, ok := f.manifests[r.PathValue("name")+"@"+r.PathValue("version")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(content))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

// write lays f out on disk and returns the registry root.
func (f *fixture) write(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for name, md := range f.metadata {
		data, err := json.Marshal(md)
		if err != nil {
			t.Fatal(err)
		}
		writeFile(t, filepath.Join(root, "packages", name, "metadata.json"), data)
	}
	for key, content := range f.manifests {
		name, version := splitKey(key)
		writeFile(t, filepath.Join(root, "packages", name, version, "MANIFEST.star"), []byte(content))
	}
	return root
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func splitKey(key string) (string, string) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '@' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
