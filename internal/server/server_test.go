package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/menta2k/image-labeler/pkg/annotator"
	"github.com/menta2k/image-labeler/pkg/session"
	"github.com/menta2k/image-labeler/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

type testEnv struct {
	srv     *Server
	src     string
	dataset string
}

func newEnv(t *testing.T, names ...string) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		src:     filepath.Join(root, "photos"),
		dataset: filepath.Join(root, "Dataset"),
	}
	if err := os.MkdirAll(env.src, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, n := range names {
		writePNG(t, filepath.Join(env.src, n), 200, 100)
	}

	rec := &annotator.Recorder{}
	ctl := annotator.New(annotator.Config{
		ImagesDir: filepath.Join(env.dataset, "Images"),
		LabelsDir: filepath.Join(env.dataset, "Labels"),
	}, annotator.WithNotifier(rec))
	if err := ctl.Init(); err != nil {
		t.Fatal(err)
	}
	env.srv = New(ctl, rec)
	return env
}

type response struct {
	Data    json.RawMessage    `json:"data"`
	Session sessionView        `json:"session"`
	Move    session.Move       `json:"move"`
	Notices []annotator.Notice `json:"notices"`
	Error   string             `json:"error"`
}

func (env *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, req)

	var resp response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Invalid JSON response %q: %v", w.Body.String(), err)
		}
	}
	return w, resp
}

func (env *testEnv) open(t *testing.T) sessionView {
	t.Helper()
	w, resp := env.do(t, http.MethodPost, "/api/session/open", gin.H{"folder": env.src})
	if w.Code != http.StatusOK {
		t.Fatalf("open: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var v sessionView
	if err := json.Unmarshal(resp.Data, &v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestRequestID(t *testing.T) {
	env := newEnv(t)

	w, _ := env.do(t, http.MethodGet, "/api/session", nil)
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("Expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc" {
		t.Errorf("Expected request id to be echoed, got %q", got)
	}
}

func TestOpenAndNavigate(t *testing.T) {
	env := newEnv(t, "a.png", "b.png")

	v := env.open(t)
	if len(v.Pending) != 2 || v.Current == nil || v.Current.Name != "a.png" {
		t.Fatalf("Unexpected session after open: %+v", v)
	}
	if v.Current.Width != 200 || v.Current.Height != 100 {
		t.Errorf("Unexpected dimensions %dx%d", v.Current.Width, v.Current.Height)
	}

	w, resp := env.do(t, http.MethodPost, "/api/session/next", nil)
	if w.Code != http.StatusOK || resp.Move.Image != "b.png" || resp.Move.AtBoundary {
		t.Fatalf("next: unexpected %d %+v", w.Code, resp.Move)
	}

	_, resp = env.do(t, http.MethodPost, "/api/session/next", nil)
	if !resp.Move.AtBoundary || len(resp.Notices) != 1 || resp.Notices[0].Title != "End" {
		t.Errorf("Expected boundary notice, got %+v %+v", resp.Move, resp.Notices)
	}

	_, resp = env.do(t, http.MethodPost, "/api/session/prev", nil)
	if resp.Move.Image != "a.png" || resp.Move.Index != 0 {
		t.Errorf("prev: unexpected %+v", resp.Move)
	}
}

func TestNavigateWithoutFolder(t *testing.T) {
	env := newEnv(t)

	w, resp := env.do(t, http.MethodPost, "/api/session/next", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if len(resp.Notices) != 1 || resp.Notices[0].Level != annotator.Error {
		t.Errorf("Expected an error notice, got %+v", resp.Notices)
	}
}

func TestOpenValidation(t *testing.T) {
	env := newEnv(t)

	w, _ := env.do(t, http.MethodPost, "/api/session/open", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing folder, got %d", w.Code)
	}

	w, resp := env.do(t, http.MethodPost, "/api/session/open", gin.H{"folder": filepath.Join(env.src, "absent")})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing folder, got %d", w.Code)
	}
	if len(resp.Notices) == 0 {
		t.Error("Expected the scan failure to be reported as a notice")
	}
}

func TestAnnotate(t *testing.T) {
	env := newEnv(t, "a.png")
	env.open(t)

	w, resp := env.do(t, http.MethodPost, "/api/annotations", gin.H{
		"x0": 10, "y0": 10, "x1": 110, "y1": 60, "class": "cat",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var res struct {
		Image string            `json:"image"`
		Box   types.BoundingBox `json:"box"`
	}
	if err := json.Unmarshal(resp.Data, &res); err != nil {
		t.Fatal(err)
	}
	want := types.BoundingBox{Class: "cat", XCenter: 0.3, YCenter: 0.35, Width: 0.5, Height: 0.5}
	if res.Image != "a.png" || res.Box != want {
		t.Errorf("Unexpected result %+v", res)
	}
	if len(resp.Session.Pending) != 0 {
		t.Errorf("Expected no pending images, got %v", resp.Session.Pending)
	}

	data, err := os.ReadFile(filepath.Join(env.dataset, "Labels", "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "cat 0.300000 0.350000 0.500000 0.500000\n" {
		t.Errorf("Unexpected label file %q", data)
	}

	w, resp = env.do(t, http.MethodGet, "/api/labels/a.png", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("labels: expected 200, got %d", w.Code)
	}
	var boxes []types.BoundingBox
	if err := json.Unmarshal(resp.Data, &boxes); err != nil {
		t.Fatal(err)
	}
	if len(boxes) != 1 || boxes[0] != want {
		t.Errorf("Unexpected stored boxes %+v", boxes)
	}
}

func TestAnnotateEmptyClass(t *testing.T) {
	env := newEnv(t, "a.png")
	env.open(t)

	w, resp := env.do(t, http.MethodPost, "/api/annotations", gin.H{
		"x0": 1, "y0": 1, "x1": 20, "y1": 20, "class": "  ",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if len(resp.Notices) != 1 || resp.Notices[0].Text != "Class name cannot be empty." {
		t.Errorf("Unexpected notices %+v", resp.Notices)
	}
	if _, err := os.Stat(filepath.Join(env.dataset, "Labels", "a.txt")); !os.IsNotExist(err) {
		t.Error("No label file expected")
	}
}

func TestAnnotateMultiLineClass(t *testing.T) {
	env := newEnv(t, "a.png")
	env.open(t)

	w, resp := env.do(t, http.MethodPost, "/api/annotations", gin.H{
		"x0": 0, "y0": 0, "x1": 50, "y1": 50, "class": "cat\ndog 0.9 0.9 0.9 0.9",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if len(resp.Notices) != 1 || resp.Notices[0].Text != "Class name cannot contain line breaks." {
		t.Errorf("Unexpected notices %+v", resp.Notices)
	}
	if _, err := os.Stat(filepath.Join(env.dataset, "Labels", "a.txt")); !os.IsNotExist(err) {
		t.Error("No label file expected")
	}

	w, _ = env.do(t, http.MethodPost, "/api/annotations", gin.H{
		"x0": 0, "y0": 0, "x1": 50, "y1": 50, "class": "cat",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", w.Code)
	}
	w, _ = env.do(t, http.MethodGet, "/api/labels/a.png", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Labels should stay readable, got %d", w.Code)
	}
}

func TestImageEndpoint(t *testing.T) {
	env := newEnv(t, "a.png")

	w, _ := env.do(t, http.MethodGet, "/api/session/image", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 before open, got %d", w.Code)
	}

	env.open(t)
	w, _ = env.do(t, http.MethodGet, "/api/session/image", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("Unexpected response %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	img, err := png.Decode(w.Body)
	if err != nil {
		t.Fatalf("Invalid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("Unexpected image size %v", b)
	}
}

func TestLabelsRejectsPaths(t *testing.T) {
	env := newEnv(t)

	w, _ := env.do(t, http.MethodGet, "/api/labels/..", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}

	w, resp := env.do(t, http.MethodGet, "/api/labels/none.png", nil)
	if w.Code != http.StatusOK || string(resp.Data) != "[]" {
		t.Errorf("Expected empty list, got %d %s", w.Code, resp.Data)
	}
}
