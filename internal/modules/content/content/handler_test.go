package content

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kontenhub/cms/internal/middleware"
	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/pkg/jwt"
	"github.com/kontenhub/cms/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	fixture
	router http.Handler
	signer *jwt.Signer
	dir    string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	dir := t.TempDir()
	local, err := storage.NewLocal(dir, storage.LocalURLPrefix)
	require.NoError(t, err)

	signer := jwt.NewSigner("content-test", time.Hour)
	r := gin.New()
	h := NewHandler(f.svc, local, nil)
	writeMW := middleware.RequireRoles(models.RoleAdmin, models.RoleEditor)
	readMW := middleware.OptionalAuth(signer)
	h.RegisterRoutes(r.Group("/api/content"), middleware.Auth(signer), readMW, writeMW, writeMW)
	h.RegisterAlias(r.Group("/api/content-builder"), readMW)
	return harness{fixture: f, router: r, signer: signer, dir: dir}
}

func (h harness) token(t *testing.T, email string) string {
	t.Helper()
	var u models.UserModel
	require.NoError(t, h.db.Where("email = ?", email).First(&u).Error)
	tok, err := h.signer.Sign(u.ID, u.Email, u.Role)
	require.NoError(t, err)
	return tok
}

func (h harness) do(t *testing.T, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type part struct {
	field, filename, body string
}

func multipartRequest(t *testing.T, method, path string, values map[string]string, files ...part) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range files {
		fw, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeDoc(t *testing.T, w *httptest.ResponseRecorder) DocumentView {
	t.Helper()
	var doc DocumentView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc), w.Body.String())
	return doc
}

func TestMultipartCreateAppendsUploadedFile(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, "alice@x.io")

	req := multipartRequest(t, http.MethodPost, "/api/content/blog-post",
		map[string]string{"status": "draft", "hero_image": `"/uploads/a.png"`},
		part{field: "hero_image", filename: "photo.PNG", body: "png-bytes"})
	w := h.do(t, req, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	doc := decodeDoc(t, w)
	assert.Equal(t, models.StatusDraft, doc.Status)
	refs, ok := doc.Data["hero_image"].([]any)
	require.True(t, ok, "%#v", doc.Data["hero_image"])
	require.Len(t, refs, 2)
	assert.Equal(t, "/uploads/a.png", refs[0])

	generated := refs[1].(string)
	assert.True(t, strings.HasPrefix(generated, "/uploads/"), generated)
	assert.True(t, strings.HasSuffix(generated, ".png"), generated)
	stored, err := os.ReadFile(filepath.Join(h.dir, strings.TrimPrefix(generated, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(stored))
}

func TestMultipartValuesAreParsedAsJSON(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, "alice@x.io")

	req := multipartRequest(t, http.MethodPost, "/api/content/blog-post", map[string]string{
		"count": "3",
		"tags":  `["a","b"]`,
		"title": "plain text",
	})
	w := h.do(t, req, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	doc := decodeDoc(t, w)
	assert.Equal(t, float64(3), doc.Data["count"])
	assert.Equal(t, []any{"a", "b"}, doc.Data["tags"])
	assert.Equal(t, "plain text", doc.Data["title"])
	assert.NotContains(t, doc.Data, "status")
}

func TestFailedWriteRemovesStoredFiles(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, "alice@x.io")

	req := multipartRequest(t, http.MethodPost, "/api/content/blog-post",
		map[string]string{"status": "archived"},
		part{field: "cover", filename: "c.jpg", body: "x"})
	w := h.do(t, req, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	entries, err := os.ReadDir(h.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJSONPutMergesAndFetchRenders(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, "alice@x.io")
	require.NoError(t, h.db.Create(&models.ContentField{
		ModelID: h.model.ID, FieldName: "Body", FieldKey: "body", FieldType: models.FieldTypeRichText,
	}).Error)

	w := h.do(t, jsonRequest(t, http.MethodPut, "/api/content/blog-post", gin.H{"body": "*hi*"}), tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = h.do(t, jsonRequest(t, http.MethodPut, "/api/content/blog-post", gin.H{"status": "published", "title": "T"}), tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	doc := decodeDoc(t, w)
	assert.Equal(t, "*hi*", doc.Data["body"])
	assert.Equal(t, "T", doc.Data["title"])
	assert.Equal(t, models.StatusPublished, doc.Status)

	w = h.do(t, httptest.NewRequest(http.MethodGet, "/api/content/blog-post?render=html", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	var view View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Contains(t, view.Rendered["body"], "<em>hi</em>")

	w = h.do(t, httptest.NewRequest(http.MethodGet, "/api/content-builder/content/blog-post", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	view = View{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Nil(t, view.Rendered)
	require.NotNil(t, view.Content)
	assert.Equal(t, "T", view.Content.Data["title"])
}

func TestContentRouteGuards(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, jsonRequest(t, http.MethodPost, "/api/content/blog-post", gin.H{"a": 1}), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, jsonRequest(t, http.MethodPost, "/api/content/blog-post", gin.H{"a": 1}), h.token(t, "viewer@x.io"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, jsonRequest(t, http.MethodPut, "/api/content/blog-post", gin.H{"a": 1}), h.token(t, "bob@x.io"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, jsonRequest(t, http.MethodPost, "/api/content/blog-post", []int{1}), h.token(t, "alice@x.io"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, jsonRequest(t, http.MethodPost, "/api/content/blog-post", gin.H{"status": 5}), h.token(t, "alice@x.io"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, httptest.NewRequest(http.MethodGet, "/api/content", nil), h.token(t, "viewer@x.io"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(t, httptest.NewRequest(http.MethodGet, "/api/content/missing", nil), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRoute(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, httptest.NewRequest(http.MethodGet, "/api/content", nil), h.token(t, "bob@x.io"))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Data)

	w = h.do(t, httptest.NewRequest(http.MethodGet, "/api/content", nil), h.token(t, "alice@x.io"))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "blog-post", body.Data[0].ModelSlug)
}
