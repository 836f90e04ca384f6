package model

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kontenhub/cms/internal/middleware"
	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, f fixture) (*gin.Engine, *jwt.Signer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	signer := jwt.NewSigner("model-test", time.Hour)
	r := gin.New()
	NewHandler(f.svc).RegisterRoutes(r.Group("/api/content-builder"),
		middleware.Auth(signer), middleware.RequireRoles(models.RoleAdmin, models.RoleEditor))
	return r, signer
}

func call(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandlerCreateAndFetch(t *testing.T) {
	f := newFixture(t)
	r, signer := newTestRouter(t, f)
	token, err := signer.Sign(f.alice.ID, f.alice.Email, f.alice.Role)
	require.NoError(t, err)

	w := call(t, r, http.MethodPost, "/api/content-builder/model", token, gin.H{"name": "Blog Post ", "type": "multi-page"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.ContentModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "blog-post", created.Slug)

	w = call(t, r, http.MethodPost, "/api/content-builder/model", token, gin.H{"name": "blog post"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, r, http.MethodGet, "/api/content-builder/model/blog-post", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, r, http.MethodGet, "/api/content-builder/model/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(t, r, http.MethodGet, "/api/content-builder?type=multi-page", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Data []Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, "blog-post", listed.Data[0].Slug)
}

func TestHandlerRejectsReadOnlyRoles(t *testing.T) {
	f := newFixture(t)
	r, signer := newTestRouter(t, f)

	token, err := signer.Sign(42, "seo@x.io", models.RoleSEO)
	require.NoError(t, err)
	w := call(t, r, http.MethodPost, "/api/content-builder/model", token, gin.H{"name": "X"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, r, http.MethodPost, "/api/content-builder/model", "", gin.H{"name": "X"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, r, http.MethodDelete, "/api/content-builder/model/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandlerDelete(t *testing.T) {
	f := newFixture(t)
	r, signer := newTestRouter(t, f)
	token, err := signer.Sign(f.admin.ID, f.admin.Email, f.admin.Role)
	require.NoError(t, err)

	w := call(t, r, http.MethodPost, "/api/content-builder/model", token, gin.H{"name": "Temp"})
	require.Equal(t, http.StatusCreated, w.Code)
	var m models.ContentModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	require.NoError(t, f.db.Create(&models.ContentField{ModelID: m.ID, FieldName: "A", FieldKey: "a", FieldType: "text"}).Error)

	w = call(t, r, http.MethodDelete, "/api/content-builder/model/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, r, http.MethodDelete, "/api/content-builder/model/"+itoa(m.ID)+"?cascade=true", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var n int64
	f.db.Model(&models.ContentField{}).Where("model_id = ?", m.ID).Count(&n)
	assert.Zero(t, n)

	w = call(t, r, http.MethodDelete, "/api/content-builder/model/"+itoa(m.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }
