package password

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/pkg/apperr"
	"github.com/kontenhub/cms/internal/pkg/mail"
	"github.com/kontenhub/cms/internal/pkg/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type outbox struct{ sent []mail.Message }

func (o *outbox) Send(msg mail.Message) error {
	o.sent = append(o.sent, msg)
	return nil
}

var linkRe = regexp.MustCompile(`https://app\.example/reset-password/([0-9a-f]+)`)

func tokenFrom(t *testing.T, msg mail.Message) string {
	t.Helper()
	m := linkRe.FindStringSubmatch(msg.HTML)
	require.Len(t, m, 2, msg.HTML)
	return m[1]
}

func TestForgotAndReset(t *testing.T) {
	db := testdb.Open(t)
	box := &outbox{}
	svc := NewService(db, box, "https://app.example/", nil)
	ctx := context.Background()
	u := testdb.User(t, db, "ed@x.io", models.RoleEditor)

	require.NoError(t, svc.Forgot(ctx, "nobody@x.io"))
	assert.Empty(t, box.sent)

	require.NoError(t, svc.Forgot(ctx, "ED@x.io"))
	require.Len(t, box.sent, 1)
	assert.Equal(t, []string{"ed@x.io"}, box.sent[0].To)
	token := tokenFrom(t, box.sent[0])

	var stored models.UserModel
	require.NoError(t, db.First(&stored, u.ID).Error)
	require.NotNil(t, stored.ResetTokenHash)
	assert.Equal(t, hashToken(token), *stored.ResetTokenHash)
	assert.NotContains(t, *stored.ResetTokenHash, token)

	assert.True(t, errors.Is(svc.Reset(ctx, "bogus", "newpass1"), apperr.ErrValidation))
	assert.True(t, errors.Is(svc.Reset(ctx, token, "short"), apperr.ErrValidation))

	require.NoError(t, svc.Reset(ctx, token, "newpass1"))
	require.NoError(t, db.First(&stored, u.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("newpass1")))
	assert.Nil(t, stored.ResetTokenHash)

	assert.True(t, errors.Is(svc.Reset(ctx, token, "again123"), apperr.ErrValidation), "token is single use")
}

func TestResetTokenExpires(t *testing.T) {
	db := testdb.Open(t)
	box := &outbox{}
	svc := NewService(db, box, "https://app.example", nil)
	ctx := context.Background()
	testdb.User(t, db, "ed@x.io", models.RoleEditor)

	issued := time.Now()
	svc.now = func() time.Time { return issued }
	require.NoError(t, svc.Forgot(ctx, "ed@x.io"))
	token := tokenFrom(t, box.sent[0])

	svc.now = func() time.Time { return issued.Add(TokenTTL + time.Second) }
	assert.True(t, errors.Is(svc.Reset(ctx, token, "newpass1"), apperr.ErrValidation))
}

func TestPasswordRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testdb.Open(t)
	box := &outbox{}
	r := gin.New()
	NewHandler(NewService(db, box, "https://app.example", nil)).RegisterRoutes(r.Group("/api"))
	testdb.User(t, db, "ed@x.io", models.RoleEditor)

	post := func(path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, post("/api/password/forgot-password", gin.H{"email": "ghost@x.io"}).Code)
	assert.Equal(t, http.StatusBadRequest, post("/api/password/forgot-password", gin.H{"email": "nope"}).Code)
	require.Equal(t, http.StatusOK, post("/api/password/forgot-password", gin.H{"email": "ed@x.io"}).Code)
	token := tokenFrom(t, box.sent[0])

	assert.Equal(t, http.StatusBadRequest, post("/api/password/reset-password/xyz", gin.H{"password": "newpass1"}).Code)
	assert.Equal(t, http.StatusOK, post("/api/password/reset-password/"+token, gin.H{"password": "newpass1"}).Code)
}
