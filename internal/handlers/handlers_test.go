package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/models"
	"github.com/taskboard-dev/taskboard/internal/router"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTest wires the global DB to a fresh in-memory sqlite database
// and returns the real router.
func setupTest(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	auth.SetSecretForTesting("test-secret")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Board{},
		&models.Task{},
		&models.Comment{},
	))

	db.DB = gdb

	return router.NewRouter()
}

func createUser(t *testing.T, fullname, email string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Fullname:     fullname,
		Email:        email,
		PasswordHash: string(hash),
	}
	require.NoError(t, db.DB.Create(&user).Error)

	return user
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()

	token, err := auth.GenerateJWT(user.ID, user.Email)
	require.NoError(t, err)

	return token
}

func createBoard(t *testing.T, owner models.User, title string, members ...models.User) models.Board {
	t.Helper()

	board := models.Board{Title: title, OwnerID: owner.ID}
	require.NoError(t, db.DB.Create(&board).Error)

	if len(members) > 0 {
		require.NoError(t, db.DB.Model(&board).Association("Members").Replace(members))
	}

	return board
}

func createTask(t *testing.T, board models.Board, creator models.User, title string) models.Task {
	t.Helper()

	task := models.Task{
		BoardID:     board.ID,
		Title:       title,
		Status:      "to-do",
		Priority:    "medium",
		CreatedByID: creator.ID,
	}
	require.NoError(t, db.DB.Create(&task).Error)

	return task
}

func createComment(t *testing.T, task models.Task, author models.User, content string) models.Comment {
	t.Helper()

	comment := models.Comment{
		TaskID:   task.ID,
		AuthorID: author.ID,
		Content:  content,
	}
	require.NoError(t, db.DB.Create(&comment).Error)

	return comment
}

// doRequest performs an HTTP request against the router, optionally
// authenticated, with a JSON body.
func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "body: %s", w.Body.String())
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	r := setupTest(t)

	for _, path := range []string{"/api/boards", "/api/tasks", "/api/email-check"} {
		w := doRequest(t, r, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := doRequest(t, r, http.MethodGet, "/api/boards", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
