package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/repository"
	"kwizzy_backend/internal/service"
	"kwizzy_backend/internal/util"
	"kwizzy_backend/pkg/cache"
	"kwizzy_backend/pkg/clock"
	"kwizzy_backend/pkg/database"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type testServer struct {
	db     *gorm.DB
	clock  *clock.Fixed
	router *gin.Engine
	claims *util.Claims
	seq    int
}

// newTestServer 不经过 JWT，直接把 claims 写入上下文
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	util.RegisterValidators()

	db := database.OpenTestDB(t)
	clk := clock.NewFixed(time.Date(2024, 5, 10, 14, 30, 0, 0, ist))
	c := cache.NewMemoryCache()

	quizRepo := repository.NewQuizRepository(db)
	resultRepo := repository.NewQuizResultRepository(db)
	chapterRepo := repository.NewChapterRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)

	resultCtrl := NewQuizResultController(
		service.NewSubmissionService(quizRepo, resultRepo, clk, c),
		service.NewQuizResultService(resultRepo, quizRepo, clk, c, time.Minute),
		clk,
	)
	quizCtrl := NewQuizController(service.NewQuizService(quizRepo, chapterRepo, c, time.Minute))
	subjectCtrl := NewSubjectController(service.NewSubjectService(subjectRepo, c))

	s := &testServer{db: db, clock: clk}
	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		if s.claims != nil {
			ctx.Set("user", s.claims)
		}
		ctx.Next()
	})
	r.POST("/api/quiz-results/submit", resultCtrl.SubmitQuiz)
	r.GET("/api/quiz-results/:id", resultCtrl.GetMyResult)
	r.GET("/api/quizzes/:id", quizCtrl.GetQuiz)
	r.POST("/api/admin/quizzes", quizCtrl.CreateQuiz)
	r.POST("/api/admin/subjects", subjectCtrl.CreateSubject)
	s.router = r
	return s
}

func (s *testServer) as(userID uint, role model.UserRole) {
	s.claims = &util.Claims{UserID: userID, Role: role}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, util.Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp util.Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func (s *testServer) createStudent(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{
		Name:          name,
		Email:         name + "@example.com",
		Password:      "x",
		Dob:           time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Qualification: "B.A",
		Role:          model.Student,
	}
	require.NoError(t, s.db.Create(u).Error)
	return u
}

// createQuiz 两道题，每题第一个选项正确
func (s *testServer) createQuiz(t *testing.T, oneAttempt bool, deadline *time.Time) *model.Quiz {
	t.Helper()
	s.seq++
	subject := &model.Subject{Name: fmt.Sprintf("Physics %d", s.seq), Description: "mechanics"}
	require.NoError(t, s.db.Create(subject).Error)
	chapter := &model.Chapter{SubjectID: subject.ID, Name: "Motion", Description: "kinematics"}
	require.NoError(t, s.db.Create(chapter).Error)

	quiz := &model.Quiz{
		Name:           "Motion basics",
		Description:    "warm up",
		ChapterID:      chapter.ID,
		Deadline:       deadline,
		OneAttemptOnly: oneAttempt,
		Questions: []model.Question{
			{Text: "Unit of force?", Options: []model.Option{{Text: "Newton", IsCorrect: true}, {Text: "Joule"}}},
			{Text: "Unit of work?", Options: []model.Option{{Text: "Joule", IsCorrect: true}, {Text: "Watt"}}},
		},
	}
	repo := repository.NewQuizRepository(s.db)
	require.NoError(t, repo.Create(context.Background(), quiz))
	loaded, err := repo.GetQuiz(context.Background(), quiz.ID)
	require.NoError(t, err)
	return loaded
}

func answersFor(quiz *model.Quiz) []service.SubmitAnswer {
	answers := make([]service.SubmitAnswer, len(quiz.Questions))
	for i := range quiz.Questions {
		answers[i] = service.SubmitAnswer{
			QuestionID:       quiz.Questions[i].ID,
			SelectedOptionID: quiz.Questions[i].CorrectOptionID(),
		}
	}
	return answers
}
