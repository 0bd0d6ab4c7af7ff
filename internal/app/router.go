package app

import (
	"kwizzy_backend/docs"
	"kwizzy_backend/internal/config"
	"kwizzy_backend/internal/middleware"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要登录的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerUserRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	// 题库浏览
	rg.GET("/subjects", c.subject.ListSubjects)
	rg.GET("/subjects/:id", c.subject.GetSubject)
	rg.GET("/chapters", c.chapter.ListChapters)
	rg.GET("/chapters/:id", c.chapter.GetChapter)
	rg.GET("/quizzes", c.quiz.ListQuizzes)
	rg.GET("/quizzes/:id", c.quiz.GetQuiz)

	// 作答与成绩
	student := rg.Group("/")
	student.Use(middleware.RoleMiddleware(model.Student))
	{
		student.POST("/quiz-results/submit", c.result.SubmitQuiz)
		student.GET("/quiz-results", c.result.ListMyResults)
		student.GET("/quiz-results/:id", c.result.GetMyResult)
		student.GET("/performance", c.performance.GetMyPerformance)
		student.POST("/exports", c.export.StartExport)
	}

	// 管理员也可以查询自己发起的导出任务
	rg.GET("/exports", c.export.ListExports)
	rg.GET("/exports/:id", c.export.GetExport)
	rg.GET("/exports/:id/download", c.export.DownloadExport)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/students", c.auth.ListStudents)
		admin.GET("/students/:id/performance", c.performance.GetStudentPerformance)

		admin.POST("/subjects", c.subject.CreateSubject)
		admin.PUT("/subjects/:id", c.subject.UpdateSubject)
		admin.DELETE("/subjects/:id", c.subject.DeleteSubject)

		admin.POST("/chapters", c.chapter.CreateChapter)
		admin.PUT("/chapters/:id", c.chapter.UpdateChapter)
		admin.DELETE("/chapters/:id", c.chapter.DeleteChapter)

		admin.POST("/quizzes", c.quiz.CreateQuiz)
		admin.PUT("/quizzes/:id", c.quiz.UpdateQuiz)
		admin.DELETE("/quizzes/:id", c.quiz.DeleteQuiz)
		admin.POST("/quizzes/:id/questions", c.quiz.AddQuestion)

		admin.GET("/questions/:id", c.quiz.GetQuestion)
		admin.PUT("/questions/:id", c.quiz.UpdateQuestion)
		admin.DELETE("/questions/:id", c.quiz.DeleteQuestion)

		admin.GET("/quiz-results", c.result.ListResults)
		admin.GET("/quiz-results/:id", c.result.GetResult)
		admin.DELETE("/quiz-results/:id", c.result.DeleteResult)

		admin.POST("/exports", c.export.StartFullExport)
	}
}
