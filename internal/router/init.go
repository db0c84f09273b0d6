package router

import (
	app "github.com/sandeepkrmehta/lms-backend/internal/application"
	"github.com/sandeepkrmehta/lms-backend/internal/container"
	pginfra "github.com/sandeepkrmehta/lms-backend/internal/infrastructure/postgres"
	handlers "github.com/sandeepkrmehta/lms-backend/internal/interface/http"
	"github.com/sandeepkrmehta/lms-backend/internal/router/modules"
)

// InitModules constructs the repositories, services and handlers from the
// container singletons and registers every feature module with the registry.
// Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	userRepo := pginfra.NewUserRepository(container.GetPGPool())
	courseRepo := pginfra.NewCourseRepository(container.GetPGPool())
	paymentRepo := pginfra.NewPaymentRepository(container.GetPGPool())

	// a nil *RabbitPublisher must stay a nil interface, or the
	// services' pub == nil checks stop working
	var pub app.EmailPublisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}

	userSvc := app.NewUserService(
		userRepo,
		container.GetJWT(),
		container.GetGCS(),
		cfg.GCSBucket,
		pub,
		logger,
		cfg.ClientURL,
		cfg.ResetTokenTTL,
	)
	courseSvc := app.NewCourseService(
		courseRepo,
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetRedis(),
		logger,
		container.GetES(),
		cfg.ESCoursesIndex,
	)
	paymentSvc := app.NewPaymentService(
		userRepo,
		paymentRepo,
		container.GetPayment(),
		cfg.PaymentPlanID,
		logger,
	)

	r.Add(modules.NewUserModule(handlers.NewUserHandler(userSvc, container.GetCookies(), logger)))
	r.Add(modules.NewCourseModule(handlers.NewCourseHandler(courseSvc, logger), userRepo))
	r.Add(modules.NewPaymentModule(handlers.NewPaymentHandler(paymentSvc, logger)))
	r.Add(modules.NewMiscModule(handlers.NewMiscHandler(userSvc, pub, cfg, logger)))
}
