package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/telecare/telecare/internal/config"
	"github.com/telecare/telecare/internal/signaling"
	"github.com/telecare/telecare/pkg/auth"
	"github.com/telecare/telecare/pkg/metrics"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Users         *UserHandler
	Analysis      *AnalysisHandler
	Doctors       *DoctorHandler
	Consultations *ConsultationHandler
	WS            *signaling.WSHandler
}

func NewRouter(cfg *config.Config, db *gorm.DB, jwtManager *auth.JWTManager, collector *metrics.Collector, h Handlers, log *zap.Logger) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(Recovery(log), RequestLogger(log), Metrics(collector))

	r.GET("/healthz", healthz(db))
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	// The signaling socket and kiosk routes are unversioned: the kiosk
	// frontend addresses them by fixed path.
	r.GET("/ws", h.WS.HandleConnect)

	r.POST("/register", h.Users.Register)
	r.POST("/login", h.Users.Login)
	r.GET("/user/:mobile", h.Users.GetByMobile)
	r.GET("/history/:mobile", h.Users.History)

	r.POST("/analyze", h.Analysis.Analyze)

	r.POST("/consult/request", h.Consultations.Request)
	r.POST("/consult/email-admin", h.Consultations.EmailAdmin)

	d := r.Group("/doctor")
	{
		d.POST("/register", h.Doctors.Register)
		d.POST("/login", h.Doctors.Login)
		d.POST("/refresh", h.Doctors.Refresh)
		d.GET("/profile/:id", h.Doctors.GetProfile)

		// Completion is keyed by consultation id and doctor id rather
		// than a session, so the in-call client can post it directly.
		d.POST("/response", h.Doctors.Response)

		protected := d.Group("", RequireDoctor(jwtManager))
		protected.PUT("/profile/:id", h.Doctors.UpdateProfile)
		protected.GET("/patients/:doctorId", h.Doctors.Patients)
	}

	return r
}

func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
