// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/odialabs/coaching-api/internal/config"
	"github.com/odialabs/coaching-api/internal/handler"
	"github.com/odialabs/coaching-api/internal/middleware"
	"github.com/odialabs/coaching-api/internal/model"
	"github.com/odialabs/coaching-api/internal/repository"
)

// Deps collects everything the route table needs.
type Deps struct {
	Cfg     config.Config
	RDB     *redis.Client
	Revoked *repository.RevokedTokenRepo

	Auth          *handler.AuthHandler
	Profile       *handler.ProfileHandler
	Slots         *handler.TimeSlotHandler
	Appointments  *handler.AppointmentHandler
	Education     *handler.EducationHandler
	UserMessages  *handler.UserMessageHandler
	AdminMessages *handler.AdminMessageHandler
	AdminUsers    *handler.AdminUserHandler
	Leads         *handler.LeadHandler
}

// Register mounts the whole route table:
//
//	/healthz            liveness
//	/v1/auth/*          session lifecycle, rate limited
//	/v1/public/*        unauthenticated education catalog and lead forms
//	/v1/*               authenticated user surface
//	/v1/admin/*         admin surface
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Session lifecycle. The token bucket keys on ip+route so one
	// address cannot brute-force credentials or mint reset tokens.
	authGroup := e.Group("/v1/auth")
	authGroup.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.RDB))
	authGroup.POST("/register", d.Auth.Register)
	authGroup.POST("/login", d.Auth.Login)
	authGroup.POST("/refresh", d.Auth.Refresh)
	authGroup.POST("/logout", d.Auth.Logout)
	authGroup.POST("/forgot-password", d.Auth.ForgotPassword)
	authGroup.POST("/reset-password", d.Auth.ResetPassword)

	// Public, cacheable reads plus the lead-capture forms.
	public := e.Group("/v1/public")
	cached := middleware.NewRedisCache(config.LoadCacheConfig(), d.RDB)
	public.GET("/education/sections", d.Education.ListSections, cached)
	public.GET("/education/sections/:id/contents", d.Education.ListContents, cached)
	public.POST("/leads", d.Leads.CreateLead)
	public.POST("/contact", d.Leads.CreateContactMessage)

	// Authenticated user surface.
	user := e.Group("/v1")
	user.Use(middleware.Authenticate(d.Cfg.JWTSecret, d.Revoked))
	user.GET("/me", d.Auth.UserData)
	user.POST("/me/password", d.Auth.ChangePassword)

	user.GET("/profile", d.Profile.Get)
	user.PUT("/profile/informations", d.Profile.UpdateInformations)
	user.GET("/profile/documents", d.Profile.ListDocuments)
	user.POST("/profile/documents", d.Profile.AddDocument)
	user.GET("/profile/forms", d.Profile.ListForms)
	user.POST("/profile/forms", d.Profile.SubmitForm)
	user.PUT("/profile/forms/:id", d.Profile.UpdateForm)
	user.DELETE("/profile/forms/:id", d.Profile.DeleteForm)

	user.GET("/slots", d.Slots.ListAvailable)
	user.GET("/appointments", d.Appointments.ListMine)
	user.POST("/appointments", d.Appointments.Book)
	user.DELETE("/appointments/:id", d.Appointments.Cancel)

	user.GET("/messages", d.UserMessages.Conversation)
	user.POST("/messages", d.UserMessages.Send)
	user.PUT("/messages/read", d.UserMessages.MarkRead)
	user.GET("/messages/unread-count", d.UserMessages.UnreadCount)

	user.GET("/visio", d.AdminUsers.MyVisio)

	// Admin surface. Authenticate runs first via the parent group
	// chain, then the role gate.
	admin := e.Group("/v1/admin")
	admin.Use(middleware.Authenticate(d.Cfg.JWTSecret, d.Revoked))
	admin.Use(middleware.RequireRole(model.RoleAdmin))

	admin.GET("/users", d.AdminUsers.List)
	admin.POST("/users", d.AdminUsers.Create)
	admin.GET("/users/:id", d.AdminUsers.Get)
	admin.PUT("/users/:id", d.AdminUsers.UpdateInfo)
	admin.PUT("/users/:id/role", d.AdminUsers.UpdateRole)
	admin.PUT("/users/:id/progress", d.AdminUsers.SetProgress)
	admin.POST("/users/:id/visio", d.AdminUsers.ActivateVisio)
	admin.DELETE("/users/:id/visio", d.AdminUsers.DeactivateVisio)
	admin.DELETE("/users/:id", d.AdminUsers.Delete)

	admin.POST("/slots", d.Slots.Create)
	admin.PUT("/slots/:id", d.Slots.Update)
	admin.DELETE("/slots/:id", d.Slots.Delete)

	admin.GET("/appointments", d.Appointments.AdminList)
	admin.POST("/appointments", d.Appointments.AdminCreate)
	admin.PUT("/appointments/:id/status", d.Appointments.AdminSetStatus)
	admin.DELETE("/appointments/:id", d.Appointments.AdminCancel)

	admin.GET("/messages/triage", d.AdminMessages.Triage)
	admin.GET("/messages/unread-count", d.AdminMessages.UnreadCount)
	admin.GET("/messages/:userId", d.AdminMessages.Conversation)
	admin.POST("/messages/:userId", d.AdminMessages.Send)
	admin.PUT("/messages/:userId/read", d.AdminMessages.MarkRead)
	admin.DELETE("/messages/conversation/:userId", d.AdminMessages.DeleteConversation)
	admin.DELETE("/messages/one/:id", d.AdminMessages.DeleteMessage)

	admin.POST("/education/sections", d.Education.CreateSection)
	admin.PUT("/education/sections/:id", d.Education.UpdateSection)
	admin.DELETE("/education/sections/:id", d.Education.DeleteSection)
	admin.POST("/education/contents", d.Education.CreateContent)
	admin.PUT("/education/contents/:id", d.Education.UpdateContent)
	admin.DELETE("/education/contents/:id", d.Education.DeleteContent)

	admin.GET("/leads", d.Leads.ListLeads)
	admin.DELETE("/leads/:id", d.Leads.DeleteLead)
	admin.GET("/contact-messages", d.Leads.ListContactMessages)
}
