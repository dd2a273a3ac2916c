package routes

import (
	"civicresolve-be/controllers"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up officer registration and login. signup guards
// registration; nil leaves it open.
func AuthRoutes(r *gin.Engine, ac *controllers.AuthController, signup gin.HandlerFunc) {
	if signup == nil {
		signup = func(c *gin.Context) { c.Next() }
	}
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", signup, ac.RegisterOfficer)
		auth.POST("/login", ac.LoginOfficer)
	}
}
