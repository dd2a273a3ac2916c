package routes

import (
	"civicresolve-be/controllers"

	"github.com/gin-gonic/gin"
)

// UserRoutes sets up citizen and worker registration and login.
func UserRoutes(r *gin.Engine, uc *controllers.UserController) {
	users := r.Group("/api/users")
	{
		users.POST("/register", uc.RegisterUser)
		users.POST("/login", uc.LoginUser)
	}
}
