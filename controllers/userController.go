package controllers

import (
	"net/http"

	"civicresolve-be/models"
	"civicresolve-be/services"

	"github.com/gin-gonic/gin"
)

// UserController serves citizen and worker accounts.
type UserController struct {
	identity *services.IdentityService
}

func NewUserController(identity *services.IdentityService) *UserController {
	RegisterValidators()
	return &UserController{identity: identity}
}

type registerUserRequest struct {
	Name       string            `json:"name" binding:"required,max=50"`
	Email      string            `json:"email" binding:"required,email"`
	Password   string            `json:"password" binding:"required,min=6,max=72"`
	Role       models.UserRole   `json:"role" binding:"omitempty,oneof=citizen worker"`
	Department models.Department `json:"department"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func userResponse(res *services.AuthResult) gin.H {
	return gin.H{
		"id":         res.User.ID,
		"name":       res.User.Name,
		"email":      res.User.Email,
		"role":       res.User.Role,
		"department": res.User.Department,
		"token":      res.Token,
	}
}

func (uc *UserController) RegisterUser(c *gin.Context) {
	var input registerUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	res, err := uc.identity.RegisterCitizen(c.Request.Context(), services.CitizenRegistration{
		Name:       input.Name,
		Email:      input.Email,
		Password:   input.Password,
		Role:       input.Role,
		Department: input.Department,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userResponse(res))
}

func (uc *UserController) LoginUser(c *gin.Context) {
	var input loginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	res, err := uc.identity.LoginCitizen(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, userResponse(res))
}
