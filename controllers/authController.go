package controllers

import (
	"net/http"

	"civicresolve-be/models"
	"civicresolve-be/services"

	"github.com/gin-gonic/gin"
)

// AuthController serves officer and department accounts.
type AuthController struct {
	identity *services.IdentityService
}

func NewAuthController(identity *services.IdentityService) *AuthController {
	RegisterValidators()
	return &AuthController{identity: identity}
}

type registerOfficerRequest struct {
	Name       string             `json:"name" binding:"required,max=50"`
	Email      string             `json:"email" binding:"required,email"`
	Password   string             `json:"password" binding:"required,min=6,max=72"`
	Ward       string             `json:"ward"`
	Role       models.OfficerRole `json:"role" binding:"omitempty,oneof=admin department"`
	Department models.Department  `json:"department"`
}

// RegisterOfficer handles officer registration. It does not sign the
// officer in.
func (ac *AuthController) RegisterOfficer(c *gin.Context) {
	var input registerOfficerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	officer, err := ac.identity.RegisterOfficer(c.Request.Context(), services.OfficerRegistration{
		Name:       input.Name,
		Email:      input.Email,
		Password:   input.Password,
		Ward:       input.Ward,
		Role:       input.Role,
		Department: input.Department,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Officer/Department registered successfully",
		"officer": officer,
	})
}

// LoginOfficer handles officer login
func (ac *AuthController) LoginOfficer(c *gin.Context) {
	var input loginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, bindError(err))
		return
	}

	res, err := ac.identity.LoginOfficer(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   res.Token,
		"officer": res.Officer,
	})
}
