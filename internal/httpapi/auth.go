package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginUser struct {
	UserID   string `json:"userid"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Message string    `json:"message"`
	User    loginUser `json:"user"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userid"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Unreadable bodies fail validation like missing fields.
		req = loginRequest{}
	}

	cred, err := s.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(c, err, "Failed to login")
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Message: "Login successful",
		User: loginUser{
			UserID:   cred.ID,
			Username: cred.Username,
			Role:     cred.Role,
		},
	})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = registerRequest{}
	}

	created, err := s.auth.Register(c.Request.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		s.writeError(c, err, "Failed to register")
		return
	}

	c.JSON(http.StatusCreated, registerResponse{
		Message: "User registered successfully",
		UserID:  created.ID,
	})
}
