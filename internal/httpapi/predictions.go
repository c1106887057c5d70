package httpapi

import (
	"net/http"

	"leafscan/api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const msgInvalidPredictionFields = "image_path, confidence or description has the wrong type"

type createPredictionRequest struct {
	UserID      string   `json:"user_id"`
	ImagePath   *string  `json:"image_path"`
	DiseaseName string   `json:"disease_name"`
	Confidence  *float64 `json:"confidence"`
	Description *string  `json:"description"`
}

// predictionRequiredFields is decoded on its own when the full body fails to
// bind, to tell a missing field from a mistyped optional one.
type predictionRequiredFields struct {
	UserID      string `json:"user_id"`
	DiseaseName string `json:"disease_name"`
}

type createPredictionResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (s *Server) handleListPredictions(c *gin.Context) {
	list, err := s.predictions.ListByUser(c.Request.Context(), c.Param("userid"))
	if err != nil {
		s.writeError(c, err, "Failed to fetch predictions")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleCreatePrediction(c *gin.Context) {
	var req createPredictionRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		var required predictionRequiredFields
		if c.ShouldBindBodyWith(&required, binding.JSON) == nil && required.UserID != "" && required.DiseaseName != "" {
			s.writeError(c, &service.Error{Kind: service.KindValidation, Message: msgInvalidPredictionFields, Err: err}, "")
			return
		}
		req = createPredictionRequest{}
	}

	created, err := s.predictions.Create(c.Request.Context(), service.NewPrediction{
		UserID:      req.UserID,
		DiseaseName: req.DiseaseName,
		ImagePath:   nonEmpty(req.ImagePath),
		Confidence:  req.Confidence,
		Description: nonEmpty(req.Description),
	})
	if err != nil {
		s.writeError(c, err, "Failed to create prediction")
		return
	}

	c.JSON(http.StatusCreated, createPredictionResponse{
		ID:      created.ID,
		Message: "Prediction created successfully",
	})
}

func (s *Server) handleGetPrediction(c *gin.Context) {
	p, err := s.predictions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err, "Failed to fetch prediction")
		return
	}
	c.JSON(http.StatusOK, p)
}

// nonEmpty maps an empty string to absent.
func nonEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
