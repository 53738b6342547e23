package controllers

import (
	"net/http"

	"github.com/fitlooks/tryon/internal/httpmodel"
	"github.com/fitlooks/tryon/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// swagger:route POST /v1/uploads uploads uploadImage
//
// Upload an Image
//
// Stages an image in the object store for the duration of one generation request and
// returns its URL along with the handle used to delete it afterwards.
//
// responses:
//   200: uploadResponse
//   400: badRequestResponse
//   500: internalServerErrorResponse

// UploadImage handles image upload requests.
func (s Server) UploadImage(ctx echo.Context) error {
	log := log.WithFields(logrus.Fields{"context": "upload"})

	context := ctx.Request().Context()

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return model.Error(ctx, "no file provided", http.StatusBadRequest)
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("unable to open the uploaded file: %s", err.Error())
		return model.Error(ctx, "upload failed", http.StatusInternalServerError)
	}
	defer file.Close()

	asset, err := s.Uploader.Upload(context, file, fileHeader.Filename)
	if err != nil {
		log.Errorf("unable to stage the uploaded file: %s", err.Error())
		return model.Error(ctx, "upload failed", http.StatusInternalServerError)
	}

	log.WithFields(logrus.Fields{"asset": asset.PublicID}).Debug("staged an uploaded image")

	return model.Success(ctx, httpmodel.UploadResponse{
		Success:  true,
		URL:      asset.URL,
		PublicID: asset.PublicID,
	}, http.StatusOK)
}
