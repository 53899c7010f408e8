package httpapi

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/mmynk/currentsee/internal/artifacts"
	apperrors "github.com/mmynk/currentsee/internal/errors"
	"github.com/mmynk/currentsee/internal/models"
)

// multipartOverhead leaves room for the form fields and boundaries next to the file.
const multipartOverhead = 1 << 20

func uploadBodyLimit(maxUpload int64) string {
	return strconv.FormatInt(maxUpload+multipartOverhead, 10)
}

func (s *Server) handleListArtifacts(c echo.Context) error {
	list, err := s.artifacts.List(c.Request().Context(), c.QueryParam("owner_id"))
	if err != nil {
		return apperrors.InternalError("failed to list artifacts", err)
	}
	if list == nil {
		list = []*models.Artifact{}
	}
	if err := c.JSON(http.StatusOK, list); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleUploadArtifact(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperrors.ValidationError("file is required")
	}

	price := decimal.Zero
	if raw := strings.TrimSpace(c.FormValue("price_solar")); raw != "" {
		if price, err = decimal.NewFromString(raw); err != nil {
			return apperrors.ValidationError("price_solar must be a decimal number").WithContext("price_solar", raw)
		}
	}

	f, err := fh.Open()
	if err != nil {
		return apperrors.InternalError("failed to read upload", err)
	}
	defer f.Close()

	a, err := s.artifacts.Upload(c.Request().Context(), artifacts.UploadRequest{
		OwnerID:     c.FormValue("owner_id"),
		Title:       c.FormValue("title"),
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		PriceSolar:  price,
	}, f)
	if err != nil {
		return domainError(err)
	}

	if err := c.JSON(http.StatusCreated, a); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetArtifact(c echo.Context) error {
	id := c.Param("id")
	a, err := s.artifacts.Get(c.Request().Context(), id)
	if err != nil {
		return apperrors.AsStructuredError(err).WithContext("artifact_id", id)
	}
	if err := c.JSON(http.StatusOK, a); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleArtifactPreview(c echo.Context) error {
	return s.serveArtifact(c, artifacts.KindPreview)
}

func (s *Server) handleArtifactDownload(c echo.Context) error {
	return s.serveArtifact(c, artifacts.KindDelivery)
}

// serveArtifact streams one stored copy, with range support.
func (s *Server) serveArtifact(c echo.Context, kind artifacts.Kind) error {
	id := c.Param("id")
	a, f, err := s.artifacts.Open(c.Request().Context(), id, kind)
	if err != nil {
		return apperrors.AsStructuredError(domainError(err)).WithContext("artifact_id", id)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return apperrors.InternalError("failed to stat artifact", err)
	}

	h := c.Response().Header()
	name := a.FileName
	etag := a.SHA256
	if kind == artifacts.KindPreview {
		h.Set(echo.HeaderContentType, "image/png")
		name = a.ID + ".png"
		etag += "-preview"
	} else {
		contentType := a.ContentType
		if contentType == "" {
			contentType = echo.MIMEOctetStream
		}
		h.Set(echo.HeaderContentType, contentType)
		h.Set(echo.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": a.FileName}))
	}
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("ETag", strconv.Quote(etag))

	http.ServeContent(c.Response(), c.Request(), name, info.ModTime(), f)
	return nil
}
