package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/internal/middleware"
	"github.com/solidoro/bmw-admin/internal/service"
	"github.com/solidoro/bmw-admin/internal/utils"
	"github.com/solidoro/bmw-admin/internal/workspace"
	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

// workspaceOf returns the request's workspace or writes an error.
func workspaceOf(c *gin.Context) (*workspace.Workspace, bool) {
	ws := middleware.GetWorkspace(c)
	if ws == nil {
		utils.Error(c, http.StatusInternalServerError, utils.ErrNoWorkspace.Error(), "Session workspace unavailable")
		return nil, false
	}
	return ws, true
}

// respondError maps service, workspace and upstream failures onto the
// response envelope. fallback is used when the upstream gave no message.
func respondError(c *gin.Context, err error, fallback string) {
	if ve, ok := service.IsValidation(err); ok {
		utils.ErrorWithData(c, http.StatusBadRequest, "VALIDATION_FAILED", ve.Message, gin.H{"field": ve.Field})
		return
	}
	for _, sentinel := range []error{utils.ErrInvalidLayout, utils.ErrInvalidFilter, utils.ErrInvalidID, utils.ErrConfirmationRequired} {
		if errors.Is(err, sentinel) {
			utils.Error(c, http.StatusBadRequest, sentinel.Error(), err.Error())
			return
		}
	}
	if errors.Is(err, utils.ErrNotFound) {
		utils.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if se, ok := catalogapi.IsStatus(err); ok {
		msg := se.Message
		if msg == "" {
			msg = fallback
		}
		switch {
		case se.StatusCode == http.StatusNotFound:
			utils.Error(c, http.StatusNotFound, "UPSTREAM_NOT_FOUND", msg)
		case se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden:
			utils.Error(c, http.StatusForbidden, "UPSTREAM_FORBIDDEN", msg)
		case se.StatusCode < 500:
			utils.Error(c, http.StatusUnprocessableEntity, "UPSTREAM_REJECTED", msg)
		default:
			utils.Error(c, http.StatusBadGateway, "UPSTREAM_ERROR", fallback)
		}
		return
	}
	if errors.Is(err, catalogapi.ErrTransport) {
		utils.Error(c, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", fallback)
		return
	}
	log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled request error")
	utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
}

// requireConfirmation enforces ?confirm=true on destructive routes.
func requireConfirmation(c *gin.Context) bool {
	if c.Query("confirm") == "true" {
		return true
	}
	respondError(c, fmt.Errorf("%w: add confirm=true to delete", utils.ErrConfirmationRequired), "")
	return false
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		respondError(c, fmt.Errorf("%w: %s must be a positive integer", utils.ErrInvalidID, name), "")
		return 0, false
	}
	return id, true
}

// parseMultipart reads a multipart body capped at maxBytes.
func parseMultipart(c *gin.Context, maxBytes int64) (*multipart.Form, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	if err := c.Request.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &service.ValidationError{Field: "files", Message: fmt.Sprintf("Upload exceeds %d MB", maxBytes>>20)}
		}
		return nil, &service.ValidationError{Field: "body", Message: "Expected a multipart form"}
	}
	return c.Request.MultipartForm, nil
}

func formValue(form *multipart.Form, field string) string {
	if v := form.Value[field]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// formOptional distinguishes a missing field from an empty one.
func formOptional(form *multipart.Form, field string) catalogapi.OptionalString {
	if v, ok := form.Value[field]; ok && len(v) > 0 {
		return catalogapi.Some(v[0])
	}
	return catalogapi.OptionalString{}
}

// formFiles loads every file sent under the given fields, in field order.
func formFiles(form *multipart.Form, fields ...string) ([]*catalogapi.File, error) {
	var out []*catalogapi.File
	for _, field := range fields {
		for _, fh := range form.File[field] {
			f, err := readFile(fh)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
	}
	return out, nil
}

func formFile(form *multipart.Form, field string) (*catalogapi.File, error) {
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	return readFile(files[0])
}

func readFile(fh *multipart.FileHeader) (*catalogapi.File, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	return &catalogapi.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// formSpecs reads the specs table either as the JSON "specs" field or as
// parallel spec_label/spec_value rows.
func formSpecs(form *multipart.Form) ([]catalogapi.Spec, error) {
	if raw, ok := form.Value["specs"]; ok && len(raw) > 0 && raw[0] != "" {
		var specs catalogapi.SpecList
		if err := json.Unmarshal([]byte(raw[0]), &specs); err != nil {
			return nil, &service.ValidationError{Field: "specs", Message: "Specs must be a JSON list of label/value pairs"}
		}
		return specs, nil
	}

	labels, values := form.Value["spec_label"], form.Value["spec_value"]
	var specs []catalogapi.Spec
	for i := range labels {
		specs = service.AddSpec(specs)
		var err error
		if specs, err = service.UpdateSpec(specs, i, "label", labels[i]); err != nil {
			return nil, err
		}
		if i < len(values) {
			if specs, err = service.UpdateSpec(specs, i, "value", values[i]); err != nil {
				return nil, err
			}
		}
	}
	return specs, nil
}
