package api

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/bundle"
	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/notes"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

// AddPaperRequest is the body of POST /v1/papers.
type AddPaperRequest struct {
	Title    string     `json:"title" validate:"notblank"`
	Nickname string     `json:"nickname"`
	Authors  string     `json:"authors"`
	DOI      string     `json:"doi"`
	Link     string     `json:"link"`
	Type     paper.Type `json:"type" validate:"papertype"`
	Notes    string     `json:"notes"`
	ColorID  string     `json:"colorId" validate:"colorid"`
}

// PaperResponse returns a paper and whether the request created it.
type PaperResponse struct {
	Paper   *paper.Paper `json:"paper"`
	Created bool         `json:"created"`
}

// UpdatePaperRequest is the body of PATCH /v1/papers/:id. Absent fields are
// left unchanged.
type UpdatePaperRequest struct {
	Title    *string     `json:"title"`
	Nickname *string     `json:"nickname"`
	Authors  *string     `json:"authors"`
	DOI      *string     `json:"doi"`
	Link     *string     `json:"link"`
	Type     *paper.Type `json:"type" validate:"omitempty,papertype"`
	Notes    *string     `json:"notes"`
	ColorID  *string     `json:"colorId" validate:"omitempty,colorid"`
	X        *float64    `json:"x" validate:"required_with=Y"`
	Y        *float64    `json:"y" validate:"required_with=X"`
	Physics  *bool       `json:"physics"`
}

// AddReferenceRequest is the body of POST /v1/references. Both ends are
// given either as paper ids or as titles; titles create missing papers.
type AddReferenceRequest struct {
	From      int    `json:"from" validate:"required_without=FromTitle"`
	To        int    `json:"to" validate:"required_without=ToTitle"`
	FromTitle string `json:"fromTitle"`
	ToTitle   string `json:"toTitle"`
	Label     string `json:"label"`
}

// UpdateReferenceRequest is the body of PATCH /v1/references/:id.
type UpdateReferenceRequest struct {
	Label string `json:"label"`
}

// PositionsRequest is the body of PUT /v1/positions. A renderer reports
// where it drew papers and, once its layout has settled, sets Stabilized.
type PositionsRequest struct {
	Positions  []PositionUpdate `json:"positions" validate:"dive"`
	Stabilized bool             `json:"stabilized"`
}

// PositionUpdate is one drawn paper.
type PositionUpdate struct {
	ID int     `json:"id" validate:"gt=0"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// AssetResponse describes a stored asset and the link papers use for it.
type AssetResponse struct {
	blob.Info
	Link string `json:"link"`
}

// ImportResponse summarizes an import.
type ImportResponse struct {
	Format     bundle.Format     `json:"format"`
	Papers     int               `json:"papers"`
	References int               `json:"references"`
	Assets     []string          `json:"assets,omitempty"`
	Renamed    map[string]string `json:"renamed,omitempty"`
	Failed     map[string]string `json:"failed,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleGetGraph returns the snapshot document with the drawn positions.
func (s *Server) handleGetGraph(c *fiber.Ctx) error {
	return c.JSON(s.ws.Bundler.Snapshot())
}

// handleStatus returns graph sizes, storage usage and asset totals.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	st, err := s.ws.Status(c.Context())
	if err != nil {
		return s.fail(c, err, "failed to gather status")
	}
	return c.JSON(st)
}

// handleNotes returns the combined notes as markdown.
func (s *Server) handleNotes(c *fiber.Ctx) error {
	md, err := notes.Combine(s.ws.Bundler.Snapshot())
	if errors.Is(err, notes.ErrNoNotes) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}
	if err != nil {
		return s.fail(c, err, "failed to combine notes")
	}
	c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	return c.SendString(md)
}

// handleAddPaper handles POST /v1/papers.
func (s *Server) handleAddPaper(c *fiber.Ctx) error {
	var req AddPaperRequest
	if handled, err := s.bind(c, &req); handled {
		return err
	}

	p, created, err := s.ws.Store.AddPaper(req.Title, paper.Metadata{
		Nickname: req.Nickname,
		Authors:  req.Authors,
		DOI:      req.DOI,
		Link:     req.Link,
		Type:     req.Type,
		Notes:    req.Notes,
		ColorID:  req.ColorID,
	})
	if err != nil {
		return s.fail(c, err, "failed to add paper")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(PaperResponse{Paper: p, Created: created})
}

// handleUpdatePaper handles PATCH /v1/papers/:id.
func (s *Server) handleUpdatePaper(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id must be a positive integer"})
	}

	var req UpdatePaperRequest
	if handled, err := s.bind(c, &req); handled {
		return err
	}

	patch := graph.Patch{
		ID:       id,
		Title:    req.Title,
		Nickname: req.Nickname,
		Authors:  req.Authors,
		DOI:      req.DOI,
		Link:     req.Link,
		Type:     req.Type,
		Notes:    req.Notes,
		ColorID:  req.ColorID,
		Physics:  req.Physics,
	}
	if req.X != nil && req.Y != nil {
		patch.Position = &paper.Point{X: *req.X, Y: *req.Y}
	}

	if err := s.ws.Store.UpdatePaper(patch); err != nil {
		return s.fail(c, err, "failed to update paper")
	}

	p, _ := s.ws.Store.Paper(id)
	return c.JSON(p)
}

// handleRemovePaper handles DELETE /v1/papers/:id.
func (s *Server) handleRemovePaper(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id must be a positive integer"})
	}
	if err := s.ws.Store.RemovePaper(id); err != nil {
		return s.fail(c, err, "failed to remove paper")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleAddReference handles POST /v1/references.
func (s *Server) handleAddReference(c *fiber.Ctx) error {
	var req AddReferenceRequest
	if handled, err := s.bind(c, &req); handled {
		return err
	}

	var (
		ref *paper.Reference
		err error
	)
	switch {
	case req.FromTitle != "" && req.ToTitle != "":
		ref, err = s.ws.Store.Cite(req.FromTitle, req.ToTitle, req.Label)
	case req.From > 0 && req.To > 0:
		ref, err = s.ws.Store.AddReference(req.From, req.To, req.Label)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "give both ends as ids or both as titles",
		})
	}
	if err != nil {
		return s.fail(c, err, "failed to add reference")
	}

	return c.Status(fiber.StatusCreated).JSON(ref)
}

// handleUpdateReference handles PATCH /v1/references/:id.
func (s *Server) handleUpdateReference(c *fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateReferenceRequest
	if handled, err := s.bind(c, &req); handled {
		return err
	}

	if err := s.ws.Store.UpdateReferenceLabel(id, req.Label); err != nil {
		return s.fail(c, err, "failed to update reference")
	}

	ref, _ := s.ws.Store.Reference(id)
	return c.JSON(ref)
}

// handleRemoveReference handles DELETE /v1/references/:id.
func (s *Server) handleRemoveReference(c *fiber.Ctx) error {
	if err := s.ws.Store.RemoveReference(c.Params("id")); err != nil {
		return s.fail(c, err, "failed to remove reference")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handlePositions handles PUT /v1/positions.
func (s *Server) handlePositions(c *fiber.Ctx) error {
	var req PositionsRequest
	if handled, err := s.bind(c, &req); handled {
		return err
	}

	patches := make([]graph.Patch, 0, len(req.Positions))
	for _, u := range req.Positions {
		pt := paper.Point{X: u.X, Y: u.Y}
		if !pt.Finite() {
			continue
		}
		patches = append(patches, graph.Patch{ID: u.ID, Position: &pt})
	}

	if err := s.ws.Store.UpdatePapers(patches); err != nil {
		return s.fail(c, err, "failed to record positions")
	}
	if req.Stabilized {
		s.ws.Layout.Stabilize()
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleListAssets handles GET /v1/assets.
func (s *Server) handleListAssets(c *fiber.Ctx) error {
	infos, err := s.ws.Blobs.List(c.Context())
	if err != nil {
		return s.fail(c, err, "failed to list assets")
	}

	assets := make([]AssetResponse, 0, len(infos))
	for _, info := range infos {
		assets = append(assets, AssetResponse{Info: info, Link: paper.AssetLink(info.Name)})
	}
	return c.JSON(map[string]any{
		"count":  len(assets),
		"assets": assets,
	})
}

// handleUploadAsset handles POST /v1/assets. The multipart "file" is stored
// under a unique name; when "paper" names a paper id, that paper's link is
// pointed at the new asset.
func (s *Server) handleUploadAsset(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "multipart field \"file\" is required"})
	}

	data, err := readFormFile(fh)
	if err != nil {
		return s.fail(c, err, "failed to read upload")
	}

	paperID := 0
	if v := c.FormValue("paper"); v != "" {
		paperID, err = parseID(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "paper must be a positive integer"})
		}
		if _, ok := s.ws.Store.Paper(paperID); !ok {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: graph.ErrPaperNotFound.Error()})
		}
	}

	asset := blob.NewAsset(fh.Filename, data, fh.Header.Get(fiber.HeaderContentType))
	name, err := s.ws.Registrar.Register(c.Context(), asset)
	if err != nil {
		return s.fail(c, err, "failed to store asset")
	}

	link := paper.AssetLink(name)
	if paperID > 0 {
		kind := paper.TypeFile
		if err := s.ws.Store.UpdatePaper(graph.Patch{ID: paperID, Link: &link, Type: &kind}); err != nil {
			return s.fail(c, err, "failed to link asset")
		}
	}

	info := asset.Info
	info.Name = name
	return c.Status(fiber.StatusCreated).JSON(AssetResponse{Info: info, Link: link})
}

// handleGetAsset handles GET /v1/assets/:name.
func (s *Server) handleGetAsset(c *fiber.Ctx) error {
	a, err := s.ws.Blobs.Get(c.Context(), c.Params("name"))
	if err != nil {
		return s.fail(c, err, "failed to read asset")
	}

	if c.QueryBool("download") {
		c.Attachment(a.Name)
	}
	c.Set(fiber.HeaderContentType, a.MimeType)
	return c.Send(a.Data)
}

// handleExport handles GET /v1/export. The graph comes back as a JSON
// document, or as a ZIP archive once there are assets to include.
func (s *Server) handleExport(c *fiber.Ctx) error {
	var buf bytes.Buffer
	format, err := s.ws.Bundler.Export(c.Context(), &buf)
	if err != nil {
		return s.fail(c, err, "failed to export graph")
	}

	c.Attachment("paper-web" + format.Ext())
	c.Set(fiber.HeaderContentType, format.ContentType())
	return c.Send(buf.Bytes())
}

// handleImport handles POST /v1/import. The file is either the raw request
// body or a multipart "file" field.
func (s *Server) handleImport(c *fiber.Ctx) error {
	data := c.Body()
	if fh, err := c.FormFile("file"); err == nil {
		data, err = readFormFile(fh)
		if err != nil {
			return s.fail(c, err, "failed to read upload")
		}
	}
	if len(data) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "empty import"})
	}

	report, err := s.ws.Bundler.Import(c.Context(), data)
	if err != nil {
		return s.fail(c, err, "failed to import graph")
	}

	resp := ImportResponse{
		Format:     report.Format,
		Papers:     report.Papers,
		References: report.References,
		Assets:     report.Assets,
		Renamed:    report.Renamed,
	}
	if len(report.Failed) > 0 {
		resp.Failed = make(map[string]string, len(report.Failed))
		for name, ferr := range report.Failed {
			resp.Failed[name] = ferr.Error()
		}
	}
	return c.JSON(resp)
}

// fail maps domain errors to status codes. Anything unexpected is logged and
// reported with the generic message.
func (s *Server) fail(c *fiber.Ctx, err error, msg string) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		s.logger.Error(msg, zap.String("path", c.Path()), zap.Error(err))
		return c.Status(status).JSON(ErrorResponse{Error: msg})
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, graph.ErrPaperNotFound),
		errors.Is(err, graph.ErrReferenceNotFound),
		blob.IsNotFound(err):
		return fiber.StatusNotFound
	case errors.Is(err, graph.ErrDuplicateTitle),
		errors.Is(err, graph.ErrDuplicateReference):
		return fiber.StatusConflict
	case errors.Is(err, graph.ErrEmptyTitle),
		errors.Is(err, bundle.ErrInvalidFile):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func parseID(v string) (int, error) {
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
