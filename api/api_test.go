package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/pkg/blob/inmemory"
	"github.com/Ben-Eze/BibWeb/pkg/bundle"
	"github.com/Ben-Eze/BibWeb/pkg/config"
	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/localstore"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
	"github.com/Ben-Eze/BibWeb/pkg/session"
)

func newTestSession() *session.Session {
	cfg := config.NewDefaultConfig()
	cfg.Restore.FallbackDelay = config.Duration{Duration: 20 * time.Millisecond}
	cfg.Restore.SettleDelay = config.Duration{Duration: 5 * time.Millisecond}
	cfg.Restore.SuppressWindow = config.Duration{Duration: 20 * time.Millisecond}

	ws, err := session.Open(context.Background(), session.Options{
		Dir:    GinkgoT().TempDir(),
		Config: cfg,
		Medium: localstore.NewMemory(0),
		Blobs:  inmemory.NewDriver(),
	})
	Expect(err).NotTo(HaveOccurred())
	return ws
}

func request(server *Server, method, path string, body any) (*http.Response, []byte) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := server.app.Test(req)
	Expect(err).NotTo(HaveOccurred())
	respBody, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp, respBody
}

func upload(server *Server, path, filename string, data []byte, fields map[string]string) (*http.Response, []byte) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = fw.Write(data)
	Expect(err).NotTo(HaveOccurred())
	for k, v := range fields {
		Expect(mw.WriteField(k, v)).To(Succeed())
	}
	Expect(mw.Close()).To(Succeed())

	req, err := http.NewRequest(http.MethodPost, path, &buf)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := server.app.Test(req)
	Expect(err).NotTo(HaveOccurred())
	respBody, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp, respBody
}

var _ = Describe("Server", func() {
	var (
		server *Server
		ws     *session.Session
	)

	BeforeEach(func() {
		ws = newTestSession()
		server = NewServer(Config{ListenAddr: ":0"}, ws, zap.NewNop())
	})

	AfterEach(func() {
		Expect(ws.Close()).To(Succeed())
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			resp, body := request(server, http.MethodGet, "/ping", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(string(body)).To(Equal(`"pong"`))
		})
	})

	Describe("POST /v1/papers", func() {
		It("creates a paper and returns 201", func() {
			resp, body := request(server, http.MethodPost, "/v1/papers", AddPaperRequest{
				Title:   "Attention Is All You Need",
				Authors: "Vaswani et al.",
				Link:    "https://arxiv.org/abs/1706.03762",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			var result PaperResponse
			Expect(json.Unmarshal(body, &result)).To(Succeed())
			Expect(result.Created).To(BeTrue())
			Expect(result.Paper.ID).To(Equal(1))
			Expect(result.Paper.Type).To(Equal(paper.TypeURL))
		})

		It("merges into an existing paper with the same title", func() {
			request(server, http.MethodPost, "/v1/papers", AddPaperRequest{Title: "Deep Learning"})
			resp, body := request(server, http.MethodPost, "/v1/papers", AddPaperRequest{
				Title: "  deep learning ",
				DOI:   "10.1038/nature14539",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var result PaperResponse
			Expect(json.Unmarshal(body, &result)).To(Succeed())
			Expect(result.Created).To(BeFalse())
			Expect(result.Paper.DOI).To(Equal("10.1038/nature14539"))
			Expect(ws.Store.Len()).To(Equal(1))
		})

		It("rejects a blank title with field details", func() {
			resp, body := request(server, http.MethodPost, "/v1/papers", AddPaperRequest{Title: "   "})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			var result ErrorResponse
			Expect(json.Unmarshal(body, &result)).To(Succeed())
			Expect(result.Fields).To(ContainElement(HaveField("Field", "title")))
		})

		It("rejects unknown colors and types", func() {
			resp, body := request(server, http.MethodPost, "/v1/papers", AddPaperRequest{
				Title:   "P",
				ColorID: "pink",
				Type:    "podcast",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			var result ErrorResponse
			Expect(json.Unmarshal(body, &result)).To(Succeed())
			Expect(result.Fields).To(HaveLen(2))
		})

		It("rejects titles that are only markup", func() {
			resp, _ := request(server, http.MethodPost, "/v1/papers", AddPaperRequest{Title: "<b></b>"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("rejects malformed bodies", func() {
			req, err := http.NewRequest(http.MethodPost, "/v1/papers", bytes.NewReader([]byte("{")))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("PATCH /v1/papers/:id", func() {
		BeforeEach(func() {
			_, _, err := ws.Store.AddPaper("First", paper.Metadata{})
			Expect(err).NotTo(HaveOccurred())
			_, _, err = ws.Store.AddPaper("Second", paper.Metadata{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("updates the given fields only", func() {
			nick := "F"
			physics := false
			x, y := 10.0, 20.0
			resp, body := request(server, http.MethodPatch, "/v1/papers/1", UpdatePaperRequest{
				Nickname: &nick,
				Physics:  &physics,
				X:        &x,
				Y:        &y,
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var p paper.Paper
			Expect(json.Unmarshal(body, &p)).To(Succeed())
			Expect(p.Title).To(Equal("First"))
			Expect(p.Nickname).To(Equal("F"))
			Expect(p.Pinned()).To(BeTrue())
			pt, ok := p.Position()
			Expect(ok).To(BeTrue())
			Expect(pt).To(Equal(paper.Point{X: 10, Y: 20}))
		})

		It("requires both coordinates", func() {
			x := 10.0
			resp, _ := request(server, http.MethodPatch, "/v1/papers/1", UpdatePaperRequest{X: &x})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 409 when the new title is taken", func() {
			title := "second"
			resp, _ := request(server, http.MethodPatch, "/v1/papers/1", UpdatePaperRequest{Title: &title})
			Expect(resp.StatusCode).To(Equal(fiber.StatusConflict))
		})

		It("returns 404 for unknown papers", func() {
			nick := "x"
			resp, _ := request(server, http.MethodPatch, "/v1/papers/99", UpdatePaperRequest{Nickname: &nick})
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("returns 400 for non-numeric ids", func() {
			resp, _ := request(server, http.MethodPatch, "/v1/papers/abc", UpdatePaperRequest{})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("DELETE /v1/papers/:id", func() {
		It("removes the paper and its references", func() {
			_, err := ws.Store.Cite("A", "B", "")
			Expect(err).NotTo(HaveOccurred())

			resp, _ := request(server, http.MethodDelete, "/v1/papers/1", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))
			Expect(ws.Store.Len()).To(Equal(1))
			Expect(ws.Store.References()).To(BeEmpty())

			resp, _ = request(server, http.MethodDelete, "/v1/papers/1", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("references", func() {
		It("cites by title, creating missing papers", func() {
			resp, body := request(server, http.MethodPost, "/v1/references", AddReferenceRequest{
				FromTitle: "BERT",
				ToTitle:   "Attention Is All You Need",
				Label:     "builds on",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			var ref paper.Reference
			Expect(json.Unmarshal(body, &ref)).To(Succeed())
			Expect(ref.From).To(Equal(1))
			Expect(ref.To).To(Equal(2))
			Expect(ref.Label).To(Equal("builds on"))
			Expect(ref.ID).NotTo(BeEmpty())
		})

		It("links existing papers by id and rejects duplicates", func() {
			_, _, _ = ws.Store.AddPaper("A", paper.Metadata{})
			_, _, _ = ws.Store.AddPaper("B", paper.Metadata{})

			resp, _ := request(server, http.MethodPost, "/v1/references", AddReferenceRequest{From: 1, To: 2})
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			resp, _ = request(server, http.MethodPost, "/v1/references", AddReferenceRequest{From: 1, To: 2})
			Expect(resp.StatusCode).To(Equal(fiber.StatusConflict))

			resp, _ = request(server, http.MethodPost, "/v1/references", AddReferenceRequest{From: 1, To: 42})
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("requires both ends", func() {
			resp, _ := request(server, http.MethodPost, "/v1/references", AddReferenceRequest{FromTitle: "Only"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("relabels and removes references", func() {
			ref, err := ws.Store.Cite("A", "B", "")
			Expect(err).NotTo(HaveOccurred())

			resp, body := request(server, http.MethodPatch, "/v1/references/"+ref.ID, UpdateReferenceRequest{Label: "extends"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(string(body)).To(ContainSubstring(`"label":"extends"`))

			resp, _ = request(server, http.MethodDelete, "/v1/references/"+ref.ID, nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))

			resp, _ = request(server, http.MethodPatch, "/v1/references/"+ref.ID, UpdateReferenceRequest{Label: "x"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("PUT /v1/positions", func() {
		It("records drawn positions", func() {
			_, _, _ = ws.Store.AddPaper("A", paper.Metadata{})

			resp, _ := request(server, http.MethodPut, "/v1/positions", PositionsRequest{
				Positions:  []PositionUpdate{{ID: 1, X: 42, Y: -7}},
				Stabilized: true,
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))

			pt, ok := ws.Layout.Position(1)
			Expect(ok).To(BeTrue())
			Expect(pt).To(Equal(paper.Point{X: 42, Y: -7}))

			_, body := request(server, http.MethodGet, "/v1/graph", nil)
			var snap graph.Snapshot
			Expect(json.Unmarshal(body, &snap)).To(Succeed())
			Expect(*snap.Nodes[0].X).To(Equal(42.0))
		})

		It("returns 404 for unknown papers", func() {
			resp, _ := request(server, http.MethodPut, "/v1/positions", PositionsRequest{
				Positions: []PositionUpdate{{ID: 5, X: 1, Y: 1}},
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("rejects invalid ids", func() {
			resp, _ := request(server, http.MethodPut, "/v1/positions", PositionsRequest{
				Positions: []PositionUpdate{{ID: 0}},
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("assets", func() {
		It("uploads, links, lists and serves an asset", func() {
			_, _, _ = ws.Store.AddPaper("Scanned", paper.Metadata{})

			resp, body := upload(server, "/v1/assets", "scan.pdf", []byte("%PDF-1.4 body"), map[string]string{"paper": "1"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			var created AssetResponse
			Expect(json.Unmarshal(body, &created)).To(Succeed())
			Expect(created.Name).To(Equal("scan.pdf"))
			Expect(created.Link).To(Equal("assets/scan.pdf"))

			p, _ := ws.Store.Paper(1)
			Expect(p.Link).To(Equal("assets/scan.pdf"))
			Expect(p.Type).To(Equal(paper.TypeFile))

			resp, body = request(server, http.MethodGet, "/v1/assets", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(string(body)).To(ContainSubstring(`"count":1`))

			resp, body = request(server, http.MethodGet, "/v1/assets/scan.pdf", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(string(body)).To(Equal("%PDF-1.4 body"))
		})

		It("renames uploads that collide", func() {
			resp, _ := upload(server, "/v1/assets", "a.txt", []byte("one"), nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			resp, body := upload(server, "/v1/assets", "a.txt", []byte("two"), nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			var created AssetResponse
			Expect(json.Unmarshal(body, &created)).To(Succeed())
			Expect(created.Name).NotTo(Equal("a.txt"))
		})

		It("returns 404 for unknown assets and papers", func() {
			resp, _ := request(server, http.MethodGet, "/v1/assets/nope.pdf", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))

			resp, _ = upload(server, "/v1/assets", "x.txt", []byte("x"), map[string]string{"paper": "9"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("requires a file", func() {
			resp, _ := request(server, http.MethodPost, "/v1/assets", map[string]string{})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("export and import", func() {
		It("exports a JSON document when there are no assets", func() {
			_, _ = ws.Store.Cite("A", "B", "")

			resp, body := request(server, http.MethodGet, "/v1/export", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("application/json"))
			Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring("paper-web.json"))

			var snap graph.Snapshot
			Expect(json.Unmarshal(body, &snap)).To(Succeed())
			Expect(snap.Nodes).To(HaveLen(2))
			Expect(snap.Edges).To(HaveLen(1))
		})

		It("exports a ZIP archive once assets exist", func() {
			_, _, _ = ws.Store.AddPaper("A", paper.Metadata{Link: "assets/a.txt"})
			upload(server, "/v1/assets", "a.txt", []byte("hello"), nil)

			resp, body := request(server, http.MethodGet, "/v1/export", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/zip"))

			zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
			Expect(err).NotTo(HaveOccurred())
			names := make([]string, 0, len(zr.File))
			for _, f := range zr.File {
				names = append(names, f.Name)
			}
			Expect(names).To(ContainElements("web.json", "assets/a.txt"))
		})

		It("imports a JSON document from the request body", func() {
			doc := `{"nodes":[{"id":3,"title":"Imported","x":1,"y":2}],"edges":[]}`
			req, err := http.NewRequest(http.MethodPost, "/v1/import", bytes.NewReader([]byte(doc)))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var report ImportResponse
			Expect(json.NewDecoder(resp.Body).Decode(&report)).To(Succeed())
			Expect(report.Format).To(Equal(bundle.FormatDocument))
			Expect(report.Papers).To(Equal(1))

			Eventually(func() bool {
				p, ok := ws.Store.Paper(3)
				if !ok {
					return false
				}
				_, placed := p.Position()
				return placed
			}).Should(BeTrue())
		})

		It("imports an uploaded file", func() {
			resp, _ := upload(server, "/v1/import", "web.json", []byte(`{"nodes":[{"id":1,"title":"Up"}],"edges":[]}`), nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			_, ok := ws.Store.FindByTitle("Up")
			Expect(ok).To(BeTrue())
		})

		It("rejects invalid files without touching the graph", func() {
			_, _, _ = ws.Store.AddPaper("Keep", paper.Metadata{})

			req, err := http.NewRequest(http.MethodPost, "/v1/import", bytes.NewReader([]byte("not json")))
			Expect(err).NotTo(HaveOccurred())
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			_, ok := ws.Store.FindByTitle("Keep")
			Expect(ok).To(BeTrue())
		})
	})

	Describe("GET /v1/notes", func() {
		It("returns 404 when no paper has notes", func() {
			resp, _ := request(server, http.MethodGet, "/v1/notes", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("returns combined markdown", func() {
			_, _, _ = ws.Store.AddPaper("Noted", paper.Metadata{Notes: "Key idea."})

			resp, body := request(server, http.MethodGet, "/v1/notes", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/markdown"))
			Expect(string(body)).To(HavePrefix("# Combined Paper Notes"))
			Expect(string(body)).To(ContainSubstring("#### Noted"))
		})
	})

	Describe("GET /v1/status", func() {
		It("reports graph and storage sizes", func() {
			_, _ = ws.Store.Cite("A", "B", "")

			resp, body := request(server, http.MethodGet, "/v1/status", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var st session.Status
			Expect(json.Unmarshal(body, &st)).To(Succeed())
			Expect(st.Papers).To(Equal(2))
			Expect(st.References).To(Equal(1))
			Expect(st.Storage.Used).To(BeNumerically(">", 0))
			Expect(st.Storage.Exceeded).To(BeFalse())
		})
	})

	Describe("GET /metrics", func() {
		It("exposes request and graph metrics", func() {
			request(server, http.MethodGet, "/ping", nil)

			resp, body := request(server, http.MethodGet, "/metrics", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(string(body)).To(ContainSubstring(`bibweb_http_requests_total{method="GET",route="/ping",status="200"} 1`))
			Expect(string(body)).To(ContainSubstring("bibweb_papers 0"))
		})
	})
})
