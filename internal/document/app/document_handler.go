package app

import (
	"legal_consult_service/internal/document/domain"
	"legal_consult_service/pkg"
	errprocess "legal_consult_service/pkg/err"
	"legal_consult_service/pkg/logger"
	"legal_consult_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DocumentHandler 文件與簽署 HTTP 介面
type DocumentHandler struct {
	Usecase DocumentUseCase
}

// NewDocumentHandler 创建新的 DocumentHandler
func NewDocumentHandler(uc DocumentUseCase) *DocumentHandler {
	return &DocumentHandler{Usecase: uc}
}

// ShareRequest POST /documents/:id/share body
type ShareRequest struct {
	UserIDs []string `json:"user_ids"`
}

// SignRequest POST /documents/:id/sign body
type SignRequest struct {
	Signature  string `json:"signature"`
	SignerName string `json:"signer_name"`
}

// Upload 上傳文件
// @Summary Upload a document
// @Tags Document
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "pdf, doc or docx up to 25MB"
// @Param folder formData string false "Folder"
// @Success 201 {object} domain.Document
// @Failure 400 {object} map[string]string
// @Router /documents [post]
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot read file"})
	}
	defer f.Close()

	doc, err := h.Usecase.UploadDocument(c.UserContext(), domain.UploadDocumentReq{
		UserID:      middlewares.MemberID(c),
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Folder:      c.FormValue("folder"),
		Reader:      f,
	})
	if err != nil {
		logger.Log.Debug("upload document", zap.String("file", fh.Filename), zap.Error(err))
		return errprocess.Response(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// List 查詢自己的與被分享的文件
// @Summary List my documents
// @Tags Document
// @Produce json
// @Param folder query string false "Folder"
// @Success 200 {array} domain.Document
// @Router /documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	docs, err := h.Usecase.GetDocuments(c.UserContext(), middlewares.MemberID(c), c.Query("folder"))
	if err != nil {
		return errprocess.Response(c, err)
	}
	return c.JSON(docs)
}

// Share 設定分享名單
// @Summary Share a document
// @Tags Document
// @Accept json
// @Param id path string true "Document ID"
// @Param request body ShareRequest true "user ids"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /documents/{id}/share [post]
func (h *DocumentHandler) Share(c *fiber.Ctx) error {
	var req ShareRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if err := h.authorize(c, false); err != nil {
		return errprocess.Response(c, err)
	}
	if err := h.Usecase.ShareDocument(c.UserContext(), c.Params("id"), req.UserIDs); err != nil {
		return errprocess.Response(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete 刪除文件
// @Summary Delete a document
// @Tags Document
// @Param id path string true "Document ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	if err := h.authorize(c, false); err != nil {
		return errprocess.Response(c, err)
	}
	if err := h.Usecase.DeleteDocument(c.UserContext(), c.Params("id")); err != nil {
		return errprocess.Response(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Sign 簽署文件
// @Summary Sign a document
// @Tags Document
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param request body SignRequest true "data:image/png;base64 signature"
// @Success 201 {object} domain.Signature
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /documents/{id}/sign [post]
func (h *DocumentHandler) Sign(c *fiber.Ctx) error {
	var req SignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	if err := h.authorize(c, true); err != nil {
		return errprocess.Response(c, err)
	}

	name := req.SignerName
	if name == "" {
		name = middlewares.Local(c, middlewares.TokenName)
	}

	sig, err := h.Usecase.SignDocument(c.UserContext(), domain.SignDocumentReq{
		DocumentID: c.Params("id"),
		SignerID:   middlewares.MemberID(c),
		SignerName: name,
		Signature:  req.Signature,
		IPAddress:  c.IP(),
		UserAgent:  c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return errprocess.Response(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sig)
}

// Verify 驗證簽名
// @Summary Verify document signature
// @Tags Document
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} map[string]bool
// @Router /documents/{id}/verify [get]
func (h *DocumentHandler) Verify(c *fiber.Ctx) error {
	ok, err := h.Usecase.VerifySignature(c.UserContext(), c.Params("id"))
	if err != nil {
		return errprocess.Response(c, err)
	}
	return c.JSON(fiber.Map{"valid": ok})
}

// authorize 上傳者才能分享或刪除，被分享的人可以簽署
func (h *DocumentHandler) authorize(c *fiber.Ctx, allowShared bool) error {
	doc, err := h.Usecase.GetDocument(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	memberID := middlewares.MemberID(c)
	if doc.UploadedBy == memberID || (allowShared && pkg.Contains(doc.SharedWith, memberID)) {
		return nil
	}
	return errprocess.Forbidden("document %s is not accessible by %s", doc.ID, memberID)
}
