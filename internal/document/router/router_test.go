package router

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"legal_consult_service/internal/document/app"
	"legal_consult_service/internal/document/domain"
	errprocess "legal_consult_service/pkg/err"
	"legal_consult_service/pkg/logger"
	"legal_consult_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetNewNop()
}

func setup(t *testing.T) (*fiber.App, *app.MockDocumentUseCase, string) {
	uc := new(app.MockDocumentUseCase)
	r := fiber.New()
	RegisterRoutes(r, app.NewDocumentHandler(uc))

	tok, err := token.GenerateJWT(token.Claims{MemberID: "u1", Name: "Alice", Role: "client"}, "test")
	require.NoError(t, err)
	return r, uc, tok
}

func multipartBody(t *testing.T, fileName, contentType, content, folder string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	if folder != "" {
		require.NoError(t, w.WriteField("folder", folder))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestUpload(t *testing.T) {
	r, uc, tok := setup(t)
	uc.On("UploadDocument", mock.Anything, mock.MatchedBy(func(req domain.UploadDocumentReq) bool {
		content, _ := io.ReadAll(req.Reader)
		return req.UserID == "u1" && req.FileName == "nda.pdf" &&
			req.ContentType == "application/pdf" && req.Folder == "contracts" &&
			req.Size == 8 && string(content) == "%PDF-1.7"
	})).Return(&domain.Document{ID: "d1", Name: "nda.pdf", Status: domain.StatusUploaded}, nil)

	body, ct := multipartBody(t, "nda.pdf", "application/pdf", "%PDF-1.7", "contracts")
	req := httptest.NewRequest("POST", "/documents", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := r.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var doc domain.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "d1", doc.ID)
	uc.AssertExpectations(t)
}

func TestUpload_Rejected(t *testing.T) {
	r, uc, tok := setup(t)
	uc.On("UploadDocument", mock.Anything, mock.Anything).Return(nil, errprocess.Validation("file type image/png not supported"))

	body, ct := multipartBody(t, "photo.png", "image/png", "png", "")
	req := httptest.NewRequest("POST", "/documents", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := r.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	t.Run("no file part", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/documents", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := r.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestSign(t *testing.T) {
	r, uc, tok := setup(t)
	uc.On("GetDocument", mock.Anything, "d1").Return(&domain.Document{ID: "d1", UploadedBy: "u1"}, nil)
	uc.On("GetDocument", mock.Anything, "d2").Return(&domain.Document{ID: "d2", UploadedBy: "u1"}, nil)
	uc.On("SignDocument", mock.Anything, mock.MatchedBy(func(req domain.SignDocumentReq) bool {
		return req.DocumentID == "d1" && req.SignerID == "u1" && req.SignerName == "Alice" &&
			req.Signature == "data:image/png;base64,AAAA" && req.UserAgent == "agent/1.0"
	})).Return(&domain.Signature{ID: "s1", DocumentID: "d1"}, nil)
	uc.On("SignDocument", mock.Anything, mock.MatchedBy(func(req domain.SignDocumentReq) bool {
		return req.DocumentID == "d2"
	})).Return(nil, errprocess.Conflict("document d2 already signed"))

	sign := func(id string) int {
		req := httptest.NewRequest("POST", "/documents/"+id+"/sign", strings.NewReader(`{"signature":"data:image/png;base64,AAAA"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "agent/1.0")
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := r.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusCreated, sign("d1"))
	assert.Equal(t, fiber.StatusConflict, sign("d2"))
}

func TestShareDeleteVerify(t *testing.T) {
	r, uc, tok := setup(t)
	uc.On("GetDocument", mock.Anything, "d1").Return(&domain.Document{ID: "d1", UploadedBy: "u1"}, nil)
	uc.On("GetDocument", mock.Anything, "gone").Return(nil, errprocess.NotFound("document gone not found"))
	uc.On("ShareDocument", mock.Anything, "d1", []string{"c1", "c2"}).Return(nil)
	uc.On("DeleteDocument", mock.Anything, "d1").Return(nil)
	uc.On("VerifySignature", mock.Anything, "d1").Return(true, nil)
	uc.On("GetDocuments", mock.Anything, "u1", "").Return([]domain.Document{{ID: "d1"}}, nil)

	do := func(method, path, body string) *httptestResult {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := r.Test(req)
		require.NoError(t, err)
		raw, _ := io.ReadAll(resp.Body)
		return &httptestResult{status: resp.StatusCode, body: string(raw)}
	}

	assert.Equal(t, fiber.StatusNoContent, do("POST", "/documents/d1/share", `{"user_ids":["c1","c2"]}`).status)
	assert.Equal(t, fiber.StatusNoContent, do("DELETE", "/documents/d1", "").status)
	assert.Equal(t, fiber.StatusNotFound, do("DELETE", "/documents/gone", "").status)

	verify := do("GET", "/documents/d1/verify", "")
	assert.Equal(t, fiber.StatusOK, verify.status)
	assert.JSONEq(t, `{"valid":true}`, verify.body)

	assert.Equal(t, fiber.StatusOK, do("GET", "/documents", "").status)
	uc.AssertExpectations(t)
	uc.AssertNotCalled(t, "DeleteDocument", mock.Anything, "gone")
}

func TestOnlyOwnerOrSharedUser(t *testing.T) {
	r, uc, tok := setup(t)
	uc.On("GetDocument", mock.Anything, "shared").Return(&domain.Document{ID: "shared", UploadedBy: "u9", SharedWith: []string{"u1"}}, nil)
	uc.On("GetDocument", mock.Anything, "private").Return(&domain.Document{ID: "private", UploadedBy: "u9"}, nil)
	uc.On("SignDocument", mock.Anything, mock.MatchedBy(func(req domain.SignDocumentReq) bool {
		return req.DocumentID == "shared" && req.SignerID == "u1"
	})).Return(&domain.Signature{ID: "s1", DocumentID: "shared"}, nil)

	do := func(method, path, body string) int {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := r.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	// 被分享的人可以簽署，但不能改分享名單或刪除
	assert.Equal(t, fiber.StatusForbidden, do("POST", "/documents/shared/share", `{"user_ids":["u1","u2"]}`))
	assert.Equal(t, fiber.StatusForbidden, do("DELETE", "/documents/shared", ""))
	assert.Equal(t, fiber.StatusCreated, do("POST", "/documents/shared/sign", `{"signature":"data:image/png;base64,AAAA"}`))

	assert.Equal(t, fiber.StatusForbidden, do("POST", "/documents/private/sign", `{"signature":"data:image/png;base64,AAAA"}`))
	assert.Equal(t, fiber.StatusForbidden, do("DELETE", "/documents/private", ""))

	uc.AssertNotCalled(t, "ShareDocument", mock.Anything, mock.Anything, mock.Anything)
	uc.AssertNotCalled(t, "DeleteDocument", mock.Anything, mock.Anything)
	uc.AssertNumberOfCalls(t, "SignDocument", 1)
}

func TestRoutes_RequireToken(t *testing.T) {
	r, _, _ := setup(t)
	resp, err := r.Test(httptest.NewRequest("GET", "/documents", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

type httptestResult struct {
	status int
	body   string
}
