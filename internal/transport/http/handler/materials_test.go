package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/studyhub-api/internal/application/material"
	"github.com/studyhub-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMaterialService struct {
	listAllCalled bool
	listOwner     string
}

func (f *fakeMaterialService) Upload(_ context.Context, _ material.UploadInput) (*domain.Material, error) {
	return nil, nil
}

func (f *fakeMaterialService) ListByOwner(_ context.Context, ownerIdentifier string) ([]domain.Material, error) {
	f.listOwner = ownerIdentifier
	return []domain.Material{{MaterialID: "m1", OwnerIdentifier: ownerIdentifier}}, nil
}

func (f *fakeMaterialService) ListAll(_ context.Context) ([]domain.Material, error) {
	f.listAllCalled = true
	return []domain.Material{{MaterialID: "m1"}, {MaterialID: "m2"}}, nil
}

func (f *fakeMaterialService) Delete(_ context.Context, _, _ string) error { return nil }

func (f *fakeMaterialService) Download(_ context.Context, _, _ string) (*material.DownloadResult, error) {
	return nil, domain.ErrNotFound
}

func TestList_PublicCatalog(t *testing.T) {
	svc := &fakeMaterialService{}
	h := NewMaterialHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/materials", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, svc.listAllCalled)
	assert.Empty(t, svc.listOwner)

	var resp struct {
		Materials []domain.Material `json:"materials"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Materials, 2)
}

func TestList_FilteredByEmployeeID(t *testing.T) {
	svc := &fakeMaterialService{}
	h := NewMaterialHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/materials?employee_id=EMP001", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, svc.listAllCalled)
	assert.Equal(t, "EMP001", svc.listOwner)

	var resp struct {
		Materials []domain.Material `json:"materials"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Materials, 1)
	assert.Equal(t, "EMP001", resp.Materials[0].OwnerIdentifier)
}
