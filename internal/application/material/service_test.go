package material

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/studyhub-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMaterialStore struct {
	materials map[string]*domain.Material
	deleted   []string
}

func newFakeMaterialStore() *fakeMaterialStore {
	return &fakeMaterialStore{materials: map[string]*domain.Material{}}
}

func (f *fakeMaterialStore) Put(_ context.Context, m *domain.Material) error {
	cp := *m
	f.materials[m.MaterialID] = &cp
	return nil
}

func (f *fakeMaterialStore) Get(_ context.Context, materialID string) (*domain.Material, error) {
	if m, ok := f.materials[materialID]; ok {
		return m, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMaterialStore) ListByOwner(_ context.Context, ownerIdentifier string) ([]domain.Material, error) {
	var out []domain.Material
	for _, m := range f.materials {
		if m.OwnerIdentifier == ownerIdentifier {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMaterialStore) ListAll(_ context.Context) ([]domain.Material, error) {
	var out []domain.Material
	for _, m := range f.materials {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMaterialStore) Delete(_ context.Context, materialID string) error {
	delete(f.materials, materialID)
	f.deleted = append(f.deleted, materialID)
	return nil
}

type fakeObjectStore struct {
	objects     map[string]string // key -> content
	deleted     []string
	deleteErr   error
	downloadErr error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string]string{}}
}

func (f *fakeObjectStore) Upload(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.objects[key] = string(b)
	return "s3://bucket/" + key, nil
}

func (f *fakeObjectStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	content, ok := f.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

func newFixture() (*fakeMaterialStore, *fakeObjectStore, Service) {
	repo := newFakeMaterialStore()
	objects := newFakeObjectStore()
	return repo, objects, NewService(repo, objects)
}

func uploadInput(owner string) UploadInput {
	return UploadInput{
		Reader:      strings.NewReader("pdf bytes"),
		Filename:    "week 1 notes.pdf",
		ContentType: "application/pdf",
		Meta: domain.CreateMaterialRequest{
			Title:      "Week 1 Notes",
			Subject:    "Data Structures",
			CourseCode: "CS201",
		},
		OwnerIdentifier: owner,
	}
}

func TestUpload_StoresBinaryAndMetadata(t *testing.T) {
	repo, objects, svc := newFixture()

	m, err := svc.Upload(context.Background(), uploadInput("EMP001"))
	require.NoError(t, err)

	assert.NotEmpty(t, m.MaterialID)
	assert.Equal(t, "EMP001", m.OwnerIdentifier)
	assert.Equal(t, "week 1 notes.pdf", m.OriginalFilename)
	assert.Contains(t, m.ObjectKey, "materials/EMP001/")
	assert.Contains(t, m.ObjectKey, "week_1_notes.pdf")

	assert.Contains(t, repo.materials, m.MaterialID)
	assert.Equal(t, "pdf bytes", objects.objects[m.ObjectKey])
}

func TestUpload_MissingFile(t *testing.T) {
	_, _, svc := newFixture()
	in := uploadInput("EMP001")
	in.Reader = nil

	_, err := svc.Upload(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpload_MissingTitle(t *testing.T) {
	_, _, svc := newFixture()
	in := uploadInput("EMP001")
	in.Meta.Title = ""

	_, err := svc.Upload(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListByOwner_RequiresIdentifier(t *testing.T) {
	_, _, svc := newFixture()
	_, err := svc.ListByOwner(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListByOwner_FiltersOtherOwners(t *testing.T) {
	_, _, svc := newFixture()
	_, err := svc.Upload(context.Background(), uploadInput("EMP001"))
	require.NoError(t, err)
	_, err = svc.Upload(context.Background(), uploadInput("EMP002"))
	require.NoError(t, err)

	own, err := svc.ListByOwner(context.Background(), "EMP001")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "EMP001", own[0].OwnerIdentifier)
}

func TestDelete_OwnerOnly(t *testing.T) {
	repo, objects, svc := newFixture()
	m, err := svc.Upload(context.Background(), uploadInput("EMP001"))
	require.NoError(t, err)

	err = svc.Delete(context.Background(), m.MaterialID, "EMP002")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.Delete(context.Background(), m.MaterialID, "EMP001"))
	assert.Equal(t, []string{m.MaterialID}, repo.deleted)
	assert.Equal(t, []string{m.ObjectKey}, objects.deleted)
}

func TestDelete_BinaryFailureStillRemovesMetadata(t *testing.T) {
	repo, objects, svc := newFixture()
	m, err := svc.Upload(context.Background(), uploadInput("EMP001"))
	require.NoError(t, err)
	objects.deleteErr = assert.AnError

	require.NoError(t, svc.Delete(context.Background(), m.MaterialID, "EMP001"))
	assert.Equal(t, []string{m.MaterialID}, repo.deleted)
}

func TestDelete_UnknownMaterial(t *testing.T) {
	_, _, svc := newFixture()
	err := svc.Delete(context.Background(), "missing", "EMP001")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDownload_PublicNeedsNoOwner(t *testing.T) {
	_, _, svc := newFixture()
	m, err := svc.Upload(context.Background(), uploadInput("EMP001"))
	require.NoError(t, err)

	res, err := svc.Download(context.Background(), m.MaterialID, "")
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(body))
	assert.Equal(t, "week 1 notes.pdf", res.Filename)
	assert.Equal(t, "application/pdf", res.ContentType)
}

func TestDownload_OwnerMismatchForbidden(t *testing.T) {
	_, _, svc := newFixture()
	m, err := svc.Upload(context.Background(), uploadInput("EMP001"))
	require.NoError(t, err)

	_, err = svc.Download(context.Background(), m.MaterialID, "EMP002")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDownload_FilenameFallsBackToTitle(t *testing.T) {
	repo, objects, svc := newFixture()
	repo.materials["m1"] = &domain.Material{
		MaterialID: "m1",
		Title:      "Old Upload",
		ObjectKey:  "materials/EMP001/m1_notes.pdf",
	}
	objects.objects["materials/EMP001/m1_notes.pdf"] = "bytes"

	res, err := svc.Download(context.Background(), "m1", "")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "Old Upload.pdf", res.Filename)
}

func TestDownload_FilenameFallsBackToBinExtension(t *testing.T) {
	repo, objects, svc := newFixture()
	repo.materials["m1"] = &domain.Material{
		MaterialID: "m1",
		Title:      "Raw Blob",
		ObjectKey:  "materials/EMP001/m1_blob",
	}
	objects.objects["materials/EMP001/m1_blob"] = "bytes"

	res, err := svc.Download(context.Background(), "m1", "")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "Raw Blob.bin", res.Filename)
	assert.Equal(t, "application/octet-stream", res.ContentType)
}

func TestDownload_StorageFailureIsDependencyError(t *testing.T) {
	repo, objects, svc := newFixture()
	repo.materials["m1"] = &domain.Material{MaterialID: "m1", ObjectKey: "k"}
	objects.downloadErr = assert.AnError

	_, err := svc.Download(context.Background(), "m1", "")
	assert.ErrorIs(t, err, domain.ErrDependency)
}
