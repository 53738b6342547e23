package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/fitlooks/tryon/internal/inference"
	"github.com/fitlooks/tryon/internal/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockQuotaService is a mock type for the QuotaService interface.
type MockQuotaService struct {
	mock.Mock
}

func (m *MockQuotaService) CheckAndReserve(ctx context.Context, email string) (*quota.Reservation, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quota.Reservation), args.Error(1)
}

func (m *MockQuotaService) Commit(ctx context.Context, email string) (int, error) {
	args := m.Called(ctx, email)
	return args.Int(0), args.Error(1)
}

// MockSynthesizer is a mock type for the ImageSynthesizer interface.
type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Generate(ctx context.Context, subjectURL, garmentURL string) ([]byte, error) {
	args := m.Called(ctx, subjectURL, garmentURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockAssetRemover is a mock type for the AssetRemover interface.
type MockAssetRemover struct {
	mock.Mock
}

func (m *MockAssetRemover) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

const (
	testEmail      = "someone@example.org"
	testSubjectURL = "https://images.example.org/subject.png"
	testGarmentURL = "https://images.example.org/garment.png"
)

func fullRequest() Request {
	return Request{
		Email:           testEmail,
		SubjectURL:      testSubjectURL,
		GarmentURL:      testGarmentURL,
		SubjectPublicID: "tryon-uploads/subject-abc",
		GarmentPublicID: "tryon-uploads/garment-def",
	}
}

func newMocks() (*MockQuotaService, *MockSynthesizer, *MockAssetRemover) {
	return new(MockQuotaService), new(MockSynthesizer), new(MockAssetRemover)
}

func TestRunMissingEmail(t *testing.T) {
	quotaService, synthesizer, assets := newMocks()

	req := fullRequest()
	req.Email = ""
	assets.On("Delete", mock.Anything, mock.Anything).Return(nil)

	_, err := New(quotaService, synthesizer, assets).Run(context.Background(), req)

	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	quotaService.AssertNotCalled(t, "CheckAndReserve", mock.Anything, mock.Anything)
	synthesizer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)

	// Even a request that fails validation releases its staged images.
	assets.AssertCalled(t, "Delete", mock.Anything, "tryon-uploads/subject-abc")
	assets.AssertCalled(t, "Delete", mock.Anything, "tryon-uploads/garment-def")
}

func TestRunMissingImages(t *testing.T) {
	quotaService, synthesizer, assets := newMocks()

	req := Request{Email: testEmail, SubjectURL: testSubjectURL}

	_, err := New(quotaService, synthesizer, assets).Run(context.Background(), req)

	assert.ErrorIs(t, err, ErrMissingInput)
	quotaService.AssertNotCalled(t, "CheckAndReserve", mock.Anything, mock.Anything)
}

func TestRunQuotaExceeded(t *testing.T) {
	quotaService, synthesizer, assets := newMocks()

	quotaService.On("CheckAndReserve", mock.Anything, testEmail).
		Return(&quota.Reservation{Allowed: false, Remaining: 0}, nil)
	assets.On("Delete", mock.Anything, mock.Anything).Return(nil)

	_, err := New(quotaService, synthesizer, assets).Run(context.Background(), fullRequest())

	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// No synthesis call is made and no quota is consumed.
	synthesizer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	quotaService.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
	assets.AssertNumberOfCalls(t, "Delete", 2)
}

func TestRunUnknownUser(t *testing.T) {
	quotaService, synthesizer, assets := newMocks()

	quotaService.On("CheckAndReserve", mock.Anything, testEmail).Return(nil, quota.ErrUserNotFound)
	assets.On("Delete", mock.Anything, mock.Anything).Return(nil)

	_, err := New(quotaService, synthesizer, assets).Run(context.Background(), fullRequest())

	assert.ErrorIs(t, err, quota.ErrUserNotFound)
	synthesizer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunSynthesisFailure(t *testing.T) {
	quotaService, synthesizer, assets := newMocks()

	quotaService.On("CheckAndReserve", mock.Anything, testEmail).
		Return(&quota.Reservation{Allowed: true, Remaining: 2}, nil)
	synthesizer.On("Generate", mock.Anything, testSubjectURL, testGarmentURL).
		Return(nil, &inference.APIError{StatusCode: 500, Body: "model crashed"})
	assets.On("Delete", mock.Anything, mock.Anything).Return(nil)

	_, err := New(quotaService, synthesizer, assets).Run(context.Background(), fullRequest())

	var apiErr *inference.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)

	// A failed synthesis call never consumes quota, and the staged images are
	// still released.
	quotaService.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
	assets.AssertCalled(t, "Delete", mock.Anything, "tryon-uploads/subject-abc")
	assets.AssertCalled(t, "Delete", mock.Anything, "tryon-uploads/garment-def")
}

func TestRunSuccess(t *testing.T) {
	quotaService, synthesizer, assets := newMocks()

	image := []byte("png bytes")
	quotaService.On("CheckAndReserve", mock.Anything, testEmail).
		Return(&quota.Reservation{Allowed: true, Remaining: 2}, nil)
	synthesizer.On("Generate", mock.Anything, testSubjectURL, testGarmentURL).Return(image, nil)
	quotaService.On("Commit", mock.Anything, testEmail).Return(2, nil)
	assets.On("Delete", mock.Anything, "tryon-uploads/subject-abc").Return(nil).Once()
	assets.On("Delete", mock.Anything, "tryon-uploads/garment-def").Return(nil).Once()

	result, err := New(quotaService, synthesizer, assets).Run(context.Background(), fullRequest())

	assert.NoError(t, err)
	assert.Equal(t, image, result.Image)
	assert.Equal(t, 2, result.Remaining)

	// Each staged image is deleted exactly once.
	assets.AssertExpectations(t)
}

func TestRunURLOnlyReferences(t *testing.T) {
	quotaService, synthesizer, assets := newMocks()

	quotaService.On("CheckAndReserve", mock.Anything, testEmail).
		Return(&quota.Reservation{Allowed: true, Remaining: 2}, nil)
	synthesizer.On("Generate", mock.Anything, testSubjectURL, testGarmentURL).Return([]byte("png"), nil)
	quotaService.On("Commit", mock.Anything, testEmail).Return(2, nil)

	req := fullRequest()
	req.SubjectPublicID = ""
	req.GarmentPublicID = ""

	_, err := New(quotaService, synthesizer, assets).Run(context.Background(), req)

	assert.NoError(t, err)

	// Caller-owned images are never deleted.
	assets.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRunMixedOwnership(t *testing.T) {
	quotaService, synthesizer, assets := newMocks()

	quotaService.On("CheckAndReserve", mock.Anything, testEmail).
		Return(&quota.Reservation{Allowed: true, Remaining: 2}, nil)
	synthesizer.On("Generate", mock.Anything, testSubjectURL, testGarmentURL).Return([]byte("png"), nil)
	quotaService.On("Commit", mock.Anything, testEmail).Return(2, nil)
	assets.On("Delete", mock.Anything, "tryon-uploads/garment-def").Return(nil).Once()

	// The subject is a direct URL; only the uploaded garment is staged.
	req := fullRequest()
	req.SubjectPublicID = ""

	_, err := New(quotaService, synthesizer, assets).Run(context.Background(), req)

	assert.NoError(t, err)
	assets.AssertExpectations(t)
	assets.AssertNumberOfCalls(t, "Delete", 1)
}

func TestRunCleanupFailureDoesNotMaskSuccess(t *testing.T) {
	quotaService, synthesizer, assets := newMocks()

	quotaService.On("CheckAndReserve", mock.Anything, testEmail).
		Return(&quota.Reservation{Allowed: true, Remaining: 2}, nil)
	synthesizer.On("Generate", mock.Anything, testSubjectURL, testGarmentURL).Return([]byte("png"), nil)
	quotaService.On("Commit", mock.Anything, testEmail).Return(2, nil)
	assets.On("Delete", mock.Anything, mock.Anything).Return(errors.New("object store unavailable"))

	result, err := New(quotaService, synthesizer, assets).Run(context.Background(), fullRequest())

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Remaining)

	// Both deletions are still attempted even though the first one failed.
	assets.AssertNumberOfCalls(t, "Delete", 2)
}

func TestRunCleanupFailureDoesNotMaskFailure(t *testing.T) {
	quotaService, synthesizer, assets := newMocks()

	quotaService.On("CheckAndReserve", mock.Anything, testEmail).
		Return(&quota.Reservation{Allowed: false, Remaining: 0}, nil)
	assets.On("Delete", mock.Anything, mock.Anything).Return(errors.New("object store unavailable"))

	_, err := New(quotaService, synthesizer, assets).Run(context.Background(), fullRequest())

	// The quota error determined by the workflow is the one reported.
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}
