// Package orchestrator drives the end-to-end generation workflow: quota check,
// synthesis call, quota commit, and the release of any images staged in the object
// store for the request.
package orchestrator

import (
	"context"

	"github.com/fitlooks/tryon/internal/quota"
	"github.com/fitlooks/tryon/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "orchestrator"})

var (
	// ErrAuthenticationRequired indicates that the request carried no user identity.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrMissingInput indicates that one or both image references were absent.
	ErrMissingInput = errors.New("please provide both subject and garment images")

	// ErrQuotaExceeded indicates that the user has no generations left in the
	// current quota window.
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// QuotaService is the part of the quota manager the orchestrator needs.
type QuotaService interface {
	CheckAndReserve(ctx context.Context, email string) (*quota.Reservation, error)
	Commit(ctx context.Context, email string) (int, error)
}

// ImageSynthesizer performs the remote synthesis call.
type ImageSynthesizer interface {
	Generate(ctx context.Context, subjectURL, garmentURL string) ([]byte, error)
}

// AssetRemover deletes images staged in the object store.
type AssetRemover interface {
	Delete(ctx context.Context, publicID string) error
}

// Request describes one generation request. The public IDs are set only for images
// that were uploaded through this service for the duration of the request; those are
// the only images the orchestrator deletes afterwards. Images referenced by URL
// alone belong to the caller and are left untouched.
type Request struct {
	Email           string
	SubjectURL      string
	GarmentURL      string
	SubjectPublicID string
	GarmentPublicID string
}

// Result is the outcome of a successful generation.
type Result struct {
	Image     []byte
	Remaining int
}

// Orchestrator sequences the generation workflow.
type Orchestrator struct {
	quota       QuotaService
	synthesizer ImageSynthesizer
	assets      AssetRemover
}

// New creates a generation orchestrator.
func New(quotaService QuotaService, synthesizer ImageSynthesizer, assets AssetRemover) *Orchestrator {
	return &Orchestrator{quota: quotaService, synthesizer: synthesizer, assets: assets}
}

// Run executes one generation request. The workflow is: validate the request, check
// the quota, call the synthesis service, and commit the quota only once the
// synthesis call has succeeded, so a failed call never consumes quota. Whatever the
// outcome, every image staged for this request is released before Run returns.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	// The staged images must be released on every exit path, including panics and
	// canceled requests.
	defer o.releaseAssets(context.WithoutCancel(ctx), req)

	if req.Email == "" {
		return nil, ErrAuthenticationRequired
	}
	if req.SubjectURL == "" || req.GarmentURL == "" {
		return nil, ErrMissingInput
	}

	log := log.WithFields(logrus.Fields{"user": req.Email})

	reservation, err := o.quota.CheckAndReserve(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if !reservation.Allowed {
		log.Info("generation denied: quota exhausted")
		return nil, ErrQuotaExceeded
	}

	image, err := o.synthesizer.Generate(ctx, req.SubjectURL, req.GarmentURL)
	if err != nil {
		return nil, errors.Wrap(err, "the synthesis call failed")
	}

	remaining, err := o.quota.Commit(ctx, req.Email)
	if err != nil {
		return nil, errors.Wrap(err, "unable to record the generation")
	}

	log.WithFields(logrus.Fields{"remaining": remaining}).Info("generation complete")

	return &Result{Image: image, Remaining: remaining}, nil
}

// releaseAssets deletes every image that was staged for the request. Each deletion
// is attempted independently; failures are logged and never alter the outcome the
// workflow has already determined.
func (o *Orchestrator) releaseAssets(ctx context.Context, req Request) {
	for _, publicID := range []string{req.SubjectPublicID, req.GarmentPublicID} {
		if publicID == "" {
			continue
		}
		if err := o.assets.Delete(ctx, publicID); err != nil {
			log.WithFields(logrus.Fields{"asset": publicID}).Errorf("unable to delete staged image: %s", err.Error())
		}
	}
}
