package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"

	"github.com/moneybadgers/walkthrough-backend/internal/logger"
)

// Vision annotates raw image bytes with the detected features used for
// catalog matching.
type Vision interface {
	Annotate(ctx context.Context, img []byte) (*Detection, error)
	Close() error
}

// Detection carries what the annotator saw, all lowercased.
type Detection struct {
	Labels []string `json:"labels"`
	Logos  []string `json:"logos"`
	Text   string   `json:"text"`
}

type visionService struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient
}

func NewVision(log *logger.Logger) (Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	ctx := context.Background()
	opts := ClientOptionsFromEnv()

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	return &visionService{
		log:    log.With("service", "gcp.Vision"),
		client: client,
	}, nil
}

func (v *visionService) Annotate(ctx context.Context, img []byte) (*Detection, error) {
	if len(img) == 0 {
		return nil, fmt.Errorf("empty image")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: img},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: 10},
			{Type: visionpb.Feature_LOGO_DETECTION, MaxResults: 10},
			{Type: visionpb.Feature_TEXT_DETECTION, MaxResults: 1},
		},
	}

	br := &visionpb.BatchAnnotateImagesRequest{Requests: []*visionpb.AnnotateImageRequest{req}}
	resp, err := v.client.BatchAnnotateImages(ctx, br)
	if err != nil {
		return nil, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return &Detection{}, nil
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}

	det := detectionFromResponse(r0)
	v.log.Debug("image annotated",
		"labels", len(det.Labels),
		"logos", len(det.Logos),
		"has_text", det.Text != "")
	return det, nil
}

func detectionFromResponse(r0 *visionpb.AnnotateImageResponse) *Detection {
	det := &Detection{}
	for _, l := range r0.LabelAnnotations {
		det.Labels = append(det.Labels, strings.ToLower(l.GetDescription()))
	}
	for _, l := range r0.LogoAnnotations {
		det.Logos = append(det.Logos, strings.ToLower(l.GetDescription()))
	}
	// The first text annotation aggregates everything read off the image.
	if len(r0.TextAnnotations) > 0 {
		det.Text = strings.ToLower(r0.TextAnnotations[0].GetDescription())
	}
	return det
}

func (v *visionService) Close() error {
	if v == nil || v.client == nil {
		return nil
	}
	return v.client.Close()
}
