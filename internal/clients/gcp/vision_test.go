package gcp

import (
	"testing"

	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
)

func TestDetectionFromResponseLowercasesAnnotations(t *testing.T) {
	r0 := &visionpb.AnnotateImageResponse{
		LabelAnnotations: []*visionpb.EntityAnnotation{
			{Description: "Drink"},
			{Description: "Energy Drink"},
		},
		LogoAnnotations: []*visionpb.EntityAnnotation{
			{Description: "Red Bull"},
		},
		TextAnnotations: []*visionpb.EntityAnnotation{
			{Description: "RED BULL\nEnergy Drink"},
			{Description: "RED"},
		},
	}

	det := detectionFromResponse(r0)
	if len(det.Labels) != 2 || det.Labels[0] != "drink" || det.Labels[1] != "energy drink" {
		t.Fatalf("labels: got=%+v", det.Labels)
	}
	if len(det.Logos) != 1 || det.Logos[0] != "red bull" {
		t.Fatalf("logos: got=%+v", det.Logos)
	}
	if det.Text != "red bull\nenergy drink" {
		t.Fatalf("text: want first annotation lowercased got=%q", det.Text)
	}
}

func TestDetectionFromResponseMissingLogoAndTextIsNotFatal(t *testing.T) {
	r0 := &visionpb.AnnotateImageResponse{
		LabelAnnotations: []*visionpb.EntityAnnotation{{Description: "Bottle"}},
	}

	det := detectionFromResponse(r0)
	if len(det.Labels) != 1 || det.Labels[0] != "bottle" {
		t.Fatalf("labels: got=%+v", det.Labels)
	}
	if len(det.Logos) != 0 || det.Text != "" {
		t.Fatalf("logos/text: want empty got=%+v %q", det.Logos, det.Text)
	}
}
