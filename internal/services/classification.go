package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/moneybadgers/walkthrough-backend/internal/catalog"
	"github.com/moneybadgers/walkthrough-backend/internal/clients/gcp"
	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/types"
	"github.com/moneybadgers/walkthrough-backend/internal/utils"
)

const defaultMatchThreshold = 0.30

// Annotator is the feature-detection dependency of the classifier.
// Satisfied by gcp.Vision.
type Annotator interface {
	Annotate(ctx context.Context, img []byte) (*gcp.Detection, error)
}

type ClassificationService interface {
	Classify(ctx context.Context, img []byte) (*types.ClassificationResult, error)
}

type classificationService struct {
	log       *logger.Logger
	annotator Annotator
	catalog   *catalog.Catalog
	threshold float64
}

func NewClassificationService(log *logger.Logger, annotator Annotator, cat *catalog.Catalog) (ClassificationService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if annotator == nil {
		return nil, fmt.Errorf("annotator required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog required")
	}
	slog := log.With("service", "ClassificationService")
	threshold := utils.GetEnvAsFloat64("CLASSIFY_THRESHOLD", defaultMatchThreshold, slog)
	return &classificationService{
		log:       slog,
		annotator: annotator,
		catalog:   cat,
		threshold: threshold,
	}, nil
}

// Classify annotates the image and scores it against every catalog
// entry. An upstream detection failure degrades to a non-match rather
// than an error: the basket flow must survive a flaky vision backend.
func (s *classificationService) Classify(ctx context.Context, img []byte) (*types.ClassificationResult, error) {
	det, err := s.annotator.Annotate(ctx, img)
	if err != nil {
		s.log.Warn("annotation failed; returning non-match", "error", err)
		return &types.ClassificationResult{Matched: false, Confidence: 0}, nil
	}

	best := &types.ClassificationResult{Matched: false, Confidence: 0}
	for _, entry := range s.catalog.Entries() {
		score := matchScore(entry.Keywords, det)
		if score > best.Confidence {
			best.ItemID = entry.ID
			best.ItemName = entry.Name
			best.Price = entry.Price
			best.Confidence = score
			best.Matched = score > s.threshold
		}
	}

	if !best.Matched {
		s.log.Info("no catalog match", "best_confidence", best.Confidence)
		return &types.ClassificationResult{Matched: false, Confidence: 0}, nil
	}
	s.log.Info("image classified", "item_id", best.ItemID, "confidence", best.Confidence)
	return best, nil
}

// matchScore weights detected features by reliability: logos over
// text over labels, normalized to [0,1].
func matchScore(keywords []string, det *gcp.Detection) float64 {
	var score, maxScore float64

	for _, label := range det.Labels {
		maxScore += 1.0
		for _, kw := range keywords {
			k := strings.ToLower(kw)
			if strings.Contains(label, k) || strings.Contains(k, label) {
				score += 1.0
				break
			}
		}
	}

	for _, logo := range det.Logos {
		maxScore += 3.0
		for _, kw := range keywords {
			k := strings.ToLower(kw)
			if strings.Contains(logo, k) || strings.Contains(k, logo) {
				score += 3.0
				break
			}
		}
	}

	if det.Text != "" {
		maxScore += 2.0
		for _, kw := range keywords {
			if strings.Contains(det.Text, strings.ToLower(kw)) {
				score += 2.0
				break
			}
		}
	}

	if maxScore == 0 {
		return 0
	}
	return score / maxScore
}
