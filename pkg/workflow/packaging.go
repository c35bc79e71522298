package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/brightwell/adforge/pkg/campaign"
)

const StagePackaging = "packaging"

// PackagingStage assembles the terminal CampaignPackage from the newest
// artifact of each kind in the history. Assembly is all-or-nothing: a
// missing expected artifact raises IncompleteCampaignError and nothing is
// written to disk.
type PackagingStage struct {
	// Writer persists the package. Nil disables persistence.
	Writer *campaign.Writer

	// RequireImages and RequireVideo mark the optional stages as expected.
	// A disabled stage is simply absent from the package.
	RequireImages bool
	RequireVideo  bool

	Events EventFunc
	Logger *slog.Logger

	// Clock stands in for time.Now in tests.
	Clock func() time.Time
}

func (s *PackagingStage) Name() string { return StagePackaging }

func (s *PackagingStage) Run(ctx context.Context, topic string, h History) ([]Record, error) {
	var missing []string
	strategy, ok := h.Strategy()
	if !ok {
		missing = append(missing, string(KindStrategy))
	}
	copywriting, ok := h.Copywriting()
	if !ok {
		missing = append(missing, string(KindCopywriting))
	}
	images, ok := h.Images()
	if !ok && s.RequireImages {
		missing = append(missing, string(KindImage))
	}
	video, ok := h.Video()
	if !ok && s.RequireVideo {
		missing = append(missing, string(KindVideo))
	}
	if len(missing) > 0 {
		return nil, &IncompleteCampaignError{Missing: missing}
	}

	now := time.Now
	if s.Clock != nil {
		now = s.Clock
	}
	created := now().UTC()

	pkg := &campaign.CampaignPackage{
		CampaignID:  campaign.NewCampaignID(topic, created),
		Topic:       topic,
		CreatedAt:   created,
		Strategy:    strategy,
		Copywriting: copywriting,
		Images:      images,
		Video:       video,
	}

	if s.Writer != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, err := s.Writer.Write(pkg)
		if err != nil {
			return nil, err
		}
		pkg = pkg.WithPackagePath(path)
		s.logger().Info("campaign persisted", "campaign_id", pkg.CampaignID, "path", path)
	}
	return []Record{{Kind: KindPackage, Stage: StagePackaging, Payload: pkg}}, nil
}

func (s *PackagingStage) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
