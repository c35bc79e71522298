package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/brightwell/adforge/pkg/campaign"
)

func contentHistory(t *testing.T) History {
	t.Helper()
	strategy, err := decodeStageJSON[campaign.MarketingStrategy]("test", strategyJSON)
	if err != nil {
		t.Fatal(err)
	}
	copywriting, err := decodeStageJSON[campaign.CopywritingContent]("test", copywritingJSON)
	if err != nil {
		t.Fatal(err)
	}
	var h History
	h = h.Append(Record{Kind: KindStrategy, Stage: StageStrategy, Payload: strategy})
	h = h.Append(Record{Kind: KindCopywriting, Stage: StageCopywriting, Payload: copywriting})
	return h
}

func TestPackagingMissingVideoFailsWithoutWriting(t *testing.T) {
	dir := t.TempDir()
	stage := &PackagingStage{
		Writer:       campaign.NewWriter(dir),
		RequireVideo: true,
	}

	_, err := stage.Run(context.Background(), "AI Fitness Coach", contentHistory(t))
	var ice *IncompleteCampaignError
	if !errors.As(err, &ice) {
		t.Fatalf("err = %v, want IncompleteCampaignError", err)
	}
	if len(ice.Missing) != 1 || ice.Missing[0] != string(KindVideo) {
		t.Errorf("missing = %v", ice.Missing)
	}

	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Errorf("output dir not empty after failed packaging: %v", entries)
	}
}

func TestPackagingMissingStrategy(t *testing.T) {
	stage := &PackagingStage{}
	_, err := stage.Run(context.Background(), "topic", History{})
	var ice *IncompleteCampaignError
	if !errors.As(err, &ice) {
		t.Fatalf("err = %v, want IncompleteCampaignError", err)
	}
	want := map[string]bool{string(KindStrategy): true, string(KindCopywriting): true}
	for _, m := range ice.Missing {
		if !want[m] {
			t.Errorf("unexpected missing artifact %q", m)
		}
		delete(want, m)
	}
	if len(want) != 0 {
		t.Errorf("artifacts not reported missing: %v", want)
	}
}

func TestPackagingToleratesDisabledOptionalStages(t *testing.T) {
	stage := &PackagingStage{}
	recs, err := stage.Run(context.Background(), "AI Fitness Coach", contentHistory(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	pkg := recs[0].Payload.(*campaign.CampaignPackage)
	if pkg.Images != nil || pkg.Video != nil {
		t.Errorf("optional sections should be nil: images=%v video=%v", pkg.Images, pkg.Video)
	}
	if pkg.CampaignID == "" || pkg.CreatedAt.IsZero() {
		t.Errorf("package identity not stamped: %+v", pkg)
	}
}

func TestPackagingIsIdempotentUpToIdentity(t *testing.T) {
	h := contentHistory(t)
	first := &PackagingStage{Clock: func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }}
	second := &PackagingStage{Clock: func() time.Time { return time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC) }}

	recsA, err := first.Run(context.Background(), "AI Fitness Coach", h)
	if err != nil {
		t.Fatal(err)
	}
	recsB, err := second.Run(context.Background(), "AI Fitness Coach", h)
	if err != nil {
		t.Fatal(err)
	}
	a := recsA[0].Payload.(*campaign.CampaignPackage)
	b := recsB[0].Payload.(*campaign.CampaignPackage)

	if a.CampaignID == b.CampaignID {
		t.Error("campaign ids should differ across runs at different times")
	}
	// Erase the run-scoped identity; everything else must match.
	a.CampaignID, b.CampaignID = "", ""
	a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
	a.PackagePath, b.PackagePath = "", ""
	if !reflect.DeepEqual(a, b) {
		t.Errorf("packages differ beyond identity:\n%+v\n%+v", a, b)
	}
}

func TestPackagingPersistsAndStampsPath(t *testing.T) {
	dir := t.TempDir()
	stage := &PackagingStage{Writer: campaign.NewWriter(dir)}

	recs, err := stage.Run(context.Background(), "AI Fitness Coach", contentHistory(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	pkg := recs[0].Payload.(*campaign.CampaignPackage)
	if pkg.PackagePath == "" {
		t.Fatal("package path not stamped")
	}
	if _, err := os.Stat(filepath.Join(pkg.PackagePath, "manifest.json")); err != nil {
		t.Errorf("manifest missing: %v", err)
	}
}
