package workflow

import (
	"time"

	"github.com/brightwell/adforge/pkg/campaign"
)

// ArtifactKind tags one stage output in the history.
type ArtifactKind string

const (
	KindResearchPlan     ArtifactKind = "research_plan"
	KindResearchFindings ArtifactKind = "research_findings"
	KindStrategy         ArtifactKind = "strategy"
	KindCopywriting      ArtifactKind = "copywriting"
	KindImage            ArtifactKind = "image"
	KindVideo            ArtifactKind = "video"
	KindPackage          ArtifactKind = "package"
)

// Record is one tagged stage output. Payload is the stage's artifact, one of
// the campaign types matching Kind.
type Record struct {
	Kind    ArtifactKind `json:"kind"`
	Stage   string       `json:"stage"`
	Payload any          `json:"payload"`
	At      time.Time    `json:"at"`
}

// History is the append-only ordered sequence of stage outputs. Stages only
// read it and return a new Record; the runner appends. Append copies, so
// earlier snapshots stay valid.
type History struct {
	records []Record
}

// Append returns a new History with rec added. The receiver is unchanged.
func (h History) Append(rec Record) History {
	out := make([]Record, len(h.records), len(h.records)+1)
	copy(out, h.records)
	return History{records: append(out, rec)}
}

// Records returns the records in append order.
func (h History) Records() []Record {
	return h.records
}

// Len returns the number of records.
func (h History) Len() int {
	return len(h.records)
}

// latest returns the payload of the newest record with the given kind.
func (h History) latest(kind ArtifactKind) (any, bool) {
	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].Kind == kind {
			return h.records[i].Payload, true
		}
	}
	return nil, false
}

// Strategy returns the newest MarketingStrategy in the history.
func (h History) Strategy() (*campaign.MarketingStrategy, bool) {
	v, ok := h.latest(KindStrategy)
	if !ok {
		return nil, false
	}
	s, ok := v.(*campaign.MarketingStrategy)
	return s, ok
}

// Copywriting returns the newest CopywritingContent in the history.
func (h History) Copywriting() (*campaign.CopywritingContent, bool) {
	v, ok := h.latest(KindCopywriting)
	if !ok {
		return nil, false
	}
	c, ok := v.(*campaign.CopywritingContent)
	return c, ok
}

// Images returns the newest ImageContent in the history.
func (h History) Images() (*campaign.ImageContent, bool) {
	v, ok := h.latest(KindImage)
	if !ok {
		return nil, false
	}
	c, ok := v.(*campaign.ImageContent)
	return c, ok
}

// Video returns the newest VideoScript in the history.
func (h History) Video() (*campaign.VideoScript, bool) {
	v, ok := h.latest(KindVideo)
	if !ok {
		return nil, false
	}
	s, ok := v.(*campaign.VideoScript)
	return s, ok
}

// Package returns the newest CampaignPackage in the history.
func (h History) Package() (*campaign.CampaignPackage, bool) {
	v, ok := h.latest(KindPackage)
	if !ok {
		return nil, false
	}
	p, ok := v.(*campaign.CampaignPackage)
	return p, ok
}
