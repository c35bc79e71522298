// Package campaign defines the structured artifacts produced by the marketing
// content pipeline and the on-disk layout used to persist a finished campaign.
//
// Every stage of the pipeline emits exactly one of these records, in a fixed
// order: MarketingStrategy, CopywritingContent, ImageContent, VideoScript, and
// finally the aggregate CampaignPackage. Records are immutable once produced;
// downstream stages only read them.
//
// Model output is rarely clean JSON. The types here tolerate the common field
// aliases seen in practice (e.g. "channel" for "platform", "narration" for
// "voiceover") and normalize them during unmarshaling so the rest of the
// pipeline works against one canonical shape.
package campaign
