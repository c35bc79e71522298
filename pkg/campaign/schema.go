package campaign

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MarketingStrategy is the positioning contract handed to every downstream
// content stage. It is produced either by the single-shot strategy stage or by
// the deep-research pipeline; consumers cannot tell the difference.
type MarketingStrategy struct {
	Topic            string   `json:"topic"`
	UserIntent       string   `json:"user_intent,omitempty"`
	OutputLanguage   string   `json:"output_language,omitempty"`
	TargetAudience   string   `json:"target_audience"`
	PainPoints       []string `json:"pain_points"`
	SellingPoints    []string `json:"selling_points"`
	ContentFramework []string `json:"content_framework"`
	ToneOfVoice      string   `json:"tone_of_voice"`
	BrandPillars     []string `json:"brand_pillars"`
	Keywords         []string `json:"keywords"`
}

// Validate reports whether the strategy carries the fields downstream stages
// depend on.
func (s *MarketingStrategy) Validate() error {
	var missing []string
	if s.Topic == "" {
		missing = append(missing, "topic")
	}
	if s.TargetAudience == "" {
		missing = append(missing, "target_audience")
	}
	if s.ToneOfVoice == "" {
		missing = append(missing, "tone_of_voice")
	}
	if len(missing) > 0 {
		return fmt.Errorf("marketing strategy missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// StringList unmarshals from either a JSON array of strings or a single
// string of space/comma separated values. Models emit both.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		*l = asList
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return err
	}
	parts := strings.Fields(strings.ReplaceAll(asString, ",", " "))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*l = out
	return nil
}

// SocialPost is a single channel-specific post variant.
type SocialPost struct {
	Platform        string     `json:"platform"`
	Tone            string     `json:"tone,omitempty"`
	Hook            string     `json:"hook,omitempty"`
	Body            string     `json:"body"`
	CTA             string     `json:"cta,omitempty"`
	ImageSuggestion string     `json:"image_suggestion,omitempty"`
	VisualPrompt    string     `json:"visual_prompt,omitempty"`
	Hashtags        StringList `json:"hashtags,omitempty"`
}

func (p *SocialPost) UnmarshalJSON(data []byte) error {
	var raw struct {
		Platform        string     `json:"platform"`
		Channel         string     `json:"channel"`
		Tone            string     `json:"tone"`
		Hook            string     `json:"hook"`
		Body            string     `json:"body"`
		CTA             string     `json:"cta"`
		Copy            string     `json:"copy"`
		Content         string     `json:"content"`
		PostText        string     `json:"post_text"`
		CallToAction    string     `json:"call_to_action"`
		ImageSuggestion string     `json:"image_suggestion"`
		VisualPrompt    string     `json:"visual_prompt"`
		Hashtags        StringList `json:"hashtags"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Platform = firstNonEmpty(raw.Platform, raw.Channel)
	p.Tone = raw.Tone
	p.Hook = raw.Hook
	p.Body = firstNonEmpty(raw.Body, raw.PostText, raw.Copy, raw.Content)
	p.CTA = firstNonEmpty(raw.CTA, raw.CallToAction)
	p.ImageSuggestion = raw.ImageSuggestion
	p.VisualPrompt = raw.VisualPrompt
	p.Hashtags = raw.Hashtags
	return nil
}

// CopywritingContent is the payload emitted by the copywriting stage.
type CopywritingContent struct {
	HeroMessage       string       `json:"hero_message"`
	SocialPosts       []SocialPost `json:"social_posts"`
	BlogOutline       []string     `json:"blog_outline,omitempty"`
	BlogArticle       string       `json:"blog_article"`
	PainPointAnalysis []string     `json:"pain_point_analysis,omitempty"`
	CTAVariations     []string     `json:"cta_variations,omitempty"`
}

func (c *CopywritingContent) Validate() error {
	if c.HeroMessage == "" {
		return fmt.Errorf("copywriting content missing hero_message")
	}
	if c.BlogArticle == "" {
		return fmt.Errorf("copywriting content missing blog_article")
	}
	return nil
}

// ImagePrompt is one prompt-engineering payload for an image generator.
type ImagePrompt struct {
	PromptID         string `json:"prompt_id"`
	Prompt           string `json:"prompt"`
	SceneDescription string `json:"scene_description,omitempty"`
	Style            string `json:"style,omitempty"`
	AspectRatio      string `json:"aspect_ratio,omitempty"`
}

// GeneratedImage records one rendered asset.
type GeneratedImage struct {
	PromptID      string `json:"prompt_id"`
	URL           string `json:"url"`
	LocalPath     string `json:"local_path,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
	Prompt        string `json:"prompt,omitempty"`
}

// ImageContent aggregates prompts and any rendered imagery.
type ImageContent struct {
	Prompts []ImagePrompt    `json:"prompts"`
	Assets  []GeneratedImage `json:"assets,omitempty"`
}

func (c *ImageContent) Validate() error {
	if len(c.Prompts) == 0 {
		return fmt.Errorf("image content has no prompts")
	}
	for i, p := range c.Prompts {
		if p.Prompt == "" {
			return fmt.Errorf("image prompt %d has empty prompt text", i)
		}
	}
	return nil
}

// VideoScene is a single scene in a three-act marketing video.
type VideoScene struct {
	SceneNumber     int    `json:"scene_number"`
	Act             string `json:"act,omitempty"`
	Visuals         string `json:"visuals,omitempty"`
	Voiceover       string `json:"voiceover,omitempty"`
	ScreenText      string `json:"screen_text,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
}

func (s *VideoScene) UnmarshalJSON(data []byte) error {
	var raw struct {
		SceneNumber     int    `json:"scene_number"`
		Act             string `json:"act"`
		Visuals         string `json:"visuals"`
		Visual          string `json:"visual"`
		Voiceover       string `json:"voiceover"`
		Narration       string `json:"narration"`
		AudioNarration  string `json:"audio_narration"`
		ScreenText      string `json:"screen_text"`
		OnScreenText    string `json:"on_screen_text"`
		Caption         string `json:"caption"`
		DurationSeconds int    `json:"duration_seconds"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.SceneNumber = raw.SceneNumber
	s.Act = raw.Act
	s.Visuals = firstNonEmpty(raw.Visuals, raw.Visual)
	s.Voiceover = firstNonEmpty(raw.Voiceover, raw.AudioNarration, raw.Narration)
	s.ScreenText = firstNonEmpty(raw.ScreenText, raw.OnScreenText, raw.Caption)
	s.DurationSeconds = raw.DurationSeconds
	return nil
}

// GeneratedVideo records one rendered clip.
type GeneratedVideo struct {
	SceneID         string `json:"scene_id"`
	URL             string `json:"url,omitempty"`
	LocalPath       string `json:"local_path,omitempty"`
	Prompt          string `json:"prompt,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// VideoScript is the structured output of the video stage.
type VideoScript struct {
	StructureNotes       []string         `json:"structure_notes,omitempty"`
	Scenes               []VideoScene     `json:"scenes"`
	TotalDurationSeconds int              `json:"total_duration_seconds,omitempty"`
	CTA                  string           `json:"cta,omitempty"`
	SRTCaption           string           `json:"srt_caption,omitempty"`
	Assets               []GeneratedVideo `json:"assets,omitempty"`
}

func (v *VideoScript) Validate() error {
	if len(v.Scenes) == 0 {
		return fmt.Errorf("video script has no scenes")
	}
	return nil
}

// CampaignPackage is the sole terminal artifact of one pipeline run. It is
// assembled exactly once by the packaging stage and never mutated after
// persistence.
type CampaignPackage struct {
	CampaignID  string              `json:"campaign_id"`
	Topic       string              `json:"topic"`
	CreatedAt   time.Time           `json:"created_at"`
	Strategy    *MarketingStrategy  `json:"strategy"`
	Copywriting *CopywritingContent `json:"copywriting"`
	Images      *ImageContent       `json:"images,omitempty"`
	Video       *VideoScript        `json:"video,omitempty"`
	PackagePath string              `json:"package_path,omitempty"`
}

// WithPackagePath returns a copy of the package with the persisted location
// stamped on. The receiver is not modified.
func (p CampaignPackage) WithPackagePath(path string) *CampaignPackage {
	p.PackagePath = path
	return &p
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
