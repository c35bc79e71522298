package campaign

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Writer persists campaign packages under a root output directory using a
// fixed layout:
//
//	<root>/<campaign_id>/
//	    manifest.json
//	    strategy/     strategy.json, strategy.md
//	    copywriting/  hero_message.md, blog.md, social_posts.json, ...
//	    images/       prompts.json, assets.json
//	    video/        video_script.json, scenes.json, script.md, ...
//
// Sections for stages that did not run are omitted entirely.
type Writer struct {
	Root string
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{Root: dir}
}

// Write persists pkg and returns the campaign directory path. The directory
// is named after the campaign ID, so repeated runs never collide.
func (w *Writer) Write(pkg *CampaignPackage) (string, error) {
	if pkg.CampaignID == "" {
		return "", fmt.Errorf("campaign package has empty campaign_id")
	}
	dir := filepath.Join(w.Root, pkg.CampaignID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create campaign dir: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, "manifest.json"), pkg); err != nil {
		return "", err
	}
	if err := w.writeStrategy(dir, pkg.Strategy); err != nil {
		return "", err
	}
	if err := w.writeCopywriting(dir, pkg.Copywriting); err != nil {
		return "", err
	}
	if pkg.Images != nil {
		if err := w.writeImages(dir, pkg.Images); err != nil {
			return "", err
		}
	}
	if pkg.Video != nil {
		if err := w.writeVideo(dir, pkg.Video); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func (w *Writer) writeStrategy(dir string, s *MarketingStrategy) error {
	if s == nil {
		return nil
	}
	sub := filepath.Join(dir, "strategy")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(sub, "strategy.json"), s); err != nil {
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Marketing Strategy: %s\n\n", s.Topic)
	fmt.Fprintf(&b, "**Target audience:** %s\n\n", s.TargetAudience)
	fmt.Fprintf(&b, "**Tone of voice:** %s\n\n", s.ToneOfVoice)
	writeMDList(&b, "Pain points", s.PainPoints)
	writeMDList(&b, "Selling points", s.SellingPoints)
	writeMDList(&b, "Content framework", s.ContentFramework)
	writeMDList(&b, "Brand pillars", s.BrandPillars)
	writeMDList(&b, "Keywords", s.Keywords)
	return writeText(filepath.Join(sub, "strategy.md"), b.String())
}

func (w *Writer) writeCopywriting(dir string, c *CopywritingContent) error {
	if c == nil {
		return nil
	}
	sub := filepath.Join(dir, "copywriting")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return err
	}
	if err := writeText(filepath.Join(sub, "hero_message.md"), c.HeroMessage+"\n"); err != nil {
		return err
	}
	if err := writeText(filepath.Join(sub, "blog.md"), c.BlogArticle+"\n"); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(sub, "social_posts.json"), c.SocialPosts); err != nil {
		return err
	}
	if len(c.BlogOutline) > 0 {
		if err := writeJSON(filepath.Join(sub, "blog_outline.json"), c.BlogOutline); err != nil {
			return err
		}
	}
	if len(c.PainPointAnalysis) > 0 {
		if err := writeJSON(filepath.Join(sub, "pain_point_analysis.json"), c.PainPointAnalysis); err != nil {
			return err
		}
	}
	if len(c.CTAVariations) > 0 {
		if err := writeJSON(filepath.Join(sub, "cta_variations.json"), c.CTAVariations); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeImages(dir string, c *ImageContent) error {
	sub := filepath.Join(dir, "images")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(sub, "prompts.json"), c.Prompts); err != nil {
		return err
	}
	if len(c.Assets) > 0 {
		if err := writeJSON(filepath.Join(sub, "assets.json"), c.Assets); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeVideo(dir string, v *VideoScript) error {
	sub := filepath.Join(dir, "video")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(sub, "video_script.json"), v); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(sub, "scenes.json"), v.Scenes); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("# Video Script\n\n")
	for _, sc := range v.Scenes {
		fmt.Fprintf(&b, "## Scene %d", sc.SceneNumber)
		if sc.Act != "" {
			fmt.Fprintf(&b, " (%s)", sc.Act)
		}
		b.WriteString("\n\n")
		if sc.Visuals != "" {
			fmt.Fprintf(&b, "**Visuals:** %s\n\n", sc.Visuals)
		}
		if sc.Voiceover != "" {
			fmt.Fprintf(&b, "**Voiceover:** %s\n\n", sc.Voiceover)
		}
		if sc.ScreenText != "" {
			fmt.Fprintf(&b, "**Screen text:** %s\n\n", sc.ScreenText)
		}
		if sc.DurationSeconds > 0 {
			fmt.Fprintf(&b, "**Duration:** %ds\n\n", sc.DurationSeconds)
		}
	}
	if err := writeText(filepath.Join(sub, "script.md"), b.String()); err != nil {
		return err
	}
	if v.CTA != "" {
		if err := writeText(filepath.Join(sub, "cta.md"), v.CTA+"\n"); err != nil {
			return err
		}
	}
	if len(v.StructureNotes) > 0 {
		var n strings.Builder
		for _, note := range v.StructureNotes {
			fmt.Fprintf(&n, "- %s\n", note)
		}
		if err := writeText(filepath.Join(sub, "structure_notes.md"), n.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeMDList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return writeText(path, string(data)+"\n")
}

func writeText(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
