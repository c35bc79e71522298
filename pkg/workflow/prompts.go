package workflow

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/brightwell/adforge/pkg/campaign"
	"github.com/brightwell/adforge/pkg/chat"
)

// Output schemas rendered into the stage instructions. Keeping them as
// package vars means jsonschema.For runs once, at init.
var (
	strategySchema    = chat.MustSchemaFor[campaign.MarketingStrategy]()
	planSchema        = chat.MustSchemaFor[campaign.ResearchPlan]()
	findingsSchema    = chat.MustSchemaFor[campaign.ResearchFindings]()
	copywritingSchema = chat.MustSchemaFor[campaign.CopywritingContent]()
	imageSchema       = chat.MustSchemaFor[campaign.ImageContent]()
	videoSchema       = chat.MustSchemaFor[campaign.VideoScript]()
)

// schemaPrompt renders a schema as a field list suitable for embedding in
// agent instructions. Nested object types get their own definition block.
func schemaPrompt(s *jsonschema.Schema) string {
	var b strings.Builder
	b.WriteString("Fields:\n")
	nested := map[string]*jsonschema.Schema{}
	for _, name := range sortedKeys(s.Properties) {
		prop := s.Properties[name]
		fmt.Fprintf(&b, "- %s (%s): %s\n", name, typeLabel(prop, nested), prop.Description)
	}
	if len(nested) > 0 {
		b.WriteString("\nNested object definitions:\n")
		for _, defName := range sortedKeys(nested) {
			def := nested[defName]
			fmt.Fprintf(&b, "\n%s:\n", defName)
			for _, name := range sortedKeys(def.Properties) {
				prop := def.Properties[name]
				fmt.Fprintf(&b, "  - %s (%s): %s\n", name, typeLabel(prop, nil), prop.Description)
			}
		}
	}
	return b.String()
}

// typeLabel names a property's type for the prompt. Inline object schemas
// are collected into nested so they can be described separately.
func typeLabel(prop *jsonschema.Schema, nested map[string]*jsonschema.Schema) string {
	if prop == nil {
		return "string"
	}
	switch schemaType(prop) {
	case "array":
		items := prop.Items
		if items == nil {
			return "array"
		}
		if schemaType(items) == "object" && len(items.Properties) > 0 {
			name := defName(items)
			if nested != nil {
				nested[name] = items
			}
			return "array of " + name + " objects"
		}
		return "array of " + schemaType(items) + "s"
	case "object":
		if len(prop.Properties) > 0 {
			name := defName(prop)
			if nested != nil {
				nested[name] = prop
			}
			return name + " object"
		}
		return "object"
	default:
		return schemaType(prop)
	}
}

func schemaType(s *jsonschema.Schema) string {
	if s.Type != "" {
		return s.Type
	}
	for _, t := range s.Types {
		if t != "null" {
			return t
		}
	}
	return "string"
}

func defName(s *jsonschema.Schema) string {
	if s.Title != "" {
		return s.Title
	}
	return "nested"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// promptJSON renders a value as indented JSON for embedding in a prompt.
func promptJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func strategyInstructions(searchEnabled bool) string {
	var b strings.Builder
	b.WriteString(`You are a senior marketing strategist. Develop data-driven marketing strategies through research and analysis.

## Workflow

**1. Understand & Detect**
- Detect input language and set output_language (zh/en/ja/ko/es/fr)
- Analyze user intent: What are they marketing? What's the goal? Who's the audience?
- Write a clear user_intent summary (2-4 sentences) for downstream agents
`)
	if searchEnabled {
		b.WriteString(`
**2. Research** (use web_search tool, minimum 3 searches)
- Market trends and developments
- Target audience pain points
- Competitor positioning and strategies
`)
	}
	b.WriteString(`
**3. Synthesize & Output**
Consolidate findings into a comprehensive strategy JSON.

---
## Output Format

`)
	b.WriteString(schemaPrompt(strategySchema))
	b.WriteString(`
Example:
{
  "topic": "AI Programming Assistant",
  "user_intent": "Marketing an AI coding tool to drive developer signups by highlighting productivity gains.",
  "output_language": "en",
  "target_audience": "Software developers aged 25-45 seeking efficiency",
  "pain_points": ["Time-consuming debugging", "Repetitive code", "Framework fatigue"],
  "selling_points": ["50% faster coding", "Smart completion", "Multi-language support"],
  "content_framework": ["Problem", "Solution", "Features", "Getting started"],
  "tone_of_voice": "Professional yet approachable",
  "brand_pillars": ["Productivity", "Intelligence", "Integration"],
  "keywords": ["AI coding", "code assistant", "developer tools"]
}

**Rules:**
- All values are strings or string arrays (NOT objects)
- All text content in output_language
- Each array field: minimum 3 items
- Output: JSON only, no markdown blocks
`)
	return b.String()
}

func plannerInstructions() string {
	return `You are a research planning expert. Analyze the marketing topic provided by the user and develop a comprehensive research plan.

**Task**: Create a deep research plan for the given topic, output in JSON format.

**Research plan should include**:
1. Topic breakdown: decompose the topic into 3-5 researchable sub-dimensions
2. Search strategy: design specific search queries for each dimension (one in English, one in the user's language)
3. Information needs: clarify the types of information to collect for each dimension
4. Priority: mark which dimensions are most important (high/medium/low)

**Output format**:
` + schemaPrompt(planSchema) + `
Output only JSON, do not include other content.
`
}

func analystInstructions() string {
	return `You are a marketing strategy analyst. Synthesize research findings to generate a structured marketing strategy.

**CRITICAL: Language Detection & Consistency**
First, detect the language of the original user topic and set the output_language field accordingly (zh/en/ja/ko or another ISO 639-1 code). ALL text content in your output MUST be written in the detected language.

**Task**: Based on research data, generate marketing strategy JSON.

**Analysis framework**:
1. Target audience profile: define a precise ICP based on research data
2. Pain point refinement: extract real user pain points from research findings
3. Value proposition: design differentiated selling points based on market opportunities
4. Content framework: design content strategy based on trends
5. Keyword strategy: select keywords based on search data

**Output format (must strictly follow)**:
` + schemaPrompt(strategySchema) + `
Ensure each array field has at least 3 entries, all text in the output_language.
Output only JSON, do not include Markdown code blocks.
`
}

func copywritingInstructions(searchEnabled bool) string {
	s := `You are an expert Content Marketer & Copywriter. Create compelling, high-quality marketing content based on the marketing strategy.

Return copywriting JSON:
` + schemaPrompt(copywritingSchema) + `
---
## Use the Strategy

Build your content using these strategy inputs:
- **user_intent**: the user's original goals, keep this central to all content
- **target_audience**: who you're writing for
- **pain_points**: problems to address (use as hooks)
- **selling_points**: key value propositions to highlight
- **content_framework**: structure guide for blog_article sections
- **tone_of_voice**: overall tone direction
- **brand_pillars**: core themes to reinforce
- **keywords**: SEO terms to incorporate naturally
- **output_language**: write ALL content in this language

---
## Content Guidelines

**blog_article**:
- Write a complete, engaging article (1500-2500 words recommended)
- Use Markdown formatting with clear headings
- Follow the content_framework as a structural guide, but feel free to adapt creatively
- Make it valuable and actionable for readers

**social_posts**:
- Include at least: LinkedIn, Instagram, Rednote, and optionally TikTok/Twitter
- Adapt tone and style naturally for each platform
- Each post must be an object with: platform, tone, hook, body, cta

**hero_message**: one compelling sentence that captures the core value

**pain_point_analysis**: map each pain point to its solution

**cta_variations**: provide 4-6 different call-to-action options

---
## social_posts Format (CRITICAL)

Each social_posts item MUST be an object:
"social_posts": [
  {"platform": "LinkedIn", "tone": "professional", "hook": "...", "body": "...", "cta": "..."},
  {"platform": "Instagram", "tone": "casual", "hook": "...", "body": "...", "cta": "..."},
  {"platform": "Rednote", "tone": "authentic", "hook": "...", "body": "...", "cta": "..."}
]

Output only JSON, no Markdown code blocks.
`
	if searchEnabled {
		s += `
**You have the web_search tool available!** You can search the web to get:
- Trending topics and popular phrases
- Social media trends and viral copywriting styles
- Competitor copywriting references
- Industry-related statistics and real case studies

Before writing copy, you can search for relevant information to enhance persuasiveness and timeliness.
`
	}
	return s
}

func imageInstructions(toolEnabled bool) string {
	s := `You are an AI image prompt engineer. Using strategy and copywriting keywords, generate image content JSON.
` + schemaPrompt(imageSchema) + `
**Language Note:**
- scene_description should be written in the output_language from the strategy
- prompt MUST always be in English (required by image generation models)

**Workflow:**
1. Based on the marketing strategy and copy, design 2-5 image prompts
2. Each prompt needs a unique prompt_id ("prompt-01", "prompt-02", etc.)
3. scene_description describes the scene in the output_language
4. prompt MUST be written in English, describing lighting/composition/atmosphere
`
	if toolEnabled {
		s += `
**You have the generate_image tool! Follow these steps:**

Step 1: Call generate_image to generate the first image
Step 2: Call generate_image to generate the second image
Step 3 (optional): Call generate_image for the third, fourth or fifth image
Step 4: Collect the results returned by the tool and fill in the assets array
Step 5: Output the complete image content JSON

Tool call parameters:
- prompt: English image description (required)
- prompt_id: image ID like "prompt-01" (required)

Note: prompt MUST be in English.
`
	} else {
		s += `
Leave the assets array empty (no image generation tool).
`
	}
	s += `
Final output format is JSON, do not include Markdown code blocks.
`
	return s
}

func videoInstructions(toolEnabled bool) string {
	s := `You are a video script expert, creating three-act marketing short videos. Output video script JSON.
` + schemaPrompt(videoSchema) + `
**Language Note:**
- voiceover, screen_text, srt_caption and cta should be written in the output_language from the strategy
- Video generation prompts (for the generate_video tool) MUST always be in English

**Important limitations:**
- total_duration_seconds must not exceed 72 seconds (6 scenes x 12 seconds)
- scenes: maximum 6 scenes
- Each scene duration_seconds must be 4, 8 or 12 seconds (video API limitation)
- act must be one of Problem/Solution/Transformation
- Each scene_number increments sequentially
- srt_caption provides subtitles in output_language, format "00:00:00,000 --> 00:00:04,000\nSubtitle text"
`
	if toolEnabled {
		s += `
**You have the generate_video tool! Follow these steps:**

Step 1: Design the script structure first (maximum 6 scenes)
Step 2: Call generate_video one by one for each scene, in scene_number order
Step 3: Wait for the current scene to complete before generating the next
Step 4: Collect all results returned by the tool
Step 5: Output the complete video script JSON

**Important: the API has concurrency limits, generate videos sequentially, never call multiple generate_video simultaneously.**

Tool call parameters:
- prompt: English video description (required), describing scene, action, camera movement, atmosphere
- scene_id: scene ID like "scene-01" (required)
- seconds: video duration, only 4, 8 or 12 (video API limitation)
- size: "1280x720" (landscape 720p), or "720x1280" for portrait

---
**Tips for maintaining video continuity and object consistency:**

1. Unified character description: use the same character traits in all scenes
   (age, gender, hairstyle, clothing color), included in every scene's prompt.
2. Unified scene elements: define key prop appearances (product color, shape,
   logo) and environment features (decor, lighting tone).
3. Unified visual style: add the same style description at the end of each
   prompt, e.g. "cinematic lighting, warm color grading, shallow depth of field".
4. Transitional descriptions: add time or space transition words between
   scenes, e.g. "same character from previous scene, now in...".
5. Prompt template: [character] + [action] + [environment] + [props] +
   [camera movement] + [visual style].

Notes:
- prompt MUST be in English
- seconds only supports values 4, 8, 12
- character and product descriptions must be consistent across scenes
`
	} else {
		s += `
Output only JSON (no video generation tool).
`
	}
	return s
}

func planPrompt(topic string) string {
	return "Please create a deep research plan for the following marketing topic:\n\n" + topic
}

func synthesizePrompt(topic string, plan *campaign.ResearchPlan, findings *campaign.ResearchFindings) string {
	return fmt.Sprintf(`Please generate a structured marketing strategy based on the following research data.

**Topic**: %s

**Research Plan**:
%s

**Research Findings**:
%s

Generate the marketing strategy JSON, ensuring:
1. The topic field contains the original topic
2. Each list field (pain_points, selling_points, etc.) has at least 3 entries
3. Content is based on research findings, do not fabricate
`, topic, promptJSON(plan), promptJSON(findings))
}

func strategyPrompt(topic string) string {
	return "Develop a complete marketing strategy for the following topic:\n\n" + topic
}

func copywritingPrompt(strategy *campaign.MarketingStrategy) string {
	return "Create the campaign copywriting for the following marketing strategy:\n\n" + promptJSON(strategy)
}

func imagePrompt(strategy *campaign.MarketingStrategy, content *campaign.CopywritingContent) string {
	return fmt.Sprintf(`Design image prompts for this campaign.

**Marketing Strategy**:
%s

**Hero Message**: %s

**Campaign Keywords**: %s
`, promptJSON(strategy), content.HeroMessage, strings.Join(strategy.Keywords, ", "))
}

func videoPrompt(strategy *campaign.MarketingStrategy, content *campaign.CopywritingContent) string {
	return fmt.Sprintf(`Write the three-act video script for this campaign.

**Marketing Strategy**:
%s

**Hero Message**: %s
`, promptJSON(strategy), content.HeroMessage)
}
