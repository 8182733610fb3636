package prompt

// DefaultExpandSystem is the system instruction for the prompt expansion
// call. Kept short and directive; the detailed scene intent comes from the
// preset description in the user template.
const DefaultExpandSystem = `You are an expert commercial photography art director.
You turn short scene descriptions into detailed, production-ready image
generation prompts for a product photograph. Describe composition, surface,
lighting, atmosphere, and camera angle. Keep the product itself unchanged:
never alter its shape, texture, label, or logo. Return ONLY the prompt text,
no explanations and no markdown.`

// DefaultExpandUser is the user message template for prompt expansion.
// Placeholders: {{basePrompt}} (the preset description) and
// {{customContext}} (free-form seller notes, may be empty).
const DefaultExpandUser = `Scene description: {{basePrompt}}

Additional context from the seller: {{customContext}}

Write one detailed image generation prompt (max 120 words) that places the
uploaded product photo into this scene.`

// DefaultGenerate is the instruction template for the multimodal image
// generation call. Placeholder: {{prompt}} (the expanded prompt).
const DefaultGenerate = `Composite the product from the attached photo into the
following scene. Preserve the product exactly as photographed.

{{prompt}}

Return the result as an image only.`

// QualitySuffix is appended to the generation instruction when the preset
// carries a style tag.
const QualitySuffix = "Style and quality: "

// RecommendInstruction is the fixed instruction for the scenario
// recommendation call. The wording deliberately steers away from marketing
// claims that marketplaces restrict (superlatives, "best", "#1", pricing
// promises) and constrains output to a bare JSON array.
const RecommendInstruction = `Look at this product photo and suggest exactly 3
diverse, strictly professional commercial photography scenarios for it.
Each scenario is one sentence describing setting, surface, and lighting.
Do not use marketing superlatives or marketplace-restricted claims
(e.g. "best", "number one", "guaranteed", prices, discounts).
Respond with ONLY a JSON array of 3 strings, no code fences, no other text.`

// EditInstruction prefixes the inpainting call. The mask's white region is
// the area to modify; everything else stays untouched.
const EditInstruction = `Edit the first attached image. The second attached image
is a mask: modify ONLY the white region of the mask and keep the rest of the
image pixel-identical. Instruction: `

// FallbackScenarios is returned when the recommendation call fails or its
// output cannot be parsed. Three generic but usable scene descriptions.
var FallbackScenarios = []string{
	"Clean studio scene on a seamless white backdrop with soft diffused lighting and a subtle shadow under the product.",
	"Lifestyle scene on a light wooden table near a window with natural morning light and softly blurred home interior background.",
	"Professional editorial scene on a neutral stone surface with directional side lighting and a muted complementary color background.",
}
