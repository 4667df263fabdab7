package translation

import (
	"fmt"
	"strings"

	"github.com/upb/lingflow/services/providers"
)

// Operation names, also used as cache key prefixes
const (
	OperationTranslate  = "translate"
	OperationCorrect    = "correct"
	OperationPrompt     = "prompt"
	OperationTranscribe = "transcribe"
)

// Prompt type tags accepted by GeneratePrompt
const (
	PromptTypeImage          = "image"
	PromptTypeVideo          = "video"
	PromptTypeNanobananaGen  = "nanobanana-gen"
	PromptTypeNanobananaEdit = "nanobanana-edit"
)

// Generation parameters per operation
var (
	translateOptions  = providers.Options{Temperature: 0.3, MaxTokens: 2000, TopP: 0.8}
	correctOptions    = providers.Options{Temperature: 0.2, MaxTokens: 2000, TopP: 0.8}
	promptOptions     = providers.Options{Temperature: 0.7, MaxTokens: 2000, TopP: 0.9}
	transcribeOptions = providers.Options{Temperature: 0.2, MaxTokens: 4096, TopP: 1, TopK: 32}
)

// template is a system instruction plus the user prompt built for one request
type template struct {
	system string
	prompt string
}

const translateSystem = `You are a professional translator. Your task is to translate text accurately while following these rules:
1. Provide ONLY the translation, no explanations or additional comments
2. Maintain original formatting and structure
3. Preserve proper nouns, names, and technical terms appropriately
4. Use natural, fluent grammar in the target language
5. Do not add prefixes like 'Translation:', 'Here is the translation:', etc.
6. If the text is already in the target language, still provide the best possible translation or improvement`

const correctSystem = `You are a professional text editor and proofreader. Your task is to correct and improve text by:
1. Fixing spelling errors and typos
2. Correcting grammar and syntax mistakes
3. Improving punctuation and capitalization
4. Enhancing sentence structure and flow
5. Maintaining the original meaning and tone
6. Using appropriate style for the text type
7. Preserving the author's voice and intent
8. Providing ONLY the corrected text, no explanations or markup`

const videoSystem = `You are an expert AI video prompt engineer (specializing in Sora, Runway, Pika). Your task is to improve and translate video generation prompts by:
1. Describing camera movements (pan, zoom, tilt, tracking shot, FPV)
2. Specifying motion and action details (speed, fluidity, physics, transformation)
3. Defining the atmosphere, lighting, and weather changes over time
4. Including technical video terms (4k, 60fps, photorealistic, cinematic, slow motion)
5. Ensuring temporal consistency and narrative flow
6. Translating to the target language while preserving technical terms
7. Providing ONLY the improved prompt, no explanations`

const imageSystem = `You are an expert AI image prompt engineer. Your task is to improve and translate image generation prompts by:
1. Adding specific visual details (colors, textures, materials)
2. Including artistic style references (photography style, art movement, etc.)
3. Specifying composition and framing details
4. Adding lighting and atmosphere descriptions
5. Including technical camera/rendering details when appropriate
6. Maintaining the original intent while making it more vivid and specific
7. Translating to the target language while preserving technical terms
8. Providing ONLY the improved prompt, no explanations`

const transcribeSystem = `You are an expert OCR and translation specialist. Your task is to:
1. TRANSCRIBE: Extract ALL visible text from images with maximum accuracy
2. TRANSLATE: Provide professional translation maintaining context
3. PRESERVE: Keep original formatting, structure, and meaning
4. BE THOROUGH: Never skip text elements, even small ones
5. BE PRECISE: Follow the exact output format specified`

const transcribePrompt = `IMPORTANT: You must provide a complete transcription of ALL visible text in this image, then translate it to %[1]s.

TASK REQUIREMENTS:
1. TRANSCRIPTION PHASE: Extract and transcribe every single piece of text visible in the image with pixel-perfect accuracy
2. TRANSLATION PHASE: Translate the transcribed text to %[1]s maintaining context and meaning

FORMAT YOUR RESPONSE EXACTLY AS:

TRANSCRIPTION:
[Write here ALL the text you can see in the image, preserving line breaks, formatting, and layout. Include even small text, watermarks, buttons, labels, etc.]

TRANSLATION:
[Write here the complete translation to %[1]s of all the transcribed text]

CRITICAL INSTRUCTIONS:
- Do NOT skip any visible text, no matter how small or unclear
- Maintain original formatting and structure
- If text is partially obscured, indicate with [unclear] but transcribe what you can see
- Include text from UI elements, buttons, menus, captions, etc.
- Preserve line breaks and spatial relationships
- Be thorough and comprehensive in your transcription`

type styleTemplate struct {
	instruction string
	template    string
}

const defaultGenStyle = "photorealistic"

var genStyles = map[string]styleTemplate{
	"photorealistic": {
		instruction: `You are an expert AI image prompt engineer specializing in Gemini (Nano Banana) image generation. Your task is to create photorealistic prompts using a specific template.`,
		template:    `"A photorealistic [shot type] of [subject], [action or expression], set in [environment]. The scene is illuminated by [lighting description], creating a [mood] atmosphere. Captured with a [camera/lens details], emphasizing [key textures and details]. The image should be in a [aspect ratio] format."`,
	},
	"sticker": {
		instruction: `You are an expert AI illustrator. Your task is to create sticker/illustration prompts for Gemini (Nano Banana) using a specific template.`,
		template:    `"A [style] sticker of a [subject], featuring [key characteristics] and a [color palette]. The design should have [line style] and [shading style]. The background must be transparent."`,
	},
	"logo": {
		instruction: `You are an expert AI graphic designer. Your task is to create logo/text rendering prompts for Gemini (Nano Banana) using a specific template.`,
		template:    `"Create a [image type] for [brand/concept] with the text "[text to render]" in a [font style]. The design should be [style description], with a [color scheme]."`,
	},
	"product": {
		instruction: `You are an expert AI product photographer. Your task is to create product mockup prompts for Gemini (Nano Banana) using a specific template.`,
		template:    `"A high-resolution, studio-lit product photograph of a [product description] on a [background surface/description]. The lighting is a [lighting setup] to [lighting purpose]. The camera angle is a [angle type] to showcase [specific feature]. Ultra-realistic, with sharp focus on [key detail]. [Aspect ratio]."`,
	},
	"minimalist": {
		instruction: `You are an expert AI minimalist artist. Your task is to create minimalist composition prompts for Gemini (Nano Banana) using a specific template.`,
		template:    `"A minimalist composition featuring a single [subject] positioned in the [bottom-right/top-left/etc.] of the frame. The background is a vast, empty [color] canvas, creating significant negative space. Soft, subtle lighting. [Aspect ratio]."`,
	},
	"comic": {
		instruction: `You are an expert AI comic artist. Your task is to create sequential art/comic prompts for Gemini (Nano Banana) using a specific template.`,
		template:    `"Make a 3 panel comic in a [style]. Put the character in a [type of scene]."`,
	},
}

const genRules = `RULES:
1. Translate the user's intent into this specific English template structure
2. Ensure all bracketed placeholders are filled with rich, descriptive details
3. Translate any specific cultural or object references appropriately
4. Provide ONLY the final prompt in English, no explanations`

const defaultEditStyle = "modify"

var editStyles = map[string]styleTemplate{
	"modify": {
		instruction: `You are an expert AI image editing prompt engineer. Your task is to create editing instructions for Gemini (Nano Banana) using a specific template for adding/removing/modifying elements.`,
		template:    `"Using the provided image of [subject], please [add/remove/modify] [element] to/from the scene. Ensure the change is [description of how the change should integrate]."`,
	},
	"retouch": {
		instruction: `You are an expert AI image retouching specialist. Your task is to create semantic masking/retouching prompts for Gemini (Nano Banana) using a specific template.`,
		template:    `"Using the provided image, change only the [specific element] to [new element/description]. Keep everything else in the image exactly the same, preserving the original style, lighting, and composition."`,
	},
	"style-transfer": {
		instruction: `You are an expert AI art style transfer specialist. Your task is to create style transfer prompts for Gemini (Nano Banana) using a specific template.`,
		template:    `"Transform the provided photograph of [subject] into the artistic style of [artist/art style]. Preserve the original composition but render it with [description of stylistic elements]."`,
	},
	"composition": {
		instruction: `You are an expert AI image compositor. Your task is to create image combination/composition prompts for Gemini (Nano Banana) using a specific template.`,
		template:    `"Create a new image by combining the elements from the provided images. Take the [element from image 1] and place it with/on the [element from image 2]. The final image should be a [description of the final scene]."`,
	},
}

const editRules = `RULES:
1. Identify the subject, action, and elements from the user's request
2. Describe how the change should integrate (lighting, style, perspective)
3. Provide ONLY the final prompt in English, no explanations`

func translateTemplate(text, languageName string) template {
	return template{
		system: translateSystem,
		prompt: fmt.Sprintf("Translate the following text to %s. Respond only with the translation, no explanations or additional text:\n\n%s", languageName, text),
	}
}

func correctTemplate(text, languageName string) template {
	return template{
		system: correctSystem,
		prompt: fmt.Sprintf("Correct the following text in %s. Fix spelling errors, grammar mistakes, punctuation, and improve style while maintaining the original meaning. Respond only with the corrected text:\n\n%s", languageName, text),
	}
}

func transcribeTemplate(languageName string) template {
	return template{
		system: transcribeSystem,
		prompt: fmt.Sprintf(transcribePrompt, languageName),
	}
}

// ParsePromptType splits a type tag such as "nanobanana-gen:sticker" into its kind
// and style. An empty tag is an image prompt.
func ParsePromptType(typeTag string) (kind, style string) {
	kind, style, _ = strings.Cut(strings.TrimSpace(typeTag), ":")
	if kind == "" {
		kind = PromptTypeImage
	}
	return kind, style
}

// GenerationStyles lists the nanobanana generation styles
func GenerationStyles() []string {
	return []string{"photorealistic", "sticker", "logo", "product", "minimalist", "comic"}
}

// EditStyles lists the nanobanana editing styles
func EditStyles() []string {
	return []string{"modify", "retouch", "style-transfer", "composition"}
}

func promptTemplate(text, languageName, typeTag string) template {
	kind, style := ParsePromptType(typeTag)

	switch kind {
	case PromptTypeVideo:
		return template{
			system: videoSystem,
			prompt: fmt.Sprintf("Improve the following video generation prompt and translate it to %s. Focus on camera movement, specific action, motion dynamics, physics, and cinematic style. Respond only with the improved prompt:\n\n%s", languageName, text),
		}

	case PromptTypeNanobananaGen:
		if style == "" {
			style = defaultGenStyle
		}
		selected, ok := genStyles[style]
		if !ok {
			selected = genStyles[defaultGenStyle]
		}
		return template{
			system: selected.instruction + "\n\nTEMPLATE TO FOLLOW:\n" + selected.template + "\n\n" + genRules,
			prompt: fmt.Sprintf("Convert the following description into a high-quality Gemini image generation prompt using the required template (%s). The target language for the prompt content should be English (as required by the model), but capture the essence of: \"%s\"", style, text),
		}

	case PromptTypeNanobananaEdit:
		if style == "" {
			style = defaultEditStyle
		}
		selected, ok := editStyles[style]
		if !ok {
			selected = editStyles[defaultEditStyle]
		}
		return template{
			system: selected.instruction + "\n\nTEMPLATE TO FOLLOW:\n" + selected.template + "\n\n" + editRules,
			prompt: fmt.Sprintf("Convert the following editing request into a precise Gemini image editing prompt using the required template (%s). Request: \"%s\"", style, text),
		}

	default:
		return template{
			system: imageSystem,
			prompt: fmt.Sprintf("Improve the following image generation prompt and translate it to %s. Make it more detailed, artistic, and effective for AI image generation. Focus on visual details, style, composition, lighting, and atmosphere. Respond only with the improved prompt:\n\n%s", languageName, text),
		}
	}
}
