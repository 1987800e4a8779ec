// Package prompt builds the instructions sent to the vision/language model.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nova-ar/arbackend/internal/knowledge"
	"github.com/nova-ar/arbackend/internal/object"
)

var ErrUnknownCategory = errors.New("unknown question category")

// FallbackFact stands in for the grounding description of objects the knowledge base does not cover.
const FallbackFact = "It is a common object found at home or at school."

// UnknownObject is what the identification prompt asks the model to answer when nothing sits on the marker.
const UnknownObject = "unknown"

// objectRules applies to every Q&A prompt. The disambiguation list is fixed on purpose: the app only shows
// household items and school supplies.
const objectRules = `The student is holding an object named '%[1]s'.
Always interpret '%[1]s' as an inanimate object, tool, electronic device, or school supply.
Never describe it as an animal, a living creature, or a person.
- If the object is 'mouse', it is a computer mouse, not a rat.
- If the object is 'bat', it is a baseball bat, not a flying mammal.
- If the object is 'crane', it is a machine, not a bird.
`

const answerRules = `Reply with one short sentence in simple English only.
Do not greet. Do not translate. Do not write "According to the book", "Translation:", or any other comment about your answer.
Use simple words. Add commas (,) often to create natural reading pauses.`

// Build returns the model instruction for a question about objectName. entry may be nil.
func Build(category object.Category, objectName, question string, entry *knowledge.Entry) (string, error) {
	var b strings.Builder
	b.WriteString("You are a friendly teacher explaining a physical object to a 10-year-old student learning English.\n")
	fmt.Fprintf(&b, objectRules, objectName)

	switch category {
	case object.CategoryDefinition:
		fmt.Fprintf(&b, "Reference fact: %s\n", description(entry))
		fmt.Fprintf(&b, "Task: Explain what a %s is, using ONLY the reference fact above.\n", objectName)
	case object.CategoryFunction:
		fmt.Fprintf(&b, "Reference fact: %s\n", description(entry))
		fmt.Fprintf(&b, "Task: Explain what a %s is used for, using ONLY the reference fact above.\n", objectName)
	case object.CategorySentence:
		if entry != nil && entry.ExampleSentence != "" {
			fmt.Fprintf(&b, "Reference sentence: %s\n", entry.ExampleSentence)
			b.WriteString("Task: Write the reference sentence above in English.\n")
		} else {
			fmt.Fprintf(&b, "Task: Make a simple sentence that contains the word '%s'.\n", objectName)
		}
	case object.CategorySpelling:
		fmt.Fprintf(&b, "Task: Spell the word '%s' letter by letter. Separate each letter with a period and a space, "+
			"for example: B. O. O. K. Only reply with the spelling.\n", objectName)
		return b.String(), nil
	case object.CategoryCustom:
		if entry != nil {
			fmt.Fprintf(&b, "Reference fact: %s\n", description(entry))
			if entry.ExampleSentence != "" {
				fmt.Fprintf(&b, "Reference sentence: %s\n", entry.ExampleSentence)
			}
		} else {
			b.WriteString("Reference fact: none is available for this object.\n")
		}
		fmt.Fprintf(&b, "Student's question: '%s'\n", question)
		b.WriteString("Task: Answer the question using the reference above. If the reference does not cover what is asked, " +
			"answer from general knowledge. Never say that no information was found.\n")
	default:
		return "", fmt.Errorf("%q: %w", category, ErrUnknownCategory)
	}

	b.WriteString(answerRules)
	return b.String(), nil
}

func description(entry *knowledge.Entry) string {
	if entry == nil || entry.Description == "" {
		return FallbackFact
	}
	return entry.Description
}

// IdentifyObject asks for the English name of the object placed on the AR marker.
func IdentifyObject() string {
	return `You are the backend of an augmented-reality app that teaches English.
Identify the object found in a bedroom or living room that is placed ON the marker.
Ignore the background. If the text "taruh benda di sini" on the marker is clearly visible and not covered by any object, reply "` + UnknownObject + `".
Reply ONLY with the singular English name of the object in lowercase, for example: book, lamp, eraser.`
}

// AskAboutImage answers a free question about a photo.
func AskAboutImage(question string) string {
	return fmt.Sprintf(`Look at this image and answer the student's question: "%s"
Answer in VERY SHORT English that suits a 10-year-old. Do not greet, give the answer directly.
Use simple words. Add commas (,) often to create natural reading pauses.`, question)
}
