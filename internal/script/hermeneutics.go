package script

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/abhisek/lectern/internal/lesson"
)

// HermeneuticsCourse is the course id the Hermeneutics strategy serves.
const HermeneuticsCourse = "hermeneutics_i"

const (
	snippetWords   = 24
	defaultSnippet = "read the passage carefully and trace its internal flow."
	defaultContext = "The author writes to a concrete audience in a specific covenant and historical setting that controls meaning."
)

var bookContext = map[string]string{
	"mark":          "Mark writes to present Jesus with urgency and authority, strengthening believers facing pressure by showing who Jesus is and what discipleship costs.",
	"philippians":   "Paul writes from imprisonment to encourage a church he loves, calling them to joy, unity, and steady obedience in Christ.",
	"jeremiah":      "Jeremiah addresses God's covenant people in crisis, applying covenant faithfulness to the realities of exile and false hope.",
	"psalm":         "The psalmist uses wisdom poetry to shape the reader's imagination and allegiance through contrast, imagery, and meditation on God's instruction.",
	"psalms":        "The psalmist uses wisdom poetry to shape the reader's imagination and allegiance through contrast, imagery, and meditation on God's instruction.",
	"hosea":         "Hosea speaks to a covenant-breaking people, exposing unfaithfulness while revealing God's persistent covenant love.",
	"matthew":       "Matthew presents Jesus as the fulfillment of Scripture, showing continuity between Israel's story and the Messiah's mission.",
	"1 corinthians": "Paul corrects a divided church, applying the gospel to real ethical and communal problems with pastoral clarity.",
	"luke":          "Luke provides an orderly account to give certainty, highlighting God's saving purposes in history and the inclusive scope of the gospel.",
	"deuteronomy":   "Moses renews covenant instruction for Israel before entering the land, pressing wholehearted covenant loyalty in daily life.",
	"micah":         "Micah brings covenant lawsuit language to expose injustice and call God's people to faithful covenant response.",
	"ephesians":     "Paul explains identity in Christ and then applies it to a unified, holy life shaped by grace.",
	"john":          "John selects signs and discourses so readers may believe Jesus is the Christ and have life in His name.",
	"romans":        "Paul explains the gospel's saving righteousness and its implications for faith, community, and transformed living.",
	"hebrews":       "The writer exhorts wavering believers to persevere by showing Christ's final and superior priestly work.",
	"acts":          "Luke narrates the Spirit-empowered witness of the early church, showing how the gospel advances through tested proclamation.",
	"proverbs":      "Proverbs trains readers in covenant wisdom by giving concise principles for discernment and faithful judgment.",
	"2 timothy":     "Paul's final charge to Timothy emphasizes Scripture's authority for endurance, ministry, and faithful teaching under pressure.",
}

// chapterSuffix matches the chapter and verse part of a reference.
var chapterSuffix = regexp.MustCompile(`\s+\d.*$`)

// Hermeneutics composes scripts for the hermeneutics course from the
// lesson's required passages, title and objective. The reading segment and
// any unknown segment type speak the stored script.
type Hermeneutics struct{}

func (Hermeneutics) Script(seg lesson.Segment, l *lesson.Lesson) string {
	var (
		title     = "this lesson"
		objective string
		passages  []lesson.Passage
	)
	if l != nil {
		if l.Title != "" {
			title = l.Title
		}
		objective = l.Objective
		passages = l.RequiredPassages
	}
	refs := referenceText(passages)

	switch seg.Type {
	case lesson.SegmentOrientation:
		return fmt.Sprintf("Welcome to %s. Today we work in %s. %s We will move from observation to context, then analysis and synthesis grounded in the text.",
			title, refs, objective)
	case lesson.SegmentContext:
		return contextScript(passages, seg.AudioScript)
	case lesson.SegmentAnalysis:
		var first *lesson.Passage
		if len(passages) > 0 {
			first = &passages[0]
		}
		return fmt.Sprintf("Structure analysis for %s: start with the main claim, trace supporting lines, and mark transitions that connect each sentence. Text focus: %s From that structure, explain why the author's flow supports the intended meaning.",
			refs, snippet(first))
	case lesson.SegmentThemes:
		return fmt.Sprintf("Key themes in %s: identify the central theological idea, the practical implication for the original audience, and repeated terms that reinforce the author's purpose. Keep every theme tied to explicit wording in the passage.",
			refs)
	case lesson.SegmentQuestion:
		return fmt.Sprintf("Review question for %s: What is the author's main intention in this text, and which sentence connections best support your conclusion? Answer from the passage wording, not from assumptions.",
			refs)
	case lesson.SegmentClose:
		return fmt.Sprintf("You completed %s in %s. Keep this method: read closely, explain author intention in context, analyze structure, then state themes with textual evidence.",
			title, refs)
	default:
		return seg.AudioScript
	}
}

func referenceText(passages []lesson.Passage) string {
	var refs []string
	for _, p := range passages {
		if p.Reference != "" {
			refs = append(refs, p.Reference)
		}
	}
	if len(refs) == 0 {
		return "the assigned passage"
	}
	return strings.Join(refs, " and ")
}

// snippet returns the first words of a passage's text.
func snippet(p *lesson.Passage) string {
	if p == nil {
		return defaultSnippet
	}
	words := strings.Fields(p.Text)
	if len(words) == 0 {
		return defaultSnippet
	}
	truncated := len(words) >= snippetWords
	if truncated {
		words = words[:snippetWords]
	}
	s := strings.Join(words, " ")
	if truncated {
		s += "..."
	}
	return s
}

func contextScript(passages []lesson.Passage, fallback string) string {
	if len(passages) == 0 {
		return fallback
	}
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		ref := p.Reference
		if ref == "" {
			ref = "this passage"
		}
		ctx, ok := bookContext[strings.ToLower(BookOf(ref))]
		if !ok {
			ctx = defaultContext
		}
		parts = append(parts, ref+": "+ctx)
	}
	return "Context for this text: " + strings.Join(parts, " ") +
		" For this command, focus on author intention in the specific passage, original audience situation, and how that context governs interpretation."
}

// BookOf strips the chapter and verse from a reference: "1 Corinthians 13:4"
// becomes "1 Corinthians".
func BookOf(reference string) string {
	return strings.TrimSpace(chapterSuffix.ReplaceAllString(reference, ""))
}
