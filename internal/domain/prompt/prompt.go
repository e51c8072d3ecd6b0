// Package prompt assembles the system and user prompts sent to the planning
// agent. The system prompt pins the agent's output to the section headers of
// a registry, so the downstream classifier can rely on the very first output
// line being the bootstrap header.
package prompt

import (
	"fmt"
	"strings"

	"github.com/codeverse-ai/codeverse/internal/domain/section"
)

const firstIterationPlanGuidelines = `- Produce a clear, organized outline breaking down the development into modules or tasks.
- Include structure, key steps, dependencies, technology stack, code architecture, and testing strategy.
- Use a **plan-and-solve** approach: first outline the overall plan, then optionally detail sub-steps.`

const refinementPlanGuidelines = `- Review the previous plan and incorporate insights from the user's raw notes.
- Refine, expand, or modify the plan based on the new information provided.
- Address answered clarifying questions by updating the relevant plan sections.
- Maintain a structured approach: modules/tasks, dependencies, architecture, testing strategy.
- Use a **plan-and-solve** approach: first outline the overall updated plan, then detail sub-steps.`

const firstIterationClarifyGuidelines = `- List any important missing information that would impact the plan's accuracy.
- Focus on user experience, feature edge cases, data inputs/outputs,
  integration requirements, constraints, or any ambiguity.
- No more than 8 clarifying questions; choose only the most important.`

const refinementClarifyGuidelines = `- Remove any questions that have been answered.
- Add new questions that arise from the updated context or user notes.
- Focus on remaining uncertainties about user experience, feature edge cases,
  data inputs/outputs, integration requirements, or constraints.
- No more than 8 clarifying questions total; prioritize the most important ones.`

// BuildSystem returns the system prompt for a generation call. The first
// iteration asks for a fresh plan; later iterations ask for a refinement of
// the previous one. Either way the agent is instructed to start its very
// first output line with the bootstrap section's header, with nothing before
// it; the classifier's bootstrap phase depends on that contract.
func BuildSystem(reg *section.Registry, firstIteration bool) string {
	planName, _ := reg.ByName(section.NamePlanName)
	plan, _ := reg.ByName(section.NamePlan)
	clarify, _ := reg.ByName(section.NameClarifyQuestions)

	var b strings.Builder

	b.WriteString("You are an AI agent assistant specialized in helping developers draft high-quality implementation plans. ")
	if firstIteration {
		b.WriteString("Given the user's raw notes below, produce the output using the following strict format:\n")
	} else {
		b.WriteString("This is NOT the first iteration - you are reviewing and refining an existing plan based on additional context from the user.\n\n")
		b.WriteString("You will be provided with:\n")
		b.WriteString("1. **Previous Plan Draft** - The current plan that needs review\n")
		b.WriteString("2. **Previous Clarifying Questions** - Questions that were asked before\n")
		b.WriteString("3. **User Raw Notes** - Additional context, answers, or modifications from the user\n")
	}

	nameAdj := "concise"
	planNoun := "plan"
	clarifyEnding := "."
	if !firstIteration {
		nameAdj = "refined"
		planNoun = "updated plan"
		clarifyEnding = " with the remaining/open questions only."
	}

	fmt.Fprintf(&b, `
Formatting requirements (critical):
- The very first line of your response must be exactly: `+"`%s`"+`.
- Do not include anything before that first line (no preface, greetings, or metadata).
- On the next line, write a %s, descriptive name for this implementation plan.
- Follow with a blank line, then a section titled `+"`%s`"+`.
- Under that heading, write the %s content in Markdown.
- Conclude with a section titled `+"`%s`"+`%s
- Do not use emojis in your response.

Plan name guidelines:
- Suggest a clear name that captures the essence of the project.
- Keep it concise but informative (e.g., "Modern Task Management Web App").
- EXAMPLE FORMAT:
`+"  ```"+`
  %s
  Smart Developer Task Management Platform

  %s
  [%s content here]
`+"  ```"+`

Plan content guidelines:
%s

Clarifying questions guidelines:
%s
`,
		planName.Header, nameAdj, plan.Header, planNoun, clarify.Header, clarifyEnding,
		planName.Header, plan.Header, planNoun,
		planGuidelines(firstIteration), clarifyGuidelines(firstIteration))

	return b.String()
}

func planGuidelines(firstIteration bool) string {
	if firstIteration {
		return firstIterationPlanGuidelines
	}
	return refinementPlanGuidelines
}

func clarifyGuidelines(firstIteration bool) string {
	if firstIteration {
		return firstIterationClarifyGuidelines
	}
	return refinementClarifyGuidelines
}

// BuildUserContent returns the user-message text for a generation call. On
// the first iteration it is the raw notes alone; on refinements the previous
// plan draft and previous clarifying questions are appended under delimited
// headings so the agent can revise rather than start over.
func BuildUserContent(notes, prevPlan, prevQuestions string) string {
	if prevPlan == "" && prevQuestions == "" {
		return notes
	}

	var b strings.Builder
	b.WriteString("## User Raw Notes\n")
	b.WriteString(notes)
	if prevPlan != "" {
		b.WriteString("\n\n## Previous Plan Draft\n")
		b.WriteString(prevPlan)
	}
	if prevQuestions != "" {
		b.WriteString("\n\n## Previous Clarifying Questions\n")
		b.WriteString(prevQuestions)
	}
	return b.String()
}
