package flow

import (
	"fmt"

	"github.com/BTreeMap/Pathfinder/internal/models"
)

const promptHeader = `Create a detailed learning roadmap for achieving the following goal. Return the response as a JSON object with the exact structure I will specify:

Goal: %s
Current Level: %s
Timeframe: %s
Learning Style: %s
Background: %s
Preferred Resources: %s

Please return a JSON object with this exact structure:
`

// roadmapSchemaExample is embedded verbatim so the model mirrors the field names models.Roadmap decodes.
const roadmapSchemaExample = `{
  "title": "Learning goal title",
  "overview": {
    "duration": "timeframe from user input",
    "level": "current level from user input",
    "style": "learning style from user input"
  },
  "phases": [
    {
      "id": "phase1",
      "title": "Phase title",
      "duration": "Duration like 'Weeks 1-2'",
      "color": "bg-blue-500",
      "objective": "Main objective of this phase",
      "activities": ["Activity 1", "Activity 2", "Activity 3", "Activity 4"],
      "milestones": ["Milestone 1", "Milestone 2", "Milestone 3"],
      "resources": ["Resource 1", "Resource 2", "Resource 3"]
    },
    {
      "id": "phase2",
      "title": "Phase title",
      "duration": "Duration like 'Weeks 3-4'",
      "color": "bg-green-500",
      "objective": "Main objective of this phase",
      "activities": ["Activity 1", "Activity 2", "Activity 3", "Activity 4"],
      "milestones": ["Milestone 1", "Milestone 2", "Milestone 3"],
      "resources": ["Resource 1", "Resource 2", "Resource 3"]
    },
    {
      "id": "phase3",
      "title": "Phase title",
      "duration": "Duration like 'Weeks 5-6'",
      "color": "bg-purple-500",
      "objective": "Main objective of this phase",
      "activities": ["Activity 1", "Activity 2", "Activity 3", "Activity 4"],
      "milestones": ["Milestone 1", "Milestone 2", "Milestone 3"],
      "resources": ["Resource 1", "Resource 2", "Resource 3"]
    },
    {
      "id": "phase4",
      "title": "Phase title",
      "duration": "Duration like 'Weeks 7-8'",
      "color": "bg-orange-500",
      "objective": "Main objective of this phase",
      "activities": ["Activity 1", "Activity 2", "Activity 3", "Activity 4"],
      "milestones": ["Milestone 1", "Milestone 2", "Milestone 3"],
      "resources": ["Resource 1", "Resource 2", "Resource 3"]
    }
  ],
  "schedule": {
    "monday": "Activity description",
    "tuesday": "Activity description",
    "wednesday": "Activity description",
    "thursday": "Activity description",
    "friday": "Activity description",
    "saturday": "Activity description",
    "sunday": "Activity description"
  },
  "tips": ["Tip 1", "Tip 2", "Tip 3", "Tip 4", "Tip 5"],
  "checkpoints": [
    {"week": 3, "task": "Assessment task"},
    {"week": 6, "task": "Assessment task"},
    {"week": 9, "task": "Assessment task"},
    {"week": 12, "task": "Assessment task"}
  ]
}`

const promptFooter = `

Make sure to provide specific, actionable content based on the user's goal and preferences. Return only the JSON object, no additional text.`

// BuildPrompt renders the form into the generation instructions. It depends on nothing but f.
func BuildPrompt(f models.FormInput) string {
	return fmt.Sprintf(promptHeader, f.Goal, f.CurrentLevel, f.Timeframe, f.LearningStyle, f.Background, f.Resources) +
		roadmapSchemaExample +
		promptFooter
}
