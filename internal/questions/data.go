package questions

import "github.com/kalambet/promptlift/internal/classify"

func opts(pairs ...string) []Answer {
	out := make([]Answer, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Answer{Label: pairs[i], Value: pairs[i+1]})
	}
	return out
}

// DefaultEntries returns the built-in question lists.
func DefaultEntries() map[classify.Domain][]Question {
	return map[classify.Domain][]Question{
		classify.General: {
			{ID: "q1", Text: "What is the main goal of this request?", Answers: opts(
				"Get information", "information", "Create something", "create", "Solve a problem", "solve", "Make a decision", "decide")},
			{ID: "q2", Text: "How detailed should the response be?", Answers: opts(
				"Brief overview", "brief", "Moderate detail", "moderate", "Comprehensive", "comprehensive")},
			{ID: "q3", Text: "Who is the intended audience?", Answers: opts(
				"Just me", "self", "Beginners", "beginners", "Professionals", "professionals", "General public", "public")},
		},
		classify.Technical: {
			{ID: "tech_lang", Text: "Which language or stack are you working with?", Answers: opts(
				"Python", "python", "JavaScript / TypeScript", "javascript", "Go", "go", "Java", "java", "Other", "other")},
			{ID: "tech_level", Text: "What is your experience level?", Answers: opts(
				"Beginner", "beginner", "Intermediate", "intermediate", "Expert", "expert")},
			{ID: "tech_output", Text: "What kind of output do you need?", Answers: opts(
				"Working code", "code", "Explanation", "explanation", "Code review", "review", "Architecture advice", "architecture")},
			{ID: "tech_constraints", Text: "Are there constraints such as performance, versions or dependencies?", Answers: nil},
		},
		classify.Creative: {
			{ID: "creative_format", Text: "What format should the piece take?", Answers: opts(
				"Short story", "short_story", "Poem", "poem", "Script", "script", "Song lyrics", "lyrics")},
			{ID: "creative_tone", Text: "What tone are you going for?", Answers: opts(
				"Serious", "serious", "Humorous", "humorous", "Dark", "dark", "Uplifting", "uplifting")},
			{ID: "creative_length", Text: "How long should it be?", Answers: opts(
				"Under 300 words", "short", "300 to 1000 words", "medium", "Over 1000 words", "long")},
			{ID: "creative_audience", Text: "Who is the audience?", Answers: opts(
				"Children", "children", "Young adults", "young_adults", "Adults", "adults")},
		},
		classify.Business: {
			{ID: "biz_stage", Text: "What stage is the business at?", Answers: opts(
				"Idea", "idea", "Early startup", "startup", "Growing", "growth", "Established", "established")},
			{ID: "biz_goal", Text: "What outcome matters most?", Answers: opts(
				"Revenue", "revenue", "Customer acquisition", "acquisition", "Efficiency", "efficiency", "Fundraising", "fundraising")},
			{ID: "biz_deliverable", Text: "What deliverable do you need?", Answers: opts(
				"Strategy", "strategy", "Plan with milestones", "plan", "Pitch or copy", "copy", "Analysis", "analysis")},
		},
		classify.Finance: {
			{ID: "fin_horizon", Text: "What is your time horizon?", Answers: opts(
				"Under 1 year", "short", "1 to 5 years", "medium", "Over 5 years", "long")},
			{ID: "fin_risk", Text: "What is your risk tolerance?", Answers: opts(
				"Low", "low", "Moderate", "moderate", "High", "high")},
			{ID: "fin_region", Text: "Which country's rules apply (tax, accounts)?", Answers: nil},
		},
		classify.Academic: {
			{ID: "acad_level", Text: "What academic level is this for?", Answers: opts(
				"High school", "high_school", "Undergraduate", "undergraduate", "Graduate", "graduate", "Research", "research")},
			{ID: "acad_task", Text: "What do you need help with?", Answers: opts(
				"Outline", "outline", "Writing", "writing", "Editing", "editing", "Literature search", "literature")},
			{ID: "acad_citation", Text: "Which citation style is required?", Answers: opts(
				"APA", "apa", "MLA", "mla", "Chicago", "chicago", "None", "none")},
		},
		classify.Career: {
			{ID: "career_stage", Text: "Where are you in your career?", Answers: opts(
				"Student or graduate", "entry", "Mid-level", "mid", "Senior", "senior", "Changing careers", "change")},
			{ID: "career_target", Text: "What role or industry are you targeting?", Answers: nil},
			{ID: "career_material", Text: "What are you working on?", Answers: opts(
				"Resume", "resume", "Cover letter", "cover_letter", "Interview preparation", "interview", "Negotiation", "negotiation")},
		},
		classify.HR: {
			{ID: "hr_perspective", Text: "Are you writing as an employer or an employee?", Answers: opts(
				"Employer or manager", "employer", "HR professional", "hr", "Employee", "employee")},
			{ID: "hr_company_size", Text: "How large is the organisation?", Answers: opts(
				"Under 50 people", "small", "50 to 500", "medium", "Over 500", "large")},
			{ID: "hr_document", Text: "What should the result be?", Answers: opts(
				"Policy", "policy", "Email or announcement", "communication", "Process", "process", "Advice", "advice")},
		},
		classify.Personal: {
			{ID: "personal_goal", Text: "What would a good outcome look like for you?", Answers: nil},
			{ID: "personal_timeframe", Text: "When does this need to happen?", Answers: opts(
				"This week", "week", "This month", "month", "No deadline", "none")},
			{ID: "personal_budget", Text: "Is there a budget to stay within?", Answers: opts(
				"Tight", "tight", "Moderate", "moderate", "Flexible", "flexible")},
		},
		classify.Fitness: {
			{ID: "fit_level", Text: "What is your current fitness level?", Answers: opts(
				"Beginner", "beginner", "Intermediate", "intermediate", "Advanced", "advanced")},
			{ID: "fit_goal", Text: "What is your primary goal?", Answers: opts(
				"Lose weight", "weight_loss", "Build muscle", "muscle", "Endurance", "endurance", "General health", "general")},
			{ID: "fit_equipment", Text: "What equipment do you have?", Answers: opts(
				"None", "none", "Home basics", "home", "Full gym", "gym")},
			{ID: "fit_schedule", Text: "How many days per week can you train?", Answers: opts(
				"1 to 2", "low", "3 to 4", "medium", "5 or more", "high")},
		},
		classify.Health: {
			{ID: "health_topic", Text: "What aspect of health is this about?", Answers: opts(
				"Nutrition", "nutrition", "Sleep", "sleep", "Symptoms", "symptoms", "Chronic condition", "chronic")},
			{ID: "health_context", Text: "Any relevant conditions or medications to consider?", Answers: nil},
			{ID: "health_depth", Text: "How technical should the answer be?", Answers: opts(
				"Plain language", "plain", "Some detail", "moderate", "Clinical detail", "clinical")},
		},
		classify.Relationships: {
			{ID: "rel_type", Text: "What kind of relationship is this about?", Answers: opts(
				"Romantic", "romantic", "Family", "family", "Friendship", "friendship", "Work", "work")},
			{ID: "rel_goal", Text: "What are you hoping for?", Answers: opts(
				"Understand the situation", "understand", "Improve communication", "communicate", "Make a decision", "decide")},
			{ID: "rel_tone", Text: "What tone should the advice have?", Answers: opts(
				"Gentle", "gentle", "Direct", "direct", "Practical", "practical")},
		},
		classify.Hobbies: {
			{ID: "hobby_level", Text: "How experienced are you with this hobby?", Answers: opts(
				"Just starting", "beginner", "Some experience", "intermediate", "Very experienced", "advanced")},
			{ID: "hobby_resources", Text: "What time and budget can you put in?", Answers: nil},
			{ID: "hobby_goal", Text: "What do you want to get out of it?", Answers: opts(
				"Relaxation", "relax", "Skill building", "skill", "A finished project", "project", "Social connection", "social")},
		},
		classify.MentalHealth: {
			{ID: "mh_support", Text: "What kind of support are you looking for?", Answers: opts(
				"Coping strategies", "coping", "Understanding what I feel", "understanding", "Finding professional help", "professional")},
			{ID: "mh_duration", Text: "How long has this been going on?", Answers: opts(
				"Days", "days", "Weeks", "weeks", "Months or longer", "months")},
			{ID: "mh_tone", Text: "How should the response feel?", Answers: opts(
				"Gentle and supportive", "supportive", "Practical and structured", "structured")},
		},
		classify.PersonalDevelopment: {
			{ID: "pd_area", Text: "Which area do you want to develop?", Answers: opts(
				"Habits", "habits", "Productivity", "productivity", "Confidence", "confidence", "Focus", "focus")},
			{ID: "pd_obstacle", Text: "What usually gets in the way?", Answers: nil},
			{ID: "pd_format", Text: "What format would help most?", Answers: opts(
				"Step-by-step plan", "plan", "Daily routine", "routine", "Mindset reframing", "mindset")},
		},
		classify.Education: {
			{ID: "edu_role", Text: "Are you learning or teaching?", Answers: opts(
				"Learning", "learner", "Teaching", "teacher", "Parent helping a child", "parent")},
			{ID: "edu_level", Text: "What level is the material?", Answers: opts(
				"Primary", "primary", "Secondary", "secondary", "University", "university", "Self-study", "self")},
			{ID: "edu_format", Text: "How should it be presented?", Answers: opts(
				"Explanation", "explanation", "Worked examples", "examples", "Practice questions", "practice", "Lesson plan", "lesson_plan")},
		},
	}
}
