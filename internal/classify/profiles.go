package classify

// Domain tags of the default table.
const (
	Technical           Domain = "technical"
	Creative            Domain = "creative"
	Business            Domain = "business"
	Finance             Domain = "finance"
	Academic            Domain = "academic"
	Career              Domain = "career"
	HR                  Domain = "hr"
	Personal            Domain = "personal"
	Fitness             Domain = "fitness"
	Health              Domain = "health"
	Relationships       Domain = "relationships"
	Hobbies             Domain = "hobbies"
	MentalHealth        Domain = "mental_health"
	PersonalDevelopment Domain = "personal_development"
	Education           Domain = "education"
)

// DefaultProfiles returns the built-in keyword table in tie-break order.
func DefaultProfiles() []Profile {
	return []Profile{
		{Technical, 1.2, []string{
			"code", "coding", "program", "python", "javascript", "typescript", "golang", "java",
			"function", "bug", "debug", "api", "database", "sql", "algorithm", "server", "deploy",
			"software", "script", "compile", "error", "framework", "docker", "kubernetes", "git", "refactor",
		}},
		{Creative, 1.0, []string{
			"write", "story", "poem", "poetry", "novel", "fiction", "character", "plot", "creative",
			"screenplay", "lyrics", "song", "narrative", "fantasy", "dialogue", "scene", "artwork", "illustration",
		}},
		{Business, 1.0, []string{
			"business", "startup", "marketing", "strategy", "sales", "customer", "product", "revenue",
			"market", "brand", "pitch", "competitor", "stakeholder", "b2b", "saas", "growth",
		}},
		{Finance, 1.1, []string{
			"finance", "financial", "invest", "stock", "budget", "money", "tax", "loan", "mortgage",
			"retirement", "savings", "crypto", "portfolio", "dividend", "expense", "debt",
		}},
		{Academic, 1.0, []string{
			"research", "thesis", "essay", "paper", "citation", "literature review", "hypothesis",
			"dissertation", "journal", "academic", "peer review", "methodology", "abstract",
		}},
		{Career, 1.0, []string{
			"resume", "cv", "cover letter", "interview", "job", "career", "promotion", "salary",
			"linkedin", "hiring manager", "recruiter", "internship",
		}},
		{HR, 1.0, []string{
			"employee", "onboarding", "performance review", "hr", "human resources", "payroll",
			"benefits", "policy", "workplace", "termination", "recruitment", "compliance",
		}},
		{Personal, 0.8, []string{
			"my life", "personal", "family", "home", "travel", "vacation", "birthday", "wedding",
			"gift", "plan my", "daily routine",
		}},
		{Fitness, 1.0, []string{
			"workout", "exercise", "gym", "fitness", "muscle", "cardio", "running", "strength",
			"training plan", "reps", "yoga", "marathon",
		}},
		{Health, 1.1, []string{
			"health", "doctor", "symptom", "diet", "nutrition", "sleep", "medication", "disease",
			"illness", "pain", "calorie", "medical",
		}},
		{Relationships, 1.0, []string{
			"relationship", "partner", "dating", "boyfriend", "girlfriend", "husband", "wife",
			"marriage", "breakup", "friendship", "romantic", "spouse",
		}},
		{Hobbies, 0.9, []string{
			"hobby", "garden", "cooking", "recipe", "photography", "painting", "knitting", "gaming",
			"guitar", "woodworking", "fishing", "chess",
		}},
		{MentalHealth, 1.2, []string{
			"anxiety", "depression", "stress", "therapy", "therapist", "mental health", "burnout",
			"panic", "lonely", "overwhelmed", "self-esteem", "mindfulness",
		}},
		{PersonalDevelopment, 0.9, []string{
			"habit", "productivity", "motivation", "goal setting", "self-improvement", "discipline",
			"confidence", "time management", "mindset", "procrastination", "growth mindset",
		}},
		{Education, 1.0, []string{
			"learn", "teach", "student", "lesson", "course", "tutorial", "study", "homework", "exam",
			"curriculum", "classroom", "explain",
		}},
	}
}
