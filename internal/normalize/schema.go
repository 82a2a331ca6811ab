package normalize

import "careersetu/listing-service/internal/model"

// Schema maps one upstream record shape onto the canonical Listing. Each
// field lists candidate keys in preference order; the first key present in a
// record wins, so an explicit company_name beats a recruiter display name
// which beats a generic fallback.
type Schema struct {
	Category model.Category

	IDKeys          []string
	TitleKeys       []string
	OrgKeys         []string
	DescriptionKeys []string
	LocationKeys    []string

	// TagKeys fold into Listing.Tags: array values are spread, scalar
	// values (job type, work mode) appended as single tags.
	TagKeys []string

	MinSalaryKeys      []string
	MaxSalaryKeys      []string
	CombinedSalaryKeys []string
	CurrencyKeys       []string

	// NumericKeys maps a canonical numeric facet name to its candidate keys.
	NumericKeys map[string][]string

	PostedKeys   []string
	DeadlineKeys []string
}

// JobSchema covers the private job and government exam feeds, which expose a
// mix of snake_case and camelCase keys depending on which backend produced
// the record.
var JobSchema = Schema{
	Category:        model.CategoryJob,
	IDKeys:          []string{"id", "_id"},
	TitleKeys:       []string{"job_title", "title"},
	OrgKeys:         []string{"company_name", "company", "recruiter_name"},
	DescriptionKeys: []string{"job_description", "description", "shortDescription"},
	LocationKeys:    []string{"location"},
	TagKeys:         []string{"required_skills", "requiredSkills", "job_type", "jobType", "work_mode", "workMode"},
	MinSalaryKeys:   []string{"min_salary", "minSalary"},
	MaxSalaryKeys:   []string{"max_salary", "maxSalary"},
	CombinedSalaryKeys: []string{"salary"},
	CurrencyKeys:       []string{"currency"},
	NumericKeys: map[string][]string{
		"experience": {"experience_years", "min_experience", "minExperience"},
	},
	PostedKeys:   []string{"created_at", "createdAt", "datePosted"},
	DeadlineKeys: []string{"application_deadline", "deadline"},
}

// CandidateSchema covers recruiter-side profile search results.
var CandidateSchema = Schema{
	Category:        model.CategoryCandidate,
	IDKeys:          []string{"id", "_id"},
	TitleKeys:       []string{"name", "full_name"},
	OrgKeys:         []string{"current_company", "company"},
	DescriptionKeys: []string{"headline", "summary", "bio"},
	LocationKeys:    []string{"location", "city"},
	TagKeys:         []string{"skills", "courses"},
	NumericKeys: map[string][]string{
		"experience": {"experience_years", "experience"},
	},
	PostedKeys: []string{"created_at", "updated_at"},
}

// CollegeSchema covers the admissions feed.
var CollegeSchema = Schema{
	Category:        model.CategoryCollege,
	IDKeys:          []string{"id", "slug"},
	TitleKeys:       []string{"name", "college_name"},
	DescriptionKeys: []string{"details", "overview"},
	LocationKeys:    []string{"location", "city"},
	TagKeys:         []string{"courses", "degree", "branch", "studyMode"},
	MinSalaryKeys:   []string{"fee"},
	NumericKeys: map[string][]string{
		"rating": {"rating"},
	},
	DeadlineKeys: []string{"admission_deadline", "deadline"},
}
